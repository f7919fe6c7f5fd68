package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"go.uber.org/zap"
)

type Options struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	Username        string
	Password        string
	Database        string
	DialTimeout     time.Duration
}

type Database struct {
	conn   clickhouse.Conn
	logger *zap.Logger
}

// New opens a native-protocol ClickHouse connection and pings it. The DSN
// may carry query parameters; only the host part is used.
func New(ctx context.Context, opts Options, logger *zap.Logger) (*Database, error) {
	host, _, _ := strings.Cut(opts.DSN, "?")
	if host == "" {
		return nil, fmt.Errorf("clickhouse dsn is empty")
	}

	dialTimeout := opts.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = 30 * time.Second
	}

	conn, err := clickhouse.Open(&clickhouse.Options{
		Protocol: clickhouse.Native,
		Addr:     []string{host},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		Auth: clickhouse.Auth{
			Database: opts.Database,
			Username: opts.Username,
			Password: opts.Password,
		},
		DialTimeout:     dialTimeout,
		MaxOpenConns:    opts.MaxOpenConns,
		MaxIdleConns:    opts.MaxIdleConns,
		ConnMaxLifetime: opts.ConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create clickhouse connection: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}

	logger.Info("connected to clickhouse",
		zap.String("host", host),
		zap.String("database", opts.Database))

	return &Database{
		conn:   conn,
		logger: logger,
	}, nil
}

func (db *Database) Close() error {
	db.logger.Debug("closing clickhouse connection")
	return db.conn.Close()
}

func (db *Database) Conn() clickhouse.Conn {
	return db.conn
}
