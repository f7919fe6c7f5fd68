package migrations

import "skillmatch/common/database/schema"

var CreateJobCatalogTable = schema.Migration{
	Version:     1,
	Description: "Create job_catalog table",
	Up: `
		CREATE TABLE IF NOT EXISTS job_catalog (
			id UUID,
			position UInt32,
			job_title String,
			job_description String,
			required_skills String,
			imported_at DateTime,
			PRIMARY KEY (id)
		) ENGINE = ReplacingMergeTree(imported_at)
		ORDER BY (id)
		SETTINGS index_granularity = 8192
	`,
	Down: `DROP TABLE IF EXISTS job_catalog`,
}

// All lists every migration in version order.
var All = []schema.Migration{
	CreateJobCatalogTable,
}
