package catalog

import (
	"context"
	stderrors "errors"
	"hash/fnv"
	"math/rand"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"skillmatch/services/matching/internal/dataset"
	"skillmatch/services/matching/internal/embedcache"
	"skillmatch/services/matching/internal/models"

	"go.uber.org/zap/zaptest"
)

const testDim = 8

type hashEmbedder struct {
	mu    sync.Mutex
	calls int
	fail  error
}

func (e *hashEmbedder) Dimension() int { return testDim }

func (e *hashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	if e.fail != nil {
		return nil, e.fail
	}
	return hashVector(text), nil
}

func hashVector(text string) []float32 {
	h := fnv.New64a()
	h.Write([]byte(text))
	r := rand.New(rand.NewSource(int64(h.Sum64())))
	v := make([]float32, testDim)
	for i := range v {
		v[i] = float32(r.NormFloat64())
	}
	return v
}

type staticSource struct {
	postings []models.JobPosting
	err      error
}

func (s *staticSource) Name() string { return "static" }

func (s *staticSource) Load(context.Context) ([]models.JobPosting, error) {
	return s.postings, s.err
}

func testPostings() []models.JobPosting {
	rows := [][3]string{
		{"Data Analyst", "Reports and dashboards", "sql,python,excel"},
		{"Backend Engineer", "Builds services", "go,postgres,redis"},
		{"Frontend Engineer", "Builds interfaces", "typescript,react,css"},
		{"ML Engineer", "Trains models", "python,pytorch,sql"},
	}
	out := make([]models.JobPosting, len(rows))
	for i, r := range rows {
		out[i] = models.NewJobPosting(dataset.PostingID(i, r[0], r[1], r[2]), r[0], r[1], r[2])
	}
	return out
}

func newBuilder(t *testing.T, path string, source dataset.Source, embedder Embedder, validate bool) *Builder {
	t.Helper()
	logger := zaptest.NewLogger(t)
	return NewBuilder(source, embedcache.NewStore(path, logger), embedder, BuilderOptions{Validate: validate}, logger)
}

func TestBuildEmbedsAndCaches(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.parquet")
	source := &staticSource{postings: testPostings()}
	embedder := &hashEmbedder{}

	cat, err := newBuilder(t, path, source, embedder, true).Build(context.Background())
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if embedder.calls != 4 {
		t.Errorf("embed calls = %d, want 4", embedder.calls)
	}
	if cat.Len() != 4 || cat.Dim() != testDim {
		t.Errorf("Len() = %d, Dim() = %d", cat.Len(), cat.Dim())
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("cache artifact not written: %v", err)
	}

	// Second run loads the artifact without any remote calls and answers
	// searches identically.
	second := &hashEmbedder{}
	reloaded, err := newBuilder(t, path, source, second, true).Build(context.Background())
	if err != nil {
		t.Fatalf("second Build() error: %v", err)
	}
	if second.calls != 0 {
		t.Errorf("second run made %d embed calls", second.calls)
	}

	for _, p := range testPostings() {
		query := hashVector(p.EmbeddingText())
		want, _ := cat.Nearest(query, 3)
		got, _ := reloaded.Nearest(query, 3)
		if len(got) != len(want) {
			t.Fatalf("result count differs: %d vs %d", len(got), len(want))
		}
		for i := range want {
			if got[i].Posting.ID != want[i].Posting.ID || got[i].Score != want[i].Score {
				t.Errorf("result %d differs: %+v vs %+v", i, got[i], want[i])
			}
		}
		if want[0].Posting.ID != p.ID {
			t.Errorf("self query for %q matched %q", p.Title, want[0].Posting.Title)
		}
	}
}

func TestBuildRebuildsStaleCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.parquet")
	postings := testPostings()

	if _, err := newBuilder(t, path, &staticSource{postings: postings}, &hashEmbedder{}, true).Build(context.Background()); err != nil {
		t.Fatal(err)
	}

	changed := append(append([]models.JobPosting{}, postings...),
		models.NewJobPosting("new", "QA Engineer", "Tests things", "selenium"))

	trusting := &hashEmbedder{}
	cat, err := newBuilder(t, path, &staticSource{postings: changed}, trusting, false).Build(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if trusting.calls != 0 || cat.Len() != 4 {
		t.Errorf("without validation the cache should be trusted: calls=%d len=%d", trusting.calls, cat.Len())
	}

	validating := &hashEmbedder{}
	cat, err = newBuilder(t, path, &staticSource{postings: changed}, validating, true).Build(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if validating.calls != 5 || cat.Len() != 5 {
		t.Errorf("stale cache should be rebuilt: calls=%d len=%d", validating.calls, cat.Len())
	}
}

func TestBuildTrustsCacheWhenDatasetUnavailable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.parquet")
	if _, err := newBuilder(t, path, &staticSource{postings: testPostings()}, &hashEmbedder{}, true).Build(context.Background()); err != nil {
		t.Fatal(err)
	}

	embedder := &hashEmbedder{}
	cat, err := newBuilder(t, path, &staticSource{err: os.ErrNotExist}, embedder, true).Build(context.Background())
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if embedder.calls != 0 || cat.Len() != 4 {
		t.Errorf("calls=%d len=%d", embedder.calls, cat.Len())
	}
}

func TestBuildAbortsOnEmbeddingFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.parquet")
	boom := stderrors.New("max retries exceeded")

	_, err := newBuilder(t, path, &staticSource{postings: testPostings()}, &hashEmbedder{fail: boom}, true).Build(context.Background())
	if !stderrors.Is(err, boom) {
		t.Fatalf("expected embedding failure, got %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("no cache artifact should be written after a failure")
	}
}

func TestLookupIgnoresCaseAndWhitespace(t *testing.T) {
	postings := testPostings()
	for i := range postings {
		postings[i] = postings[i].WithEmbedding(hashVector(postings[i].Title))
	}
	cat, err := New(postings)
	if err != nil {
		t.Fatal(err)
	}

	for _, title := range []string{"Backend Engineer", "backend engineer", " Backend Engineer ", "BACKEND ENGINEER"} {
		p, ok := cat.Lookup(title)
		if !ok || p.Title != "Backend Engineer" {
			t.Errorf("Lookup(%q) = %q, %v", title, p.Title, ok)
		}
	}
	for _, title := range []string{"Backend", "Backend Engineer II", ""} {
		if _, ok := cat.Lookup(title); ok {
			t.Errorf("Lookup(%q) should not match", title)
		}
	}
}

func TestNewRejectsEmptyCatalog(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Error("expected an error")
	}
}

func TestNearestAndSimilarity(t *testing.T) {
	postings := testPostings()
	for i := range postings {
		postings[i] = postings[i].WithEmbedding(hashVector(postings[i].Title))
	}
	cat, err := New(postings)
	if err != nil {
		t.Fatal(err)
	}

	got, err := cat.Nearest(hashVector("ML Engineer"), 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Position != 3 || got[0].Posting.Title != "ML Engineer" {
		t.Fatalf("Nearest() = %+v", got)
	}

	sim, err := cat.Similarity(hashVector("ML Engineer"), 3)
	if err != nil || sim < 0.99999 {
		t.Errorf("Similarity() = %v, %v", sim, err)
	}
	if _, err := cat.Similarity(hashVector("x"), 9); err == nil {
		t.Error("expected out of range error")
	}

	if !reflect.DeepEqual(postings[0].RequiredSkills, []string{"sql", "python", "excel"}) {
		t.Error("postings should keep their skills")
	}
}
