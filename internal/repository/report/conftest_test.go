package report

import (
	"context"
	"testing"
	"time"

	"github.com/kailas-cloud/consdex/internal/db"
	domrep "github.com/kailas-cloud/consdex/internal/domain/report"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	getFn          func(ctx context.Context, key string) ([]byte, error)
	setNXFn        func(ctx context.Context, key string, value []byte) (bool, error)
	incrFn         func(ctx context.Context, key string) (int64, error)
	hsetMultiFn    func(ctx context.Context, items []db.HashSetItem) error
	hgetAllFn      func(ctx context.Context, key string) (map[string]string, error)
	hgetAllMultiFn func(ctx context.Context, keys []string) ([]map[string]string, error)
	scanFn         func(ctx context.Context, pattern string) ([]string, error)
}

func (m *mockStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockStore) SetNX(ctx context.Context, key string, value []byte) (bool, error) {
	if m.setNXFn != nil {
		return m.setNXFn(ctx, key, value)
	}
	return true, nil
}

func (m *mockStore) Incr(ctx context.Context, key string) (int64, error) {
	if m.incrFn != nil {
		return m.incrFn(ctx, key)
	}
	return 1, nil
}

func (m *mockStore) HSetMulti(ctx context.Context, items []db.HashSetItem) error {
	if m.hsetMultiFn != nil {
		return m.hsetMultiFn(ctx, items)
	}
	return nil
}

func (m *mockStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if m.hgetAllFn != nil {
		return m.hgetAllFn(ctx, key)
	}
	return map[string]string{}, nil
}

func (m *mockStore) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	if m.hgetAllMultiFn != nil {
		return m.hgetAllMultiFn(ctx, keys)
	}
	return make([]map[string]string, len(keys)), nil
}

func (m *mockStore) Scan(ctx context.Context, pattern string) ([]string, error) {
	if m.scanFn != nil {
		return m.scanFn(ctx, pattern)
	}
	return nil, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	repo := New(ms, "consdex:")
	return repo, ms
}

func testReport(t *testing.T) domrep.Report {
	t.Helper()
	rep, err := domrep.New(
		"005930", "미래에셋증권", "Buy",
		85000, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	)
	if err != nil {
		t.Fatalf("build test report: %v", err)
	}
	return rep
}

// storedRow returns the hash fields of a persisted report as the store
// would hand them back.
func storedRow(code, firm, ratingRaw, ratingNorm, price, date, created string) map[string]string {
	return map[string]string{
		fieldSecurityCode: code,
		fieldFirm:         firm,
		fieldRatingRaw:    ratingRaw,
		fieldRatingNorm:   ratingNorm,
		fieldTargetPrice:  price,
		fieldReportDate:   date,
		fieldCreatedAt:    created,
	}
}
