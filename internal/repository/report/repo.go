package report

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kailas-cloud/consdex/internal/db"
	"github.com/kailas-cloud/consdex/internal/domain"
	domrep "github.com/kailas-cloud/consdex/internal/domain/report"
)

// store is the consumer interface for report rows and indexes (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetNX(ctx context.Context, key string, value []byte) (bool, error)
	Incr(ctx context.Context, key string) (int64, error)
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo persists analyst reports. Uniqueness of the (security, firm, date)
// triple is enforced at the write point with a SET NX claim key holding the
// winning report id; ids come from an INCR sequence so they are unique and
// ascending.
type Repo struct {
	store  store
	prefix string
}

// New creates a report repository. An empty prefix falls back to the
// package-wide default.
func New(s store, prefix string) *Repo {
	if prefix == "" {
		prefix = domain.KeyPrefix
	}
	return &Repo{store: s, prefix: prefix}
}

// Insert stores a new report or resolves a duplicate triple to the already
// stored one. Returns true when this call created the row.
func (r *Repo) Insert(ctx context.Context, rep domrep.Report) (domrep.Report, bool, error) {
	claimKey := r.claimKey(rep.SecurityCode(), rep.Firm(), rep.ReportDate())

	// Fast path: the triple was ingested before.
	raw, err := r.store.Get(ctx, claimKey)
	switch {
	case err == nil:
		return r.loadClaimed(ctx, raw, rep)
	case !errors.Is(err, db.ErrKeyNotFound):
		return domrep.Report{}, false, fmt.Errorf("get claim %s: %w", claimKey, err)
	}

	id, err := r.store.Incr(ctx, r.seqKey())
	if err != nil {
		return domrep.Report{}, false, fmt.Errorf("next report id: %w", err)
	}

	claimed, err := r.store.SetNX(ctx, claimKey, []byte(formatID(id)))
	if err != nil {
		return domrep.Report{}, false, fmt.Errorf("claim %s: %w", claimKey, err)
	}
	if !claimed {
		// Lost the race. The winner's id is authoritative; the burned
		// sequence id leaves a harmless gap.
		raw, err := r.store.Get(ctx, claimKey)
		if err != nil {
			return domrep.Report{}, false, fmt.Errorf("reread claim %s: %w", claimKey, err)
		}
		return r.loadClaimed(ctx, raw, rep)
	}

	created := rep.WithIdentity(id, time.Now().UTC())
	items := []db.HashSetItem{
		{Key: r.rowKey(id), Fields: buildRowFields(created)},
		{Key: r.securityKey(created.SecurityCode()), Fields: map[string]string{
			formatID(id): created.ReportDate().Format(domrep.DateLayout),
		}},
		{Key: r.recencyKey(), Fields: map[string]string{
			formatID(id): created.CreatedAt().Format(time.RFC3339Nano),
		}},
	}
	if err := r.store.HSetMulti(ctx, items); err != nil {
		return domrep.Report{}, false, fmt.Errorf("write report %d: %w", id, err)
	}
	return created, true, nil
}

// loadClaimed resolves a duplicate ingest to the stored report behind a claim.
func (r *Repo) loadClaimed(ctx context.Context, rawID []byte, rep domrep.Report) (domrep.Report, bool, error) {
	id, err := parseID(string(rawID))
	if err != nil {
		return domrep.Report{}, false, fmt.Errorf("corrupt claim value %q: %w", rawID, err)
	}
	fields, err := r.store.HGetAll(ctx, r.rowKey(id))
	if err != nil {
		return domrep.Report{}, false, fmt.Errorf("load report %d: %w", id, err)
	}
	if len(fields) == 0 {
		// The row write can trail the claim by one pipeline; the id is
		// what duplicate resolution promises.
		return rep.WithIdentity(id, time.Time{}), false, nil
	}
	stored, err := parseRowFields(id, fields)
	if err != nil {
		return domrep.Report{}, false, err
	}
	return stored, false, nil
}

// GetByID returns a report by its storage id.
func (r *Repo) GetByID(ctx context.Context, id int64) (domrep.Report, error) {
	fields, err := r.store.HGetAll(ctx, r.rowKey(id))
	if err != nil {
		return domrep.Report{}, fmt.Errorf("load report %d: %w", id, err)
	}
	if len(fields) == 0 {
		return domrep.Report{}, fmt.Errorf("report %d: %w", id, domain.ErrNotFound)
	}
	return parseRowFields(id, fields)
}

// GetByIDs returns reports for the given ids in one round trip, keyed by id.
// Ids without a row are omitted.
func (r *Repo) GetByIDs(ctx context.Context, ids []int64) (map[int64]domrep.Report, error) {
	if len(ids) == 0 {
		return map[int64]domrep.Report{}, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.rowKey(id)
	}
	rows, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load %d reports: %w", len(ids), err)
	}
	out := make(map[int64]domrep.Report, len(ids))
	for i, fields := range rows {
		if len(fields) == 0 {
			continue
		}
		rep, err := parseRowFields(ids[i], fields)
		if err != nil {
			return nil, err
		}
		out[ids[i]] = rep
	}
	return out, nil
}

// IDsBySecurity returns the report ids for a security code, ascending.
// A security with no reports yields an empty slice, not an error.
func (r *Repo) IDsBySecurity(ctx context.Context, code string) ([]int64, error) {
	index, err := r.store.HGetAll(ctx, r.securityKey(code))
	if err != nil {
		return nil, fmt.Errorf("security index %s: %w", code, err)
	}
	ids := make([]int64, 0, len(index))
	for rawID := range index {
		id, err := parseID(rawID)
		if err != nil {
			return nil, fmt.Errorf("security index %s: corrupt id %q: %w", code, rawID, err)
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// ListBySecurity returns all reports for a security code, ascending by id.
func (r *Repo) ListBySecurity(ctx context.Context, code string) ([]domrep.Report, error) {
	ids, err := r.IDsBySecurity(ctx, code)
	if err != nil {
		return nil, err
	}
	return r.loadRows(ctx, ids)
}

// ListRecent returns the most recently ingested reports, newest first.
// Equal timestamps fall back to descending id.
func (r *Repo) ListRecent(ctx context.Context, limit int) ([]domrep.Report, error) {
	index, err := r.store.HGetAll(ctx, r.recencyKey())
	if err != nil {
		return nil, fmt.Errorf("recency index: %w", err)
	}

	type entry struct {
		id      int64
		created time.Time
	}
	entries := make([]entry, 0, len(index))
	for rawID, rawCreated := range index {
		id, err := parseID(rawID)
		if err != nil {
			return nil, fmt.Errorf("recency index: corrupt id %q: %w", rawID, err)
		}
		created, err := time.Parse(time.RFC3339Nano, rawCreated)
		if err != nil {
			return nil, fmt.Errorf("recency index: corrupt timestamp for id %d: %w", id, err)
		}
		entries = append(entries, entry{id: id, created: created})
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].created.Equal(entries[j].created) {
			return entries[i].created.After(entries[j].created)
		}
		return entries[i].id > entries[j].id
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	ids := make([]int64, len(entries))
	for i, e := range entries {
		ids[i] = e.id
	}
	return r.loadRows(ctx, ids)
}

// CountBySecurity returns report counts per security code.
func (r *Repo) CountBySecurity(ctx context.Context) (map[string]int, error) {
	keys, err := r.store.Scan(ctx, r.prefix+"security:*")
	if err != nil {
		return nil, fmt.Errorf("scan security indexes: %w", err)
	}
	if len(keys) == 0 {
		return map[string]int{}, nil
	}
	indexes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load security indexes: %w", err)
	}
	counts := make(map[string]int, len(keys))
	for i, key := range keys {
		code := strings.TrimPrefix(key, r.prefix+"security:")
		counts[code] = len(indexes[i])
	}
	return counts, nil
}

// loadRows fetches and hydrates rows for ids, preserving id order.
// Rows missing behind an index entry are skipped; they become visible once
// the writer's pipeline lands.
func (r *Repo) loadRows(ctx context.Context, ids []int64) ([]domrep.Report, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.rowKey(id)
	}
	rows, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load %d reports: %w", len(ids), err)
	}
	out := make([]domrep.Report, 0, len(ids))
	for i, fields := range rows {
		if len(fields) == 0 {
			continue
		}
		rep, err := parseRowFields(ids[i], fields)
		if err != nil {
			return nil, err
		}
		out = append(out, rep)
	}
	return out, nil
}

func (r *Repo) rowKey(id int64) string {
	return fmt.Sprintf("%sreport:%d", r.prefix, id)
}

func (r *Repo) claimKey(code, firm string, date time.Time) string {
	return fmt.Sprintf("%sreport_key:%s|%s|%s", r.prefix, code, firm, date.Format(domrep.DateLayout))
}

func (r *Repo) seqKey() string {
	return r.prefix + "report_seq"
}

func (r *Repo) securityKey(code string) string {
	return fmt.Sprintf("%ssecurity:%s", r.prefix, code)
}

func (r *Repo) recencyKey() string {
	return r.prefix + "reports"
}
