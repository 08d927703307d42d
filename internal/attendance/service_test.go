package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	members     []Member
	records     map[string]Record
	nextID      int
	enrollGone  [][2]string // (courseID, partnerID) pairs deleted
	txDepth     int
	committedTx int
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: map[string]Record{}}
}

func (f *fakeStore) Members(_ context.Context, courseID string) ([]Member, error) {
	var out []Member
	for _, m := range f.members {
		out = append(out, m)
	}
	_ = courseID
	return out, nil
}

func (f *fakeStore) RecordsForDate(_ context.Context, courseID string, date time.Time) ([]Record, error) {
	var out []Record
	for _, rec := range f.records {
		if rec.CourseID == courseID && rec.Date.Equal(date) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeStore) InsertRecords(_ context.Context, recs []Record) error {
	for _, rec := range recs {
		f.nextID++
		rec.ID = "rec-" + string(rune('a'+f.nextID))
		f.records[rec.ID] = rec
	}
	return nil
}

func (f *fakeStore) DeleteRecords(_ context.Context, ids []string) error {
	for _, id := range ids {
		delete(f.records, id)
	}
	return nil
}

func (f *fakeStore) GetRecord(_ context.Context, id string) (Record, error) {
	rec, ok := f.records[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (f *fakeStore) SetPresent(_ context.Context, id string, present bool) error {
	rec, ok := f.records[id]
	if !ok {
		return ErrNotFound
	}
	rec.Present = present
	f.records[id] = rec
	return nil
}

func (f *fakeStore) CountOtherRecords(_ context.Context, partnerID, courseID, excludeID string) (int, error) {
	n := 0
	for id, rec := range f.records {
		if id != excludeID && rec.PartnerID == partnerID && rec.CourseID == courseID {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) DeleteEnrollment(_ context.Context, courseID, partnerID string) error {
	f.enrollGone = append(f.enrollGone, [2]string{courseID, partnerID})
	var kept []Member
	for _, m := range f.members {
		if m.PartnerID != partnerID {
			kept = append(kept, m)
		}
	}
	f.members = kept
	// database-level cascade: remaining attendance rows for the pair go too
	for id, rec := range f.records {
		if rec.CourseID == courseID && rec.PartnerID == partnerID {
			delete(f.records, id)
		}
	}
	return nil
}

func (f *fakeStore) InTx(ctx context.Context, fn func(Store) error) error {
	f.txDepth++
	err := fn(f)
	f.txDepth--
	if err == nil {
		f.committedTx++
	}
	return err
}

func (f *fakeStore) partnersForDate(courseID string, date time.Time) map[string]bool {
	out := map[string]bool{}
	for _, rec := range f.records {
		if rec.CourseID == courseID && rec.Date.Equal(date) {
			out[rec.PartnerID] = true
		}
	}
	return out
}

func fixedService(store Store, at time.Time) *Service {
	svc := NewService(store)
	svc.now = func() time.Time { return at }
	return svc
}

var testNow = time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)

func TestSyncTodayAddsMissingAndRemovesStale(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.members = []Member{
		{EnrollmentID: "e1", PartnerID: "alice"},
		{EnrollmentID: "e2", PartnerID: "bob"},
	}
	svc := fixedService(store, testNow)
	today := svc.Today()

	// stale row for a partner no longer enrolled
	store.records["old"] = Record{ID: "old", CourseID: "c1", PartnerID: "carol", Date: today}

	require.NoError(t, svc.SyncToday(ctx, "c1"))

	got := store.partnersForDate("c1", today)
	assert.Equal(t, map[string]bool{"alice": true, "bob": true}, got)
}

func TestSyncTodayIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.members = []Member{{EnrollmentID: "e1", PartnerID: "alice"}}
	svc := fixedService(store, testNow)

	require.NoError(t, svc.SyncToday(ctx, "c1"))
	require.NoError(t, svc.SyncToday(ctx, "c1"))

	assert.Len(t, store.records, 1)
}

func TestSyncTodayLeavesOtherDatesAlone(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.members = []Member{{EnrollmentID: "e1", PartnerID: "alice"}}
	svc := fixedService(store, testNow)

	yesterday := svc.Today().AddDate(0, 0, -1)
	store.records["past"] = Record{ID: "past", CourseID: "c1", PartnerID: "carol", Date: yesterday}

	require.NoError(t, svc.SyncToday(ctx, "c1"))

	_, ok := store.records["past"]
	assert.True(t, ok, "past-date record must not be touched")
}

func TestEnsureTodayOnlyAdds(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.members = []Member{{EnrollmentID: "e1", PartnerID: "alice"}}
	svc := fixedService(store, testNow)
	today := svc.Today()

	store.records["stale"] = Record{ID: "stale", CourseID: "c1", PartnerID: "gone", Date: today}

	require.NoError(t, svc.EnsureToday(ctx, "c1"))

	got := store.partnersForDate("c1", today)
	assert.True(t, got["alice"], "missing member record must be added")
	assert.True(t, got["gone"], "ensure must never remove records")
}

func TestDeleteLastRecordCascadesToEnrollment(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.members = []Member{{EnrollmentID: "e1", PartnerID: "bob"}}
	svc := fixedService(store, testNow)
	today := svc.Today()

	store.records["only"] = Record{ID: "only", CourseID: "c1", PartnerID: "bob", Date: today}

	require.NoError(t, svc.Delete(ctx, "only"))

	assert.Equal(t, [][2]string{{"c1", "bob"}}, store.enrollGone)
	assert.Empty(t, store.records, "no roster row may be recreated for the unenrolled partner")
	assert.Equal(t, 1, store.committedTx)
}

func TestDeleteOneOfSeveralKeepsEnrollment(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.members = []Member{{EnrollmentID: "e1", PartnerID: "bob"}}
	svc := fixedService(store, testNow)
	today := svc.Today()

	store.records["r1"] = Record{ID: "r1", CourseID: "c1", PartnerID: "bob", Date: today.AddDate(0, 0, -1)}
	store.records["r2"] = Record{ID: "r2", CourseID: "c1", PartnerID: "bob", Date: today}

	require.NoError(t, svc.Delete(ctx, "r1"))

	assert.Empty(t, store.enrollGone)
	_, ok := store.records["r2"]
	assert.True(t, ok)
}

func TestDeleteMissingRecord(t *testing.T) {
	store := newFakeStore()
	svc := fixedService(store, testNow)

	err := svc.Delete(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, store.committedTx)
}

func TestMarkPresent(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := fixedService(store, testNow)
	store.records["r1"] = Record{ID: "r1", CourseID: "c1", PartnerID: "bob", Date: svc.Today()}

	require.NoError(t, svc.MarkPresent(ctx, "r1", true))
	assert.True(t, store.records["r1"].Present)
}
