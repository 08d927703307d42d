package course

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	courses  map[string]Course
	enrolled map[string][]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{courses: map[string]Course{}, enrolled: map[string][]string{}}
}

func (f *fakeStore) GetCourse(_ context.Context, id string) (Course, error) {
	c, ok := f.courses[id]
	if !ok {
		return Course{}, ErrNotFound
	}
	return c, nil
}

func (f *fakeStore) ListCourses(_ context.Context) ([]Course, error) {
	var out []Course
	for _, c := range f.courses {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeStore) ListEnrollments(_ context.Context, courseID string) ([]Enrollment, error) {
	var out []Enrollment
	for _, p := range f.enrolled[courseID] {
		out = append(out, Enrollment{CourseID: courseID, PartnerID: p})
	}
	return out, nil
}

func (f *fakeStore) EnrolledPartnerIDs(_ context.Context, courseID string) ([]string, error) {
	return append([]string(nil), f.enrolled[courseID]...), nil
}

func (f *fakeStore) CreateEnrollments(_ context.Context, courseID string, partnerIDs []string) error {
	have := map[string]bool{}
	for _, id := range f.enrolled[courseID] {
		have[id] = true
	}
	for _, id := range partnerIDs {
		if !have[id] {
			f.enrolled[courseID] = append(f.enrolled[courseID], id)
		}
	}
	return nil
}

func (f *fakeStore) DeleteEnrollments(_ context.Context, courseID string, partnerIDs []string) error {
	drop := map[string]bool{}
	for _, id := range partnerIDs {
		drop[id] = true
	}
	var kept []string
	for _, id := range f.enrolled[courseID] {
		if !drop[id] {
			kept = append(kept, id)
		}
	}
	f.enrolled[courseID] = kept
	return nil
}

type fakeSync struct {
	synced  []string
	ensured []string
}

func (f *fakeSync) SyncToday(_ context.Context, courseID string) error {
	f.synced = append(f.synced, courseID)
	return nil
}

func (f *fakeSync) EnsureToday(_ context.Context, courseID string) error {
	f.ensured = append(f.ensured, courseID)
	return nil
}

func sorted(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}

func TestGetCourseRunsCatchUp(t *testing.T) {
	store := newFakeStore()
	store.courses["c1"] = Course{ID: "c1", Name: "Go Basics"}
	syncer := &fakeSync{}
	svc := NewService(store, syncer)

	got, err := svc.GetCourse(context.Background(), "c1")

	require.NoError(t, err)
	assert.Equal(t, "Go Basics", got.Name)
	assert.Equal(t, []string{"c1"}, syncer.ensured)
	assert.Empty(t, syncer.synced, "a read never does an exact sync")
}

func TestGetCourseMissing(t *testing.T) {
	syncer := &fakeSync{}
	svc := NewService(newFakeStore(), syncer)

	_, err := svc.GetCourse(context.Background(), "nope")

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, syncer.ensured)
}

func TestEnrollSyncsRoster(t *testing.T) {
	store := newFakeStore()
	syncer := &fakeSync{}
	svc := NewService(store, syncer)

	require.NoError(t, svc.Enroll(context.Background(), "c1", []string{"alice", "bob"}))

	assert.Equal(t, []string{"alice", "bob"}, sorted(store.enrolled["c1"]))
	assert.Equal(t, []string{"c1"}, syncer.synced)
}

func TestEnrollRequiresPartners(t *testing.T) {
	syncer := &fakeSync{}
	svc := NewService(newFakeStore(), syncer)

	assert.Error(t, svc.Enroll(context.Background(), "c1", nil))
	assert.Empty(t, syncer.synced)
}

func TestUnenrollSyncsRoster(t *testing.T) {
	store := newFakeStore()
	store.enrolled["c1"] = []string{"alice", "bob"}
	syncer := &fakeSync{}
	svc := NewService(store, syncer)

	require.NoError(t, svc.Unenroll(context.Background(), "c1", "alice"))

	assert.Equal(t, []string{"bob"}, store.enrolled["c1"])
	assert.Equal(t, []string{"c1"}, syncer.synced)
}

func TestReplaceMembersDiffs(t *testing.T) {
	store := newFakeStore()
	store.enrolled["c1"] = []string{"alice", "bob"}
	syncer := &fakeSync{}
	svc := NewService(store, syncer)

	// {alice, bob} -> {bob, carol}
	require.NoError(t, svc.ReplaceMembers(context.Background(), "c1", []string{"bob", "carol"}))

	assert.Equal(t, []string{"bob", "carol"}, sorted(store.enrolled["c1"]))
	assert.Equal(t, []string{"c1"}, syncer.synced, "exactly one sync per replace")
}

func TestReplaceMembersNoChangeStillSyncs(t *testing.T) {
	store := newFakeStore()
	store.enrolled["c1"] = []string{"alice"}
	syncer := &fakeSync{}
	svc := NewService(store, syncer)

	require.NoError(t, svc.ReplaceMembers(context.Background(), "c1", []string{"alice"}))

	assert.Equal(t, []string{"alice"}, store.enrolled["c1"])
	assert.Equal(t, []string{"c1"}, syncer.synced)
}

func TestReplaceMembersEmptyClearsCourse(t *testing.T) {
	store := newFakeStore()
	store.enrolled["c1"] = []string{"alice", "bob"}
	syncer := &fakeSync{}
	svc := NewService(store, syncer)

	require.NoError(t, svc.ReplaceMembers(context.Background(), "c1", nil))

	assert.Empty(t, store.enrolled["c1"])
	assert.Equal(t, []string{"c1"}, syncer.synced)
}
