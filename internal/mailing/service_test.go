package mailing

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	campaigns map[string]Campaign
	attendees map[string][]string
	enrolled  map[string][]string // courseID -> partnerIDs
	emails    map[string]string   // partnerID -> email

	recentCourse string
	mostViewed   string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		campaigns: map[string]Campaign{},
		attendees: map[string][]string{},
		enrolled:  map[string][]string{},
		emails:    map[string]string{},
	}
}

func (f *fakeStore) CreateCampaign(_ context.Context, c Campaign) (Campaign, error) {
	c.ID = "camp-1"
	f.campaigns[c.ID] = c
	return c, nil
}

func (f *fakeStore) GetCampaign(_ context.Context, id string) (Campaign, error) {
	c, ok := f.campaigns[id]
	if !ok {
		return Campaign{}, ErrNotFound
	}
	return c, nil
}

func (f *fakeStore) SetAttendees(_ context.Context, campaignID string, partnerIDs []string) error {
	f.attendees[campaignID] = append([]string(nil), partnerIDs...)
	return nil
}

func (f *fakeStore) ListAttendees(_ context.Context, campaignID string) ([]string, error) {
	return f.attendees[campaignID], nil
}

func (f *fakeStore) AttendeeEmails(_ context.Context, campaignID string) ([]string, error) {
	var out []string
	for _, id := range f.attendees[campaignID] {
		if email, ok := f.emails[id]; ok {
			out = append(out, email)
		}
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

func (f *fakeStore) RecentCourseForPartner(_ context.Context, _ string) (string, error) {
	return f.recentCourse, nil
}

func (f *fakeStore) MostViewedCourse(_ context.Context) (string, error) {
	return f.mostViewed, nil
}

type fakeSync struct {
	courses []string
}

func (f *fakeSync) SyncToday(_ context.Context, courseID string) error {
	f.courses = append(f.courses, courseID)
	return nil
}

func sorted(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}

func TestCreatePrefillsAttendeesFromEnrollment(t *testing.T) {
	store := newFakeStore()
	store.enrolled["c1"] = []string{"alice", "bob"}
	svc := NewService(store, &fakeSync{})

	campaign, err := svc.Create(context.Background(), CreateInput{Name: "Reminder", CourseID: "c1"})

	require.NoError(t, err)
	assert.Equal(t, "c1", campaign.CourseID)
	assert.Equal(t, []string{"alice", "bob"}, store.attendees[campaign.ID])
}

func TestCreateSkipPrefill(t *testing.T) {
	store := newFakeStore()
	store.enrolled["c1"] = []string{"alice"}
	svc := NewService(store, &fakeSync{})

	campaign, err := svc.Create(context.Background(), CreateInput{Name: "Reminder", CourseID: "c1", SkipPrefill: true})

	require.NoError(t, err)
	assert.Empty(t, store.attendees[campaign.ID])
}

func TestCreateRequiresName(t *testing.T) {
	svc := NewService(newFakeStore(), &fakeSync{})
	_, err := svc.Create(context.Background(), CreateInput{CourseID: "c1"})
	assert.Error(t, err)
}

func TestCreateInfersCourseFromRecentEnrollment(t *testing.T) {
	store := newFakeStore()
	store.recentCourse = "c7"
	store.mostViewed = "c9"
	svc := NewService(store, &fakeSync{})

	campaign, err := svc.Create(context.Background(), CreateInput{Name: "Reminder", ActingPartner: "alice"})

	require.NoError(t, err)
	assert.Equal(t, "c7", campaign.CourseID)
}

func TestCreateFallsBackToMostViewedCourse(t *testing.T) {
	store := newFakeStore()
	store.mostViewed = "c9"
	svc := NewService(store, &fakeSync{})

	campaign, err := svc.Create(context.Background(), CreateInput{Name: "Reminder"})

	require.NoError(t, err)
	assert.Equal(t, "c9", campaign.CourseID)
}

func TestSetAttendeesReconcilesEnrollment(t *testing.T) {
	store := newFakeStore()
	store.campaigns["camp-1"] = Campaign{ID: "camp-1", CourseID: "c1"}
	store.enrolled["c1"] = []string{"alice", "bob"}
	syncer := &fakeSync{}
	svc := NewService(store, syncer)

	// {alice, bob} -> {bob, carol}: alice unenrolled, carol enrolled
	err := svc.SetAttendees(context.Background(), "camp-1", []string{"bob", "carol"})

	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "carol"}, sorted(store.enrolled["c1"]))
	assert.Equal(t, []string{"bob", "carol"}, store.attendees["camp-1"])
	assert.Equal(t, []string{"c1"}, syncer.courses, "roster must be synced after the change")
}

func TestSetAttendeesWithoutCourseSkipsEnrollment(t *testing.T) {
	store := newFakeStore()
	store.campaigns["camp-1"] = Campaign{ID: "camp-1"}
	syncer := &fakeSync{}
	svc := NewService(store, syncer)

	err := svc.SetAttendees(context.Background(), "camp-1", []string{"alice"})

	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, store.attendees["camp-1"])
	assert.Empty(t, syncer.courses)
	assert.Empty(t, store.enrolled)
}

func TestSetAttendeesUnknownCampaign(t *testing.T) {
	svc := NewService(newFakeStore(), &fakeSync{})
	err := svc.SetAttendees(context.Background(), "nope", []string{"alice"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetAttendeesEmptyListUnenrollsEveryone(t *testing.T) {
	store := newFakeStore()
	store.campaigns["camp-1"] = Campaign{ID: "camp-1", CourseID: "c1"}
	store.enrolled["c1"] = []string{"alice", "bob"}
	syncer := &fakeSync{}
	svc := NewService(store, syncer)

	err := svc.SetAttendees(context.Background(), "camp-1", nil)

	require.NoError(t, err)
	assert.Empty(t, store.enrolled["c1"])
	assert.Equal(t, []string{"c1"}, syncer.courses)
}

func TestRecipients(t *testing.T) {
	store := newFakeStore()
	store.campaigns["camp-1"] = Campaign{ID: "camp-1", CourseID: "c1"}
	store.attendees["camp-1"] = []string{"alice", "bob", "ghost"}
	store.emails["alice"] = "alice@example.com"
	store.emails["bob"] = "bob@example.com"
	svc := NewService(store, &fakeSync{})

	emails, err := svc.Recipients(context.Background(), "camp-1")

	require.NoError(t, err)
	assert.Equal(t, []string{"alice@example.com", "bob@example.com"}, emails)
}
