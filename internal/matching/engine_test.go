package matching

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/expansio/backend/internal/authz"
	"github.com/expansio/backend/internal/models"
	"github.com/expansio/backend/pkg/errs"
)

type fakeProjects struct {
	byID map[int64]*models.Project
}

func (f *fakeProjects) GetByID(_ context.Context, id int64) (*models.Project, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, errs.NotFound("project", fmt.Sprint(id))
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProjects) ListActiveIDs(context.Context) ([]int64, error) {
	var ids []int64
	for id, p := range f.byID {
		if p.Status == models.ProjectStatusActive {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

type fakeVendors struct {
	byCountry map[string][]models.Vendor
	calls     int
}

func (f *fakeVendors) ListByCountry(_ context.Context, country string) ([]models.Vendor, error) {
	f.calls++
	return f.byCountry[country], nil
}

// fakeMatches mimics the ON CONFLICT upsert: id and created_at are assigned
// once per pair and survive score updates.
type fakeMatches struct {
	rows   map[string]*models.Match
	nextID int64
}

func pairKey(projectID, vendorID int64) string {
	return fmt.Sprintf("%d/%d", projectID, vendorID)
}

func (f *fakeMatches) Upsert(_ context.Context, projectID, vendorID int64, score float64) (*models.Match, bool, error) {
	if f.rows == nil {
		f.rows = make(map[string]*models.Match)
	}
	key := pairKey(projectID, vendorID)
	if m, ok := f.rows[key]; ok {
		m.Score = score
		cp := *m
		return &cp, false, nil
	}
	f.nextID++
	m := &models.Match{
		ID:        f.nextID,
		ProjectID: projectID,
		VendorID:  vendorID,
		Score:     score,
		CreatedAt: time.Now(),
	}
	f.rows[key] = m
	cp := *m
	return &cp, true, nil
}

type fakeClients struct{}

func (fakeClients) GetByID(_ context.Context, id int64) (*models.Client, error) {
	return &models.Client{ID: id, Name: "Acme", Email: "owner@acme.test"}, nil
}

type notified struct {
	vendorID int64
	score    float64
}

type fakeNotifier struct {
	events []notified
	err    error
}

func (f *fakeNotifier) HighScoreMatch(_ context.Context, m *models.Match, _ *models.Project, _ *models.Client) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, notified{vendorID: m.VendorID, score: m.Score})
	return nil
}

func newTestEngine(p *fakeProjects, v *fakeVendors, m *fakeMatches, n *fakeNotifier) *Engine {
	return NewEngine(p, v, m, fakeClients{}, n, 8.0, nil)
}

func activeProject(id, clientID int64, country string, serviceIDs ...int64) *models.Project {
	return &models.Project{
		ID:         id,
		ClientID:   clientID,
		Country:    country,
		Status:     models.ProjectStatusActive,
		ServiceIDs: serviceIDs,
	}
}

func TestRebuildScoresAndPersists(t *testing.T) {
	rating := 4.8
	sla := 24
	projects := &fakeProjects{byID: map[int64]*models.Project{
		1: activeProject(1, 10, "DE", 100, 200),
	}}
	vendors := &fakeVendors{byCountry: map[string][]models.Vendor{
		"DE": {{ID: 5, ServiceIDs: []int64{100, 200}, Rating: &rating, ResponseSLAHours: &sla}},
	}}
	matches := &fakeMatches{}
	notifier := &fakeNotifier{}

	got, err := newTestEngine(projects, vendors, matches, notifier).Rebuild(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d matches, want 1", len(got))
	}
	if got[0].Score != 17.8 {
		t.Errorf("score = %v, want 17.8", got[0].Score)
	}
	if len(notifier.events) != 1 {
		t.Fatalf("got %d notifications, want 1", len(notifier.events))
	}
}

func TestRebuildExcludesOtherCountries(t *testing.T) {
	projects := &fakeProjects{byID: map[int64]*models.Project{
		1: activeProject(1, 10, "DE", 100),
	}}
	vendors := &fakeVendors{byCountry: map[string][]models.Vendor{
		"FR": {{ID: 5, ServiceIDs: []int64{100}}},
	}}
	matches := &fakeMatches{}

	got, err := newTestEngine(projects, vendors, matches, &fakeNotifier{}).Rebuild(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("got %d matches, want 0", len(got))
	}
	if len(matches.rows) != 0 {
		t.Errorf("persisted %d rows, want 0", len(matches.rows))
	}
}

func TestRebuildSkipsZeroOverlapVendors(t *testing.T) {
	projects := &fakeProjects{byID: map[int64]*models.Project{
		1: activeProject(1, 10, "DE", 100),
	}}
	vendors := &fakeVendors{byCountry: map[string][]models.Vendor{
		"DE": {
			{ID: 5, ServiceIDs: []int64{100}},
			{ID: 6, ServiceIDs: []int64{999}},
		},
	}}
	matches := &fakeMatches{}

	got, err := newTestEngine(projects, vendors, matches, &fakeNotifier{}).Rebuild(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].VendorID != 5 {
		t.Fatalf("got %+v, want single match for vendor 5", got)
	}
}

func TestRebuildEmptyRequiredServices(t *testing.T) {
	projects := &fakeProjects{byID: map[int64]*models.Project{
		1: activeProject(1, 10, "DE"),
	}}
	vendors := &fakeVendors{byCountry: map[string][]models.Vendor{
		"DE": {{ID: 5, ServiceIDs: []int64{100}}},
	}}

	got, err := newTestEngine(projects, vendors, &fakeMatches{}, &fakeNotifier{}).Rebuild(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("got %d matches, want 0", len(got))
	}
	if vendors.calls != 0 {
		t.Errorf("vendor store queried %d times, want 0", vendors.calls)
	}
}

func TestRebuildIdempotentAcrossRatingChange(t *testing.T) {
	rating := 4.8
	sla := 24
	vendor := models.Vendor{ID: 5, ServiceIDs: []int64{100, 200}, Rating: &rating, ResponseSLAHours: &sla}
	projects := &fakeProjects{byID: map[int64]*models.Project{
		1: activeProject(1, 10, "DE", 100, 200),
	}}
	vendors := &fakeVendors{byCountry: map[string][]models.Vendor{"DE": {vendor}}}
	matches := &fakeMatches{}
	engine := newTestEngine(projects, vendors, matches, &fakeNotifier{})

	first, err := engine.Rebuild(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}

	// Vendor rating drops; the same pair must update in place.
	newRating := 3.0
	vendors.byCountry["DE"][0].Rating = &newRating

	second, err := engine.Rebuild(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}

	if len(matches.rows) != 1 {
		t.Fatalf("persisted %d rows, want 1", len(matches.rows))
	}
	if second[0].Score != 16.0 {
		t.Errorf("updated score = %v, want 16.0", second[0].Score)
	}
	if second[0].ID != first[0].ID {
		t.Errorf("id changed on update: %d -> %d", first[0].ID, second[0].ID)
	}
	if !second[0].CreatedAt.Equal(first[0].CreatedAt) {
		t.Error("created_at changed on update")
	}
}

func TestRebuildNotifiesAtThresholdBoundary(t *testing.T) {
	projects := &fakeProjects{byID: map[int64]*models.Project{
		1: activeProject(1, 10, "DE", 100),
	}}
	rating := 6.0 // overlap 1 -> 2, + 6.0 = 8.0 exactly
	vendors := &fakeVendors{byCountry: map[string][]models.Vendor{
		"DE": {{ID: 5, ServiceIDs: []int64{100}, Rating: &rating}},
	}}
	matches := &fakeMatches{}
	notifier := &fakeNotifier{}
	engine := newTestEngine(projects, vendors, matches, notifier)

	// First run creates the row, which always notifies.
	if _, err := engine.Rebuild(context.Background(), 1); err != nil {
		t.Fatal(err)
	}
	// Second run is an update at exactly the threshold: still notifies.
	if _, err := engine.Rebuild(context.Background(), 1); err != nil {
		t.Fatal(err)
	}
	if len(notifier.events) != 2 {
		t.Fatalf("got %d notifications, want 2", len(notifier.events))
	}

	// Drop below threshold; the update must stay quiet.
	lower := 5.999
	vendors.byCountry["DE"][0].Rating = &lower
	if _, err := engine.Rebuild(context.Background(), 1); err != nil {
		t.Fatal(err)
	}
	if len(notifier.events) != 2 {
		t.Errorf("got %d notifications after sub-threshold update, want 2", len(notifier.events))
	}
}

func TestRebuildSwallowsNotifierErrors(t *testing.T) {
	rating := 9.0
	projects := &fakeProjects{byID: map[int64]*models.Project{
		1: activeProject(1, 10, "DE", 100),
	}}
	vendors := &fakeVendors{byCountry: map[string][]models.Vendor{
		"DE": {{ID: 5, ServiceIDs: []int64{100}, Rating: &rating}},
	}}
	notifier := &fakeNotifier{err: errors.New("smtp down")}

	got, err := newTestEngine(projects, vendors, &fakeMatches{}, notifier).Rebuild(context.Background(), 1)
	if err != nil {
		t.Fatalf("notifier failure must not fail the rebuild: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("got %d matches, want 1", len(got))
	}
}

func TestRebuildForMissingProject(t *testing.T) {
	engine := newTestEngine(&fakeProjects{byID: map[int64]*models.Project{}}, &fakeVendors{}, &fakeMatches{}, &fakeNotifier{})

	_, err := engine.RebuildFor(context.Background(), 42, authz.Principal{ClientID: 10, Role: authz.RoleClient})
	if !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRebuildForForeignProject(t *testing.T) {
	projects := &fakeProjects{byID: map[int64]*models.Project{
		1: activeProject(1, 10, "DE", 100),
	}}
	engine := newTestEngine(projects, &fakeVendors{}, &fakeMatches{}, &fakeNotifier{})

	_, err := engine.RebuildFor(context.Background(), 1, authz.Principal{ClientID: 99, Role: authz.RoleClient})
	if !errors.Is(err, errs.ErrForbidden) {
		t.Errorf("err = %v, want ErrForbidden", err)
	}

	// Admins rebuild anyone's project.
	if _, err := engine.RebuildFor(context.Background(), 1, authz.Principal{ClientID: 99, Role: authz.RoleAdmin}); err != nil {
		t.Errorf("admin rebuild failed: %v", err)
	}
}
