package cases

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/lextrack/lextrack/internal/kv"
	"github.com/lextrack/lextrack/internal/legalai"
	"github.com/lextrack/lextrack/internal/models"
	"github.com/lextrack/lextrack/internal/vault"
)

type fakeProvider struct {
	docs         []string
	docsErr      error
	research     legalai.Research
	researchErr  error
	researchHits int
}

func (p *fakeProvider) AnalyzeQuery(context.Context, string, []legalai.HistoryMessage, string, []legalai.Attachment) (legalai.Analysis, error) {
	return legalai.Analysis{}, errors.New("not used")
}

func (p *fakeProvider) SuggestRequiredDocuments(context.Context, string, string) ([]string, error) {
	return p.docs, p.docsErr
}

func (p *fakeProvider) ResearchCase(context.Context, string, string) (legalai.Research, error) {
	p.researchHits++
	return p.research, p.researchErr
}

func newTestService(p legalai.Provider) (*Service, *vault.Store) {
	store := vault.New(kv.NewMemoryStore())
	return NewService(store, legalai.NewService(p)), store
}

var advocate = models.User{ID: "u1", FullName: "A. Sharma", Role: models.RoleAdvocate}

func TestCreatePopulatesRegistryFields(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(&fakeProvider{docs: []string{"FIR Copy", "Charge Sheet"}})

	c, err := svc.Create(ctx, advocate, CreateInput{
		Title:           "State vs Mehta",
		CaseType:        "Criminal",
		Court:           "Sessions Court",
		Time:            "14:30",
		Description:     "Bail application",
		NextHearingDate: "2026-09-01",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if !strings.HasPrefix(c.CNR, "LT-") || len(c.CNR) != 9 {
		t.Fatalf("cnr = %q", c.CNR)
	}
	if !strings.HasPrefix(c.Hall, "Hall ") {
		t.Fatalf("hall = %q", c.Hall)
	}
	if c.Stage != "Filing" || c.Risk != "medium" || c.NextStep != "Document Verification" {
		t.Fatalf("defaults wrong: %+v", c)
	}
	if c.Session != "Afternoon" {
		t.Fatalf("session for 14:30 = %q", c.Session)
	}
	if c.Petitioner != "Confidential Petitioner" {
		t.Fatalf("advocate petitioner = %q", c.Petitioner)
	}
	if !reflect.DeepEqual(c.RequiredDocuments, []string{"FIR Copy", "Charge Sheet"}) {
		t.Fatalf("docs = %v", c.RequiredDocuments)
	}

	persisted, err := store.LoadCases(ctx, "u1")
	if err != nil || len(persisted) != 1 || persisted[0].UserID != "u1" {
		t.Fatalf("persisted = %v, %v", persisted, err)
	}
}

func TestCreateClientPetitionerAndMorningSession(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(&fakeProvider{docs: []string{"Deed"}})
	client := models.User{ID: "u2", FullName: "R. Iyer", Role: models.RoleClient}

	c, err := svc.Create(ctx, client, CreateInput{Title: "Property dispute", CaseType: "Civil", Time: "10:00"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.Petitioner != "R. Iyer" {
		t.Fatalf("client petitioner = %q", c.Petitioner)
	}
	if c.Session != "Morning" {
		t.Fatalf("session for 10:00 = %q", c.Session)
	}
}

func TestCreateFallsBackToFixedDocumentList(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(&fakeProvider{docsErr: errors.New("api down")})

	c, err := svc.Create(ctx, advocate, CreateInput{Title: "State vs Rao", CaseType: "Criminal"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	want := []string{"Vakalatnama", "Aadhar Card", "Relevant Court Fee Stamps", "Detailed Affidavit"}
	if !reflect.DeepEqual(c.RequiredDocuments, want) {
		t.Fatalf("fallback docs = %v", c.RequiredDocuments)
	}
}

func TestCreatePrependsNewestFirst(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(&fakeProvider{docs: []string{"Deed"}})

	if _, err := svc.Create(ctx, advocate, CreateInput{Title: "first", CaseType: "Civil"}); err != nil {
		t.Fatalf("first: %v", err)
	}
	if _, err := svc.Create(ctx, advocate, CreateInput{Title: "second", CaseType: "Civil"}); err != nil {
		t.Fatalf("second: %v", err)
	}

	list, err := svc.List(ctx, "u1")
	if err != nil || len(list) != 2 {
		t.Fatalf("list = %v, %v", list, err)
	}
	if list[0].Title != "second" || list[1].Title != "first" {
		t.Fatalf("order = %q, %q", list[0].Title, list[1].Title)
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(&fakeProvider{docs: []string{"Deed"}})

	c, err := svc.Create(ctx, advocate, CreateInput{Title: "gone soon", CaseType: "Civil"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.Delete(ctx, "u1", c.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(ctx, "u1", c.ID); err != ErrCaseNotFound {
		t.Fatalf("second delete err = %v", err)
	}
	list, err := svc.List(ctx, "u1")
	if err != nil || len(list) != 0 {
		t.Fatalf("list after delete = %v, %v", list, err)
	}
}

func TestResearchCachesPerCase(t *testing.T) {
	ctx := context.Background()
	p := &fakeProvider{
		docs: []string{"Deed"},
		research: legalai.Research{
			Points:  []string{"Kesavananda Bharati applies."},
			Sources: []legalai.Source{{URI: "https://example.org", Title: "SC digest"}},
		},
	}
	svc, _ := newTestService(p)

	c, err := svc.Create(ctx, advocate, CreateInput{Title: "basic structure", CaseType: "Constitutional"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	first, err := svc.Research(ctx, "u1", c.ID)
	if err != nil {
		t.Fatalf("Research: %v", err)
	}
	second, err := svc.Research(ctx, "u1", c.ID)
	if err != nil {
		t.Fatalf("Research again: %v", err)
	}
	if p.researchHits != 1 {
		t.Fatalf("provider hit %d times, want 1", p.researchHits)
	}
	if !reflect.DeepEqual(first, second) || len(first.Points) != 1 {
		t.Fatalf("cached result mismatch: %v vs %v", first, second)
	}
}

func TestResearchFallbackOnFailure(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(&fakeProvider{docs: []string{"Deed"}, researchErr: errors.New("offline")})

	c, err := svc.Create(ctx, advocate, CreateInput{Title: "offline case", CaseType: "Civil"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	res, err := svc.Research(ctx, "u1", c.ID)
	if err != nil {
		t.Fatalf("Research: %v", err)
	}
	want := "Live research database unavailable. Please verify your internet connection."
	if len(res.Points) != 1 || res.Points[0] != want {
		t.Fatalf("fallback = %v", res.Points)
	}
	if _, err := svc.Research(ctx, "u1", "missing"); err != ErrCaseNotFound {
		t.Fatalf("missing case err = %v", err)
	}
}
