package collections_test

import (
	"testing"

	"proposalaudit/collections"
	"proposalaudit/testhelpers"
)

func TestSeed_CreatesData(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	if err := collections.Seed(app); err != nil {
		t.Fatalf("Seed() error: %v", err)
	}

	proposalsCol, _ := app.FindCollectionByNameOrId("proposals")
	proposals, err := app.FindAllRecords(proposalsCol)
	if err != nil {
		t.Fatalf("query proposals error: %v", err)
	}
	if len(proposals) != 1 {
		t.Fatalf("expected 1 proposal, got %d", len(proposals))
	}
	if proposals[0].GetString("title") != "Demo Stadium Video Displays" {
		t.Errorf("proposal title = %q, want %q",
			proposals[0].GetString("title"), "Demo Stadium Video Displays")
	}

	screensCol, _ := app.FindCollectionByNameOrId("screens")
	screens, _ := app.FindAllRecords(screensCol)
	if len(screens) != 2 {
		t.Fatalf("expected 2 screens, got %d", len(screens))
	}
	for _, s := range screens {
		if s.GetString("proposal") != proposals[0].Id {
			t.Errorf("screen %q proposal = %q, want %q",
				s.GetString("name"), s.GetString("proposal"), proposals[0].Id)
		}
	}
}

func TestSeed_ScreenDetails(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	if err := collections.Seed(app); err != nil {
		t.Fatalf("Seed() error: %v", err)
	}

	screensCol, _ := app.FindCollectionByNameOrId("screens")
	ribbons, _ := app.FindRecordsByFilter(
		screensCol,
		"name = {:n}",
		"", 1, 0,
		map[string]any{"n": "North Ribbon"},
	)
	if len(ribbons) == 0 {
		t.Fatal("North Ribbon screen not found")
	}

	ribbon := ribbons[0]
	if ribbon.GetFloat("width_ft") != 120 {
		t.Errorf("width_ft = %v, want 120", ribbon.GetFloat("width_ft"))
	}
	if ribbon.GetString("service_type") != "Top" {
		t.Errorf("service_type = %q, want Top", ribbon.GetString("service_type"))
	}
	if ribbon.GetString("form_factor") != "Curved" {
		t.Errorf("form_factor = %q, want Curved", ribbon.GetString("form_factor"))
	}
	if !ribbon.GetBool("include_spare_parts") {
		t.Error("include_spare_parts = false, want true")
	}
}

func TestSeed_Idempotent(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	if err := collections.Seed(app); err != nil {
		t.Fatalf("first Seed() error: %v", err)
	}
	if err := collections.Seed(app); err != nil {
		t.Fatalf("second Seed() error: %v", err)
	}

	proposalsCol, _ := app.FindCollectionByNameOrId("proposals")
	proposals, _ := app.FindAllRecords(proposalsCol)
	if len(proposals) != 1 {
		t.Errorf("expected 1 proposal after idempotent seed, got %d", len(proposals))
	}

	screensCol, _ := app.FindCollectionByNameOrId("screens")
	screens, _ := app.FindAllRecords(screensCol)
	if len(screens) != 2 {
		t.Errorf("expected 2 screens after idempotent seed, got %d", len(screens))
	}
}

func TestSeed_SkipsWhenDataExists(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	testhelpers.CreateTestProposal(t, app, "Pre-existing Proposal")

	if err := collections.Seed(app); err != nil {
		t.Fatalf("Seed() error: %v", err)
	}

	proposalsCol, _ := app.FindCollectionByNameOrId("proposals")
	proposals, _ := app.FindAllRecords(proposalsCol)
	if len(proposals) != 1 {
		t.Errorf("expected 1 proposal (pre-existing only), got %d", len(proposals))
	}
	if proposals[0].GetString("title") != "Pre-existing Proposal" {
		t.Errorf("expected pre-existing proposal, got %q", proposals[0].GetString("title"))
	}
}
