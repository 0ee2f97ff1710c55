// Package testhelpers provides utilities for testing PocketBase-based applications.
package testhelpers

import (
	"strings"
	"testing"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"proposalaudit/collections"
)

// NewTestApp creates a PocketBase instance backed by a temporary directory.
// It bootstraps the app and runs collections.Setup to create all tables.
// The temporary directory is cleaned up automatically when the test finishes.
func NewTestApp(t *testing.T) *pocketbase.PocketBase {
	t.Helper()

	tmpDir := t.TempDir()
	app := pocketbase.NewWithConfig(pocketbase.Config{
		DefaultDataDir: tmpDir,
	})

	if err := app.Bootstrap(); err != nil {
		t.Fatalf("failed to bootstrap test app: %v", err)
	}

	collections.Setup(app)

	return app
}

// CreateTestProposal creates a proposal record with the given title and returns it.
func CreateTestProposal(t *testing.T, app *pocketbase.PocketBase, title string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("proposals")
	if err != nil {
		t.Fatalf("failed to find proposals collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("title", title)
	record.Set("status", "draft")

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test proposal: %v", err)
	}

	return record
}

// CreateTestScreen creates a screen record linked to a proposal. It fills
// sensible display defaults (10x20ft, P10, 25% margin, front/rear service)
// so callers only set what a test cares about.
func CreateTestScreen(t *testing.T, app *pocketbase.PocketBase, proposalID, name string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("screens")
	if err != nil {
		t.Fatalf("failed to find screens collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("proposal", proposalID)
	record.Set("sort_order", 1)
	record.Set("name", name)
	record.Set("product_type", "P10 Video Board")
	record.Set("width_ft", 20)
	record.Set("height_ft", 10)
	record.Set("quantity", 1)
	record.Set("pitch_mm", 10)
	record.Set("desired_margin", 0.25)
	record.Set("service_type", "Front/Rear")
	record.Set("form_factor", "Straight")

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test screen: %v", err)
	}

	return record
}

// AssertContains checks that body contains all specified fragments.
func AssertContains(t *testing.T, body string, fragments ...string) {
	t.Helper()

	for _, frag := range fragments {
		if !strings.Contains(body, frag) {
			t.Errorf("expected body to contain %q", frag)
		}
	}
}
