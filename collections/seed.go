package collections

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
)

// ── Definition structs ───────────────────────────────────────────────────

type screenDef struct {
	sortOrder            int
	name                 string
	productType          string
	widthFt              float64
	heightFt             float64
	quantity             int
	pitchMM              float64
	desiredMargin        float64
	serviceType          string
	formFactor           string
	outletDistanceFt     float64
	isReplacement        bool
	useExistingStructure bool
	includeSpareParts    bool
}

type proposalDef struct {
	title   string
	client  string
	venue   string
	status  string
	screens []screenDef
}

var demoProposal = proposalDef{
	title:  "Demo Stadium Video Displays",
	client: "Demo Athletics",
	venue:  "Demo Stadium",
	status: "draft",
	screens: []screenDef{
		{
			sortOrder:     1,
			name:          "Main Scoreboard",
			productType:   "P10 Video Board",
			widthFt:       40,
			heightFt:      22,
			quantity:      1,
			pitchMM:       10,
			desiredMargin: 0.25,
			serviceType:   "Front/Rear",
			formFactor:    "Straight",
		},
		{
			sortOrder:         2,
			name:              "North Ribbon",
			productType:       "P10 Ribbon",
			widthFt:           120,
			heightFt:          3,
			quantity:          1,
			pitchMM:           10,
			desiredMargin:     0.25,
			serviceType:       "Top",
			formFactor:        "Curved",
			includeSpareParts: true,
		},
	},
}

// Seed inserts the demo proposal when the proposals collection is empty, so
// a fresh checkout has something to price.
func Seed(app *pocketbase.PocketBase) error {
	proposalsCol, err := app.FindCollectionByNameOrId("proposals")
	if err != nil {
		return fmt.Errorf("find proposals collection: %w", err)
	}

	existing, err := app.FindAllRecords(proposalsCol)
	if err != nil {
		return fmt.Errorf("query proposals: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	screensCol, err := app.FindCollectionByNameOrId("screens")
	if err != nil {
		return fmt.Errorf("find screens collection: %w", err)
	}

	proposal := core.NewRecord(proposalsCol)
	proposal.Set("title", demoProposal.title)
	proposal.Set("client", demoProposal.client)
	proposal.Set("venue", demoProposal.venue)
	proposal.Set("status", demoProposal.status)
	if err := app.Save(proposal); err != nil {
		return fmt.Errorf("save demo proposal: %w", err)
	}

	for _, s := range demoProposal.screens {
		rec := core.NewRecord(screensCol)
		rec.Set("proposal", proposal.Id)
		rec.Set("sort_order", s.sortOrder)
		rec.Set("name", s.name)
		rec.Set("product_type", s.productType)
		rec.Set("width_ft", s.widthFt)
		rec.Set("height_ft", s.heightFt)
		rec.Set("quantity", s.quantity)
		rec.Set("pitch_mm", s.pitchMM)
		rec.Set("desired_margin", s.desiredMargin)
		rec.Set("service_type", s.serviceType)
		rec.Set("form_factor", s.formFactor)
		rec.Set("outlet_distance_ft", s.outletDistanceFt)
		rec.Set("is_replacement", s.isReplacement)
		rec.Set("use_existing_structure", s.useExistingStructure)
		rec.Set("include_spare_parts", s.includeSpareParts)
		if err := app.Save(rec); err != nil {
			return fmt.Errorf("save demo screen %q: %w", s.name, err)
		}
	}

	log.Printf("Seeded demo proposal %q with %d screens.\n", demoProposal.title, len(demoProposal.screens))
	return nil
}
