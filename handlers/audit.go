package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"proposalaudit/services"
)

// buildProposalInputs loads a proposal's screens and options in the shape
// the engine consumes.
func buildProposalInputs(app *pocketbase.PocketBase, proposalID string) ([]services.ScreenInput, services.Options, error) {
	proposal, err := app.FindRecordById("proposals", proposalID)
	if err != nil {
		return nil, services.Options{}, fmt.Errorf("proposal not found: %w", err)
	}

	records, err := findProposalScreens(app, proposalID)
	if err != nil {
		return nil, services.Options{}, fmt.Errorf("load screens: %w", err)
	}

	screens := make([]services.ScreenInput, 0, len(records))
	for _, rec := range records {
		screens = append(screens, services.ScreenInput{
			Name:                 rec.GetString("name"),
			ProductType:          rec.GetString("product_type"),
			WidthFt:              rec.GetFloat("width_ft"),
			HeightFt:             rec.GetFloat("height_ft"),
			Quantity:             rec.GetInt("quantity"),
			PitchMM:              rec.GetFloat("pitch_mm"),
			CostPerSqFt:          rec.GetFloat("cost_per_sqft"),
			DesiredMargin:        rec.GetFloat("desired_margin"),
			ServiceType:          rec.GetString("service_type"),
			FormFactor:           rec.GetString("form_factor"),
			OutletDistanceFt:     rec.GetFloat("outlet_distance_ft"),
			IsReplacement:        rec.GetBool("is_replacement"),
			UseExistingStructure: rec.GetBool("use_existing_structure"),
			IncludeSpareParts:    rec.GetBool("include_spare_parts"),
		})
	}

	opts := services.Options{
		StructuralTonnage:  proposal.GetFloat("structural_tonnage"),
		ReinforcingTonnage: proposal.GetFloat("reinforcing_tonnage"),
		ProjectAddress:     proposal.GetString("project_address"),
		Venue:              proposal.GetString("venue"),
	}
	if v := proposal.GetFloat("tax_rate"); v > 0 {
		opts.TaxRate = &v
	}
	if v := proposal.GetFloat("bond_rate"); v > 0 {
		opts.BondRate = &v
	}
	return screens, opts, nil
}

// HandleProposalAudit runs the engine over a proposal and returns the full
// output contract: client summary plus internal audit. An invalid margin is
// the caller's error, not the server's, and blocks pricing outright.
func HandleProposalAudit(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		screens, opts, err := buildProposalInputs(app, e.Request.PathValue("id"))
		if err != nil {
			return e.String(http.StatusNotFound, "Proposal not found")
		}

		result, err := services.CalculateProposalAudit(screens, opts)
		if err != nil {
			if errors.Is(err, services.ErrInvalidMargin) {
				return e.String(http.StatusUnprocessableEntity, err.Error())
			}
			log.Printf("proposal_audit: calculation failed: %v", err)
			return e.String(http.StatusInternalServerError, "Could not calculate proposal audit.")
		}
		return e.JSON(http.StatusOK, result)
	}
}
