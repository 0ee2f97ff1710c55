package handlers

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"proposalaudit/services"
)

// maxImportBytes caps uploaded workbook size (16 MiB).
const maxImportBytes = 16 << 20

// HandleProposalImport accepts a cost workbook upload, runs the
// reconciliation importer and replaces the proposal's screens with the
// imported ones. The response carries the Mirror Mode audit, the
// verification manifest and any exception flags; a workbook without a
// primary technical sheet is rejected outright.
func HandleProposalImport(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		proposal, err := app.FindRecordById("proposals", e.Request.PathValue("id"))
		if err != nil {
			return e.String(http.StatusNotFound, "Proposal not found")
		}

		file, header, err := e.Request.FormFile("file")
		if err != nil {
			return e.String(http.StatusBadRequest, "Missing workbook upload (field \"file\")")
		}
		defer file.Close()

		data, err := io.ReadAll(io.LimitReader(file, maxImportBytes))
		if err != nil {
			log.Printf("proposal_import: could not read upload: %v", err)
			return e.String(http.StatusBadRequest, "Could not read uploaded file.")
		}

		_, opts, err := buildProposalInputs(app, proposal.Id)
		if err != nil {
			opts = services.Options{}
		}
		strict := e.Request.FormValue("strict_schema") == "true"

		result, err := services.ImportWorkbook(data, header.Filename, services.ImportConfig{
			StrictSchema: strict,
			Options:      opts,
		})
		if err != nil {
			if errors.Is(err, services.ErrMissingSheet) {
				return e.String(http.StatusUnprocessableEntity, err.Error())
			}
			log.Printf("proposal_import: import failed: %v", err)
			return e.String(http.StatusBadRequest, "Could not import workbook.")
		}

		if err := replaceProposalScreens(app, proposal.Id, result.FormData.Screens); err != nil {
			log.Printf("proposal_import: could not persist screens: %v", err)
			return e.String(http.StatusInternalServerError, "Could not save imported screens.")
		}

		return e.JSON(http.StatusOK, result)
	}
}

// replaceProposalScreens swaps a proposal's screen records for the imported
// set.
func replaceProposalScreens(app *pocketbase.PocketBase, proposalID string, screens []services.ScreenInput) error {
	existing, err := findProposalScreens(app, proposalID)
	if err != nil {
		return err
	}
	for _, rec := range existing {
		if err := app.Delete(rec); err != nil {
			return err
		}
	}

	col, err := app.FindCollectionByNameOrId("screens")
	if err != nil {
		return err
	}
	for i, s := range screens {
		rec := core.NewRecord(col)
		rec.Set("proposal", proposalID)
		rec.Set("sort_order", i+1)
		rec.Set("name", s.Name)
		rec.Set("product_type", s.ProductType)
		rec.Set("width_ft", s.WidthFt)
		rec.Set("height_ft", s.HeightFt)
		rec.Set("quantity", s.Quantity)
		rec.Set("pitch_mm", s.PitchMM)
		rec.Set("cost_per_sqft", s.CostPerSqFt)
		rec.Set("desired_margin", s.DesiredMargin)
		rec.Set("service_type", s.ServiceType)
		rec.Set("form_factor", s.FormFactor)
		rec.Set("outlet_distance_ft", s.OutletDistanceFt)
		rec.Set("is_replacement", s.IsReplacement)
		rec.Set("use_existing_structure", s.UseExistingStructure)
		rec.Set("include_spare_parts", s.IncludeSpareParts)
		if err := app.Save(rec); err != nil {
			return err
		}
	}
	return nil
}
