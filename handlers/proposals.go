// Package handlers exposes the pricing engine over the PocketBase router:
// proposal and screen CRUD, audit calculation, workbook import and the
// Excel/PDF exports.
package handlers

import (
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
)

// proposalJSON is the API shape of a proposal record.
type proposalJSON struct {
	ID                 string  `json:"id"`
	Title              string  `json:"title"`
	Client             string  `json:"client"`
	ProjectAddress     string  `json:"projectAddress"`
	Venue              string  `json:"venue"`
	TaxRate            float64 `json:"taxRate"`
	BondRate           float64 `json:"bondRate"`
	StructuralTonnage  float64 `json:"structuralTonnage"`
	ReinforcingTonnage float64 `json:"reinforcingTonnage"`
	Status             string  `json:"status"`
	ScreenCount        int     `json:"screenCount"`
}

func proposalToJSON(rec *core.Record, screenCount int) proposalJSON {
	return proposalJSON{
		ID:                 rec.Id,
		Title:              rec.GetString("title"),
		Client:             rec.GetString("client"),
		ProjectAddress:     rec.GetString("project_address"),
		Venue:              rec.GetString("venue"),
		TaxRate:            rec.GetFloat("tax_rate"),
		BondRate:           rec.GetFloat("bond_rate"),
		StructuralTonnage:  rec.GetFloat("structural_tonnage"),
		ReinforcingTonnage: rec.GetFloat("reinforcing_tonnage"),
		Status:             rec.GetString("status"),
		ScreenCount:        screenCount,
	}
}

func HandleProposalList(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		proposalsCol, err := app.FindCollectionByNameOrId("proposals")
		if err != nil {
			log.Printf("proposal_list: could not find proposals collection: %v", err)
			return e.String(http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		records, err := app.FindAllRecords(proposalsCol)
		if err != nil {
			log.Printf("proposal_list: could not query proposals: %v", err)
			return e.String(http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		items := make([]proposalJSON, 0, len(records))
		for _, rec := range records {
			screens, err := findProposalScreens(app, rec.Id)
			if err != nil {
				screens = nil
			}
			items = append(items, proposalToJSON(rec, len(screens)))
		}
		return e.JSON(http.StatusOK, items)
	}
}

func HandleProposalCreate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		title := strings.TrimSpace(e.Request.FormValue("title"))
		if title == "" {
			return e.String(http.StatusBadRequest, "Title is required")
		}

		col, err := app.FindCollectionByNameOrId("proposals")
		if err != nil {
			log.Printf("proposal_create: could not find proposals collection: %v", err)
			return e.String(http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		rec := core.NewRecord(col)
		rec.Set("title", title)
		rec.Set("client", strings.TrimSpace(e.Request.FormValue("client")))
		rec.Set("project_address", strings.TrimSpace(e.Request.FormValue("project_address")))
		rec.Set("venue", strings.TrimSpace(e.Request.FormValue("venue")))
		rec.Set("tax_rate", formFloat(e, "tax_rate"))
		rec.Set("bond_rate", formFloat(e, "bond_rate"))
		rec.Set("structural_tonnage", formFloat(e, "structural_tonnage"))
		rec.Set("reinforcing_tonnage", formFloat(e, "reinforcing_tonnage"))
		rec.Set("status", "draft")

		if err := app.Save(rec); err != nil {
			log.Printf("proposal_create: could not save proposal: %v", err)
			return e.String(http.StatusInternalServerError, "Could not save proposal.")
		}
		return e.JSON(http.StatusCreated, proposalToJSON(rec, 0))
	}
}

func HandleProposalView(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		rec, err := app.FindRecordById("proposals", e.Request.PathValue("id"))
		if err != nil {
			return e.String(http.StatusNotFound, "Proposal not found")
		}
		screens, err := findProposalScreens(app, rec.Id)
		if err != nil {
			screens = nil
		}
		return e.JSON(http.StatusOK, map[string]any{
			"proposal": proposalToJSON(rec, len(screens)),
			"screens":  screensToJSON(screens),
		})
	}
}

func HandleProposalUpdate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		rec, err := app.FindRecordById("proposals", e.Request.PathValue("id"))
		if err != nil {
			return e.String(http.StatusNotFound, "Proposal not found")
		}

		setIfPresent := func(form, field string) {
			if _, ok := e.Request.Form[form]; ok {
				rec.Set(field, strings.TrimSpace(e.Request.FormValue(form)))
			}
		}
		if err := e.Request.ParseForm(); err != nil {
			return e.String(http.StatusBadRequest, "Invalid form data")
		}
		setIfPresent("title", "title")
		setIfPresent("client", "client")
		setIfPresent("project_address", "project_address")
		setIfPresent("venue", "venue")
		setIfPresent("status", "status")
		for _, f := range []string{"tax_rate", "bond_rate", "structural_tonnage", "reinforcing_tonnage"} {
			if _, ok := e.Request.Form[f]; ok {
				rec.Set(f, formFloat(e, f))
			}
		}

		if err := app.Save(rec); err != nil {
			log.Printf("proposal_update: could not save proposal: %v", err)
			return e.String(http.StatusInternalServerError, "Could not save proposal.")
		}
		screens, _ := findProposalScreens(app, rec.Id)
		return e.JSON(http.StatusOK, proposalToJSON(rec, len(screens)))
	}
}

func HandleProposalDelete(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		rec, err := app.FindRecordById("proposals", e.Request.PathValue("id"))
		if err != nil {
			return e.String(http.StatusNotFound, "Proposal not found")
		}
		if err := app.Delete(rec); err != nil {
			log.Printf("proposal_delete: could not delete proposal: %v", err)
			return e.String(http.StatusInternalServerError, "Could not delete proposal.")
		}
		return e.NoContent(http.StatusNoContent)
	}
}

// findProposalScreens returns a proposal's screen records in sort order.
func findProposalScreens(app *pocketbase.PocketBase, proposalID string) ([]*core.Record, error) {
	col, err := app.FindCollectionByNameOrId("screens")
	if err != nil {
		return nil, err
	}
	return app.FindRecordsByFilter(col, "proposal = {:proposalId}", "sort_order", 0, 0,
		map[string]any{"proposalId": proposalID})
}

// formFloat reads a numeric form value, treating blanks and garbage as 0.
func formFloat(e *core.RequestEvent, name string) float64 {
	v, _ := strconv.ParseFloat(strings.TrimSpace(e.Request.FormValue(name)), 64)
	return v
}
