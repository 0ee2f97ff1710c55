package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
)

// screenJSON is the API shape of a screen record.
type screenJSON struct {
	ID                   string  `json:"id"`
	Name                 string  `json:"name"`
	ProductType          string  `json:"productType"`
	WidthFt              float64 `json:"widthFt"`
	HeightFt             float64 `json:"heightFt"`
	Quantity             int     `json:"quantity"`
	PitchMM              float64 `json:"pitchMM"`
	CostPerSqFt          float64 `json:"costPerSqFt"`
	DesiredMargin        float64 `json:"desiredMargin"`
	ServiceType          string  `json:"serviceType"`
	FormFactor           string  `json:"formFactor"`
	OutletDistanceFt     float64 `json:"outletDistanceFt"`
	IsReplacement        bool    `json:"isReplacement"`
	UseExistingStructure bool    `json:"useExistingStructure"`
	IncludeSpareParts    bool    `json:"includeSpareParts"`
}

func screenToJSON(rec *core.Record) screenJSON {
	return screenJSON{
		ID:                   rec.Id,
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
	}
}

func screensToJSON(records []*core.Record) []screenJSON {
	out := make([]screenJSON, 0, len(records))
	for _, rec := range records {
		out = append(out, screenToJSON(rec))
	}
	return out
}

// screenFormFields maps form names to record fields shared by add and edit.
var screenTextFields = map[string]string{
	"name":         "name",
	"product_type": "product_type",
	"service_type": "service_type",
	"form_factor":  "form_factor",
}

var screenNumberFields = map[string]string{
	"width_ft":           "width_ft",
	"height_ft":          "height_ft",
	"quantity":           "quantity",
	"pitch_mm":           "pitch_mm",
	"cost_per_sqft":      "cost_per_sqft",
	"desired_margin":     "desired_margin",
	"outlet_distance_ft": "outlet_distance_ft",
	"sort_order":         "sort_order",
}

var screenBoolFields = map[string]string{
	"is_replacement":         "is_replacement",
	"use_existing_structure": "use_existing_structure",
	"include_spare_parts":    "include_spare_parts",
}

func HandleScreenAdd(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		proposal, err := app.FindRecordById("proposals", e.Request.PathValue("proposalId"))
		if err != nil {
			return e.String(http.StatusNotFound, "Proposal not found")
		}

		name := strings.TrimSpace(e.Request.FormValue("name"))
		if name == "" {
			return e.String(http.StatusBadRequest, "Screen name is required")
		}

		col, err := app.FindCollectionByNameOrId("screens")
		if err != nil {
			log.Printf("screen_add: could not find screens collection: %v", err)
			return e.String(http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		rec := core.NewRecord(col)
		rec.Set("proposal", proposal.Id)
		rec.Set("quantity", 1)
		rec.Set("sort_order", 1)
		applyScreenForm(e, rec)

		if err := app.Save(rec); err != nil {
			log.Printf("screen_add: could not save screen: %v", err)
			return e.String(http.StatusInternalServerError, "Could not save screen.")
		}
		return e.JSON(http.StatusCreated, screenToJSON(rec))
	}
}

func HandleScreenUpdate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		rec, err := app.FindRecordById("screens", e.Request.PathValue("screenId"))
		if err != nil {
			return e.String(http.StatusNotFound, "Screen not found")
		}
		applyScreenForm(e, rec)
		if err := app.Save(rec); err != nil {
			log.Printf("screen_update: could not save screen: %v", err)
			return e.String(http.StatusInternalServerError, "Could not save screen.")
		}
		return e.JSON(http.StatusOK, screenToJSON(rec))
	}
}

func HandleScreenDelete(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		rec, err := app.FindRecordById("screens", e.Request.PathValue("screenId"))
		if err != nil {
			return e.String(http.StatusNotFound, "Screen not found")
		}
		if err := app.Delete(rec); err != nil {
			log.Printf("screen_delete: could not delete screen: %v", err)
			return e.String(http.StatusInternalServerError, "Could not delete screen.")
		}
		return e.NoContent(http.StatusNoContent)
	}
}

// applyScreenForm copies every submitted form value onto the record.
// Missing fields are left untouched so partial edits work.
func applyScreenForm(e *core.RequestEvent, rec *core.Record) {
	if err := e.Request.ParseForm(); err != nil {
		return
	}
	for form, field := range screenTextFields {
		if _, ok := e.Request.Form[form]; ok {
			rec.Set(field, strings.TrimSpace(e.Request.FormValue(form)))
		}
	}
	for form, field := range screenNumberFields {
		if _, ok := e.Request.Form[form]; ok {
			rec.Set(field, formFloat(e, form))
		}
	}
	for form, field := range screenBoolFields {
		if _, ok := e.Request.Form[form]; ok {
			v := strings.ToLower(strings.TrimSpace(e.Request.FormValue(form)))
			rec.Set(field, v == "true" || v == "1" || v == "on")
		}
	}
}
