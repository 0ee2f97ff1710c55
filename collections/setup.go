package collections

import (
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
)

// Setup programmatically creates/ensures the proposals and screens
// collections exist.
func Setup(app *pocketbase.PocketBase) {
	proposals := ensureCollection(app, "proposals", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "title", Required: true})
		c.Fields.Add(&core.TextField{Name: "client", Required: false})
		c.Fields.Add(&core.TextField{Name: "project_address", Required: false})
		c.Fields.Add(&core.TextField{Name: "venue", Required: false})
		c.Fields.Add(&core.NumberField{Name: "tax_rate", Required: false})
		c.Fields.Add(&core.NumberField{Name: "bond_rate", Required: false})
		c.Fields.Add(&core.NumberField{Name: "structural_tonnage", Required: false})
		c.Fields.Add(&core.NumberField{Name: "reinforcing_tonnage", Required: false})
		c.Fields.Add(&core.SelectField{
			Name:      "status",
			Required:  false,
			Values:    []string{"draft", "sent", "won", "lost"},
			MaxSelect: 1,
		})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
	})

	ensureCollection(app, "screens", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "proposal",
			Required:      true,
			CollectionId:  proposals.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.NumberField{Name: "sort_order", Required: true})
		c.Fields.Add(&core.TextField{Name: "name", Required: true})
		c.Fields.Add(&core.TextField{Name: "product_type", Required: false})
		c.Fields.Add(&core.NumberField{Name: "width_ft", Required: true})
		c.Fields.Add(&core.NumberField{Name: "height_ft", Required: true})
		c.Fields.Add(&core.NumberField{Name: "quantity", Required: true})
		c.Fields.Add(&core.NumberField{Name: "pitch_mm", Required: true})
		c.Fields.Add(&core.NumberField{Name: "cost_per_sqft", Required: false})
		c.Fields.Add(&core.NumberField{Name: "desired_margin", Required: true})
		c.Fields.Add(&core.SelectField{
			Name:      "service_type",
			Required:  false,
			Values:    []string{"Top", "Front/Rear"},
			MaxSelect: 1,
		})
		c.Fields.Add(&core.SelectField{
			Name:      "form_factor",
			Required:  false,
			Values:    []string{"Straight", "Curved"},
			MaxSelect: 1,
		})
		c.Fields.Add(&core.NumberField{Name: "outlet_distance_ft", Required: false})
		c.Fields.Add(&core.BoolField{Name: "is_replacement"})
		c.Fields.Add(&core.BoolField{Name: "use_existing_structure"})
		c.Fields.Add(&core.BoolField{Name: "include_spare_parts"})
	})
}

// ensureCollection checks if a collection already exists by name. If it does,
// the existing collection is returned. Otherwise a new base collection is
// created, the addFields callback is invoked to populate its fields, and the
// collection is saved.
func ensureCollection(app *pocketbase.PocketBase, name string, addFields func(*core.Collection)) *core.Collection {
	existing, err := app.FindCollectionByNameOrId(name)
	if err == nil && existing != nil {
		log.Printf("Collection %q already exists, skipping creation.\n", name)
		return existing
	}

	collection := core.NewBaseCollection(name)
	addFields(collection)

	if err := app.Save(collection); err != nil {
		log.Printf("Failed to create collection %q: %v\n", name, err)
		return collection
	}
	log.Printf("Created collection %q.\n", name)
	return collection
}
