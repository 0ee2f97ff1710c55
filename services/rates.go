package services

import "strings"

// Rates centralizes every rate, percentage and fixed fee the calculator
// uses, so a test can override one number without touching the algorithm.
// Zero-value fields are replaced by their defaults when an Options value is
// normalized, which keeps a literal Options{} usable.
type Rates struct {
	DefaultCostPerSqFt float64 // hardware $/sqft when no override and no catalog match

	SparePartsPct float64 // additive surcharge on per-unit hardware cost

	StructureTopPct       float64 // service from the top
	StructureFrontRearPct float64 // service from the front or rear
	StructureReusePct     float64 // infrastructure credit: replacement on existing steel
	EngineeringReusePct   float64 // engineering bump paired with the credit

	CurvedStructureMult float64
	CurvedLaborMult     float64 // applies to labor and to the install fee

	LaborPct             float64
	PowerPct             float64
	GeneralConditionsPct float64
	TravelPct            float64
	SubmittalsPct        float64
	CMSPct               float64

	ShippingPerSqFt float64
	PMPerSqFt       float64

	InstallFee    float64
	PermitsFee    float64
	DemolitionFee float64

	OutletDistanceLimitFt float64
	OutletSurcharge       float64

	BondRate        float64
	RegionalTaxRate float64
	SalesTaxRate    float64

	SteelPricePerTon float64
}

// DefaultRates returns the standard rate card.
func DefaultRates() Rates {
	return Rates{
		DefaultCostPerSqFt: 120,

		SparePartsPct: 0.05,

		StructureTopPct:       0.10,
		StructureFrontRearPct: 0.20,
		StructureReusePct:     0.05,
		EngineeringReusePct:   0.05,

		CurvedStructureMult: 1.25,
		CurvedLaborMult:     1.15,

		LaborPct:             0.15,
		PowerPct:             0.15,
		GeneralConditionsPct: 0.02,
		TravelPct:            0.03,
		SubmittalsPct:        0.01,
		CMSPct:               0.02,

		ShippingPerSqFt: 0.14,
		PMPerSqFt:       0.50,

		InstallFee:    5000,
		PermitsFee:    500,
		DemolitionFee: 5000,

		OutletDistanceLimitFt: 50,
		OutletSurcharge:       2500,

		BondRate:        0.015,
		RegionalTaxRate: 0.02,
		SalesTaxRate:    0.095,

		SteelPricePerTon: 5000,
	}
}

// Options carries the per-proposal knobs: rate overrides, shared structural
// steel tonnage, and the address/venue text used for the regional tax rule.
type Options struct {
	Rates *Rates `json:"-"` // nil means DefaultRates

	TaxRate  *float64 `json:"taxRate,omitempty"`  // project sales tax override
	BondRate *float64 `json:"bondRate,omitempty"` // performance bond override

	StructuralTonnage  float64 `json:"structuralTonnage,omitempty"`
	ReinforcingTonnage float64 `json:"reinforcingTonnage,omitempty"`

	ProjectAddress string `json:"projectAddress,omitempty"`
	Venue          string `json:"venue,omitempty"`
}

// rates resolves the effective rate card, folding the scalar overrides in.
func (o Options) rates() Rates {
	r := DefaultRates()
	if o.Rates != nil {
		r = *o.Rates
	}
	if o.TaxRate != nil {
		r.SalesTaxRate = *o.TaxRate
	}
	if o.BondRate != nil {
		r.BondRate = *o.BondRate
	}
	return r
}

// regionalTaxKeywords is the hard-coded location trigger for the regional
// tax rule. TODO: replace with a jurisdiction/rate table once a second
// taxing region shows up; the keyword list only covers the Lubbock venues.
var regionalTaxKeywords = []string{
	"lubbock",
	"texas tech",
	"jones at&t stadium",
}

// RegionalTaxApplies reports whether the project address or venue text
// matches the regional tax jurisdiction.
func RegionalTaxApplies(address, venue string) bool {
	text := strings.ToLower(address + " " + venue)
	for _, kw := range regionalTaxKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
