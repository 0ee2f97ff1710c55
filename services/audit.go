package services

import "errors"

// ErrInvalidMargin is returned when a desired margin of 100% or more is
// requested. The divisor model sellPrice = totalCost / (1 - margin) is
// undefined there, so the check runs before any division and is never
// clamped away.
var ErrInvalidMargin = errors.New("desired margin must be less than 100%")

// ServiceTypeTop marks displays serviced from behind the structure; anything
// else is treated as front/rear service.
const ServiceTypeTop = "Top"

// FormFactorCurved marks curved builds, which carry structure and labor
// multipliers.
const FormFactorCurved = "Curved"

// ScreenInput is one display's specification as supplied by the form UI or
// extracted from a workbook. It is immutable for the duration of a
// calculation pass.
type ScreenInput struct {
	Name                 string  `json:"name"`
	ProductType          string  `json:"productType"`
	WidthFt              float64 `json:"widthFt"`
	HeightFt             float64 `json:"heightFt"`
	Quantity             int     `json:"quantity"`
	PitchMM              float64 `json:"pitchMM"`
	CostPerSqFt          float64 `json:"costPerSqFt,omitempty"` // 0 means no override
	DesiredMargin        float64 `json:"desiredMargin"`
	ServiceType          string  `json:"serviceType"`
	FormFactor           string  `json:"formFactor"`
	OutletDistanceFt     float64 `json:"outletDistanceFt"`
	IsReplacement        bool    `json:"isReplacement"`
	UseExistingStructure bool    `json:"useExistingStructure"`
	IncludeSpareParts    bool    `json:"includeSpareParts"`
}

// CostBreakdown holds every cost line for one display (or the summed
// project totals). TotalCost excludes bond and tax; FinalClientTotal is
// SellPrice + BondCost + RegionalTaxCost; Margin is SellPrice - TotalCost.
type CostBreakdown struct {
	Hardware          float64 `json:"hardware"`
	Structure         float64 `json:"structure"`
	Install           float64 `json:"install"`
	Labor             float64 `json:"labor"`
	Power             float64 `json:"power"`
	Shipping          float64 `json:"shipping"`
	PM                float64 `json:"pm"`
	GeneralConditions float64 `json:"generalConditions"`
	Travel            float64 `json:"travel"`
	Submittals        float64 `json:"submittals"`
	Engineering       float64 `json:"engineering"`
	Permits           float64 `json:"permits"`
	CMS               float64 `json:"cms"`
	Demolition        float64 `json:"demolition"`

	TotalCost           float64 `json:"totalCost"`
	Margin              float64 `json:"margin"`
	SellPrice           float64 `json:"sellPrice"`
	BondCost            float64 `json:"bondCost"`
	RegionalTaxCost     float64 `json:"regionalTaxCost"`
	FinalClientTotal    float64 `json:"finalClientTotal"`
	SellingPricePerSqFt float64 `json:"sellingPricePerSqFt"`
}

// ScreenAudit is the computed result for one display.
type ScreenAudit struct {
	Name          string          `json:"name"`
	Quantity      int             `json:"quantity"`
	PitchMM       float64         `json:"pitchMM"`
	WidthFt       float64         `json:"widthFt"`  // achieved when a module match ran
	HeightFt      float64         `json:"heightFt"` // achieved when a module match ran
	AreaSqFt      float64         `json:"areaSqFt"` // per unit
	TotalAreaSqFt float64         `json:"totalAreaSqFt"`
	PixelMatrix   string          `json:"pixelMatrix"`
	Matched       *MatchingResult `json:"matched,omitempty"`
	DesiredMargin float64         `json:"desiredMargin"`
	Breakdown     CostBreakdown   `json:"breakdown"`
}

// pricingTail is the derived slice of a breakdown: everything downstream of
// TotalCost. finishPricing is the only place these fields are computed, so
// the calculator, the tonnage reallocation pass and the ledger merge cannot
// drift apart.
type pricingTail struct {
	SellPrice           float64
	BondCost            float64
	RegionalTaxCost     float64
	FinalClientTotal    float64
	Margin              float64
	SellingPricePerSqFt float64
}

// finishPricing applies the margin divisor model and the bond/regional-tax
// cascade to a total cost. regional selects the regional tax rule; totalArea
// of 0 yields a 0 per-sqft price. margin must already be validated < 1.
func finishPricing(totalCost, margin float64, r Rates, regional bool, totalArea float64) pricingTail {
	sell := RoundCents(totalCost / (1 - margin))
	bond := RoundCents(sell * r.BondRate)
	var regionalTax float64
	if regional {
		regionalTax = RoundCents((sell + bond) * r.RegionalTaxRate)
	}
	final := RoundCents(sell + bond + regionalTax)
	perSqFt := 0.0
	if totalArea > 0 {
		perSqFt = RoundCents(final / totalArea)
	}
	return pricingTail{
		SellPrice:           sell,
		BondCost:            bond,
		RegionalTaxCost:     regionalTax,
		FinalClientTotal:    final,
		Margin:              RoundCents(sell - totalCost),
		SellingPricePerSqFt: perSqFt,
	}
}

func (b *CostBreakdown) applyTail(t pricingTail) {
	b.SellPrice = t.SellPrice
	b.BondCost = t.BondCost
	b.RegionalTaxCost = t.RegionalTaxCost
	b.FinalClientTotal = t.FinalClientTotal
	b.Margin = t.Margin
	b.SellingPricePerSqFt = t.SellingPricePerSqFt
}

// CalculatePerScreenAudit computes one display's full cost, margin and tax
// breakdown. Every monetary intermediate is rounded to the cent as it is
// produced.
func CalculatePerScreenAudit(in ScreenInput, opts Options) (ScreenAudit, error) {
	if in.DesiredMargin >= 1 {
		return ScreenAudit{}, ErrInvalidMargin
	}
	r := opts.rates()

	qty := in.Quantity
	if qty < 1 {
		qty = 1
	}

	// Unit cost: explicit override, then catalog, then default. LookupPitch
	// already degrades to the default entry.
	costPerSqFt := in.CostPerSqFt
	if costPerSqFt <= 0 {
		costPerSqFt = LookupPitch(in.PitchMM).CostPerSqFt
	}

	// Fit the target opening to a buildable panel grid. When a match runs,
	// the achieved dimensions replace the raw target for all downstream
	// pixel and area math.
	widthFt, heightFt := in.WidthFt, in.HeightFt
	var matched *MatchingResult
	if key := ModuleKeyFor(in.ProductType, in.PitchMM); key != "" && in.WidthFt > 0 && in.HeightFt > 0 {
		if m, ok := MatchModules(in.WidthFt, in.HeightFt, key); ok {
			matched = &m
			widthFt, heightFt = m.WidthFt, m.HeightFt
		}
	}

	area := widthFt * heightFt
	totalArea := area * float64(qty)
	curved := in.FormFactor == FormFactorCurved

	hardwareUnit := RoundCents(area * costPerSqFt)
	if in.IncludeSpareParts {
		// Spare-parts surcharge applies per unit, before the quantity
		// multiplier.
		hardwareUnit = RoundCents(hardwareUnit * (1 + r.SparePartsPct))
	}

	var b CostBreakdown
	b.Hardware = RoundCents(hardwareUnit * float64(qty))

	structurePct := r.StructureFrontRearPct
	if in.ServiceType == ServiceTypeTop {
		structurePct = r.StructureTopPct
	}
	engineeringPct := 0.0
	if in.IsReplacement && in.UseExistingStructure {
		// Infrastructure credit: existing steel is reused, so new-structure
		// work shrinks and site-audit engineering grows.
		structurePct = r.StructureReusePct
		engineeringPct = r.EngineeringReusePct
	}

	structureMult, laborMult := 1.0, 1.0
	if curved {
		structureMult = r.CurvedStructureMult
		laborMult = r.CurvedLaborMult
	}

	b.Structure = RoundCents(b.Hardware * structurePct * structureMult)
	b.Install = RoundCents(r.InstallFee * laborMult)
	b.Labor = RoundCents(b.Hardware * r.LaborPct * laborMult)
	b.Power = RoundCents(b.Hardware * r.PowerPct)
	if in.OutletDistanceFt > r.OutletDistanceLimitFt {
		b.Power = RoundCents(b.Power + r.OutletSurcharge)
	}
	b.Shipping = RoundCents(totalArea * r.ShippingPerSqFt)
	b.PM = RoundCents(totalArea * r.PMPerSqFt)
	b.GeneralConditions = RoundCents(b.Hardware * r.GeneralConditionsPct)
	b.Travel = RoundCents(b.Hardware * r.TravelPct)
	b.Submittals = RoundCents(b.Hardware * r.SubmittalsPct)
	b.Engineering = RoundCents(b.Hardware * engineeringPct)
	b.Permits = r.PermitsFee
	b.CMS = RoundCents(b.Hardware * r.CMSPct)
	if in.IsReplacement {
		b.Demolition = r.DemolitionFee
	}

	b.TotalCost = RoundCents(b.Hardware + b.Structure + b.Install + b.Labor +
		b.Power + b.Shipping + b.PM + b.GeneralConditions + b.Travel +
		b.Submittals + b.Engineering + b.Permits + b.CMS + b.Demolition)

	regional := RegionalTaxApplies(opts.ProjectAddress, opts.Venue)
	b.applyTail(finishPricing(b.TotalCost, in.DesiredMargin, r, regional, totalArea))

	return ScreenAudit{
		Name:          in.Name,
		Quantity:      qty,
		PitchMM:       in.PitchMM,
		WidthFt:       widthFt,
		HeightFt:      heightFt,
		AreaSqFt:      area,
		TotalAreaSqFt: totalArea,
		PixelMatrix:   PixelMatrix(widthFt, heightFt, in.PitchMM),
		Matched:       matched,
		DesiredMargin: in.DesiredMargin,
		Breakdown:     b,
	}, nil
}
