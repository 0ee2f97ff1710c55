package services

import "fmt"

// InternalAudit is the fully itemized view: every display's breakdown plus
// the summed totals. Totals are only valid once the shared-cost reallocation
// pass has completed for all displays.
type InternalAudit struct {
	PerScreen []ScreenAudit `json:"perScreen"`
	Totals    CostBreakdown `json:"totals"`
}

// ClientBreakdown is the coarse 4-bucket view shown to clients. Install
// folds in the labor and power lines; Others aggregates the remaining minor
// lines (shipping, pm, general conditions, travel, submittals, engineering,
// permits, cms, demolition).
type ClientBreakdown struct {
	Hardware  float64 `json:"hardware"`
	Structure float64 `json:"structure"`
	Install   float64 `json:"install"`
	Others    float64 `json:"others"`
}

// ClientSummary is the client-safe roll-up. It is derived strictly from
// InternalAudit.Totals, never computed independently.
type ClientSummary struct {
	Subtotal  float64         `json:"subtotal"`
	SalesTax  float64         `json:"salesTax"`
	Total     float64         `json:"total"`
	Breakdown ClientBreakdown `json:"breakdown"`
}

// ProposalResult is the engine's output contract: the internal audit for
// reviewers and the client summary for rendering/export.
type ProposalResult struct {
	ClientSummary ClientSummary `json:"clientSummary"`
	InternalAudit InternalAudit `json:"internalAudit"`
}

// CalculateProposalAudit runs the per-display calculator over every screen,
// reallocates shared structural steel cost, and rolls up project totals and
// the client summary. Identical inputs always produce identical outputs.
func CalculateProposalAudit(screens []ScreenInput, opts Options) (ProposalResult, error) {
	r := opts.rates()

	perScreen := make([]ScreenAudit, 0, len(screens))
	for _, s := range screens {
		audit, err := CalculatePerScreenAudit(s, opts)
		if err != nil {
			return ProposalResult{}, fmt.Errorf("screen %q: %w", s.Name, err)
		}
		perScreen = append(perScreen, audit)
	}

	regional := RegionalTaxApplies(opts.ProjectAddress, opts.Venue)
	reallocateSteel(perScreen, opts, r, regional)

	audit := InternalAudit{
		PerScreen: perScreen,
		Totals:    sumBreakdowns(perScreen),
	}

	subtotal := audit.Totals.FinalClientTotal
	salesTax := RoundCents(subtotal * r.SalesTaxRate)
	summary := ClientSummary{
		Subtotal: subtotal,
		SalesTax: salesTax,
		Total:    RoundCents(subtotal + salesTax),
		Breakdown: ClientBreakdown{
			Hardware:  audit.Totals.Hardware,
			Structure: audit.Totals.Structure,
			Install:   RoundCents(audit.Totals.Install + audit.Totals.Labor + audit.Totals.Power),
			Others:    RoundCents(minorLines(audit.Totals)),
		},
	}

	return ProposalResult{ClientSummary: summary, InternalAudit: audit}, nil
}

// reallocateSteel distributes the shared structural/reinforcing steel cost
// across displays in proportion to their existing structure-cost weight
// (equal split when the total weight is 0). Allocations are cent-rounded
// with the remainder assigned to the last display, so the allocated sum
// equals the tonnage cost exactly. Every touched display is re-priced
// through finishPricing, preserving its back-solved effective margin.
func reallocateSteel(perScreen []ScreenAudit, opts Options, r Rates, regional bool) {
	tons := opts.StructuralTonnage + opts.ReinforcingTonnage
	if tons <= 0 || len(perScreen) == 0 {
		return
	}
	tonnageCost := RoundCents(tons * r.SteelPricePerTon)

	var totalWeight float64
	for _, s := range perScreen {
		totalWeight += s.Breakdown.Structure
	}

	allocated := 0.0
	for i := range perScreen {
		var share float64
		if i == len(perScreen)-1 {
			share = RoundCents(tonnageCost - allocated)
		} else if totalWeight > 0 {
			share = RoundCents(tonnageCost * perScreen[i].Breakdown.Structure / totalWeight)
		} else {
			share = RoundCents(tonnageCost / float64(len(perScreen)))
		}
		allocated = RoundCents(allocated + share)
		if share == 0 {
			continue
		}

		b := &perScreen[i].Breakdown

		// Back-solve the display's effective margin before touching it, so
		// the divisor-model invariant survives the reallocation.
		margin := perScreen[i].DesiredMargin
		if b.SellPrice > 0 {
			margin = 1 - b.TotalCost/b.SellPrice
		}

		b.Structure = RoundCents(b.Structure + share)
		b.TotalCost = RoundCents(b.TotalCost + share)
		b.applyTail(finishPricing(b.TotalCost, margin, r, regional, perScreen[i].TotalAreaSqFt))
	}
}

// sumBreakdowns sums every breakdown field across displays. The selling
// price per square foot is an area-weighted average rather than a sum.
func sumBreakdowns(perScreen []ScreenAudit) CostBreakdown {
	var t CostBreakdown
	var weightedPerSqFt, totalArea float64

	for _, s := range perScreen {
		b := s.Breakdown
		t.Hardware += b.Hardware
		t.Structure += b.Structure
		t.Install += b.Install
		t.Labor += b.Labor
		t.Power += b.Power
		t.Shipping += b.Shipping
		t.PM += b.PM
		t.GeneralConditions += b.GeneralConditions
		t.Travel += b.Travel
		t.Submittals += b.Submittals
		t.Engineering += b.Engineering
		t.Permits += b.Permits
		t.CMS += b.CMS
		t.Demolition += b.Demolition
		t.TotalCost += b.TotalCost
		t.Margin += b.Margin
		t.SellPrice += b.SellPrice
		t.BondCost += b.BondCost
		t.RegionalTaxCost += b.RegionalTaxCost
		t.FinalClientTotal += b.FinalClientTotal

		weightedPerSqFt += b.SellingPricePerSqFt * s.TotalAreaSqFt
		totalArea += s.TotalAreaSqFt
	}

	t.Hardware = RoundCents(t.Hardware)
	t.Structure = RoundCents(t.Structure)
	t.Install = RoundCents(t.Install)
	t.Labor = RoundCents(t.Labor)
	t.Power = RoundCents(t.Power)
	t.Shipping = RoundCents(t.Shipping)
	t.PM = RoundCents(t.PM)
	t.GeneralConditions = RoundCents(t.GeneralConditions)
	t.Travel = RoundCents(t.Travel)
	t.Submittals = RoundCents(t.Submittals)
	t.Engineering = RoundCents(t.Engineering)
	t.Permits = RoundCents(t.Permits)
	t.CMS = RoundCents(t.CMS)
	t.Demolition = RoundCents(t.Demolition)
	t.TotalCost = RoundCents(t.TotalCost)
	t.Margin = RoundCents(t.Margin)
	t.SellPrice = RoundCents(t.SellPrice)
	t.BondCost = RoundCents(t.BondCost)
	t.RegionalTaxCost = RoundCents(t.RegionalTaxCost)
	t.FinalClientTotal = RoundCents(t.FinalClientTotal)
	if totalArea > 0 {
		t.SellingPricePerSqFt = RoundCents(weightedPerSqFt / totalArea)
	}
	return t
}

// minorLines sums the breakdown lines that collapse into the client-facing
// "others" bucket.
func minorLines(b CostBreakdown) float64 {
	return b.Shipping + b.PM + b.GeneralConditions + b.Travel +
		b.Submittals + b.Engineering + b.Permits + b.CMS + b.Demolition
}
