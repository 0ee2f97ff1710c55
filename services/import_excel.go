package services

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrMissingSheet is returned when a workbook has none of the expected
// primary technical sheets. There is no partial import in that case: the
// file is not a supported format.
var ErrMissingSheet = errors.New("workbook has no primary technical sheet")

// Sheet names accepted for the two workbook roles. The first match wins.
var (
	primarySheetNames = []string{"Display Schedule", "Screens"}
	ledgerSheetNames  = []string{"Master Budget", "Budget"}
)

// Technical-sheet column positions, schema version 1. A strict fixed map is
// preferred over header-text search: structure drift in an authored
// spreadsheet must not silently remap a financial column.
const (
	colName       = 0 // A
	colPitch      = 1 // B
	colHeight     = 2 // C
	colWidth      = 3 // D
	colResolution = 4 // E
	colBrightness = 5 // F
	colQuantity   = 6 // G
)

// Ledger-sheet column positions: display name, total cost, sell price,
// margin.
const (
	ledgerColName   = 0
	ledgerColCost   = 1
	ledgerColSell   = 2
	ledgerColMargin = 3
)

// ledgerMatchMinLen rejects fuzzy name matches shorter than this many
// characters, so a two-letter fragment cannot claim a ledger row.
const ledgerMatchMinLen = 4

// DefaultImportMargin is assumed for displays whose margin is not overridden
// by a ledger row. The technical sheet carries no margin column.
const DefaultImportMargin = 0.25

// Row skip reasons tallied in the manifest.
const (
	SkipHeader      = "header"
	SkipAlternate   = "alternate"
	SkipMissingDims = "missing_dimensions"
)

// ImportConfig tunes the reconciliation importer. The zero value uses the
// fixed column schema with the header-search fallback enabled.
type ImportConfig struct {
	// StrictSchema disables the dynamic header-search fallback entirely, for
	// environments requiring fixed-schema compliance.
	StrictSchema bool
	// DefaultMargin overrides DefaultImportMargin when positive.
	DefaultMargin float64
	// Options feeds the per-display recomputation (rates, address, venue).
	Options Options
}

// FormData is the editable proposal state reconstructed from a workbook,
// shaped so the form UI can adopt it as if a user had typed it in.
type FormData struct {
	Screens []ScreenInput `json:"screens"`
	Options Options       `json:"options"`
}

// ImportManifest captures control totals for downstream verification: what
// was read, what was skipped and why, and how the ledger reconciled.
type ImportManifest struct {
	FileName      string         `json:"fileName"`
	SheetsRead    []string       `json:"sheetsRead"`
	RowsRead      int            `json:"rowsRead"`
	RowsImported  int            `json:"rowsImported"`
	RowsSkipped   map[string]int `json:"rowsSkipped"`
	LedgerRows    int            `json:"ledgerRows"`
	LedgerMatched int            `json:"ledgerMatched"`
}

// ImportResult is the importer's output: the same shapes the aggregator
// produces, suitable as a drop-in substitute, plus the reconciliation
// manifest, reviewable exception flags and the raw technical rows.
type ImportResult struct {
	FormData      FormData       `json:"formData"`
	InternalAudit InternalAudit  `json:"internalAudit"`
	Manifest      ImportManifest `json:"verificationManifest"`
	Exceptions    []string       `json:"exceptions"`
	ExcelData     [][]string     `json:"excelData"`
}

type ledgerRow struct {
	Name      string
	TotalCost float64
	SellPrice float64
	Margin    float64
}

// ImportWorkbook parses an externally authored cost workbook and produces a
// Mirror Mode audit: the engine computes each display, then any matching
// ledger row's cost/sell/margin values replace the computed ones. Soft
// problems (unmatched rows, malformed cells) become exceptions; a missing
// primary sheet is fatal.
func ImportWorkbook(data []byte, fileName string, cfg ImportConfig) (*ImportResult, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	primary := findSheet(f, primarySheetNames)
	if primary == "" {
		return nil, fmt.Errorf("%s: %w (expected one of %s)",
			fileName, ErrMissingSheet, strings.Join(primarySheetNames, ", "))
	}

	rows, err := f.GetRows(primary)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", primary, err)
	}

	result := &ImportResult{
		Manifest: ImportManifest{
			FileName:    fileName,
			SheetsRead:  []string{primary},
			RowsRead:    len(rows),
			RowsSkipped: map[string]int{},
		},
		ExcelData: rows,
	}

	cols, usedFallback := resolveColumns(rows, cfg.StrictSchema)
	if usedFallback {
		result.Exceptions = append(result.Exceptions,
			fmt.Sprintf("sheet %q did not fit the fixed column schema; columns resolved by header search", primary))
	}

	margin := cfg.DefaultMargin
	if margin <= 0 {
		margin = DefaultImportMargin
	}

	var screens []ScreenInput
	for _, row := range rows {
		name := strings.TrimSpace(cell(row, cols.name))
		pitch := parseNumberCell(cell(row, cols.pitch))
		height := parseNumberCell(cell(row, cols.height))
		width := parseNumberCell(cell(row, cols.width))

		switch {
		case isAlternateName(name):
			result.Manifest.RowsSkipped[SkipAlternate]++
			continue
		case pitch <= 0 || height <= 0 || width <= 0:
			// Covers title and header rows too: they carry no numeric
			// dimensions.
			if name == "" || !hasAnyNumber(row) {
				result.Manifest.RowsSkipped[SkipHeader]++
			} else {
				result.Manifest.RowsSkipped[SkipMissingDims]++
			}
			continue
		}

		qty := int(parseNumberCell(cell(row, cols.quantity)))
		if qty < 1 {
			qty = 1
		}
		screens = append(screens, ScreenInput{
			Name:          name,
			WidthFt:       width,
			HeightFt:      height,
			Quantity:      qty,
			PitchMM:       pitch,
			DesiredMargin: margin,
		})
	}
	result.Manifest.RowsImported = len(screens)
	result.FormData = FormData{Screens: screens, Options: cfg.Options}

	perScreen := make([]ScreenAudit, 0, len(screens))
	for _, s := range screens {
		audit, err := CalculatePerScreenAudit(s, cfg.Options)
		if err != nil {
			return nil, fmt.Errorf("screen %q: %w", s.Name, err)
		}
		perScreen = append(perScreen, audit)
	}

	if ledgerSheet := findSheet(f, ledgerSheetNames); ledgerSheet != "" {
		result.Manifest.SheetsRead = append(result.Manifest.SheetsRead, ledgerSheet)
		ledger, err := readLedger(f, ledgerSheet)
		if err != nil {
			return nil, err
		}
		result.Manifest.LedgerRows = len(ledger)
		result.Manifest.LedgerMatched = mergeLedger(perScreen, ledger, cfg.Options, &result.Exceptions)
	}

	result.InternalAudit = InternalAudit{
		PerScreen: perScreen,
		Totals:    sumBreakdowns(perScreen),
	}
	return result, nil
}

// findSheet returns the first workbook sheet whose name equals one of the
// candidates, ignoring case and surrounding whitespace.
func findSheet(f *excelize.File, candidates []string) string {
	for _, want := range candidates {
		for _, have := range f.GetSheetList() {
			if strings.EqualFold(strings.TrimSpace(have), want) {
				return have
			}
		}
	}
	return ""
}

type techColumns struct {
	name, pitch, height, width, resolution, brightness, quantity int
}

var fixedColumns = techColumns{
	name:       colName,
	pitch:      colPitch,
	height:     colHeight,
	width:      colWidth,
	resolution: colResolution,
	brightness: colBrightness,
	quantity:   colQuantity,
}

// resolveColumns picks the column layout for the technical sheet. The fixed
// schema wins whenever it yields at least one plausible display row; the
// header-text search only runs as a last resort, and not at all under
// StrictSchema.
func resolveColumns(rows [][]string, strict bool) (techColumns, bool) {
	if strict || fixedSchemaFits(rows) {
		return fixedColumns, false
	}
	if cols, ok := searchHeaderColumns(rows); ok {
		return cols, true
	}
	return fixedColumns, false
}

// fixedSchemaFits reports whether any row carries positive pitch, height and
// width in the fixed column positions.
func fixedSchemaFits(rows [][]string) bool {
	for _, row := range rows {
		if parseNumberCell(cell(row, colPitch)) > 0 &&
			parseNumberCell(cell(row, colHeight)) > 0 &&
			parseNumberCell(cell(row, colWidth)) > 0 {
			return true
		}
	}
	return false
}

// searchHeaderColumns is the fallback matcher: it looks for a header row
// containing recognizable column titles and maps columns by text. Kept
// structurally separate from the fixed schema so it can be disabled.
func searchHeaderColumns(rows [][]string) (techColumns, bool) {
	for _, row := range rows {
		cols := techColumns{name: -1, pitch: -1, height: -1, width: -1, resolution: -1, brightness: -1, quantity: -1}
		for i, c := range row {
			switch h := strings.ToLower(strings.TrimSpace(c)); {
			case strings.Contains(h, "name") || strings.Contains(h, "display") || strings.Contains(h, "screen"):
				if cols.name < 0 {
					cols.name = i
				}
			case strings.Contains(h, "pitch"):
				cols.pitch = i
			case strings.Contains(h, "height"):
				cols.height = i
			case strings.Contains(h, "width"):
				cols.width = i
			case strings.Contains(h, "resolution") || strings.Contains(h, "matrix"):
				cols.resolution = i
			case strings.Contains(h, "brightness") || strings.Contains(h, "nit"):
				cols.brightness = i
			case strings.Contains(h, "qty") || strings.Contains(h, "quantity"):
				cols.quantity = i
			}
		}
		if cols.name >= 0 && cols.pitch >= 0 && cols.height >= 0 && cols.width >= 0 {
			return cols, true
		}
	}
	return techColumns{}, false
}

// readLedger parses the master-truth financial sheet.
func readLedger(f *excelize.File, sheet string) ([]ledgerRow, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	var out []ledgerRow
	for _, row := range rows {
		name := strings.TrimSpace(cell(row, ledgerColName))
		cost := parseNumberCell(cell(row, ledgerColCost))
		sell := parseNumberCell(cell(row, ledgerColSell))
		if name == "" || (cost <= 0 && sell <= 0) {
			continue
		}
		out = append(out, ledgerRow{
			Name:      name,
			TotalCost: cost,
			SellPrice: sell,
			Margin:    parseMarginCell(cell(row, ledgerColMargin)),
		})
	}
	return out, nil
}

// mergeLedger overrides computed audits with authored ledger values. The
// ledger is authoritative whenever a row matches; unmatched ledger rows are
// flagged, never fatal. Returns the number of ledger rows applied.
func mergeLedger(perScreen []ScreenAudit, ledger []ledgerRow, opts Options, exceptions *[]string) int {
	r := opts.rates()
	regional := RegionalTaxApplies(opts.ProjectAddress, opts.Venue)

	matched := 0
	used := make([]bool, len(perScreen))
	for _, lr := range ledger {
		idx := bestLedgerMatch(lr.Name, perScreen, used)
		if idx < 0 {
			*exceptions = append(*exceptions,
				fmt.Sprintf("ledger row %q matched no display on the technical sheet", lr.Name))
			continue
		}
		used[idx] = true
		matched++

		b := &perScreen[idx].Breakdown
		if lr.TotalCost > 0 {
			b.TotalCost = RoundCents(lr.TotalCost)
		}
		margin := perScreen[idx].DesiredMargin
		switch {
		case lr.SellPrice > 0 && b.TotalCost > 0:
			margin = 1 - b.TotalCost/lr.SellPrice
		case lr.Margin > 0 && lr.Margin < 1:
			margin = lr.Margin
		}
		perScreen[idx].DesiredMargin = margin
		b.applyTail(finishPricing(b.TotalCost, margin, r, regional, perScreen[idx].TotalAreaSqFt))
	}
	return matched
}

// bestLedgerMatch fuzzy-matches a ledger name against display names using
// bidirectional substring containment. Among candidates the longest
// containment wins; matches shorter than ledgerMatchMinLen are rejected.
func bestLedgerMatch(ledgerName string, perScreen []ScreenAudit, used []bool) int {
	ln := normalizeName(ledgerName)
	best, bestLen := -1, 0
	for i, s := range perScreen {
		if used[i] {
			continue
		}
		sn := normalizeName(s.Name)
		var matchLen int
		switch {
		case ln == "" || sn == "":
			continue
		case strings.Contains(sn, ln):
			matchLen = len(ln)
		case strings.Contains(ln, sn):
			matchLen = len(sn)
		default:
			continue
		}
		if matchLen >= ledgerMatchMinLen && matchLen > bestLen {
			best, bestLen = i, matchLen
		}
	}
	return best
}

func normalizeName(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}

// isAlternateName reports whether a row is an alternate/option pricing row.
// Prefix match only: a display legitimately named "Baltimore" must not be
// dropped for containing "alt".
func isAlternateName(name string) bool {
	return strings.HasPrefix(strings.ToLower(name), "alt")
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func hasAnyNumber(row []string) bool {
	for _, c := range row {
		if parseNumberCell(c) != 0 {
			return true
		}
	}
	return false
}

// parseNumberCell coerces a spreadsheet cell to a float64. Currency symbols
// and thousands separators are stripped; malformed or blank cells coerce to
// 0 rather than failing the import.
func parseNumberCell(s string) float64 {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.ReplaceAll(cleaned, "$", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return 0
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return v
}

// parseMarginCell reads a margin cell that may be authored as a ratio
// (0.25), a percent number (25) or percent text ("25%").
func parseMarginCell(s string) float64 {
	cleaned := strings.TrimSpace(s)
	percent := strings.HasSuffix(cleaned, "%")
	v := parseNumberCell(strings.TrimSuffix(cleaned, "%"))
	if percent || v >= 1 {
		v /= 100
	}
	return v
}
