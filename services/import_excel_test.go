package services

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

type testSheet struct {
	name string
	rows [][]any
}

// buildTestWorkbook assembles an xlsx in memory from raw sheet rows.
func buildTestWorkbook(t *testing.T, sheets ...testSheet) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), s.name); err != nil {
				t.Fatalf("rename sheet: %v", err)
			}
		} else {
			if _, err := f.NewSheet(s.name); err != nil {
				t.Fatalf("new sheet %q: %v", s.name, err)
			}
		}
		for ri, row := range s.rows {
			if err := f.SetSheetRow(s.name, fmt.Sprintf("A%d", ri+1), &row); err != nil {
				t.Fatalf("set row %d on %q: %v", ri+1, s.name, err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

func scheduleSheet() testSheet {
	return testSheet{
		name: "Display Schedule",
		rows: [][]any{
			{"LED Display Schedule"},
			{"Name", "Pitch (mm)", "Height (ft)", "Width (ft)", "Resolution", "Brightness", "Qty"},
			{"Main Scoreboard", "10", "10", "20", "610 x 305", "5000", "1"},
			{"Alternate Scoreboard Upgrade", "10", "10", "20", "", "", "1"},
			{"South Marquee", "10", "", "20", "", "", ""},
		},
	}
}

func TestImportWorkbookFixedSchema(t *testing.T) {
	data := buildTestWorkbook(t, scheduleSheet())

	result, err := ImportWorkbook(data, "schedule.xlsx", ImportConfig{})
	if err != nil {
		t.Fatalf("ImportWorkbook: %v", err)
	}

	m := result.Manifest
	if m.FileName != "schedule.xlsx" {
		t.Errorf("FileName = %q", m.FileName)
	}
	if m.RowsRead != 5 {
		t.Errorf("RowsRead = %d, want 5", m.RowsRead)
	}
	if m.RowsImported != 1 {
		t.Errorf("RowsImported = %d, want 1", m.RowsImported)
	}
	if m.RowsSkipped[SkipHeader] != 2 {
		t.Errorf("header skips = %d, want 2", m.RowsSkipped[SkipHeader])
	}
	if m.RowsSkipped[SkipAlternate] != 1 {
		t.Errorf("alternate skips = %d, want 1", m.RowsSkipped[SkipAlternate])
	}
	if m.RowsSkipped[SkipMissingDims] != 1 {
		t.Errorf("missing-dimension skips = %d, want 1", m.RowsSkipped[SkipMissingDims])
	}

	if len(result.FormData.Screens) != 1 {
		t.Fatalf("imported %d screens, want 1", len(result.FormData.Screens))
	}
	s := result.FormData.Screens[0]
	if s.Name != "Main Scoreboard" {
		t.Errorf("Name = %q", s.Name)
	}
	assertMoney(t, "WidthFt", s.WidthFt, 20)
	assertMoney(t, "HeightFt", s.HeightFt, 10)
	assertMoney(t, "PitchMM", s.PitchMM, 10)
	assertMoney(t, "DesiredMargin", s.DesiredMargin, DefaultImportMargin)
	if s.Quantity != 1 {
		t.Errorf("Quantity = %d, want 1", s.Quantity)
	}

	// The recomputed audit matches the native calculator for the same input.
	b := result.InternalAudit.PerScreen[0].Breakdown
	assertMoney(t, "TotalCost", b.TotalCost, 43548)
	assertMoney(t, "SellPrice", b.SellPrice, 58064)

	if len(result.ExcelData) != 5 {
		t.Errorf("ExcelData rows = %d, want 5", len(result.ExcelData))
	}
}

func TestImportWorkbookLedgerOverride(t *testing.T) {
	data := buildTestWorkbook(t,
		scheduleSheet(),
		testSheet{
			name: "Master Budget",
			rows: [][]any{
				{"Display", "Cost", "Sell", "Margin"},
				{"MAIN SCOREBOARD (Option 1)", "$50,000.00", "$70,000.00", ""},
				{"Broadcast Booth Displays", "4000", "6000", ""},
			},
		},
	)

	result, err := ImportWorkbook(data, "budget.xlsx", ImportConfig{})
	if err != nil {
		t.Fatalf("ImportWorkbook: %v", err)
	}

	m := result.Manifest
	if len(m.SheetsRead) != 2 || m.SheetsRead[1] != "Master Budget" {
		t.Errorf("SheetsRead = %v", m.SheetsRead)
	}
	if m.LedgerRows != 2 {
		t.Errorf("LedgerRows = %d, want 2", m.LedgerRows)
	}
	if m.LedgerMatched != 1 {
		t.Errorf("LedgerMatched = %d, want 1", m.LedgerMatched)
	}

	// The ledger's authored cost and sell replace the computed ones; the
	// effective margin is back-solved from the pair.
	b := result.InternalAudit.PerScreen[0].Breakdown
	assertMoney(t, "TotalCost", b.TotalCost, 50000)
	assertMoney(t, "SellPrice", b.SellPrice, 70000)
	assertMoney(t, "BondCost", b.BondCost, 1050)
	assertMoney(t, "FinalClientTotal", b.FinalClientTotal, 71050)
	if math.Abs(result.InternalAudit.PerScreen[0].DesiredMargin-2.0/7.0) > 0.0001 {
		t.Errorf("DesiredMargin = %v, want 2/7", result.InternalAudit.PerScreen[0].DesiredMargin)
	}

	// The unmatched ledger row is flagged, not fatal.
	found := false
	for _, ex := range result.Exceptions {
		if strings.Contains(ex, "Broadcast Booth Displays") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an exception for the unmatched ledger row, got %v", result.Exceptions)
	}
}

func TestImportWorkbookLedgerMarginOnly(t *testing.T) {
	data := buildTestWorkbook(t,
		scheduleSheet(),
		testSheet{
			name: "Budget",
			rows: [][]any{
				{"Main Scoreboard", "50000", "", "30%"},
			},
		},
	)

	result, err := ImportWorkbook(data, "budget.xlsx", ImportConfig{})
	if err != nil {
		t.Fatalf("ImportWorkbook: %v", err)
	}

	b := result.InternalAudit.PerScreen[0].Breakdown
	assertMoney(t, "TotalCost", b.TotalCost, 50000)
	assertMoney(t, "SellPrice", b.SellPrice, RoundCents(50000/0.7))
}

func TestImportWorkbookMissingSheet(t *testing.T) {
	data := buildTestWorkbook(t, testSheet{
		name: "Quote",
		rows: [][]any{{"Nothing useful here"}},
	})

	_, err := ImportWorkbook(data, "quote.xlsx", ImportConfig{})
	if !errors.Is(err, ErrMissingSheet) {
		t.Fatalf("err = %v, want ErrMissingSheet", err)
	}
	if !strings.Contains(err.Error(), "quote.xlsx") {
		t.Errorf("error %q does not name the file", err)
	}
}

func shuffledSheet() testSheet {
	return testSheet{
		name: "Screens",
		rows: [][]any{
			{"Qty", "Display Name", "Pitch (mm)", "Width (ft)", "Height (ft)"},
			{"2", "Courtside Ribbon", "10", "20", "10"},
		},
	}
}

func TestImportWorkbookHeaderSearchFallback(t *testing.T) {
	data := buildTestWorkbook(t, shuffledSheet())

	result, err := ImportWorkbook(data, "shuffled.xlsx", ImportConfig{})
	if err != nil {
		t.Fatalf("ImportWorkbook: %v", err)
	}

	if len(result.FormData.Screens) != 1 {
		t.Fatalf("imported %d screens, want 1", len(result.FormData.Screens))
	}
	s := result.FormData.Screens[0]
	if s.Name != "Courtside Ribbon" {
		t.Errorf("Name = %q", s.Name)
	}
	assertMoney(t, "WidthFt", s.WidthFt, 20)
	assertMoney(t, "HeightFt", s.HeightFt, 10)
	if s.Quantity != 2 {
		t.Errorf("Quantity = %d, want 2", s.Quantity)
	}

	// Falling off the fixed schema is flagged for review.
	if len(result.Exceptions) == 0 || !strings.Contains(result.Exceptions[0], "header search") {
		t.Errorf("expected a header-search exception, got %v", result.Exceptions)
	}
}

func TestImportWorkbookStrictSchema(t *testing.T) {
	data := buildTestWorkbook(t, shuffledSheet())

	result, err := ImportWorkbook(data, "shuffled.xlsx", ImportConfig{StrictSchema: true})
	if err != nil {
		t.Fatalf("ImportWorkbook: %v", err)
	}
	if len(result.FormData.Screens) != 0 {
		t.Errorf("strict schema imported %d screens, want 0", len(result.FormData.Screens))
	}
	if len(result.Exceptions) != 0 {
		t.Errorf("strict schema recorded exceptions: %v", result.Exceptions)
	}
}

func TestImportWorkbookDefaultMarginOverride(t *testing.T) {
	data := buildTestWorkbook(t, scheduleSheet())

	result, err := ImportWorkbook(data, "schedule.xlsx", ImportConfig{DefaultMargin: 0.30})
	if err != nil {
		t.Fatalf("ImportWorkbook: %v", err)
	}
	assertMoney(t, "DesiredMargin", result.FormData.Screens[0].DesiredMargin, 0.30)
}

func TestImportWorkbookGarbageInput(t *testing.T) {
	if _, err := ImportWorkbook([]byte("not a workbook"), "junk.xlsx", ImportConfig{}); err == nil {
		t.Error("expected an error for non-xlsx bytes")
	}
}

func TestParseNumberCell(t *testing.T) {
	tests := []struct {
		in     string
		expect float64
	}{
		{"10", 10},
		{"10.5", 10.5},
		{"$1,234.56", 1234.56},
		{" 42 ", 42},
		{"", 0},
		{"n/a", 0},
		{"12ft", 0},
	}
	for _, tt := range tests {
		if got := parseNumberCell(tt.in); got != tt.expect {
			t.Errorf("parseNumberCell(%q) = %v, want %v", tt.in, got, tt.expect)
		}
	}
}

func TestParseMarginCell(t *testing.T) {
	tests := []struct {
		in     string
		expect float64
	}{
		{"0.25", 0.25},
		{"25%", 0.25},
		{"25", 0.25},
		{"0.5", 0.5},
		{"", 0},
	}
	for _, tt := range tests {
		if got := parseMarginCell(tt.in); math.Abs(got-tt.expect) > 0.0001 {
			t.Errorf("parseMarginCell(%q) = %v, want %v", tt.in, got, tt.expect)
		}
	}
}

func TestIsAlternateName(t *testing.T) {
	tests := []struct {
		name   string
		expect bool
	}{
		{"Alt Scoreboard", true},
		{"ALTERNATE: bigger board", true},
		{"alt.", true},
		{"Baltimore Board", false},
		{"Main Scoreboard", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := isAlternateName(tt.name); got != tt.expect {
			t.Errorf("isAlternateName(%q) = %v, want %v", tt.name, got, tt.expect)
		}
	}
}

func TestBestLedgerMatchMinLength(t *testing.T) {
	perScreen := []ScreenAudit{{Name: "Rib"}, {Name: "Main Scoreboard"}}
	used := make([]bool, 2)

	// A 3-character containment is too short to claim a row.
	if idx := bestLedgerMatch("Rib", perScreen, used); idx != -1 {
		t.Errorf("bestLedgerMatch(Rib) = %d, want -1", idx)
	}
	if idx := bestLedgerMatch("main scoreboard pricing", perScreen, used); idx != 1 {
		t.Errorf("bestLedgerMatch = %d, want 1", idx)
	}
}
