package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"proposalaudit/testhelpers"
)

func TestHandleAuditExportExcel(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	proposal := testhelpers.CreateTestProposal(t, app, "Export Me")
	testhelpers.CreateTestScreen(t, app, proposal.Id, "Main Scoreboard")
	handler := HandleAuditExportExcel(app)

	req := httptest.NewRequest(http.MethodGet, "/proposals/"+proposal.Id+"/export/excel", nil)
	req.SetPathValue("id", proposal.Id)
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)

	if err := handler(e); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("Content-Type = %q", ct)
	}
	cd := rec.Header().Get("Content-Disposition")
	if !strings.Contains(cd, "Audit_Export-Me_") || !strings.Contains(cd, ".xlsx") {
		t.Errorf("Content-Disposition = %q", cd)
	}

	// The payload is a valid workbook with the audit sheet.
	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("response is not a valid workbook: %v", err)
	}
	defer f.Close()
	if v, _ := f.GetCellValue("Audit", "B3"); v != "Main Scoreboard" {
		t.Errorf("B3 = %q, want Main Scoreboard", v)
	}
}

func TestHandleAuditExportExcel_NotFound(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	handler := HandleAuditExportExcel(app)

	req := httptest.NewRequest(http.MethodGet, "/proposals/nonexistent/export/excel", nil)
	req.SetPathValue("id", "nonexistent")
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)

	if err := handler(e); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rec.Code)
	}
}

func TestHandleAuditExportExcel_InvalidMargin(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	proposal := testhelpers.CreateTestProposal(t, app, "Bad Margin Export")
	screen := testhelpers.CreateTestScreen(t, app, proposal.Id, "Oversold Board")
	screen.Set("desired_margin", 1.2)
	if err := app.Save(screen); err != nil {
		t.Fatalf("save screen: %v", err)
	}
	handler := HandleAuditExportExcel(app)

	req := httptest.NewRequest(http.MethodGet, "/proposals/"+proposal.Id+"/export/excel", nil)
	req.SetPathValue("id", proposal.Id)
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)

	if err := handler(e); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected status 422, got %d", rec.Code)
	}
}

func TestHandleProposalExportPDF(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	proposal := testhelpers.CreateTestProposal(t, app, "PDF Export")
	testhelpers.CreateTestScreen(t, app, proposal.Id, "Main Scoreboard")
	handler := HandleProposalExportPDF(app)

	req := httptest.NewRequest(http.MethodGet, "/proposals/"+proposal.Id+"/export/pdf", nil)
	req.SetPathValue("id", proposal.Id)
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)

	if err := handler(e); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Content-Type = %q", ct)
	}
	cd := rec.Header().Get("Content-Disposition")
	if !strings.Contains(cd, "Proposal_PDF-Export_") || !strings.Contains(cd, ".pdf") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	body := rec.Body.Bytes()
	if len(body) < 5 || string(body[:5]) != "%PDF-" {
		t.Error("response does not start with a PDF header")
	}
}

func TestHandleProposalExportPDF_NotFound(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	handler := HandleProposalExportPDF(app)

	req := httptest.NewRequest(http.MethodGet, "/proposals/nonexistent/export/pdf", nil)
	req.SetPathValue("id", "nonexistent")
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)

	if err := handler(e); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rec.Code)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in     string
		expect string
	}{
		{"Plain Title", "Plain-Title"},
		{"a/b\\c:d", "a-b-c-d"},
		{"already-safe", "already-safe"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.expect {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.expect)
		}
	}
}
