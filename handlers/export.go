package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"proposalaudit/services"
)

// HandleAuditExportExcel streams the internal audit workbook with live
// recomputation formulas.
func HandleAuditExportExcel(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		proposal, err := app.FindRecordById("proposals", e.Request.PathValue("id"))
		if err != nil {
			return e.String(http.StatusNotFound, "Proposal not found")
		}

		screens, opts, err := buildProposalInputs(app, proposal.Id)
		if err != nil {
			log.Printf("audit_export: could not load inputs: %v", err)
			return e.String(http.StatusInternalServerError, "Could not load proposal.")
		}

		result, err := services.CalculateProposalAudit(screens, opts)
		if err != nil {
			if errors.Is(err, services.ErrInvalidMargin) {
				return e.String(http.StatusUnprocessableEntity, err.Error())
			}
			log.Printf("audit_export: calculation failed: %v", err)
			return e.String(http.StatusInternalServerError, "Could not calculate proposal audit.")
		}

		xlsxBytes, err := services.GenerateAuditWorkbook(proposal.GetString("title"), result, opts)
		if err != nil {
			log.Printf("audit_export: workbook generation failed: %v", err)
			return e.String(http.StatusInternalServerError, "Could not generate workbook.")
		}

		filename := fmt.Sprintf("Audit_%s_%d.xlsx", sanitizeFilename(proposal.GetString("title")), time.Now().Year())
		e.Response.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		e.Response.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
		e.Response.Write(xlsxBytes)
		return nil
	}
}

// HandleProposalExportPDF streams the client-facing proposal PDF.
func HandleProposalExportPDF(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		proposal, err := app.FindRecordById("proposals", e.Request.PathValue("id"))
		if err != nil {
			return e.String(http.StatusNotFound, "Proposal not found")
		}

		screens, opts, err := buildProposalInputs(app, proposal.Id)
		if err != nil {
			log.Printf("proposal_export: could not load inputs: %v", err)
			return e.String(http.StatusInternalServerError, "Could not load proposal.")
		}

		result, err := services.CalculateProposalAudit(screens, opts)
		if err != nil {
			if errors.Is(err, services.ErrInvalidMargin) {
				return e.String(http.StatusUnprocessableEntity, err.Error())
			}
			log.Printf("proposal_export: calculation failed: %v", err)
			return e.String(http.StatusInternalServerError, "Could not calculate proposal audit.")
		}

		createdDate := time.Now().Format("02 Jan 2006")
		if dt := proposal.GetDateTime("created"); !dt.IsZero() {
			createdDate = dt.Time().Format("02 Jan 2006")
		}

		pdfBytes, err := services.GenerateProposalPDF(services.ProposalPDFData{
			Title:       proposal.GetString("title"),
			Client:      proposal.GetString("client"),
			Address:     proposal.GetString("project_address"),
			Venue:       proposal.GetString("venue"),
			CreatedDate: createdDate,
			Screens:     result.InternalAudit.PerScreen,
			Summary:     result.ClientSummary,
		})
		if err != nil {
			log.Printf("proposal_export: PDF generation failed: %v", err)
			return e.String(http.StatusInternalServerError, "Could not generate PDF.")
		}

		filename := fmt.Sprintf("Proposal_%s_%d.pdf", sanitizeFilename(proposal.GetString("title")), time.Now().Year())
		e.Response.Header().Set("Content-Type", "application/pdf")
		e.Response.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
		e.Response.Write(pdfBytes)
		return nil
	}
}

// sanitizeFilename removes characters that are unsafe for filenames.
func sanitizeFilename(s string) string {
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "/", "-")
	s = strings.ReplaceAll(s, "\\", "-")
	s = strings.ReplaceAll(s, ":", "-")
	return s
}
