package main

import (
	"log"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"proposalaudit/collections"
	"proposalaudit/handlers"
)

func main() {
	app := pocketbase.New()

	// Create collections and seed data on startup
	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		collections.Setup(app)
		if err := collections.Seed(app); err != nil {
			log.Printf("Warning: seed data failed: %v", err)
		}
		return se.Next()
	})

	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		// ── Proposal CRUD ────────────────────────────────────────
		se.Router.GET("/proposals", handlers.HandleProposalList(app))
		se.Router.POST("/proposals", handlers.HandleProposalCreate(app))
		se.Router.GET("/proposals/{id}", handlers.HandleProposalView(app))
		se.Router.POST("/proposals/{id}/save", handlers.HandleProposalUpdate(app))
		se.Router.DELETE("/proposals/{id}", handlers.HandleProposalDelete(app))

		// ── Screens ──────────────────────────────────────────────
		se.Router.POST("/proposals/{proposalId}/screens", handlers.HandleScreenAdd(app))
		se.Router.PATCH("/proposals/{proposalId}/screens/{screenId}", handlers.HandleScreenUpdate(app))
		se.Router.DELETE("/proposals/{proposalId}/screens/{screenId}", handlers.HandleScreenDelete(app))

		// ── Audit run ────────────────────────────────────────────
		se.Router.GET("/proposals/{id}/audit", handlers.HandleProposalAudit(app))

		// ── Workbook import ──────────────────────────────────────
		se.Router.POST("/proposals/{id}/import", handlers.HandleProposalImport(app))

		// ── Exports ──────────────────────────────────────────────
		se.Router.GET("/proposals/{id}/export/excel", handlers.HandleAuditExportExcel(app))
		se.Router.GET("/proposals/{id}/export/pdf", handlers.HandleProposalExportPDF(app))

		// Redirect home to proposals list
		se.Router.GET("/", func(e *core.RequestEvent) error {
			return e.Redirect(http.StatusFound, "/proposals")
		})

		return se.Next()
	})

	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}
