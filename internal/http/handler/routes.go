package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"drivedocs/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app. db may be
// nil when no registry is configured. The document routes are served both
// at the root and under /api.
func RegisterRoutes(app *fiber.App, db *sql.DB, creds CredentialStatus, docSvc service.DocumentService) {
	app.Get("/health", HealthCheck(db, creds))
	app.Get("/healthz", LivenessProbe())

	for _, r := range []fiber.Router{app, app.Group("/api")} {
		r.Post("/create_document/", CreateDocument(docSvc))
		r.Get("/download_document/:file_id", DownloadDocument(docSvc))
	}

	app.Get("/documents", ListDocuments(docSvc))
	app.Get("/documents/:file_id", GetDocument(docSvc))
}
