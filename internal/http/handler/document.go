package handler

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"drivedocs/internal/gateway"
	"drivedocs/internal/service"
)

const docxExt = ".docx"

type createDocumentRequest struct {
	Name string `json:"name"`
	Data string `json:"data"`
}

type createDocumentResponse struct {
	Success bool   `json:"success"`
	FileID  string `json:"file_id"`
}

// CreateDocument godoc
// @Summary Create a document
// @Description Creates a Google Doc named `name` whose body is the plain text `data`.
// @Tags documents
// @Accept json
// @Produce json
// @Param body body createDocumentRequest true "Document name and content"
// @Success 200 {object} createDocumentResponse
// @Failure 400 {object} errorPayload
// @Failure 401 {object} errorPayload
// @Failure 502 {object} errorPayload
// @Router /create_document/ [post]
func CreateDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createDocumentRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "body must be JSON with name and data")
		}

		doc, err := docSvc.Create(c.UserContext(), req.Name, req.Data)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(createDocumentResponse{Success: true, FileID: doc.FileID})
	}
}

// DownloadDocument godoc
// @Summary Download a document
// @Description Exports the document as .docx and returns it as an attachment.
// @Tags documents
// @Produce application/vnd.openxmlformats-officedocument.wordprocessingml.document
// @Param file_id path string true "Drive file ID"
// @Success 200 {file} binary
// @Failure 400 {object} errorPayload
// @Failure 401 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Failure 502 {object} errorPayload
// @Router /download_document/{file_id} [get]
func DownloadDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := docSvc.Download(c.UserContext(), c.Params("file_id"))
		if err != nil {
			return writeServiceError(c, err)
		}

		c.Set(fiber.HeaderContentType, gateway.DocxMimeType)
		c.Set(fiber.HeaderContentDisposition, ContentDisposition(res.Filename))
		return c.Send(res.Content)
	}
}

// ListDocuments godoc
// @Summary List created documents
// @Description Pages through the registry of documents created by this service.
// @Tags documents
// @Produce json
// @Param limit query int false "Page size" default(10)
// @Param offset query int false "Offset" default(0)
// @Success 200 {object} service.DocumentListResult
// @Failure 400 {object} errorPayload
// @Failure 501 {object} errorPayload
// @Router /documents [get]
func ListDocuments(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := docSvc.List(c.UserContext(), limit, offset)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// GetDocument godoc
// @Summary Get a registry record
// @Tags documents
// @Produce json
// @Param file_id path string true "Drive file ID"
// @Success 200 {object} model.Document
// @Failure 404 {object} errorPayload
// @Failure 501 {object} errorPayload
// @Router /documents/{file_id} [get]
func GetDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		doc, err := docSvc.Get(c.UserContext(), c.Params("file_id"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(doc)
	}
}

// ContentDisposition builds the attachment header for an exported document.
// The name is percent-encoded (everything but unreserved characters, spaces
// as %20) and gets a .docx extension unless it already has one.
func ContentDisposition(name string) string {
	if !strings.HasSuffix(strings.ToLower(name), docxExt) {
		name += docxExt
	}
	return "attachment; filename=" + strings.ReplaceAll(url.QueryEscape(name), "+", "%20")
}
