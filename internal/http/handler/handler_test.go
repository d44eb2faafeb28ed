package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"drivedocs/internal/apperror"
	"drivedocs/internal/credential"
	"drivedocs/internal/gateway"
	"drivedocs/internal/model"
	"drivedocs/internal/service"
	serviceMocks "drivedocs/internal/service/mocks"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeCredentialStatus struct {
	status credential.Status
	err    error
}

func (f fakeCredentialStatus) Status() (credential.Status, error) {
	return f.status, f.err
}

var usableCredential = fakeCredentialStatus{status: credential.Status{
	Present: true, Valid: true, Refreshable: true, Scoped: true, Expiry: time.Now().Add(time.Hour),
}}

func decodeError(t *testing.T, resp *http.Response) errorPayload {
	t.Helper()
	var body errorPayload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return req
}

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	t.Run("healthy", func(t *testing.T) {
		app := fiber.New()
		app.Get("/health", HealthCheck(db, usableCredential))
		dbMock.ExpectPing()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body healthResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "healthy", body.Status)
		assert.Equal(t, "ok", body.Database)
		assert.True(t, body.Credential.Valid)
	})

	t.Run("database unhealthy", func(t *testing.T) {
		app := fiber.New()
		app.Get("/health", HealthCheck(db, usableCredential))
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "SERVICE_UNAVAILABLE", decodeError(t, resp).Error.Code)
	})

	t.Run("registry disabled", func(t *testing.T) {
		app := fiber.New()
		app.Get("/health", HealthCheck(nil, usableCredential))

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body healthResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "disabled", body.Database)
	})

	t.Run("no credential", func(t *testing.T) {
		app := fiber.New()
		app.Get("/health", HealthCheck(nil, fakeCredentialStatus{}))

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "AUTH_REQUIRED", decodeError(t, resp).Error.Code)
	})

	t.Run("expired but refreshable credential is usable", func(t *testing.T) {
		app := fiber.New()
		app.Get("/health", HealthCheck(nil, fakeCredentialStatus{status: credential.Status{
			Present: true, Refreshable: true, Scoped: true,
		}}))

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("credential store unreadable", func(t *testing.T) {
		app := fiber.New()
		app.Get("/health", HealthCheck(nil, fakeCredentialStatus{err: errors.New("permission denied")}))

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})

	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreateDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Post("/create_document/", CreateDocument(mockSvc))

	t.Run("success", func(t *testing.T) {
		mockSvc.On("Create", mock.Anything, "Meeting notes", "hello world").
			Return(&model.Document{FileID: "1AbC"}, nil).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/create_document/", `{"name":"Meeting notes","data":"hello world"}`))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "1AbC", body["file_id"])
		mockSvc.AssertExpectations(t)
	})

	t.Run("malformed body", func(t *testing.T) {
		resp, _ := app.Test(jsonRequest(http.MethodPost, "/create_document/", `{"name":`))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_BODY", decodeError(t, resp).Error.Code)
	})

	t.Run("validation error", func(t *testing.T) {
		mockSvc.On("Create", mock.Anything, "", "x").
			Return(nil, errors.Join(service.ErrValidation, errors.New("name is required"))).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/create_document/", `{"data":"x"}`))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "VALIDATION_ERROR", decodeError(t, resp).Error.Code)
	})

	t.Run("auth required", func(t *testing.T) {
		mockSvc.On("Create", mock.Anything, "n", "d").
			Return(nil, apperror.New("credential", apperror.ErrAuth, credential.ErrNoAuthorizer)).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/create_document/", `{"name":"n","data":"d"}`))

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "AUTH_REQUIRED", decodeError(t, resp).Error.Code)
	})

	t.Run("upload failed", func(t *testing.T) {
		mockSvc.On("Create", mock.Anything, "n", "d").
			Return(nil, apperror.New("gateway.create", apperror.ErrUpload, errors.New("503 backend error"))).Once()

		resp, _ := app.Test(jsonRequest(http.MethodPost, "/create_document/", `{"name":"n","data":"d"}`))

		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
		body := decodeError(t, resp)
		assert.Equal(t, "UPLOAD_FAILED", body.Error.Code)
		assert.NotContains(t, body.Error.Message, "503 backend error")
	})
}

func TestDownloadDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Get("/download_document/:file_id", DownloadDocument(mockSvc))

	t.Run("success", func(t *testing.T) {
		mockSvc.On("Download", mock.Anything, "1AbC").
			Return(&model.DownloadResult{Content: []byte("PK docx"), Filename: "test file"}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/download_document/1AbC", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, gateway.DocxMimeType, resp.Header.Get("Content-Type"))
		assert.Equal(t, "attachment; filename=test%20file.docx", resp.Header.Get("Content-Disposition"))
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "PK docx", string(body))
	})

	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{"not found", apperror.New("gateway.metadata", apperror.ErrNotFound, nil), http.StatusNotFound, "NOT_FOUND"},
		{"export failed", apperror.New("gateway.export", apperror.ErrExport, nil), http.StatusBadGateway, "EXPORT_FAILED"},
		{"auth", apperror.New("credential", apperror.ErrAuth, nil), http.StatusUnauthorized, "AUTH_REQUIRED"},
		{"config", apperror.New("client secret", apperror.ErrConfig, nil), http.StatusInternalServerError, "CONFIG_ERROR"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc.On("Download", mock.Anything, "x").Return(nil, tt.err).Once()

			resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/download_document/x", nil))

			assert.Equal(t, tt.wantCode, resp.StatusCode)
			assert.Equal(t, tt.wantBody, decodeError(t, resp).Error.Code)
		})
	}
}

func TestContentDisposition(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"space is percent-encoded", "test file", "attachment; filename=test%20file.docx"},
		{"existing extension not doubled", "report.docx", "attachment; filename=report.docx"},
		{"extension case-insensitive", "REPORT.DOCX", "attachment; filename=REPORT.DOCX"},
		{"fallback name", gateway.FallbackFilename, "attachment; filename=downloaded_document.docx"},
		{"header-breaking characters", `a"b;c`, "attachment; filename=a%22b%3Bc.docx"},
		{"non-ascii", "résumé", "attachment; filename=r%C3%A9sum%C3%A9.docx"},
		{"equals sign", "a=b", "attachment; filename=a%3Db.docx"},
		{"sub-delims and colon", "a&b@c+d$e:f", "attachment; filename=a%26b%40c%2Bd%24e%3Af.docx"},
		{"path separator", "Q1/Q2", "attachment; filename=Q1%2FQ2.docx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ContentDisposition(tt.in))
		})
	}
}

func TestListDocuments(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Get("/documents", ListDocuments(mockSvc))

	t.Run("success", func(t *testing.T) {
		expectedRes := &service.DocumentListResult{
			Items: []model.Document{{FileID: "1AbC", Name: "notes"}},
			Total: 1,
		}
		mockSvc.On("List", mock.Anything, 10, 0).Return(expectedRes, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/documents?limit=10&offset=0", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result service.DocumentListResult
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Len(t, result.Items, 1)
		assert.Equal(t, 1, result.Total)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid limit", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/documents?limit=abc", nil))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_LIMIT", decodeError(t, resp).Error.Code)
	})

	t.Run("invalid offset", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/documents?offset=-x", nil))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_OFFSET", decodeError(t, resp).Error.Code)
	})

	t.Run("registry disabled", func(t *testing.T) {
		mockSvc.On("List", mock.Anything, 10, 0).Return(nil, service.ErrRegistryDisabled).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/documents", nil))

		assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
		assert.Equal(t, "REGISTRY_DISABLED", decodeError(t, resp).Error.Code)
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc.On("List", mock.Anything, 10, 0).Return(nil, errors.New("service error")).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/documents", nil))

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestGetDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Get("/documents/:file_id", GetDocument(mockSvc))

	t.Run("success", func(t *testing.T) {
		mockSvc.On("Get", mock.Anything, "1AbC").Return(&model.Document{FileID: "1AbC", Name: "notes"}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/documents/1AbC", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var result model.Document
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, "notes", result.Name)
	})

	t.Run("not found", func(t *testing.T) {
		mockSvc.On("Get", mock.Anything, "missing").
			Return(nil, apperror.New("registry.find", apperror.ErrNotFound, nil)).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/documents/missing", nil))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Error.Code)
	})
}

func TestRouting(t *testing.T) {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(),
	})

	mockSvc := new(serviceMocks.MockDocumentService)
	RegisterRoutes(app, nil, usableCredential, mockSvc)

	t.Run("api prefix and trailing slash", func(t *testing.T) {
		for _, path := range []string{"/create_document/", "/create_document", "/api/create_document/"} {
			mockSvc.On("Create", mock.Anything, "n", "d").Return(&model.Document{FileID: "id-1"}, nil).Once()

			resp, _ := app.Test(jsonRequest(http.MethodPost, path, `{"name":"n","data":"d"}`))

			assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		}
		mockSvc.AssertExpectations(t)
	})

	t.Run("download under api prefix", func(t *testing.T) {
		mockSvc.On("Download", mock.Anything, "abc").
			Return(&model.DownloadResult{Content: []byte("x"), Filename: "f"}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/download_document/abc", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("not found route", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/non-existent", nil))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Error.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodPost, "/health", nil))

		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		assert.Equal(t, "METHOD_NOT_ALLOWED", decodeError(t, resp).Error.Code)
	})
}
