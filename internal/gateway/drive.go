package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"drivedocs/internal/apperror"
	"drivedocs/internal/config"
	"drivedocs/internal/credential"
	"drivedocs/internal/model"
)

const (
	defaultChunkSize   = 1 << 20
	defaultCallTimeout = 30 * time.Second
)

// driveGateway implements Gateway on the Drive v3 API.
// It is safe for concurrent use by multiple goroutines.
type driveGateway struct {
	svc            *drive.Service
	chunkSize      int
	maxExportBytes int64
	callTimeout    time.Duration
	maxRetries     int
	log            hclog.Logger
	calls          *prometheus.CounterVec
	newBackOff     func() backoff.BackOff
}

// NewDrive builds a Drive-backed gateway. Every HTTP request it makes asks
// tokens for a valid credential first. reg may be nil to skip metrics.
func NewDrive(ctx context.Context, cfg config.GatewayConfig, tokens credential.Provider, log hclog.Logger, reg prometheus.Registerer) (Gateway, error) {
	if tokens == nil {
		return nil, apperror.New("gateway", apperror.ErrConfig, errors.New("credential provider is required"))
	}
	if log == nil {
		log = hclog.NewNullLogger()
	}

	client := &http.Client{
		Transport: otelhttp.NewTransport(&credential.Transport{Provider: tokens}),
	}
	opts := []option.ClientOption{option.WithHTTPClient(client)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, apperror.New("gateway", apperror.ErrConfig, fmt.Errorf("create drive client: %w", err))
	}

	g := &driveGateway{
		svc:            svc,
		chunkSize:      cfg.ChunkSize,
		maxExportBytes: cfg.MaxExportBytes,
		callTimeout:    cfg.CallTimeout,
		maxRetries:     cfg.MaxRetries,
		log:            log,
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "drive_gateway_calls_total",
				Help: "Total number of Drive API operations by outcome.",
			},
			[]string{"operation", "outcome"},
		),
		newBackOff: defaultBackOff,
	}
	if g.chunkSize <= 0 {
		g.chunkSize = defaultChunkSize
	}
	if g.callTimeout <= 0 {
		g.callTimeout = defaultCallTimeout
	}
	if g.maxRetries < 0 {
		g.maxRetries = 0
	}

	if reg != nil {
		if err := reg.Register(g.calls); err != nil {
			return nil, err
		}
	}

	return g, nil
}

// Create uploads content as a Google Doc. A single attempt is made: a
// retried create could leave duplicate documents behind.
func (g *driveGateway) Create(ctx context.Context, name, content string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.callTimeout)
	defer cancel()

	meta := &drive.File{
		Name:     name,
		MimeType: GoogleDocMimeType,
	}
	f, err := g.svc.Files.Create(meta).
		Media(strings.NewReader(content), googleapi.ContentType(SourceMimeType)).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		err = classify("gateway.create", apperror.ErrUpload, err)
		g.observe("create", err)
		return "", err
	}
	if f.Id == "" {
		err := apperror.New("gateway.create", apperror.ErrUpload, errors.New("provider returned an empty file id"))
		g.observe("create", err)
		return "", err
	}

	g.observe("create", nil)
	g.log.Info("document created", "file_id", f.Id, "name", name)
	return f.Id, nil
}

// Download resolves the stored name, then exports the document as .docx.
func (g *driveGateway) Download(ctx context.Context, fileID string) (*model.DownloadResult, error) {
	name, err := g.filename(ctx, fileID)
	if err != nil {
		g.observe("download", err)
		return nil, err
	}

	content, err := g.export(ctx, fileID)
	if err != nil {
		g.observe("download", err)
		return nil, err
	}

	g.observe("download", nil)
	g.log.Info("document exported", "file_id", fileID, "name", name, "bytes", len(content))
	return &model.DownloadResult{Content: content, Filename: name}, nil
}

func (g *driveGateway) filename(ctx context.Context, fileID string) (string, error) {
	var f *drive.File
	err := retry(ctx, g.newBackOff(), g.maxRetries, g.log, "files.get", func() error {
		callCtx, cancel := context.WithTimeout(ctx, g.callTimeout)
		defer cancel()

		var err error
		f, err = g.svc.Files.Get(fileID).Fields("id", "name").Context(callCtx).Do()
		return err
	})
	if err != nil {
		return "", classify("gateway.metadata", apperror.ErrExport, err)
	}

	if f.Name == "" {
		return FallbackFilename, nil
	}
	return f.Name, nil
}

func (g *driveGateway) export(ctx context.Context, fileID string) ([]byte, error) {
	var (
		resp   *http.Response
		cancel context.CancelFunc
	)
	// Only starting the export is retried; once the body is streaming a
	// failed chunk aborts the download.
	err := retry(ctx, g.newBackOff(), g.maxRetries, g.log, "files.export", func() error {
		callCtx, callCancel := context.WithTimeout(ctx, g.callTimeout)
		r, err := g.svc.Files.Export(fileID, DocxMimeType).Context(callCtx).Download()
		if err != nil {
			callCancel()
			return err
		}
		resp, cancel = r, callCancel
		return nil
	})
	if err != nil {
		return nil, classify("gateway.export", apperror.ErrExport, err)
	}
	defer cancel()
	defer resp.Body.Close()

	content, err := readChunks(resp.Body, g.chunkSize, g.maxExportBytes, g.log)
	if err != nil {
		return nil, apperror.New("gateway.export", apperror.ErrExport, err)
	}
	return content, nil
}

func (g *driveGateway) observe(op string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
		if k := apperror.KindOf(err); k != nil {
			outcome = outcomeLabel(k)
		}
	}
	g.calls.WithLabelValues(op, outcome).Inc()
}

func outcomeLabel(kind error) string {
	switch kind {
	case apperror.ErrAuth:
		return "auth_error"
	case apperror.ErrNotFound:
		return "not_found"
	default:
		return "error"
	}
}
