// Package app assembles the document stack shared by the HTTP server and the
// operator CLI.
package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"

	"drivedocs/internal/config"
	"drivedocs/internal/credential"
	"drivedocs/internal/database"
	"drivedocs/internal/database/migration"
	"drivedocs/internal/gateway"
	"drivedocs/internal/repository"
	"drivedocs/internal/repository/postgres"
	"drivedocs/internal/service"
)

// Options tune assembly.
type Options struct {
	// Fs holds the token and client secret files. Defaults to the OS filesystem.
	Fs afero.Fs
	// Authorizer enables interactive re-authorization. Servers leave it nil.
	Authorizer credential.Authorizer
	// Registerer receives gateway metrics. Nil skips them.
	Registerer prometheus.Registerer
	// SkipRegistry ignores the database settings.
	SkipRegistry bool
}

// App is the assembled stack.
type App struct {
	Config      *config.AppConfig
	Log         hclog.Logger
	Credentials *credential.Manager
	Gateway     gateway.Gateway
	Documents   service.DocumentService
	// DB is nil when no registry database is configured.
	DB *sql.DB
}

// NewCredentials builds the credential manager from the Google settings.
func NewCredentials(cfg config.GoogleConfig, fsys afero.Fs, log hclog.Logger, opts ...credential.Option) (*credential.Manager, error) {
	oauthCfg, err := credential.LoadClientConfig(fsys, cfg.ClientSecretPath, cfg.Scopes)
	if err != nil {
		return nil, err
	}
	store := credential.NewFileStore(fsys, cfg.TokenPath)

	opts = append([]credential.Option{credential.WithLogger(log.Named("credential"))}, opts...)
	return credential.NewManager(store, oauthCfg, opts...), nil
}

// New wires credential manager, gateway, optional registry and service.
func New(ctx context.Context, cfg *config.AppConfig, log hclog.Logger, opts Options) (*App, error) {
	var credOpts []credential.Option
	if opts.Authorizer != nil {
		credOpts = append(credOpts, credential.WithAuthorizer(opts.Authorizer))
	}
	creds, err := NewCredentials(cfg.Google, opts.Fs, log, credOpts...)
	if err != nil {
		return nil, err
	}

	gw, err := gateway.NewDrive(ctx, cfg.Gateway, creds, log.Named("gateway"), opts.Registerer)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:      cfg,
		Log:         log,
		Credentials: creds,
		Gateway:     gw,
	}

	var repo repository.DocumentRepository
	if cfg.Database.Enabled() && !opts.SkipRegistry {
		db, err := openRegistry(ctx, cfg.Database, log.Named("database"))
		if err != nil {
			return nil, err
		}
		a.DB = db
		repo = postgres.NewDocumentPostgres(db)
	} else {
		log.Info("document registry disabled")
	}

	a.Documents = service.NewDocumentService(gw, repo, log.Named("service"))
	return a, nil
}

func openRegistry(ctx context.Context, cfg config.DatabaseConfig, log hclog.Logger) (*sql.DB, error) {
	db, err := database.NewPostgres(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if cfg.AutoMigrate {
		if err := migration.EnsureMigrated(ctx, db, log); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	log.Info("document registry connected", "db_host", cfg.Host)
	return db, nil
}

// Close releases held resources.
func (a *App) Close() error {
	var result *multierror.Error
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close database: %w", err))
		}
	}
	return result.ErrorOrNil()
}
