package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lead-reconciliation/internal/config"
	"lead-reconciliation/internal/gateway"
	"lead-reconciliation/internal/usecase"
)

type rootOptions struct {
	configPath string
	input      string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "reconciler",
		Short:        "Reconcile CRM student registrations against issued learning accounts",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "config.yaml", "Path to the configuration file")
	cmd.PersistentFlags().StringVar(&opts.input, "input", "", "Read leads from a CSV or JSON file instead of the CRM")

	cmd.AddCommand(
		newTemplateCmd(opts),
		newExportCmd(opts),
		newReportCmd(opts),
		newSalesCmd(opts),
		newDisableCmd(opts),
		newDedupeDisableCmd(opts),
		newServeCmd(opts),
	)
	return cmd
}

// app is the wired application shared by every subcommand.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	uc      *usecase.ReconciliationUseCase
	closers []func()
}

func newApp(ctx context.Context, opts *rootOptions) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	catalog, err := gateway.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger}

	// 1. Lead source: a file when --input is given, the CRM otherwise
	var leads usecase.LeadRepository
	if opts.input != "" {
		leads = gateway.NewFileLeadRepository(opts.input)
		logger.Info("reading leads from file", zap.String("path", opts.input))
	} else {
		if cfg.CRM.WebhookURL == "" {
			return nil, errors.New("CRM_WEBHOOK_URL is not set; pass --input to read leads from a file")
		}
		leads = gateway.NewCRMClient(gateway.CRMConfig{
			WebhookURL:    cfg.CRM.WebhookURL,
			CategoryID:    cfg.CRM.CategoryID,
			PageSize:      cfg.CRM.PageSize,
			MaxParallel:   cfg.CRM.MaxParallel,
			Timeout:       cfg.CRM.Timeout,
			MaxRetries:    cfg.CRM.MaxRetries,
			RetryInterval: cfg.CRM.RetryInterval,
		}, logger)
	}

	// 2. Account store, degraded to offline when unreachable
	accounts := a.openAccountStore(ctx)

	// 3. Use case
	a.uc = usecase.NewReconciliationUseCase(leads, accounts, catalog, logger)
	return a, nil
}

func (a *app) openAccountStore(ctx context.Context) usecase.AccountRepository {
	db := a.cfg.Database
	switch db.Type {
	case config.DatabasePostgres:
		store, err := gateway.NewPostgresAccountStore(ctx, gateway.PostgresConfig{
			URL:            db.PostgresURL(),
			MaxConnections: db.MaxConnections,
		})
		if err != nil {
			return a.offline(err)
		}
		a.closers = append(a.closers, store.Close)
		return store
	case config.DatabaseSQLServer:
		store, err := gateway.NewSQLServerAccountStore(ctx, gateway.SQLServerConfig{
			Host:     db.Host,
			Port:     db.Port,
			User:     db.User,
			Password: db.Password,
			Database: db.Database,
			Encrypt:  db.Encrypt,
		})
		if err != nil {
			return a.offline(err)
		}
		a.closers = append(a.closers, func() { _ = store.Close() })
		return store
	}
	return gateway.OfflineAccountStore{Err: errors.New("account store not configured")}
}

func (a *app) offline(err error) usecase.AccountRepository {
	a.logger.Warn("account store unavailable, existing accounts will be treated as none",
		zap.String("type", a.cfg.Database.Type),
		zap.Error(err))
	return gateway.OfflineAccountStore{Err: err}
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	_ = a.logger.Sync()
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	zc.Level = level
	return zc.Build()
}
