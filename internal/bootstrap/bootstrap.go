package bootstrap

import (
	"context"
	"log/slog"

	"cloud.google.com/go/firestore"
	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"firebase.google.com/go/v4/auth"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/GregMSThompson/finboard/internal/client/provider"
	"github.com/GregMSThompson/finboard/internal/config"
	"github.com/GregMSThompson/finboard/internal/database"
	"github.com/GregMSThompson/finboard/internal/store"
	"github.com/GregMSThompson/finboard/pkg/logger"
)

// Bootstrap holds the process-wide clients. Clients the configuration does
// not need stay nil.
type Bootstrap struct {
	Log          *slog.Logger
	Firestore    *firestore.Client
	Firebase     *auth.Client
	Secrets      *secretmanager.Client
	Postgres     *pgxpool.Pool
	ProviderKeys provider.Keys
}

func Run(cfg *config.Config) (*Bootstrap, error) {
	var err error
	applicationCtx := context.Background()
	bs := new(Bootstrap)

	bs.Log = logger.New(cfg.LogLevel, logger.NewCloudRunHandler)
	applicationCtx = logger.ToContext(applicationCtx, bs.Log)

	switch cfg.Persistence {
	case config.PersistenceFirestore:
		bs.Firestore, err = InitFirestore(applicationCtx, cfg.ProjectID)
		if err != nil {
			return bs, err
		}
	case config.PersistencePostgres:
		bs.Postgres, err = database.Connect(applicationCtx, cfg.Database)
		if err != nil {
			return bs, err
		}
	}

	if !cfg.AuthDisabled {
		bs.Firebase, err = InitFirebase(applicationCtx, cfg.ProjectID)
		if err != nil {
			return bs, err
		}
	} else {
		bs.Log.Warn("authentication disabled, serving all requests as the local user")
	}

	return bs, nil
}

// LoadProviderKeys sets ProviderKeys from the configuration, reading keys
// that are not configured from Secret Manager.
func (bs *Bootstrap) LoadProviderKeys(ctx context.Context, cfg *config.Config) error {
	keys := provider.Keys{AlphaVantage: cfg.Providers.AlphaVantageKey, Finnhub: cfg.Providers.FinnhubKey}
	if cfg.NeedsSecrets() && cfg.ProjectID != "" {
		var err error
		bs.Secrets, err = InitSecretManager(ctx)
		if err != nil {
			return err
		}
		keys, err = ResolveProviderKeys(ctx, cfg.Providers, store.NewProviderSecretsStore(bs.Secrets, cfg.ProjectID))
		if err != nil {
			return err
		}
	}
	bs.ProviderKeys = keys
	return nil
}

// Close releases every client that was opened.
func (bs *Bootstrap) Close() {
	if bs.Firestore != nil {
		if err := bs.Firestore.Close(); err != nil {
			bs.Log.Warn("failed to close firestore client", "error", err)
		}
	}
	if bs.Secrets != nil {
		if err := bs.Secrets.Close(); err != nil {
			bs.Log.Warn("failed to close secret manager client", "error", err)
		}
	}
	if bs.Postgres != nil {
		bs.Postgres.Close()
	}
}
