package bootstrap

import (
	"context"
	"errors"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"

	"github.com/GregMSThompson/finboard/internal/client/provider"
	"github.com/GregMSThompson/finboard/internal/config"
	"github.com/GregMSThompson/finboard/internal/errs"
	"github.com/GregMSThompson/finboard/pkg/logger"
)

func InitSecretManager(ctx context.Context) (*secretmanager.Client, error) {
	return secretmanager.NewClient(ctx)
}

type apiKeyStore interface {
	GetAPIKey(ctx context.Context, name string) (string, error)
}

// ResolveProviderKeys fills provider keys missing from the configuration with
// the named secrets. A missing secret leaves its key empty; requests to that
// provider then fail upstream.
func ResolveProviderKeys(ctx context.Context, cfg config.ProvidersConfig, secrets apiKeyStore) (provider.Keys, error) {
	keys := provider.Keys{AlphaVantage: cfg.AlphaVantageKey, Finnhub: cfg.FinnhubKey}

	lookups := []struct {
		provider string
		secret   string
		dst      *string
	}{
		{"alphaVantage", cfg.AlphaVantageSecret, &keys.AlphaVantage},
		{"finnhub", cfg.FinnhubSecret, &keys.Finnhub},
	}
	for _, l := range lookups {
		if *l.dst != "" || l.secret == "" {
			continue
		}
		key, err := secrets.GetAPIKey(ctx, l.secret)
		if err != nil {
			var nf *errs.NotFoundError
			if errors.As(err, &nf) {
				logger.FromContext(ctx).Warn("provider key not configured", "provider", l.provider, "secret", l.secret)
				continue
			}
			return keys, err
		}
		*l.dst = key
	}
	return keys, nil
}
