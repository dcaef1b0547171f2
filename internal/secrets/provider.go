package secrets

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"

	"github.com/spec-kit/auth-gateway/internal/config"
)

// Provider exposes the token signing secret. The secret is resolved exactly
// once, before the server accepts connections, and never changes afterwards.
type Provider interface {
	SigningSecret() string
}

type staticProvider struct {
	secret string
}

func (p *staticProvider) SigningSecret() string { return p.secret }

// Load resolves the signing secret from the configured source. A failure here
// is a startup error: the process must not serve requests without a secret.
func Load(ctx context.Context, cfg config.VaultConfig) (Provider, error) {
	switch cfg.Source {
	case config.SecretSourceStatic:
		if cfg.StaticSecret == "" {
			return nil, fmt.Errorf("static signing secret is empty")
		}
		return &staticProvider{secret: cfg.StaticSecret}, nil
	case config.SecretSourceKeyVault:
		return loadFromKeyVault(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown secret source %q", cfg.Source)
	}
}

func loadFromKeyVault(ctx context.Context, cfg config.VaultConfig) (Provider, error) {
	cred, err := azidentity.NewClientSecretCredential(cfg.TenantID, cfg.ClientID, cfg.ClientSecret, nil)
	if err != nil {
		return nil, fmt.Errorf("build key vault credential: %w", err)
	}

	client, err := azsecrets.NewClient(cfg.URL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("build key vault client: %w", err)
	}

	// Empty version resolves the latest secret version.
	resp, err := client.GetSecret(ctx, cfg.SecretName, "", nil)
	if err != nil {
		return nil, fmt.Errorf("fetch signing secret %q: %w", cfg.SecretName, err)
	}
	if resp.Value == nil || *resp.Value == "" {
		return nil, fmt.Errorf("signing secret %q is empty", cfg.SecretName)
	}

	return &staticProvider{secret: *resp.Value}, nil
}
