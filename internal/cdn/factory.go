package cdn

import (
	"context"
	"fmt"

	"cdnkit/internal/service/purge"
	"cdnkit/internal/service/purge/azurefrontdoor"
	"cdnkit/internal/service/purge/cloudflare"
	"cdnkit/internal/service/purge/cloudfront"
	"cdnkit/internal/service/purge/noop"
	"cdnkit/internal/service/purge/sucuri"
)

// BuildProvider は設定から指定プロバイダのアダプタを生成します
func BuildProvider(ctx context.Context, cfg Config, name string) (purge.Provider, error) {
	switch purge.ProviderType(name) {
	case purge.ProviderNone:
		return noop.New(), nil

	case purge.ProviderCloudFront:
		adapter, err := cloudfront.New(ctx, cloudfront.Config{
			DistributionID:  cfg.CloudFront.DistributionID,
			Profile:         cfg.CloudFront.Profile,
			AccessKeyID:     cfg.CloudFront.AccessKeyID,
			SecretAccessKey: cfg.CloudFront.SecretAccessKey,
		})
		if err != nil {
			return nil, err
		}
		return withBatchLimit(adapter, cfg.CloudFront.BatchLimit), nil

	case purge.ProviderCloudflare:
		adapter, err := cloudflare.New(cloudflare.Config{
			ZoneID:   cfg.Cloudflare.ZoneID,
			APIToken: cfg.Cloudflare.APIToken,
			SiteURL:  cfg.Cloudflare.SiteURL,
		})
		if err != nil {
			return nil, err
		}
		return withBatchLimit(adapter, cfg.Cloudflare.BatchLimit), nil

	case purge.ProviderAzureFrontDoor:
		adapter, err := azurefrontdoor.New(ctx, azurefrontdoor.Config{
			SubscriptionID: cfg.AzureFrontDoor.SubscriptionID,
			ResourceGroup:  cfg.AzureFrontDoor.ResourceGroup,
			ProfileName:    cfg.AzureFrontDoor.ProfileName,
			EndpointName:   cfg.AzureFrontDoor.EndpointName,
			TenantID:       cfg.AzureFrontDoor.TenantID,
			ClientID:       cfg.AzureFrontDoor.ClientID,
			ClientSecret:   cfg.AzureFrontDoor.ClientSecret,
		})
		if err != nil {
			return nil, err
		}
		return withBatchLimit(adapter, cfg.AzureFrontDoor.BatchLimit), nil

	case purge.ProviderSucuri:
		return sucuri.New(sucuri.Config{
			APIKey:    cfg.Sucuri.APIKey,
			APISecret: cfg.Sucuri.APISecret,
		})

	default:
		return nil, fmt.Errorf("未知のプロバイダです: %q", name)
	}
}

// BuildService は設定から結果ストアと全プロバイダを組み立ててサービスを生成します
func BuildService(ctx context.Context, cfg Config) (*purge.Service, error) {
	provider, err := BuildProvider(ctx, cfg, cfg.Provider)
	if err != nil {
		return nil, err
	}

	tenantProviders := make(map[string]purge.Provider, len(cfg.Tenants))
	for tenantID, name := range cfg.Tenants {
		p, err := BuildProvider(ctx, cfg, name)
		if err != nil {
			return nil, fmt.Errorf("tenants[%s]: %w", tenantID, err)
		}
		tenantProviders[tenantID] = p
	}

	var store purge.Store
	if cfg.Store.Path != "" {
		store, err = purge.OpenLevelDBStore(cfg.Store.Path)
		if err != nil {
			return nil, err
		}
	} else {
		store = purge.NewMemoryStore()
	}

	return purge.NewService(provider, store, purge.ServiceConfig{
		Dispatcher:      cfg.DispatcherConfig(),
		TenantProviders: tenantProviders,
	}), nil
}

// limitOverride は設定によるバッチ上限の上書きをアダプタに被せる
type limitOverride struct {
	purge.Provider
	limit int
}

func (l limitOverride) MaxBatchSize() int { return l.limit }

// Unwrap は内側のアダプタを返します（StatusPoller判定用）
func (l limitOverride) Unwrap() purge.Provider { return l.Provider }

// StatusPollerFor はプロバイダが完了照会に対応していればそれを返します
func StatusPollerFor(p purge.Provider) (purge.StatusPoller, bool) {
	for {
		if poller, ok := p.(purge.StatusPoller); ok {
			return poller, true
		}
		unwrapper, ok := p.(interface{ Unwrap() purge.Provider })
		if !ok {
			return nil, false
		}
		p = unwrapper.Unwrap()
	}
}

func withBatchLimit(p purge.Provider, limit int) purge.Provider {
	if limit <= 0 {
		return p
	}
	return limitOverride{Provider: p, limit: limit}
}
