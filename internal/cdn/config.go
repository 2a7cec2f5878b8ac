package cdn

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"cdnkit/internal/service/purge"
)

// Config はサブシステム全体の設定。CMS側の設定ストアから書き出された
// YAMLファイルを読み込みます。プロバイダの選択と認証情報はこのファイルが
// 唯一の供給源で、リクエスト実行中は不変・読み取り専用です
type Config struct {
	// Provider は既定のプロバイダ名（cloudfront / cloudflare / azurefrontdoor / sucuri / none）
	Provider string `yaml:"provider"`

	// MaxConcurrency はバッチ送信の同時実行数（既定: 4、1で直列）
	MaxConcurrency int `yaml:"maxConcurrency"`
	// CallTimeout はプロバイダ呼び出し1回あたりの制限時間（既定: 30s）
	CallTimeout string `yaml:"callTimeout"`

	Retry struct {
		MaxAttempts int    `yaml:"maxAttempts"`
		BaseDelay   string `yaml:"baseDelay"`
		MaxDelay    string `yaml:"maxDelay"`
	} `yaml:"retry"`

	Store struct {
		// Path は結果ストア（LevelDB）のディレクトリ。空ならインメモリ
		Path string `yaml:"path"`
	} `yaml:"store"`

	// Tenants はテナントIDごとのプロバイダ上書き
	Tenants map[string]string `yaml:"tenants"`

	CloudFront struct {
		DistributionID  string `yaml:"distributionId"`
		Profile         string `yaml:"profile"`
		AccessKeyID     string `yaml:"accessKeyId"`
		SecretAccessKey string `yaml:"secretAccessKey"`
		// BatchLimit は上限の上書き（既定: 3000）
		BatchLimit int `yaml:"batchLimit"`
	} `yaml:"cloudfront"`

	Cloudflare struct {
		ZoneID     string `yaml:"zoneId"`
		APIToken   string `yaml:"apiToken"`
		SiteURL    string `yaml:"siteUrl"`
		BatchLimit int    `yaml:"batchLimit"`
	} `yaml:"cloudflare"`

	AzureFrontDoor struct {
		SubscriptionID string `yaml:"subscriptionId"`
		ResourceGroup  string `yaml:"resourceGroup"`
		ProfileName    string `yaml:"profileName"`
		EndpointName   string `yaml:"endpointName"`
		TenantID       string `yaml:"tenantId"`
		ClientID       string `yaml:"clientId"`
		ClientSecret   string `yaml:"clientSecret"`
		BatchLimit     int    `yaml:"batchLimit"`
	} `yaml:"azureFrontDoor"`

	Sucuri struct {
		APIKey    string `yaml:"apiKey"`
		APISecret string `yaml:"apiSecret"`
	} `yaml:"sucuri"`

	// compiled
	callTimeout time.Duration
	baseDelay   time.Duration
	maxDelay    time.Duration
}

// LoadConfig は設定ファイルを読み込み、既定値の補完と検証を行います
func LoadConfig(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.compile(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// compile は既定値を補完し、選択されたプロバイダに必要な設定を検証します
func (c *Config) compile() error {
	if c.Provider == "" {
		c.Provider = string(purge.ProviderNone)
	}
	if c.MaxConcurrency == 0 {
		c.MaxConcurrency = 4
	}

	var err error
	if c.callTimeout, err = parseDuration("callTimeout", c.CallTimeout, 30*time.Second); err != nil {
		return err
	}
	if c.baseDelay, err = parseDuration("retry.baseDelay", c.Retry.BaseDelay, 200*time.Millisecond); err != nil {
		return err
	}
	if c.maxDelay, err = parseDuration("retry.maxDelay", c.Retry.MaxDelay, 10*time.Second); err != nil {
		return err
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = 4
	}

	names := map[string]struct{}{c.Provider: {}}
	for tenantID, name := range c.Tenants {
		if tenantID == "" {
			return fmt.Errorf("tenants: 空のテナントIDは指定できません")
		}
		names[name] = struct{}{}
	}
	for name := range names {
		if err := c.validateProvider(name); err != nil {
			return err
		}
	}
	return nil
}

// validateProvider は指定プロバイダの必須設定が揃っているか検証します
func (c *Config) validateProvider(name string) error {
	switch purge.ProviderType(name) {
	case purge.ProviderNone:
		return nil
	case purge.ProviderCloudFront:
		if c.CloudFront.DistributionID == "" {
			return fmt.Errorf("cloudfront.distributionId は必須です")
		}
	case purge.ProviderCloudflare:
		if c.Cloudflare.ZoneID == "" || c.Cloudflare.APIToken == "" || c.Cloudflare.SiteURL == "" {
			return fmt.Errorf("cloudflare.zoneId / apiToken / siteUrl は必須です")
		}
	case purge.ProviderAzureFrontDoor:
		a := c.AzureFrontDoor
		if a.SubscriptionID == "" || a.ResourceGroup == "" || a.ProfileName == "" || a.EndpointName == "" {
			return fmt.Errorf("azureFrontDoor.subscriptionId / resourceGroup / profileName / endpointName は必須です")
		}
	case purge.ProviderSucuri:
		if c.Sucuri.APIKey == "" || c.Sucuri.APISecret == "" {
			return fmt.Errorf("sucuri.apiKey / apiSecret は必須です")
		}
	default:
		return fmt.Errorf("未知のプロバイダです: %q", name)
	}
	return nil
}

// DispatcherConfig はディスパッチャ設定に変換します
func (c *Config) DispatcherConfig() purge.DispatcherConfig {
	return purge.DispatcherConfig{
		MaxConcurrency: c.MaxConcurrency,
		CallTimeout:    c.callTimeout,
		Retry: purge.RetryPolicy{
			MaxAttempts: c.Retry.MaxAttempts,
			BaseDelay:   c.baseDelay,
			MaxDelay:    c.maxDelay,
		},
	}
}

func parseDuration(field, value string, fallback time.Duration) (time.Duration, error) {
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	return d, nil
}
