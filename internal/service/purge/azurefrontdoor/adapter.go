package azurefrontdoor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2/clientcredentials"

	"cdnkit/internal/service/purge"
)

const (
	defaultBaseURL = "https://management.azure.com"
	apiVersion     = "2024-02-01"

	// MaxPathsPerRequest は1パージ呼び出しあたりのコンテンツパス数上限
	MaxPathsPerRequest = 100
)

// Config はAzure Front Doorアダプタの設定
// エンドポイント識別子は subscription / resourceGroup / profile の三つ組
type Config struct {
	SubscriptionID string
	ResourceGroup  string
	ProfileName    string
	EndpointName   string

	// OAuth2クライアントクレデンシャル
	TenantID     string
	ClientID     string
	ClientSecret string

	// BaseURL / TokenURL / HTTPClient はテストで差し替えるために使う
	// HTTPClient を指定した場合はトークン取得を行わない
	BaseURL    string
	TokenURL   string
	HTTPClient *http.Client
}

// Adapter はAzure Front Doorエンドポイントへのパージアダプタ
type Adapter struct {
	cfg        Config
	baseURL    string
	httpClient *http.Client
}

// New はAzure Front Doorアダプタを生成します
// HTTPクライアントはOAuth2クライアントクレデンシャルフローで
// Bearerトークンを自動付与・更新します
func New(ctx context.Context, cfg Config) (*Adapter, error) {
	for _, f := range []struct{ name, value string }{
		{"subscriptionId", cfg.SubscriptionID},
		{"resourceGroup", cfg.ResourceGroup},
		{"profileName", cfg.ProfileName},
		{"endpointName", cfg.EndpointName},
	} {
		if f.value == "" {
			return nil, fmt.Errorf("azurefrontdoor: %s が指定されていません", f.name)
		}
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		if cfg.TenantID == "" || cfg.ClientID == "" || cfg.ClientSecret == "" {
			return nil, fmt.Errorf("azurefrontdoor: tenantId / clientId / clientSecret が指定されていません")
		}
		tokenURL := cfg.TokenURL
		if tokenURL == "" {
			tokenURL = fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", cfg.TenantID)
		}
		cc := &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     tokenURL,
			Scopes:       []string{"https://management.azure.com/.default"},
		}
		httpClient = cc.Client(ctx)
	}

	return &Adapter{
		cfg:        cfg,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}, nil
}

// Name はプロバイダ種別を返します
func (a *Adapter) Name() purge.ProviderType { return purge.ProviderAzureFrontDoor }

// MaxBatchSize は1リクエストあたりのパス数上限を返します
func (a *Adapter) MaxBatchSize() int { return MaxPathsPerRequest }

// Submit はバッチをafdEndpoints purge APIに送信します
// 202 Acceptedで受理され、参照IDとして x-ms-request-id を返します
func (a *Adapter) Submit(ctx context.Context, batch purge.Batch, callerReference string) (string, error) {
	body, err := json.Marshal(purgeParameters{ContentPaths: batch.Paths})
	if err != nil {
		return "", purge.WrapError(purge.KindSerialization, err, "purgeボディの直列化に失敗")
	}

	url := fmt.Sprintf(
		"%s/subscriptions/%s/resourceGroups/%s/providers/Microsoft.Cdn/profiles/%s/afdEndpoints/%s/purge?api-version=%s",
		a.baseURL, a.cfg.SubscriptionID, a.cfg.ResourceGroup, a.cfg.ProfileName, a.cfg.EndpointName, apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", purge.ClassifyTransport(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", purge.ClassifyTransport(err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return "", purge.ErrorFromHTTP(resp.StatusCode, data)
	}
	return resp.Header.Get("x-ms-request-id"), nil
}

// purgeParameters はafdEndpoints purge APIのリクエストボディ
type purgeParameters struct {
	ContentPaths []string `json:"contentPaths"`
}
