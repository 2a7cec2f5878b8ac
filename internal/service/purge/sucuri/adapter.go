package sucuri

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"cdnkit/internal/service/purge"
)

// defaultEndpoint はSucuri WAF APIのエンドポイント
const defaultEndpoint = "https://waf.sucuri.net/api?v2"

// Config はSucuriアダプタの設定
// APIキーとシークレットの組が保護ドメインを特定します
type Config struct {
	APIKey    string
	APISecret string

	// Endpoint / HTTPClient はテストで差し替えるために使う
	Endpoint   string
	HTTPClient *http.Client
}

// Adapter はSucuri WAFのキャッシュクリアアダプタ
// Sucuriにはパス単位のパージAPIがないため、バッチの内容にかかわらず
// 保護ドメイン全体のキャッシュクリアを発行します。スプリッタには
// MaxBatchSize 0 を返して単一バッチにまとめます
type Adapter struct {
	cfg        Config
	endpoint   string
	httpClient *http.Client
}

// New はSucuriアダプタを生成します
func New(cfg Config) (*Adapter, error) {
	if cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("sucuri: apiKey / apiSecret が指定されていません")
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Adapter{cfg: cfg, endpoint: endpoint, httpClient: httpClient}, nil
}

// Name はプロバイダ種別を返します
func (a *Adapter) Name() purge.ProviderType { return purge.ProviderSucuri }

// MaxBatchSize は0（サイト全体クリアのため分割不要）を返します
func (a *Adapter) MaxBatchSize() int { return 0 }

// Submit は保護ドメインのキャッシュクリアを発行します
func (a *Adapter) Submit(ctx context.Context, batch purge.Batch, callerReference string) (string, error) {
	form := url.Values{
		"k": {a.cfg.APIKey},
		"s": {a.cfg.APISecret},
		"a": {"clear_cache"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", purge.ClassifyTransport(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", purge.ClassifyTransport(err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", purge.ErrorFromHTTP(resp.StatusCode, data)
	}

	var out clearCacheResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", purge.WrapError(purge.KindProvider, err, "clear_cache応答の解析に失敗")
	}
	if out.Status != 1 {
		// HTTP 200でも status != 1 はプロバイダ側の拒否
		return "", purge.NewError(purge.KindProvider, "clear_cacheが拒否されました: %s", strings.Join(out.Messages, "; "))
	}
	// サイト全体クリアには参照IDがない
	return "", nil
}

// clearCacheResponse はSucuri APIの応答
type clearCacheResponse struct {
	Status   int      `json:"status"`
	Action   string   `json:"action"`
	Messages []string `json:"messages"`
}
