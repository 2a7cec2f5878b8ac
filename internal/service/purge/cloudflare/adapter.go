package cloudflare

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"cdnkit/internal/service/purge"
)

const (
	defaultBaseURL = "https://api.cloudflare.com/client/v4"

	// MaxFilesPerRequest はpurge_cache APIの1呼び出しあたりのURL数上限
	MaxFilesPerRequest = 30
)

// Config はCloudflareアダプタの設定
type Config struct {
	// ZoneID は対象ゾーンの識別子
	ZoneID string
	// APIToken はゾーンにスコープされたBearerトークン
	APIToken string
	// SiteURL はパスを絶対URLにするためのサイトのベースURL（例: https://example.com）
	SiteURL string

	// BaseURL はテストでAPIエンドポイントを差し替えるために使う
	BaseURL    string
	HTTPClient *http.Client
}

// Adapter はCloudflareゾーンへのキャッシュパージアダプタ
type Adapter struct {
	cfg        Config
	baseURL    string
	siteURL    string
	httpClient *http.Client
}

// New はCloudflareアダプタを生成します
func New(cfg Config) (*Adapter, error) {
	if cfg.ZoneID == "" {
		return nil, fmt.Errorf("cloudflare: zoneId が指定されていません")
	}
	if cfg.APIToken == "" {
		return nil, fmt.Errorf("cloudflare: apiToken が指定されていません")
	}
	if cfg.SiteURL == "" {
		return nil, fmt.Errorf("cloudflare: siteUrl が指定されていません")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Adapter{
		cfg:        cfg,
		baseURL:    strings.TrimRight(baseURL, "/"),
		siteURL:    strings.TrimRight(cfg.SiteURL, "/"),
		httpClient: httpClient,
	}, nil
}

// Name はプロバイダ種別を返します
func (a *Adapter) Name() purge.ProviderType { return purge.ProviderCloudflare }

// MaxBatchSize は1リクエストあたりのURL数上限を返します
func (a *Adapter) MaxBatchSize() int { return MaxFilesPerRequest }

// Submit はバッチをpurge_cache APIに送信します
// パス集合がちょうど ["/*"] の場合はワイルドカードのファイル指定ができないため
// purge_everything に写します。それ以外はサイトURLと連結した絶対URLで指定します
func (a *Adapter) Submit(ctx context.Context, batch purge.Batch, callerReference string) (string, error) {
	payload := purgeRequest{}
	if len(batch.Paths) == 1 && batch.Paths[0] == "/*" {
		payload.PurgeEverything = true
	} else {
		files := make([]string, len(batch.Paths))
		for i, p := range batch.Paths {
			files[i] = a.siteURL + p
		}
		payload.Files = files
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", purge.WrapError(purge.KindSerialization, err, "purge_cacheボディの直列化に失敗")
	}

	url := fmt.Sprintf("%s/zones/%s/purge_cache", a.baseURL, a.cfg.ZoneID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.cfg.APIToken)

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

	var envelope purgeResponse
	if err := json.Unmarshal(data, &envelope); err != nil {
		return "", purge.WrapError(purge.KindProvider, err, "purge_cache応答の解析に失敗")
	}
	if !envelope.Success {
		// HTTP 200でも success:false はプロバイダ側の拒否
		return "", purge.NewError(purge.KindProvider, "purge_cacheが拒否されました: %s", envelope.errorText())
	}
	return envelope.Result.ID, nil
}

// purgeRequest はpurge_cache APIのリクエストボディ
// files か purge_everything のどちらか一方だけを含める
type purgeRequest struct {
	Files           []string `json:"files,omitempty"`
	PurgeEverything bool     `json:"purge_everything,omitempty"`
}

type purgeResponse struct {
	Success bool `json:"success"`
	Errors  []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
	Result struct {
		ID string `json:"id"`
	} `json:"result"`
}

func (r purgeResponse) errorText() string {
	if len(r.Errors) == 0 {
		return "詳細不明"
	}
	parts := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		parts[i] = fmt.Sprintf("[%d] %s", e.Code, e.Message)
	}
	return strings.Join(parts, "; ")
}
