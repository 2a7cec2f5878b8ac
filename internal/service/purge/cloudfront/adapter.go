package cloudfront

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"

	"cdnkit/internal/service/purge"
)

const (
	apiVersion      = "2020-05-31"
	defaultEndpoint = "https://cloudfront.amazonaws.com"

	// CloudFrontのAPIはリージョンレスだが、署名は us-east-1 固定
	signingRegion  = "us-east-1"
	signingService = "cloudfront"

	// statusCompleted は無効化完了を表すステータス文字列
	statusCompleted = "Completed"
)

// Config はCloudFrontアダプタの設定
// AccessKeyID が指定されていれば静的認証情報、なければ共有設定
// （プロファイル/環境変数/IAMロール）から解決します
type Config struct {
	DistributionID  string
	Profile         string
	AccessKeyID     string
	SecretAccessKey string

	// Endpoint はテストでAPIエンドポイントを差し替えるために使う
	Endpoint   string
	HTTPClient *http.Client
}

// Adapter はCloudFrontディストリビューションへの無効化アダプタ
type Adapter struct {
	cfg        Config
	creds      aws.CredentialsProvider
	signer     *v4.Signer
	httpClient *http.Client
	endpoint   string
}

// New はCloudFrontアダプタを生成します
func New(ctx context.Context, cfg Config) (*Adapter, error) {
	if cfg.DistributionID == "" {
		return nil, fmt.Errorf("cloudfront: distributionId が指定されていません")
	}

	var creds aws.CredentialsProvider
	if cfg.AccessKeyID != "" {
		creds = credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	} else {
		opts := make([]func(*awsconfig.LoadOptions) error, 0)
		if cfg.Profile != "" {
			opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.Profile))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("cloudfront: AWS設定の読み込みに失敗: %w", err)
		}
		creds = awsCfg.Credentials
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Adapter{
		cfg:        cfg,
		creds:      creds,
		signer:     v4.NewSigner(),
		httpClient: httpClient,
		endpoint:   strings.TrimRight(endpoint, "/"),
	}, nil
}

// Name はプロバイダ種別を返します
func (a *Adapter) Name() purge.ProviderType { return purge.ProviderCloudFront }

// MaxBatchSize は1リクエストあたりのパス数上限を返します
func (a *Adapter) MaxBatchSize() int { return MaxPathsPerRequest }

// Submit はバッチをInvalidationBatch XMLとして送信し、無効化IDを返します
func (a *Adapter) Submit(ctx context.Context, batch purge.Batch, callerReference string) (string, error) {
	body, err := BuildInvalidationBatch(batch.Paths, callerReference)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/%s/distribution/%s/invalidation", a.endpoint, apiVersion, a.cfg.DistributionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "text/xml")

	resp, err := a.do(ctx, req, []byte(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", purge.ClassifyTransport(err)
	}
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", purge.ErrorFromHTTP(resp.StatusCode, data)
	}

	var inv invalidationResponse
	if err := xml.Unmarshal(data, &inv); err != nil {
		return "", purge.WrapError(purge.KindProvider, err, "無効化応答の解析に失敗")
	}
	return inv.ID, nil
}

// InvalidationStatus は無効化の進行状態（InProgress / Completed）を照会します
func (a *Adapter) InvalidationStatus(ctx context.Context, providerRef string) (string, error) {
	url := fmt.Sprintf("%s/%s/distribution/%s/invalidation/%s",
		a.endpoint, apiVersion, a.cfg.DistributionID, providerRef)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := a.do(ctx, req, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", purge.ClassifyTransport(err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", purge.ErrorFromHTTP(resp.StatusCode, data)
	}

	var inv invalidationResponse
	if err := xml.Unmarshal(data, &inv); err != nil {
		return "", purge.WrapError(purge.KindProvider, err, "無効化応答の解析に失敗")
	}
	return inv.Status, nil
}

// Completed は状態文字列が完了を表すかどうかを判定します
func (a *Adapter) Completed(status string) bool { return status == statusCompleted }

// do はリクエストにSigV4署名を付けて送信します
func (a *Adapter) do(ctx context.Context, req *http.Request, body []byte) (*http.Response, error) {
	sum := sha256.Sum256(body)
	payloadHash := hex.EncodeToString(sum[:])

	creds, err := a.creds.Retrieve(ctx)
	if err != nil {
		return nil, purge.WrapError(purge.KindAuthentication, err, "AWS認証情報の取得に失敗")
	}
	if err := a.signer.SignHTTP(ctx, creds, req, payloadHash, signingService, signingRegion, time.Now().UTC()); err != nil {
		return nil, purge.WrapError(purge.KindAuthentication, err, "リクエスト署名に失敗")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, purge.ClassifyTransport(err)
	}
	return resp, nil
}

// invalidationResponse はCreateInvalidation / GetInvalidationの応答
type invalidationResponse struct {
	XMLName xml.Name `xml:"Invalidation"`
	ID      string   `xml:"Id"`
	Status  string   `xml:"Status"`
}
