package purge

import (
	"time"

	"github.com/google/uuid"
)

// ProviderType は利用するCDNプロバイダの種別
type ProviderType string

const (
	ProviderCloudFront     ProviderType = "cloudfront"
	ProviderCloudflare     ProviderType = "cloudflare"
	ProviderAzureFrontDoor ProviderType = "azurefrontdoor"
	ProviderSucuri         ProviderType = "sucuri"
	ProviderNone           ProviderType = "none"
)

// Status はバッチ単位の送信ステータス
type Status string

const (
	StatusPending   Status = "Pending"
	StatusSubmitted Status = "Submitted"
	StatusSucceeded Status = "Succeeded"
	StatusFailed    Status = "Failed"
)

// RequestState はリクエスト全体の状態遷移
// Created → Batching → Submitting → {Succeeded | PartialFailure | Failed}
type RequestState string

const (
	StateCreated        RequestState = "Created"
	StateBatching       RequestState = "Batching"
	StateSubmitting     RequestState = "Submitting"
	StateSucceeded      RequestState = "Succeeded"
	StatePartialFailure RequestState = "PartialFailure"
	StateFailed         RequestState = "Failed"
)

// Request は公開パイプラインから受け取った無効化リクエスト
type Request struct {
	ID       string   `json:"id"`
	TenantID string   `json:"tenantId"`
	Paths    []string `json:"paths"`
	// CallerReference は冪等性トークン。同一リクエストの再試行では再利用し、
	// 新しい論理リクエストでは必ず新規生成する
	CallerReference string       `json:"callerReference"`
	Provider        ProviderType `json:"provider"`
	CreatedAt       time.Time    `json:"createdAt"`
}

// NewRequest は検証済みパス一覧から無効化リクエストを生成します
func NewRequest(tenantID string, paths []string, provider ProviderType) *Request {
	return &Request{
		ID:              uuid.NewString(),
		TenantID:        tenantID,
		Paths:           paths,
		CallerReference: uuid.NewString(),
		Provider:        provider,
		CreatedAt:       time.Now(),
	}
}

// Batch はプロバイダ上限に収まるパスの部分集合
// 生成後は不変。全バッチの和集合は元のパス集合と過不足なく一致する
type Batch struct {
	RequestID     string   `json:"requestId"`
	SequenceIndex int      `json:"sequenceIndex"`
	Paths         []string `json:"paths"`
}

// Result はバッチごとの送信結果
type Result struct {
	RequestID         string    `json:"requestId"`
	BatchIndex        int       `json:"batchIndex"`
	Status            Status    `json:"status"`
	ProviderReference string    `json:"providerReference,omitempty"`
	ErrorKind         ErrorKind `json:"errorKind,omitempty"`
	ErrorMessage      string    `json:"errorMessage,omitempty"`
	AttemptCount      int       `json:"attemptCount"`
	Timestamp         time.Time `json:"timestamp"`
}

// Summary はリクエスト単位の集計結果。公開パイプラインと監査ログに返す
type Summary struct {
	RequestID          string       `json:"requestId"`
	TenantID           string       `json:"tenantId"`
	Provider           ProviderType `json:"provider"`
	State              RequestState `json:"state"`
	TotalBatches       int          `json:"totalBatches"`
	SucceededBatches   int          `json:"succeededBatches"`
	FailedBatches      int          `json:"failedBatches"`
	SkippedBatches     int          `json:"skippedBatches"`
	ProviderReferences []string     `json:"providerReferences,omitempty"`
	CreatedAt          time.Time    `json:"createdAt"`
	CompletedAt        time.Time    `json:"completedAt"`
}
