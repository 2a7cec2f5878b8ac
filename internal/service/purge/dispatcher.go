package purge

import (
	"context"
	"math/rand"
	"time"

	"cdnkit/internal/service/common"
)

// RetryPolicy は一時エラーに対する再試行の設定
type RetryPolicy struct {
	// MaxAttempts は初回を含む最大試行回数
	MaxAttempts int
	// BaseDelay は指数バックオフの初期遅延
	BaseDelay time.Duration
	// MaxDelay はバックオフ遅延の上限
	MaxDelay time.Duration
}

// DefaultRetryPolicy は既定の再試行設定を返します
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 4,
		BaseDelay:   200 * time.Millisecond,
		MaxDelay:    10 * time.Second,
	}
}

// backoff はattempt回目（1始まり）の失敗後に待つ時間を返します
// 指数バックオフにフルジッタを加えたもの
func (p RetryPolicy) backoff(attempt int) time.Duration {
	d := p.BaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= p.MaxDelay {
			d = p.MaxDelay
			break
		}
	}
	if d <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(d)) + 1)
}

// DispatcherConfig はディスパッチャの動作設定
type DispatcherConfig struct {
	// MaxConcurrency はバッチ送信の同時実行数（1で直列送信）
	MaxConcurrency int
	// CallTimeout はプロバイダ呼び出し1回あたりの制限時間
	CallTimeout time.Duration
	Retry       RetryPolicy
}

const (
	defaultMaxConcurrency = 4
	defaultCallTimeout    = 30 * time.Second
)

// Dispatcher はリクエストをバッチに分割し、プロバイダへ送信する
// プロバイダはコンストラクタで注入され、以後は共通コントラクト越しにのみ扱う
type Dispatcher struct {
	provider Provider
	store    Store
	cfg      DispatcherConfig
}

// NewDispatcher はプロバイダと結果ストアからディスパッチャを生成します
func NewDispatcher(provider Provider, store Store, cfg DispatcherConfig) *Dispatcher {
	if cfg.MaxConcurrency < 1 {
		cfg.MaxConcurrency = defaultMaxConcurrency
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = defaultCallTimeout
	}
	if cfg.Retry.MaxAttempts < 1 {
		cfg.Retry = DefaultRetryPolicy()
	}
	return &Dispatcher{provider: provider, store: store, cfg: cfg}
}

// Dispatch はリクエストの全バッチを送信し、バッチごとの最終結果を返します
// バッチ同士は独立なHTTP呼び出しなので、有界の並列度で同時送信します
// 一部のバッチが失敗しても残りの送信は続行します（公開処理は決して巻き戻さない）
func (d *Dispatcher) Dispatch(ctx context.Context, req *Request) []*Result {
	// Created → Batching
	batches := SplitBatches(req.ID, req.Paths, d.provider.MaxBatchSize())

	// Batching → Submitting
	results := make([]*Result, len(batches))
	executor := common.NewParallelExecutor(d.cfg.MaxConcurrency)
	for i, batch := range batches {
		executor.Execute(ctx, func() {
			results[i] = d.submitBatch(ctx, req, batch)
		})
	}
	executor.Wait()

	// 打ち切りで開始されなかったバッチを記録
	for i, r := range results {
		if r == nil {
			results[i] = &Result{
				RequestID:    req.ID,
				BatchIndex:   batches[i].SequenceIndex,
				Status:       StatusFailed,
				ErrorKind:    KindCanceled,
				ErrorMessage: "送信前にリクエストが打ち切られました",
				Timestamp:    time.Now(),
			}
			_ = d.store.SaveResult(results[i])
		}
	}
	return results
}

// submitBatch は1バッチを再試行込みで送信し、終端状態の結果を返します
func (d *Dispatcher) submitBatch(ctx context.Context, req *Request, batch Batch) *Result {
	result := &Result{
		RequestID:  req.ID,
		BatchIndex: batch.SequenceIndex,
		Status:     StatusPending,
	}

	// 冪等性: 同じ callerReference で送信済みのバッチは再送しない
	if ref, ok, err := d.store.WasSubmitted(req.CallerReference, batch.SequenceIndex); err == nil && ok {
		result.Status = StatusSucceeded
		result.ProviderReference = ref
		result.Timestamp = time.Now()
		_ = d.store.SaveResult(result)
		return result
	}

	for attempt := 1; attempt <= d.cfg.Retry.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			result.Status = StatusFailed
			result.ErrorKind = KindCanceled
			result.ErrorMessage = ctx.Err().Error()
			break
		}

		result.AttemptCount = attempt
		callCtx, cancel := context.WithTimeout(ctx, d.cfg.CallTimeout)
		ref, err := d.provider.Submit(callCtx, batch, req.CallerReference)
		cancel()

		if err == nil {
			result.Status = StatusSucceeded
			result.ProviderReference = ref
			result.ErrorKind = ""
			result.ErrorMessage = ""
			result.Timestamp = time.Now()
			_ = d.store.MarkSubmitted(req.CallerReference, batch.SequenceIndex, ref)
			_ = d.store.SaveResult(result)
			return result
		}

		kind := KindOf(err)
		result.ErrorKind = kind
		result.ErrorMessage = err.Error()

		// 恒久エラーは初回で確定、一時エラーのみバックオフして再試行
		if !Retryable(kind) || attempt == d.cfg.Retry.MaxAttempts {
			result.Status = StatusFailed
			break
		}

		select {
		case <-time.After(d.cfg.Retry.backoff(attempt)):
		case <-ctx.Done():
			result.Status = StatusFailed
			result.ErrorKind = KindCanceled
			result.ErrorMessage = ctx.Err().Error()
		}
		if result.Status == StatusFailed {
			break
		}
	}

	if result.Status == StatusPending {
		result.Status = StatusFailed
	}
	result.Timestamp = time.Now()
	_ = d.store.SaveResult(result)
	return result
}
