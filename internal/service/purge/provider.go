package purge

import "context"

// Provider は各CDNアダプタが実装する共通コントラクト
// ディスパッチャはこのインタフェースだけを保持し、プロバイダ種別で
// 分岐しません。実装はバッチをワイヤ形式に直列化し、プロバイダ固有の
// 認証を付けてHTTP呼び出しを行い、結果を共通のエラー分類に写します
type Provider interface {
	// Name はプロバイダ種別を返します
	Name() ProviderType
	// MaxBatchSize は1リクエストあたりのパス数上限を返します
	// 0以下はバッチ分割なし（単一バッチ）を意味します
	MaxBatchSize() int
	// Submit はバッチを送信し、プロバイダが発行した参照ID（無効化IDなど）を返します
	Submit(ctx context.Context, batch Batch, callerReference string) (string, error)
}

// StatusPoller は無効化の完了状態を照会できるプロバイダが実装する拡張コントラクト
// 現状はCloudFrontのみが対応しています
type StatusPoller interface {
	// InvalidationStatus は参照IDに対応する無効化の進行状態を返します
	InvalidationStatus(ctx context.Context, providerRef string) (string, error)
	// Completed は状態文字列が完了を表すかどうかを判定します
	Completed(status string) bool
}
