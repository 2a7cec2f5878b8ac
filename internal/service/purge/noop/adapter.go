package noop

import (
	"context"

	"cdnkit/internal/service/purge"
)

// Adapter はCDNが設定されていない場合に使うノーオペレーションのプロバイダ
// 常に成功を返し、外部呼び出しは一切行わないため、ディスパッチャの
// コントラクトはCDNの有無にかかわらず同一になります
type Adapter struct{}

// New はノーオペレーションのアダプタを生成します
func New() *Adapter { return &Adapter{} }

// Name はプロバイダ種別を返します
func (a *Adapter) Name() purge.ProviderType { return purge.ProviderNone }

// MaxBatchSize は0（分割不要）を返します
func (a *Adapter) MaxBatchSize() int { return 0 }

// Submit は何もせずに成功します。参照IDは空文字列です
func (a *Adapter) Submit(ctx context.Context, batch purge.Batch, callerReference string) (string, error) {
	return "", nil
}
