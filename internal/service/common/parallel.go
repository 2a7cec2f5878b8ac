package common

import (
	"context"
	"sync"
)

// ParallelExecutor は並列処理を管理する構造体
type ParallelExecutor struct {
	maxWorkers int
	wg         sync.WaitGroup
	semaphore  chan struct{}
}

// NewParallelExecutor は新しいParallelExecutorを作成
func NewParallelExecutor(maxWorkers int) *ParallelExecutor {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &ParallelExecutor{
		maxWorkers: maxWorkers,
		semaphore:  make(chan struct{}, maxWorkers),
	}
}

// Execute はタスクを並列で実行
// ctx が打ち切られた場合、まだ開始していないタスクは実行されません
func (p *ParallelExecutor) Execute(ctx context.Context, task func()) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		select {
		case p.semaphore <- struct{}{}: // セマフォ取得（同時実行数制限）
			defer func() { <-p.semaphore }() // セマフォ解放
			task()
		case <-ctx.Done():
			// 未開始のまま放棄
		}
	}()
}

// Wait はすべてのタスクの完了を待つ
func (p *ParallelExecutor) Wait() {
	p.wg.Wait()
}
