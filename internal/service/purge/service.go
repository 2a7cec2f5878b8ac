package purge

import (
	"context"
	"sync"
)

// ServiceConfig はサービスファサードの設定
type ServiceConfig struct {
	Dispatcher DispatcherConfig
	// TenantProviders はテナントごとのプロバイダ上書き（未登録のテナントは既定を使用）
	TenantProviders map[string]Provider
}

// Service は公開パイプラインに対する受け口
// バリデータ → スプリッタ → ディスパッチャ → レポータを束ねます
// 無効化の失敗は監査用のサマリとして報告されるだけで、公開処理そのものを
// 失敗させることはありません
type Service struct {
	provider Provider
	store    Store
	reporter *Reporter
	cfg      ServiceConfig

	// バックグラウンド送信の寿命管理
	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewService は既定プロバイダと結果ストアからサービスを生成します
func NewService(provider Provider, store Store, cfg ServiceConfig) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		provider: provider,
		store:    store,
		reporter: NewReporter(store),
		cfg:      cfg,
		baseCtx:  ctx,
		cancel:   cancel,
	}
}

// Submit は無効化リクエストを受理し、送信はバックグラウンドで続行します
// 検証エラーはリクエスト生成前に同期で返します（fire-and-forget）
// CDNプロバイダの遅延・障害が公開のレイテンシに影響しないよう、
// 受理した時点で requestId を返します
func (s *Service) Submit(ctx context.Context, tenantID string, paths []string) (string, error) {
	req, err := s.newRequest(tenantID, paths)
	if err != nil {
		return "", err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		// 呼び出し元のctxではなくサービス寿命のctxで送信する
		// （公開側の応答が返った後も送信は続く）
		s.run(s.baseCtx, req)
	}()
	return req.ID, nil
}

// SubmitAndWait は無効化リクエストを送信し、全バッチの終端まで待ちます
// 制限時間は呼び出し側が ctx で与えます
func (s *Service) SubmitAndWait(ctx context.Context, tenantID string, paths []string) (*Summary, error) {
	req, err := s.newRequest(tenantID, paths)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, req), nil
}

// Status はリクエストのサマリとバッチごとの結果を返します
func (s *Service) Status(requestID string) (*Summary, []*Result, error) {
	summary, err := s.store.GetSummary(requestID)
	if err != nil {
		return nil, nil, err
	}
	results, err := s.store.ListResults(requestID)
	if err != nil {
		return summary, nil, err
	}
	return summary, results, nil
}

// Recent は新しい順にリクエストサマリを返します
func (s *Service) Recent(limit int) ([]*Summary, error) {
	return s.store.ListSummaries(limit)
}

// ProviderFor はテナントに対して使われるプロバイダを返します
func (s *Service) ProviderFor(tenantID string) Provider {
	if p, ok := s.cfg.TenantProviders[tenantID]; ok {
		return p
	}
	return s.provider
}

// Close はバックグラウンド送信を打ち切り、完了を待ってからストアを閉じます
// 送信済みのバッチはプロバイダ側で完了まで進みます（呼び戻せない）
func (s *Service) Close() error {
	s.cancel()
	s.wg.Wait()
	return s.store.Close()
}

// Shutdown は進行中の送信を打ち切らずに完了を待ちます
func (s *Service) Shutdown() error {
	s.wg.Wait()
	s.cancel()
	return s.store.Close()
}

func (s *Service) newRequest(tenantID string, paths []string) (*Request, error) {
	validated, err := ValidatePaths(paths)
	if err != nil {
		return nil, err
	}
	return NewRequest(tenantID, validated, s.ProviderFor(tenantID).Name()), nil
}

func (s *Service) run(ctx context.Context, req *Request) *Summary {
	provider := s.ProviderFor(req.TenantID)
	dispatcher := NewDispatcher(provider, s.store, s.cfg.Dispatcher)
	results := dispatcher.Dispatch(ctx, req)
	summary, _ := s.reporter.Report(req, results)
	return summary
}
