package purge

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrNotFound は指定のリクエストが保存されていない場合に返します
var ErrNotFound = errors.New("リクエストが見つかりません")

// Store は結果レポータが使う永続化層
// バッチごとの結果・リクエストサマリ・冪等性レジストリを保持します
type Store interface {
	SaveSummary(s *Summary) error
	GetSummary(requestID string) (*Summary, error)
	// ListSummaries は新しい順にサマリを返します（limit 0以下は全件）
	ListSummaries(limit int) ([]*Summary, error)

	SaveResult(r *Result) error
	// ListResults はバッチ番号順に結果を返します
	ListResults(requestID string) ([]*Result, error)

	// MarkSubmitted は callerReference とバッチ番号の組を送信済みとして記録します
	MarkSubmitted(callerReference string, batchIndex int, providerRef string) error
	// WasSubmitted は同じ組がすでに送信済みかを返します（冪等性の判定）
	WasSubmitted(callerReference string, batchIndex int) (providerRef string, ok bool, err error)

	Close() error
}

// MemoryStore はテスト用およびディスク状態を持ちたくない呼び出し側向けのインメモリ実装
type MemoryStore struct {
	mu        sync.RWMutex
	summaries map[string]*Summary
	results   map[string]map[int]*Result
	submitted map[string]string
}

// NewMemoryStore は空のインメモリストアを生成します
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		summaries: make(map[string]*Summary),
		results:   make(map[string]map[int]*Result),
		submitted: make(map[string]string),
	}
}

func (m *MemoryStore) SaveSummary(s *Summary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.summaries[s.RequestID] = &cp
	return nil
}

func (m *MemoryStore) GetSummary(requestID string) (*Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.summaries[requestID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, requestID)
	}
	cp := *s
	return &cp, nil
}

func (m *MemoryStore) ListSummaries(limit int) ([]*Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Summary, 0, len(m.summaries))
	for _, s := range m.summaries {
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) SaveResult(r *Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	byIndex, ok := m.results[r.RequestID]
	if !ok {
		byIndex = make(map[int]*Result)
		m.results[r.RequestID] = byIndex
	}
	cp := *r
	byIndex[r.BatchIndex] = &cp
	return nil
}

func (m *MemoryStore) ListResults(requestID string) ([]*Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	byIndex := m.results[requestID]
	out := make([]*Result, 0, len(byIndex))
	for _, r := range byIndex {
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BatchIndex < out[j].BatchIndex })
	return out, nil
}

func (m *MemoryStore) MarkSubmitted(callerReference string, batchIndex int, providerRef string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submitted[submittedKey(callerReference, batchIndex)] = providerRef
	return nil
}

func (m *MemoryStore) WasSubmitted(callerReference string, batchIndex int) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ref, ok := m.submitted[submittedKey(callerReference, batchIndex)]
	return ref, ok, nil
}

func (m *MemoryStore) Close() error { return nil }

func submittedKey(callerReference string, batchIndex int) string {
	return fmt.Sprintf("%s/%06d", callerReference, batchIndex)
}
