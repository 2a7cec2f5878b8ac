package purge

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// LevelDBStore はLevelDBに結果を永続化するストア
// キー空間:
//
//	summary/<requestId>                         → Summary (JSON)
//	result/<requestId>/<batchIndex>             → Result (JSON)
//	submitted/<callerReference>/<batchIndex>    → providerRef
type LevelDBStore struct {
	db *leveldb.DB
}

// OpenLevelDBStore は指定パスにLevelDBストアを開きます（なければ作成）
func OpenLevelDBStore(path string) (*LevelDBStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("結果ストアのオープンに失敗: %w", err)
	}
	return &LevelDBStore{db: db}, nil
}

func summaryKey(requestID string) []byte {
	return []byte("summary/" + requestID)
}

func resultKey(requestID string, batchIndex int) []byte {
	return []byte(fmt.Sprintf("result/%s/%06d", requestID, batchIndex))
}

func (s *LevelDBStore) SaveSummary(sum *Summary) error {
	b, err := json.Marshal(sum)
	if err != nil {
		return err
	}
	return s.db.Put(summaryKey(sum.RequestID), b, nil)
}

func (s *LevelDBStore) GetSummary(requestID string) (*Summary, error) {
	b, err := s.db.Get(summaryKey(requestID), nil)
	if err == leveldb.ErrNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, requestID)
	}
	if err != nil {
		return nil, err
	}
	var sum Summary
	if err := json.Unmarshal(b, &sum); err != nil {
		return nil, err
	}
	return &sum, nil
}

func (s *LevelDBStore) ListSummaries(limit int) ([]*Summary, error) {
	var out []*Summary
	iter := s.db.NewIterator(util.BytesPrefix([]byte("summary/")), nil)
	for iter.Next() {
		var sum Summary
		if err := json.Unmarshal(iter.Value(), &sum); err != nil {
			continue
		}
		out = append(out, &sum)
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *LevelDBStore) SaveResult(r *Result) error {
	b, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return s.db.Put(resultKey(r.RequestID, r.BatchIndex), b, nil)
}

func (s *LevelDBStore) ListResults(requestID string) ([]*Result, error) {
	var out []*Result
	prefix := []byte("result/" + requestID + "/")
	iter := s.db.NewIterator(util.BytesPrefix(prefix), nil)
	for iter.Next() {
		var r Result
		if err := json.Unmarshal(iter.Value(), &r); err != nil {
			continue
		}
		out = append(out, &r)
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return nil, err
	}
	// キーは0埋めした連番なのでイテレータ順で既に整列しているが、念のため
	sort.Slice(out, func(i, j int) bool { return out[i].BatchIndex < out[j].BatchIndex })
	return out, nil
}

func (s *LevelDBStore) MarkSubmitted(callerReference string, batchIndex int, providerRef string) error {
	key := []byte("submitted/" + submittedKey(callerReference, batchIndex))
	return s.db.Put(key, []byte(providerRef), nil)
}

func (s *LevelDBStore) WasSubmitted(callerReference string, batchIndex int) (string, bool, error) {
	key := []byte("submitted/" + submittedKey(callerReference, batchIndex))
	b, err := s.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(b), true, nil
}

func (s *LevelDBStore) Close() error { return s.db.Close() }
