package purge

// SplitBatches は検証済みパス一覧をプロバイダ上限ごとのバッチに分割します
// ceil(N/limit) 個のバッチを元の順序のまま生成し、全バッチの和集合は
// 入力と過不足なく一致します。limit が 0 以下のプロバイダ
// （サイト全体キャッシュクリアのみのもの）は単一バッチになります
func SplitBatches(requestID string, paths []string, limit int) []Batch {
	if len(paths) == 0 {
		return nil
	}
	if limit <= 0 || len(paths) <= limit {
		return []Batch{{RequestID: requestID, SequenceIndex: 0, Paths: paths}}
	}

	batches := make([]Batch, 0, (len(paths)+limit-1)/limit)
	for start := 0; start < len(paths); start += limit {
		end := start + limit
		if end > len(paths) {
			end = len(paths)
		}
		batches = append(batches, Batch{
			RequestID:     requestID,
			SequenceIndex: len(batches),
			Paths:         paths[start:end],
		})
	}
	return batches
}
