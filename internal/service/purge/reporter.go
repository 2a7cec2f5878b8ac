package purge

import "time"

// Reporter はバッチごとの結果を観測してリクエストサマリを構築・保存する
// 送信中の状態には関与せず、記録のみを行います
type Reporter struct {
	store Store
}

// NewReporter は結果ストアに書き込むレポータを生成します
func NewReporter(store Store) *Reporter {
	return &Reporter{store: store}
}

// Report は終端に達した全バッチの結果からサマリを作り、保存して返します
func (r *Reporter) Report(req *Request, results []*Result) (*Summary, error) {
	summary := Summarize(req, results)
	if err := r.store.SaveSummary(summary); err != nil {
		return summary, err
	}
	return summary, nil
}

// Summarize はバッチ結果を集計してリクエスト状態を決定します
// 全バッチ成功で Succeeded、全滅で Failed、混在は PartialFailure
func Summarize(req *Request, results []*Result) *Summary {
	summary := &Summary{
		RequestID:    req.ID,
		TenantID:     req.TenantID,
		Provider:     req.Provider,
		TotalBatches: len(results),
		CreatedAt:    req.CreatedAt,
		CompletedAt:  time.Now(),
	}

	for _, result := range results {
		switch result.Status {
		case StatusSucceeded:
			summary.SucceededBatches++
			if result.AttemptCount == 0 {
				// 冪等性レジストリによりスキップされた再送
				summary.SkippedBatches++
			}
			if result.ProviderReference != "" {
				summary.ProviderReferences = append(summary.ProviderReferences, result.ProviderReference)
			}
		default:
			summary.FailedBatches++
		}
	}

	switch {
	case summary.FailedBatches == 0:
		summary.State = StateSucceeded
	case summary.SucceededBatches == 0:
		summary.State = StateFailed
	default:
		summary.State = StatePartialFailure
	}
	return summary
}
