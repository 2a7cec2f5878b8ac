package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"cdnkit/internal/cdn"
	"cdnkit/internal/service/common"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status [request-id]",
	Short: "無効化リクエストの状態を表示するコマンド",
	Long: `保存された無効化リクエストの結果を表示します。
リクエストIDを省略した場合は新しい順に一覧を表示します。

【使い方】
  ` + AppName + ` status                                # 最近のリクエスト一覧
  ` + AppName + ` status -n 50                          # 件数を指定
  ` + AppName + ` status -f "tenant-*"                  # テナントIDで絞り込み
  ` + AppName + ` status 9f1c...                        # 特定リクエストの詳細`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmdCobra *cobra.Command, args []string) error {
		limit, _ := cmdCobra.Flags().GetInt("limit")
		filter, _ := cmdCobra.Flags().GetString("filter")

		ctx := cmdCobra.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		svc, err := cdn.BuildService(ctx, appCfg)
		if err != nil {
			return fmt.Errorf("❌ プロバイダの初期化に失敗: %w", err)
		}
		defer svc.Shutdown()

		// 特定リクエストの詳細表示
		if len(args) == 1 {
			summary, results, err := svc.Status(args[0])
			if err != nil {
				return fmt.Errorf("❌ リクエスト状態の取得に失敗: %w", err)
			}

			fmt.Printf("📋 リクエスト %s\n", summary.RequestID)
			if summary.TenantID != "" {
				fmt.Printf("   テナント: %s\n", summary.TenantID)
			}
			fmt.Printf("   プロバイダ: %s\n", summary.Provider)
			fmt.Printf("   状態: %s\n", summary.State)
			fmt.Printf("   バッチ: 成功 %d / 失敗 %d / 全 %d\n",
				summary.SucceededBatches, summary.FailedBatches, summary.TotalBatches)
			fmt.Printf("   受理: %s / 完了: %s\n",
				summary.CreatedAt.Format("2006-01-02 15:04:05"),
				summary.CompletedAt.Format("2006-01-02 15:04:05"))

			for _, r := range results {
				line := fmt.Sprintf("   batch[%d]: %s (試行 %d)", r.BatchIndex, r.Status, r.AttemptCount)
				if r.ProviderReference != "" {
					line += " 無効化ID: " + r.ProviderReference
				}
				if r.ErrorMessage != "" {
					line += " エラー: " + r.ErrorMessage
				}
				fmt.Println(line)
			}
			return nil
		}

		// 一覧表示
		summaries, err := svc.Recent(limit)
		if err != nil {
			return common.FormatListError("無効化リクエスト", err)
		}

		items := make([]string, 0, len(summaries))
		for _, s := range summaries {
			if filter != "" && !common.MatchPattern(s.RequestID, filter) && !common.MatchPattern(s.TenantID, filter) {
				continue
			}
			items = append(items, fmt.Sprintf("%s  %-14s %s (成功 %d/%d)",
				s.CreatedAt.Format("2006-01-02 15:04:05"), s.State, s.RequestID,
				s.SucceededBatches, s.TotalBatches))
		}
		common.PrintNumberedList(common.ListOutput{
			Title:        "無効化リクエスト一覧",
			Items:        items,
			ResourceName: "無効化リクエスト",
		})
		return nil
	},
	SilenceUsage: true,
}

func init() {
	RootCmd.AddCommand(statusCmd)

	statusCmd.Flags().IntP("limit", "n", 20, "表示件数")
	statusCmd.Flags().StringP("filter", "f", "", "リクエストID/テナントIDの絞り込みパターン")
}
