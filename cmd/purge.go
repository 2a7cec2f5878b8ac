package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"cdnkit/internal/cdn"
	"cdnkit/internal/service/purge"
)

// purgeCmd represents the purge command
var purgeCmd = &cobra.Command{
	Use:   "purge [paths...]",
	Short: "CDNキャッシュを無効化するコマンド",
	Long: `設定されたCDNプロバイダに対してキャッシュ無効化を発行します。
パスは / で始まる必要があり、プロバイダの上限に合わせて自動でバッチ分割されます。

【使い方】
  ` + AppName + ` purge /index.html /about.html        # 指定パスを無効化
  ` + AppName + ` purge --all                           # 全体を無効化（/*）
  ` + AppName + ` purge -t tenant-123 /news/            # テナントを指定して無効化
  ` + AppName + ` purge --all -w                        # 完了まで待機（CloudFrontのみ）

【例】
  ` + AppName + ` purge /images/logo.png /css/site.css
  → 2つのパスを同時に無効化します`,
	RunE: func(cmdCobra *cobra.Command, args []string) error {
		all, _ := cmdCobra.Flags().GetBool("all")
		wait, _ := cmdCobra.Flags().GetBool("wait")
		async, _ := cmdCobra.Flags().GetBool("async")

		paths := args
		if all {
			paths = []string{"/*"}
		}
		if len(paths) == 0 {
			return fmt.Errorf("❌ エラー: 無効化するパスまたは --all を指定してください")
		}

		ctx := cmdCobra.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		svc, err := cdn.BuildService(ctx, appCfg)
		if err != nil {
			return fmt.Errorf("❌ プロバイダの初期化に失敗: %w", err)
		}
		defer svc.Shutdown()

		provider := svc.ProviderFor(tenantID)
		fmt.Printf("🚀 CDN (%s) のキャッシュを無効化します...\n", provider.Name())
		fmt.Printf("   対象パス: %v\n", paths)

		if async {
			requestID, err := svc.Submit(ctx, tenantID, paths)
			if err != nil {
				return fmt.Errorf("❌ キャッシュ無効化エラー: %w", err)
			}
			fmt.Printf("✅ リクエストを受理しました (ID: %s)\n", requestID)
			fmt.Println("   送信はバックグラウンドで続行します。結果は status コマンドで確認できます")
			return nil
		}

		summary, err := svc.SubmitAndWait(ctx, tenantID, paths)
		if err != nil {
			return fmt.Errorf("❌ キャッシュ無効化エラー: %w", err)
		}
		printSummary(summary)

		if summary.State == purge.StateFailed {
			return fmt.Errorf("❌ すべてのバッチが失敗しました (ID: %s)", summary.RequestID)
		}

		// 待機オプションが有効な場合（完了照会に対応したプロバイダのみ）
		if wait {
			poller, ok := cdn.StatusPollerFor(provider)
			if !ok {
				fmt.Println("⚠️ このプロバイダは完了照会に対応していないため、待機をスキップします")
				return nil
			}
			fmt.Println("⏳ 無効化の完了を待機しています...")
			if err := waitForCompletion(ctx, poller, summary.ProviderReferences); err != nil {
				return fmt.Errorf("❌ 無効化待機エラー: %w", err)
			}
			fmt.Println("✅ キャッシュ無効化が完了しました")
		}
		return nil
	},
	SilenceUsage: true,
}

// printSummary はリクエストサマリを表示します
func printSummary(summary *purge.Summary) {
	switch summary.State {
	case purge.StateSucceeded:
		fmt.Printf("✅ キャッシュ無効化を開始しました (ID: %s)\n", summary.RequestID)
	case purge.StatePartialFailure:
		fmt.Printf("⚠️ 一部のバッチが失敗しました (ID: %s)\n", summary.RequestID)
	default:
		fmt.Printf("❌ キャッシュ無効化に失敗しました (ID: %s)\n", summary.RequestID)
	}
	fmt.Printf("   バッチ: 成功 %d / 失敗 %d / 全 %d\n",
		summary.SucceededBatches, summary.FailedBatches, summary.TotalBatches)
	for _, ref := range summary.ProviderReferences {
		fmt.Printf("   無効化ID: %s\n", ref)
	}
}

// waitForCompletion は各無効化IDが完了状態になるまでポーリングします
func waitForCompletion(ctx context.Context, poller purge.StatusPoller, refs []string) error {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("待機中..."),
		progressbar.OptionSpinnerType(14),
	)
	defer func() {
		_ = bar.Finish()
		fmt.Println()
	}()

	for _, ref := range refs {
		for {
			status, err := poller.InvalidationStatus(ctx, ref)
			if err != nil {
				return err
			}
			if poller.Completed(status) {
				break
			}
			// 10秒待機してから再確認
			for i := 0; i < 10; i++ {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(time.Second):
					_ = bar.Add(1)
				}
			}
		}
	}
	return nil
}

func init() {
	RootCmd.AddCommand(purgeCmd)

	purgeCmd.Flags().BoolP("all", "a", false, "全体を無効化（/*）")
	purgeCmd.Flags().BoolP("wait", "w", false, "無効化完了まで待機")
	purgeCmd.Flags().Bool("async", false, "受理後すぐに戻る（結果はstatusで確認）")
}
