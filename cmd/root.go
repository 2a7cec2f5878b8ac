package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"cdnkit/internal/cdn"
)

// AppName はCLIの名前
const AppName = "cdnkit"

var cfgPath string
var tenantID string
var appCfg cdn.Config

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   AppName,
	Short: "CDNキャッシュ無効化サブシステムのCLI",
	Long: `公開パイプラインがコンテンツ更新後に呼び出すCDNキャッシュ無効化サブシステムです。
CloudFront / Cloudflare / Azure Front Door / Sucuri に対応し、
パスの検証・バッチ分割・再試行・結果記録までを行います。`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := RootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "設定ファイルのパス")
	RootCmd.PersistentFlags().StringVarP(&tenantID, "tenant", "t", "", "テナントID")

	// コマンド実行前に共通で設定ファイルの読み込みを行う
	RootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// ヘルプとversionコマンドの場合はスキップ
		if cmd.Name() == "help" || cmd.Name() == "version" {
			return nil
		}
		return loadAppConfig(cmd)
	}
}

// loadAppConfig は設定ファイルのパスを解決して読み込むプライベート関数
func loadAppConfig(cmd *cobra.Command) error {
	path := cfgPath
	if path == "" {
		// 環境変数から設定パス取得を試みる
		path = os.Getenv("CDNKIT_CONFIG")
	}
	if path == "" {
		if _, err := os.Stat("cdnkit.yaml"); err == nil {
			path = "cdnkit.yaml"
		}
	}
	if path == "" {
		cmd.SilenceUsage = true // エラー時のUsage表示を抑制
		return errors.New("❌ エラー: 設定ファイルが見つかりません。-cオプションまたは CDNKIT_CONFIG 環境変数を指定してください")
	}

	cfg, err := cdn.LoadConfig(path)
	if err != nil {
		cmd.SilenceUsage = true
		return errors.New("❌ 設定ファイルの読み込みに失敗: " + err.Error())
	}
	appCfg = cfg
	return nil
}
