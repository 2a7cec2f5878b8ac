package common

import "fmt"

// エラーメッセージの絵文字定数
const (
	ErrorIcon   = "❌"
	SuccessIcon = "✅"
	WarningIcon = "⚠️"
	InfoIcon    = "📋"
)

// FormatListError はリスト取得エラーを統一フォーマットで返す
func FormatListError(resource string, err error) error {
	return fmt.Errorf("%s %s一覧取得でエラー: %w", ErrorIcon, resource, err)
}
