package purge

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorKind は無効化エラーの分類
type ErrorKind string

const (
	// KindValidation は入力パスの検証エラー（ネットワーク到達前に同期で拒否）
	KindValidation ErrorKind = "validation"
	// KindAuthentication は認証拒否（恒久エラー、再試行しない）
	KindAuthentication ErrorKind = "authentication"
	// KindRateLimit はレート制限応答（一時エラー、バックオフ付きで再試行）
	KindRateLimit ErrorKind = "rate_limit"
	// KindTransientNetwork はタイムアウト・接続失敗など（一時エラー）
	KindTransientNetwork ErrorKind = "transient_network"
	// KindProvider は不明なディストリビューション/ゾーンIDなど（恒久エラー）
	KindProvider ErrorKind = "provider"
	// KindSerialization はバリデータ/スプリッタが正しければ到達しない内部不具合
	KindSerialization ErrorKind = "serialization"
	// KindCanceled は送信前にリクエストが打ち切られたバッチ
	KindCanceled ErrorKind = "canceled"
)

// Error は分類付きの無効化エラー
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError は分類付きエラーを生成します
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError は既存のエラーを分類付きで包みます
func WrapError(kind ErrorKind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf はエラーの分類を返します。分類が付いていないエラーは
// ネットワーク起因とみなせるもののみ一時エラー、それ以外は恒久扱い
func KindOf(err error) ErrorKind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	if errors.Is(err, context.Canceled) {
		return KindCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTransientNetwork
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return KindTransientNetwork
	}
	return KindProvider
}

// IsKind はエラーが指定の分類かどうかを判定します
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

// Retryable は再試行してよい分類かどうかを返します
func Retryable(kind ErrorKind) bool {
	return kind == KindRateLimit || kind == KindTransientNetwork
}

// ClassifyHTTPStatus はHTTPステータスコードをエラー分類に対応付けます
func ClassifyHTTPStatus(code int) ErrorKind {
	switch {
	case code == 401 || code == 403:
		return KindAuthentication
	case code == 429:
		return KindRateLimit
	case code >= 500:
		return KindTransientNetwork
	default:
		return KindProvider
	}
}

// ErrorFromHTTP は異常なHTTP応答を分類付きエラーに変換します
func ErrorFromHTTP(code int, body []byte) *Error {
	const maxBody = 256
	if len(body) > maxBody {
		body = body[:maxBody]
	}
	return NewError(ClassifyHTTPStatus(code), "HTTP %d: %s", code, string(body))
}

// ClassifyTransport はHTTPクライアントのトランスポートエラーを分類します
func ClassifyTransport(err error) *Error {
	return WrapError(KindOf(err), err, "リクエストの送信に失敗")
}
