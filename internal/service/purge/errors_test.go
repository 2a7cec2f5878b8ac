package purge

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindAuthentication, KindOf(NewError(KindAuthentication, "拒否")))
	assert.Equal(t, KindRateLimit, KindOf(fmt.Errorf("送信失敗: %w", NewError(KindRateLimit, "429"))))
	assert.Equal(t, KindCanceled, KindOf(context.Canceled))
	assert.Equal(t, KindTransientNetwork, KindOf(context.DeadlineExceeded))
	// 分類のないエラーは恒久扱い
	assert.Equal(t, KindProvider, KindOf(errors.New("なにか")))
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(KindRateLimit))
	assert.True(t, Retryable(KindTransientNetwork))
	assert.False(t, Retryable(KindAuthentication))
	assert.False(t, Retryable(KindProvider))
	assert.False(t, Retryable(KindValidation))
	assert.False(t, Retryable(KindSerialization))
	assert.False(t, Retryable(KindCanceled))
}

func TestClassifyHTTPStatus(t *testing.T) {
	assert.Equal(t, KindAuthentication, ClassifyHTTPStatus(http.StatusUnauthorized))
	assert.Equal(t, KindAuthentication, ClassifyHTTPStatus(http.StatusForbidden))
	assert.Equal(t, KindRateLimit, ClassifyHTTPStatus(http.StatusTooManyRequests))
	assert.Equal(t, KindTransientNetwork, ClassifyHTTPStatus(http.StatusInternalServerError))
	assert.Equal(t, KindTransientNetwork, ClassifyHTTPStatus(http.StatusServiceUnavailable))
	assert.Equal(t, KindProvider, ClassifyHTTPStatus(http.StatusBadRequest))
	assert.Equal(t, KindProvider, ClassifyHTTPStatus(http.StatusNotFound))
}

func TestErrorFromHTTPTruncatesBody(t *testing.T) {
	body := make([]byte, 1024)
	for i := range body {
		body[i] = 'x'
	}
	err := ErrorFromHTTP(http.StatusBadRequest, body)
	assert.Equal(t, KindProvider, err.Kind)
	assert.Less(t, len(err.Message), 300)
}

func TestErrorUnwrap(t *testing.T) {
	inner := errors.New("接続拒否")
	err := WrapError(KindTransientNetwork, inner, "送信失敗")
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "transient_network")
	assert.Contains(t, err.Error(), "接続拒否")
}
