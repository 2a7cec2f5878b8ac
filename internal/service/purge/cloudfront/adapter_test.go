package cloudfront

import (
	"context"
	"encoding/xml"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cdnkit/internal/service/purge"
)

func newTestAdapter(t *testing.T, server *httptest.Server) *Adapter {
	t.Helper()
	adapter, err := New(context.Background(), Config{
		DistributionID:  "E1234567890",
		AccessKeyID:     "AKIATEST",
		SecretAccessKey: "secret",
		Endpoint:        server.URL,
		HTTPClient:      server.Client(),
	})
	require.NoError(t, err)
	return adapter
}

func TestAdapterSubmit(t *testing.T) {
	var gotReq *http.Request
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReq = r.Clone(context.Background())
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `<?xml version="1.0"?>
<Invalidation><Id>I2J0SMEXAMPLE</Id><Status>InProgress</Status></Invalidation>`)
	}))
	defer server.Close()

	adapter := newTestAdapter(t, server)
	batch := purge.Batch{RequestID: "req-1", SequenceIndex: 0, Paths: []string{"/a.html", "/b.html"}}

	ref, err := adapter.Submit(context.Background(), batch, "caller-1")
	require.NoError(t, err)
	assert.Equal(t, "I2J0SMEXAMPLE", ref)

	require.NotNil(t, gotReq)
	assert.Equal(t, http.MethodPost, gotReq.Method)
	assert.Equal(t, "/2020-05-31/distribution/E1234567890/invalidation", gotReq.URL.Path)
	// SigV4署名が付与されている
	assert.Contains(t, gotReq.Header.Get("Authorization"), "AWS4-HMAC-SHA256")
	assert.NotEmpty(t, gotReq.Header.Get("X-Amz-Date"))

	var parsed invalidationBatch
	require.NoError(t, xml.Unmarshal(gotBody, &parsed))
	assert.Equal(t, 2, parsed.Paths.Quantity)
	assert.Equal(t, []string{"/a.html", "/b.html"}, parsed.Paths.Items)
	assert.Equal(t, "caller-1", parsed.CallerReference)
}

func TestAdapterSubmitErrorClassification(t *testing.T) {
	for _, tc := range []struct {
		name   string
		status int
		kind   purge.ErrorKind
	}{
		{"403は認証エラー", http.StatusForbidden, purge.KindAuthentication},
		{"429はレート制限", http.StatusTooManyRequests, purge.KindRateLimit},
		{"503は一時的なネットワーク障害", http.StatusServiceUnavailable, purge.KindTransientNetwork},
		{"400はプロバイダエラー", http.StatusBadRequest, purge.KindProvider},
	} {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				io.WriteString(w, "<ErrorResponse/>")
			}))
			defer server.Close()

			adapter := newTestAdapter(t, server)
			_, err := adapter.Submit(context.Background(), purge.Batch{Paths: []string{"/a"}}, "caller-1")
			require.Error(t, err)
			assert.True(t, purge.IsKind(err, tc.kind), "kind=%s", purge.KindOf(err))
		})
	}
}

func TestAdapterInvalidationStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/2020-05-31/distribution/E1234567890/invalidation/I2J0SMEXAMPLE", r.URL.Path)
		io.WriteString(w, `<Invalidation><Id>I2J0SMEXAMPLE</Id><Status>Completed</Status></Invalidation>`)
	}))
	defer server.Close()

	adapter := newTestAdapter(t, server)
	status, err := adapter.InvalidationStatus(context.Background(), "I2J0SMEXAMPLE")
	require.NoError(t, err)
	assert.Equal(t, "Completed", status)
	assert.True(t, adapter.Completed(status))
	assert.False(t, adapter.Completed("InProgress"))
}

func TestAdapterRequiresDistributionID(t *testing.T) {
	_, err := New(context.Background(), Config{AccessKeyID: "AKIATEST", SecretAccessKey: "secret"})
	require.Error(t, err)
}
