package cloudflare

import (
	"context"
	"encoding/json"
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
	adapter, err := New(Config{
		ZoneID:     "zone123",
		APIToken:   "token-abc",
		SiteURL:    "https://example.com",
		BaseURL:    server.URL,
		HTTPClient: server.Client(),
	})
	require.NoError(t, err)
	return adapter
}

func TestAdapterSubmitFiles(t *testing.T) {
	var gotAuth, gotPath string
	var gotBody purgeRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		data, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(data, &gotBody))
		io.WriteString(w, `{"success":true,"errors":[],"result":{"id":"purge-1"}}`)
	}))
	defer server.Close()

	adapter := newTestAdapter(t, server)
	batch := purge.Batch{Paths: []string{"/a.html", "/img/b.png"}}

	ref, err := adapter.Submit(context.Background(), batch, "caller-1")
	require.NoError(t, err)
	assert.Equal(t, "purge-1", ref)

	assert.Equal(t, "Bearer token-abc", gotAuth)
	assert.Equal(t, "/zones/zone123/purge_cache", gotPath)
	// パスはサイトURLと連結した絶対URLで送られる
	assert.Equal(t, []string{"https://example.com/a.html", "https://example.com/img/b.png"}, gotBody.Files)
	assert.False(t, gotBody.PurgeEverything)
}

func TestAdapterSubmitPurgeEverything(t *testing.T) {
	var gotBody purgeRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(data, &gotBody))
		io.WriteString(w, `{"success":true,"errors":[],"result":{"id":"purge-2"}}`)
	}))
	defer server.Close()

	adapter := newTestAdapter(t, server)

	// ワイルドカード1件だけのバッチはpurge_everythingに写す
	_, err := adapter.Submit(context.Background(), purge.Batch{Paths: []string{"/*"}}, "caller-1")
	require.NoError(t, err)
	assert.True(t, gotBody.PurgeEverything)
	assert.Empty(t, gotBody.Files)
}

func TestAdapterSubmitRejectedByProvider(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// HTTP 200でもsuccess:falseは拒否
		io.WriteString(w, `{"success":false,"errors":[{"code":1012,"message":"Invalid zone identifier"}],"result":{}}`)
	}))
	defer server.Close()

	adapter := newTestAdapter(t, server)
	_, err := adapter.Submit(context.Background(), purge.Batch{Paths: []string{"/a"}}, "caller-1")
	require.Error(t, err)
	assert.True(t, purge.IsKind(err, purge.KindProvider))
	assert.Contains(t, err.Error(), "Invalid zone identifier")
}

func TestAdapterSubmitRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, `{"success":false,"errors":[{"code":971,"message":"rate limited"}]}`)
	}))
	defer server.Close()

	adapter := newTestAdapter(t, server)
	_, err := adapter.Submit(context.Background(), purge.Batch{Paths: []string{"/a"}}, "caller-1")
	require.Error(t, err)
	assert.True(t, purge.IsKind(err, purge.KindRateLimit))
}

func TestNewValidatesConfig(t *testing.T) {
	for _, tc := range []struct {
		name string
		cfg  Config
	}{
		{"zoneId必須", Config{APIToken: "t", SiteURL: "https://example.com"}},
		{"apiToken必須", Config{ZoneID: "z", SiteURL: "https://example.com"}},
		{"siteUrl必須", Config{ZoneID: "z", APIToken: "t"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.cfg)
			require.Error(t, err)
		})
	}
}
