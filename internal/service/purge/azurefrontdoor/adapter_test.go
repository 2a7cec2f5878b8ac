package azurefrontdoor

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

func testConfig(server *httptest.Server) Config {
	return Config{
		SubscriptionID: "sub-1",
		ResourceGroup:  "rg-web",
		ProfileName:    "afd-profile",
		EndpointName:   "afd-endpoint",
		BaseURL:        server.URL,
		HTTPClient:     server.Client(),
	}
}

func TestAdapterSubmit(t *testing.T) {
	var gotReq *http.Request
	var gotBody purgeParameters
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReq = r.Clone(context.Background())
		data, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(data, &gotBody))
		w.Header().Set("x-ms-request-id", "req-azure-1")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	adapter, err := New(context.Background(), testConfig(server))
	require.NoError(t, err)

	batch := purge.Batch{Paths: []string{"/a.html", "/b.html"}}
	ref, err := adapter.Submit(context.Background(), batch, "caller-1")
	require.NoError(t, err)
	assert.Equal(t, "req-azure-1", ref)

	require.NotNil(t, gotReq)
	assert.Equal(t, http.MethodPost, gotReq.Method)
	assert.Equal(t,
		"/subscriptions/sub-1/resourceGroups/rg-web/providers/Microsoft.Cdn/profiles/afd-profile/afdEndpoints/afd-endpoint/purge",
		gotReq.URL.Path)
	assert.Equal(t, apiVersion, gotReq.URL.Query().Get("api-version"))
	assert.Equal(t, []string{"/a.html", "/b.html"}, gotBody.ContentPaths)
}

func TestAdapterSubmitErrorClassification(t *testing.T) {
	for _, tc := range []struct {
		name   string
		status int
		kind   purge.ErrorKind
	}{
		{"401は認証エラー", http.StatusUnauthorized, purge.KindAuthentication},
		{"429はレート制限", http.StatusTooManyRequests, purge.KindRateLimit},
		{"500は一時的なネットワーク障害", http.StatusInternalServerError, purge.KindTransientNetwork},
	} {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer server.Close()

			adapter, err := New(context.Background(), testConfig(server))
			require.NoError(t, err)

			_, err = adapter.Submit(context.Background(), purge.Batch{Paths: []string{"/a"}}, "caller-1")
			require.Error(t, err)
			assert.True(t, purge.IsKind(err, tc.kind), "kind=%s", purge.KindOf(err))
		})
	}
}

func TestAdapterAcquiresTokenViaClientCredentials(t *testing.T) {
	tokenCalls := 0
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenCalls++
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.Form.Get("grant_type"))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"access_token":"tok-123","token_type":"Bearer","expires_in":3600}`)
	}))
	defer tokenServer.Close()

	var gotAuth string
	apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("x-ms-request-id", "req-1")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer apiServer.Close()

	adapter, err := New(context.Background(), Config{
		SubscriptionID: "sub-1",
		ResourceGroup:  "rg-web",
		ProfileName:    "afd-profile",
		EndpointName:   "afd-endpoint",
		TenantID:       "tenant-1",
		ClientID:       "client-1",
		ClientSecret:   "secret",
		BaseURL:        apiServer.URL,
		TokenURL:       tokenServer.URL,
	})
	require.NoError(t, err)

	_, err = adapter.Submit(context.Background(), purge.Batch{Paths: []string{"/a"}}, "caller-1")
	require.NoError(t, err)
	assert.Equal(t, 1, tokenCalls)
	assert.Equal(t, "Bearer tok-123", gotAuth)
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(context.Background(), Config{ResourceGroup: "rg", ProfileName: "p", EndpointName: "e"})
	require.Error(t, err)

	// クレデンシャルもHTTPクライアントもない場合は生成できない
	_, err = New(context.Background(), Config{
		SubscriptionID: "sub-1", ResourceGroup: "rg", ProfileName: "p", EndpointName: "e",
	})
	require.Error(t, err)
}
