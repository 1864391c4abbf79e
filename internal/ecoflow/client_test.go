package ecoflow

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jamesprial/ecoflow-watch/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// newTestClient returns an HTTPClient aimed at url with a fixed clock and
// nonce so signatures are reproducible.
func newTestClient(t *testing.T, url string) *HTTPClient {
	t.Helper()
	c, err := NewHTTPClient(config.EcoFlowConfig{
		BaseURL:      url + "/",
		AccessKey:    "AK",
		SecretKey:    "SK",
		SerialNumber: "R331ZEB4ZEA0000",
		Timeout:      5,
	})
	require.NoError(t, err)
	c.now = func() time.Time { return time.UnixMilli(1700000000123) }
	c.nonce = func() string { return "123456" }
	return c
}

// ---------------------------------------------------------------------------
// NewHTTPClient
// ---------------------------------------------------------------------------

func Test_NewHTTPClient_Cases(t *testing.T) {
	valid := config.EcoFlowConfig{BaseURL: "https://api-e.ecoflow.com", AccessKey: "a", SecretKey: "s", SerialNumber: "n"}

	tests := []struct {
		name    string
		mutate  func(c *config.EcoFlowConfig)
		wantErr bool
		timeout time.Duration
	}{
		{name: "valid default timeout", mutate: func(c *config.EcoFlowConfig) {}, timeout: defaultTimeout},
		{name: "explicit timeout", mutate: func(c *config.EcoFlowConfig) { c.Timeout = 3 }, timeout: 3 * time.Second},
		{name: "negative timeout uses default", mutate: func(c *config.EcoFlowConfig) { c.Timeout = -1 }, timeout: defaultTimeout},
		{name: "empty base url", mutate: func(c *config.EcoFlowConfig) { c.BaseURL = "" }, wantErr: true},
		{name: "empty access key", mutate: func(c *config.EcoFlowConfig) { c.AccessKey = "" }, wantErr: true},
		{name: "empty secret key", mutate: func(c *config.EcoFlowConfig) { c.SecretKey = "" }, wantErr: true},
		{name: "empty serial", mutate: func(c *config.EcoFlowConfig) { c.SerialNumber = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			c, err := NewHTTPClient(cfg)
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, c)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.timeout, c.httpClient.Timeout)
		})
	}
}

// ---------------------------------------------------------------------------
// sign
// ---------------------------------------------------------------------------

func Test_sign_KnownVector(t *testing.T) {
	got := sign("SK", "SN", "AK", "1", "2")
	assert.Equal(t, "6a2f82062faf03753ffeb0cda8adf20e4f006acc1ec6fa8571c2c45c9a34d22b", got)
	assert.NotEqual(t, got, sign("SK", "SN", "AK", "1", "3"))
	assert.NotEqual(t, got, sign("other", "SN", "AK", "1", "2"))
}

func Test_randomNonce_SixDigits(t *testing.T) {
	for i := 0; i < 100; i++ {
		n := randomNonce()
		require.Len(t, n, 6)
		assert.NotEqual(t, byte('0'), n[0])
	}
}

// ---------------------------------------------------------------------------
// QuotaAll
// ---------------------------------------------------------------------------

func Test_QuotaAll_SignedRequest(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		_, _ = w.Write([]byte(`{"code":"0","message":"Success","data":{"inv.inputWatts":230,"pd.wattsOutSum":45,"pd.soc":87}}`))
	}))
	defer srv.Close()

	q, err := newTestClient(t, srv.URL).QuotaAll(context.Background())
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, http.MethodGet, got.Method)
	assert.Equal(t, quotaAllPath, got.URL.Path)
	assert.Equal(t, "R331ZEB4ZEA0000", got.URL.Query().Get("sn"))
	assert.Equal(t, "AK", got.Header.Get("accessKey"))
	assert.Equal(t, "123456", got.Header.Get("nonce"))
	assert.Equal(t, "1700000000123", got.Header.Get("timestamp"))
	assert.Equal(t, sign("SK", "R331ZEB4ZEA0000", "AK", "123456", "1700000000123"), got.Header.Get("sign"))

	assert.Equal(t, 230, q.IntOrZero(KeyInputWatts))
	assert.Equal(t, 45, q.IntOrZero(KeyOutputWatts))
	soc, ok := q.Int(KeySOC)
	assert.True(t, ok)
	assert.Equal(t, 87, soc)
}

func Test_QuotaAll_Cases(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantErr  bool
		apiCode  string
		validate func(t *testing.T, q Quota)
	}{
		{
			name:   "numeric zero code",
			status: http.StatusOK,
			body:   `{"code":0,"data":{"pd.soc":50}}`,
			validate: func(t *testing.T, q Quota) {
				t.Helper()
				assert.Equal(t, 50, q.IntOrZero(KeySOC))
			},
		},
		{
			name:   "null data yields empty quota",
			status: http.StatusOK,
			body:   `{"code":"0","data":null}`,
			validate: func(t *testing.T, q Quota) {
				t.Helper()
				assert.NotNil(t, q)
				assert.Empty(t, q)
			},
		},
		{
			name:    "non-zero string code",
			status:  http.StatusOK,
			body:    `{"code":"8521","message":"signature is wrong"}`,
			wantErr: true,
			apiCode: "8521",
		},
		{
			name:    "non-zero numeric code",
			status:  http.StatusOK,
			body:    `{"code":1006,"message":"device offline"}`,
			wantErr: true,
			apiCode: "1006",
		},
		{
			name:    "missing code",
			status:  http.StatusOK,
			body:    `{"data":{}}`,
			wantErr: true,
			apiCode: "null",
		},
		{
			name:    "http 500",
			status:  http.StatusInternalServerError,
			body:    `oops`,
			wantErr: true,
		},
		{
			name:    "malformed json",
			status:  http.StatusOK,
			body:    `{"code":`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			q, err := newTestClient(t, srv.URL).QuotaAll(context.Background())
			if tt.wantErr {
				require.Error(t, err)
				var apiErr *APIError
				if tt.apiCode != "" {
					require.True(t, errors.As(err, &apiErr))
					assert.Equal(t, tt.apiCode, apiErr.Code)
				} else {
					assert.False(t, errors.As(err, &apiErr))
				}
				return
			}
			require.NoError(t, err)
			tt.validate(t, q)
		})
	}
}

func Test_QuotaAll_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(t, srv.URL).QuotaAll(ctx)
	assert.Error(t, err)
}
