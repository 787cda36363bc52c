package restapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"token_screener/internal/domain/entity"
	"token_screener/internal/pkg/metrics"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type fakeSnapshots struct {
	snap       *entity.Snapshot
	refreshErr error
	forced     []bool
	compared   [][]string
}

func (f *fakeSnapshots) Tokens() []entity.ProcessedToken {
	if f.snap == nil {
		return []entity.ProcessedToken{}
	}
	return f.snap.Tokens
}

func (f *fakeSnapshots) Compare(addresses []string) []entity.ProcessedToken {
	f.compared = append(f.compared, addresses)
	out := []entity.ProcessedToken{}
	for _, t := range f.Tokens() {
		for _, a := range addresses {
			if a == t.Address {
				out = append(out, t)
			}
		}
	}
	return out
}

func (f *fakeSnapshots) State() entity.SnapshotState {
	if f.snap.Len() > 0 {
		return entity.SnapshotReady
	}
	return entity.SnapshotStale
}

func (f *fakeSnapshots) Snapshot() *entity.Snapshot { return f.snap }

func (f *fakeSnapshots) Refresh(_ context.Context, force bool) error {
	f.forced = append(f.forced, force)
	return f.refreshErr
}

func newTestRouter(snaps *fakeSnapshots, rateMax int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewTokenHandler(snaps, zap.NewNop())
	return SetupRouter(handler, RouterConfig{
		RateLimitMax:    rateMax,
		RateLimitWindow: time.Minute,
		EnableMetrics:   true,
	}, zap.NewNop(), metrics.New("test", prometheus.NewRegistry()))
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func sampleSnapshot() *entity.Snapshot {
	return &entity.Snapshot{
		Tokens: []entity.ProcessedToken{
			{Address: "A", Symbol: "AAA", Volume: 10, IsPump: true},
			{Address: "B", Symbol: "BBB"},
			{Address: "C", Symbol: "CCC"},
		},
		PublishedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestGetTokens(t *testing.T) {
	w := do(newTestRouter(&fakeSnapshots{snap: sampleSnapshot()}, 0), http.MethodGet, "/api/tokens", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string][]map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body["tokens"], 3)
	first := body["tokens"][0]
	assert.Equal(t, "A", first["address"])
	assert.Equal(t, true, first["is_pump"])
	for _, key := range []string{"volume", "liquidity", "mc", "price_change_m5", "price_change_h1", "price_change_h6",
		"price_change_24h", "v24hChangePercent", "volume_liquidity_ratio", "volume_mc_ratio", "liquidity_mc_ratio", "performance"} {
		assert.Contains(t, first, key)
	}
}

func TestGetTokens_EmptyBeforeFirstRefresh(t *testing.T) {
	snaps := &fakeSnapshots{}
	w := do(newTestRouter(snaps, 0), http.MethodGet, "/api/tokens", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"tokens":[]}`, w.Body.String())
	assert.Empty(t, snaps.forced)
}

func TestRefreshCache(t *testing.T) {
	snaps := &fakeSnapshots{}
	w := do(newTestRouter(snaps, 0), http.MethodPost, "/api/refresh-cache", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"message":"Cache refreshed successfully"}`, w.Body.String())
	assert.Equal(t, []bool{true}, snaps.forced)
}

func TestRefreshCache_Failure(t *testing.T) {
	snaps := &fakeSnapshots{refreshErr: errors.New("refresh aborted: no token records fetched")}
	w := do(newTestRouter(snaps, 0), http.MethodPost, "/api/refresh-cache", "")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"refresh aborted: no token records fetched"}`, w.Body.String())
}

func TestCompare(t *testing.T) {
	snaps := &fakeSnapshots{snap: sampleSnapshot()}
	w := do(newTestRouter(snaps, 0), http.MethodPost, "/api/compare", `{"addresses":["C","A","A"]}`)
	require.Equal(t, http.StatusOK, w.Code)

	var got []entity.ProcessedToken
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].Address)
	assert.Equal(t, "C", got[1].Address)
	assert.Equal(t, [][]string{{"C", "A"}}, snaps.compared)
}

func TestCompare_BadRequests(t *testing.T) {
	many := make([]string, 21)
	for i := range many {
		many[i] = `"x"`
	}
	bodies := []string{
		``,
		`not json`,
		`{}`,
		`{"addresses":"A"}`,
		`{"addresses":["A"]}`,
		`{"addresses":[` + strings.Join(many, ",") + `]}`,
	}
	r := newTestRouter(&fakeSnapshots{snap: sampleSnapshot()}, 0)
	for _, body := range bodies {
		w := do(r, http.MethodPost, "/api/compare", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.JSONEq(t, `{"error":"Body must contain 'addresses' (array, 2–20 items)"}`, w.Body.String(), body)
	}
}

func TestHealth(t *testing.T) {
	w := do(newTestRouter(&fakeSnapshots{}, 0), http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","state":"stale","tokens":0}`, w.Body.String())

	w = do(newTestRouter(&fakeSnapshots{snap: sampleSnapshot()}, 0), http.MethodGet, "/healthz", "")
	assert.JSONEq(t, `{"status":"ok","state":"ready","tokens":3,"updated_at":"2024-01-01T00:00:00Z"}`, w.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	w := do(newTestRouter(&fakeSnapshots{}, 0), http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
