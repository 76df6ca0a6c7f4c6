package serve

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BAODAU/whop-wss-streaming/scrape"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(base scrape.Options) *gin.Engine {
	return SetupRouter(NewHandler(base, nil), nil)
}

func TestHealth(t *testing.T) {
	router := newTestRouter(scrape.Options{DisableRender: true})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestSnapshotRequiresTarget(t *testing.T) {
	router := newTestRouter(scrape.Options{DisableRender: true})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/snapshot", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSnapshotRejectsBadTimeout(t *testing.T) {
	router := newTestRouter(scrape.Options{DisableRender: true})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/snapshot?target=widget&timeout=soon", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSnapshotRejectsUnsupportedScheme(t *testing.T) {
	router := newTestRouter(scrape.Options{DisableRender: true})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/snapshot?target=ftp%3A%2F%2Fexample.com%2Fx", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSnapshotReturnsFlat(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head>
<title>Widget</title>
<script type="application/ld+json">{"@type":"Product","name":"Widget Pro"}</script>
</head><body></body></html>`))
	}))
	defer backend.Close()

	router := newTestRouter(scrape.Options{DisableRender: true})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/snapshot?target="+backend.URL+"/gadgets/widget&timeout=5", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Widget Pro", body["name"])
	assert.Equal(t, backend.URL+"/gadgets/widget", body["final_url"])
}

func TestRequestIDPropagates(t *testing.T) {
	router := newTestRouter(scrape.Options{DisableRender: true})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}
