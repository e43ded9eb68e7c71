package httputil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSON(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"kind":"DATAPRODUCT"}`))
	var body struct {
		Kind string `json:"kind"`
	}
	require.NoError(t, ParseJSON(r, &body))
	assert.Equal(t, "DATAPRODUCT", body.Kind)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	assert.Error(t, ParseJSON(r, &body))
}

func TestParseJSONOrErrorWritesBadRequest(t *testing.T) {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("not json"))
	var body map[string]interface{}
	assert.False(t, ParseJSONOrError(rec, r, &body))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestParsePathString(t *testing.T) {
	router := mux.NewRouter()
	var got string
	var ok bool
	router.HandleFunc("/entities/{metaId}", func(w http.ResponseWriter, r *http.Request) {
		got, ok = ParsePathStringOrError(w, r, "metaId")
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/entities/m-1", nil))
	assert.True(t, ok)
	assert.Equal(t, "m-1", got)
}

func TestParseQueryHelpers(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?instance_id=i-1&include_archived=true", nil)

	assert.Equal(t, "i-1", ParseQueryString(r, "instance_id", "all"))
	assert.Equal(t, "all", ParseQueryString(r, "missing", "all"))

	val, err := ParseQueryBool(r, "include_archived", false)
	require.NoError(t, err)
	assert.True(t, val)

	r = httptest.NewRequest(http.MethodGet, "/?include_archived=banana", nil)
	_, err = ParseQueryBool(r, "include_archived", false)
	assert.Error(t, err)
}
