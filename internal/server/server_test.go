package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/pitchplay/internal/bank/domain"
	"github.com/zjrosen/pitchplay/internal/bank/infrastructure"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const pianoJSON = `{"C4":{"ogg":"c4.ogg","mp3":"c4.mp3"},"D4":{"ogg":"d4.ogg"}}`

func newTestServer(t *testing.T) (*httptest.Server, *infrastructure.Registry) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "piano.json"), []byte(pianoJSON), 0644))

	bank, err := domain.DecodeBank([]byte(pianoJSON))
	require.NoError(t, err)
	reg := infrastructure.NewRegistry()
	reg.Put(domain.Entry{
		ID:       "piano",
		URL:      filepath.Join(dir, "piano.json"),
		Bank:     bank,
		LoadedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})

	srv := httptest.NewServer(NewRouter(Config{Dir: dir, Banks: reg}))
	t.Cleanup(srv.Close)
	return srv, reg
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestServer_ServesBankFiles(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := get(t, srv.URL+"/banks/piano.json")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, pianoJSON, string(body))
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestServer_ServedBankDecodes(t *testing.T) {
	srv, _ := newTestServer(t)

	_, body := get(t, srv.URL+"/banks/piano.json")
	bank, err := domain.DecodeBank(body)
	require.NoError(t, err)
	assert.Equal(t, []string{"C4", "D4"}, bank.Notes())
}

func TestServer_MissingFile(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, _ := get(t, srv.URL+"/banks/organ.json")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_ListBanks(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := get(t, srv.URL+"/api/banks")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got []BankSummary
	require.NoError(t, json.Unmarshal(body, &got))
	require.Len(t, got, 1)
	assert.Equal(t, "piano", got[0].ID)
	assert.Equal(t, 2, got[0].Notes)
}

func TestServer_GetBank(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := get(t, srv.URL+"/api/banks/piano")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, pianoJSON, string(body))

	resp, body = get(t, srv.URL+"/api/banks/organ")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), domain.ErrBankNotFound.Error())
}

func TestServer_NilBanks(t *testing.T) {
	srv := httptest.NewServer(NewRouter(Config{}))
	t.Cleanup(srv.Close)

	resp, body := get(t, srv.URL+"/api/banks")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(body))

	resp, _ = get(t, srv.URL+"/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
