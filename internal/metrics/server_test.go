package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestServerEndpoints(t *testing.T) {
	LogOutcomeInc("inserted")
	LastIndexedBlockSet(42)

	srv := httptest.NewServer(NewServer(":0", nil).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "OK", string(body))

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Contains(t, string(body), `vault_indexer_logs_total{outcome="inserted"}`)
	require.Contains(t, string(body), "vault_indexer_last_indexed_block 42")
}
