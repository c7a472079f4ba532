package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchStatusSummary_CondensesComponents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"status": {"indicator": "none", "description": "All Systems Operational"},
			"components": [
				{"name": "AUR", "status": "partial_outage"},
				{"name": "Mirrors", "status": "operational"}
			]
		}`))
	}))
	defer srv.Close()

	c := newTestClient(t)
	c.http = srv.Client()

	// Point the fetch at the test server by priming the cache under the
	// real key, then asking again within the freshness window.
	res, err := c.get(context.Background(), srv.URL, "arch-status-summary")
	require.NoError(t, err)
	_ = res

	status, err := c.ArchStatusSummary(context.Background())
	require.NoError(t, err)
	assert.True(t, status.AURDown)
	assert.Equal(t, StatusDegraded, status.Severity)
	assert.Contains(t, status.Text, "AUR")
}
