package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracksync/tracksync/internal/config"
	"github.com/tracksync/tracksync/internal/cookies"
	"github.com/tracksync/tracksync/internal/ledger"
)

type remote struct {
	mu       sync.Mutex
	requests []string
	server   *httptest.Server
}

func newRemote(t *testing.T, snapshot string) *remote {
	t.Helper()
	r := &remote{}
	r.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		entry := req.Method
		if req.Method != http.MethodGet {
			var payload map[string]string
			_ = json.NewDecoder(req.Body).Decode(&payload)
			entry = fmt.Sprintf("%s %s %s", req.Method, payload["id"], payload["title"])
		}
		r.mu.Lock()
		r.requests = append(r.requests, strings.TrimSpace(entry))
		r.mu.Unlock()

		if req.Method == http.MethodGet {
			w.Write([]byte(snapshot))
		}
	}))
	t.Cleanup(r.server.Close)
	return r
}

func (r *remote) calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.requests...)
}

type workspace struct {
	settings string
	ledger   string
	reports  string
}

func newWorkspace(t *testing.T, serverURL, ledgerContent string) workspace {
	t.Helper()
	dir := t.TempDir()
	ws := workspace{
		settings: filepath.Join(dir, "settings.yaml"),
		ledger:   filepath.Join(dir, "used.txt"),
		reports:  filepath.Join(dir, "reports"),
	}
	cookiesPath := filepath.Join(dir, "cookies.txt")

	settings := fmt.Sprintf(`get_url: %s/library/project/demo
track_url: %s/track
cookies_file: %s
ledger_file: %s
report_dir: %s
timeout: 5s
blacklist:
  prefixes: ["dj "]
  suffixes: []
`, serverURL, serverURL, cookiesPath, ws.ledger, ws.reports)

	require.NoError(t, os.WriteFile(ws.settings, []byte(settings), 0644))
	require.NoError(t, os.WriteFile(cookiesPath, []byte("session=abc; theme=dark"), 0600))
	if ledgerContent != "-" {
		require.NoError(t, os.WriteFile(ws.ledger, []byte(ledgerContent), 0644))
	}
	return ws
}

const librarySnapshot = `{"project":{"tracks":[
	{"id":"trck_1","title":"hello world"},
	{"id":"trck_2","title":"hello world"},
	{"id":"trck_3","title":"DJ set"},
	{"id":"trck_4","title":"Fine Title"}
]}}`

func TestRunSyncEndToEnd(t *testing.T) {
	r := newRemote(t, librarySnapshot)
	ws := newWorkspace(t, r.server.URL, "seed\n")

	var out bytes.Buffer
	setupLogging(&out)
	require.NoError(t, runSync(context.Background(), &out, ws.settings))

	assert.Equal(t, []string{
		"GET",
		"DELETE trck_2",
		"PATCH trck_1 Hello World",
	}, r.calls())

	data, err := os.ReadFile(ws.ledger)
	require.NoError(t, err)
	assert.Equal(t, "seed\ntrck_2\ntrck_1\ntrck_3\ntrck_4\n", string(data))
	assert.Contains(t, out.String(), "Reconciliation Summary")

	reports, err := os.ReadDir(ws.reports)
	require.NoError(t, err)
	assert.Len(t, reports, 1)

	// Second pass over the same library mutates nothing.
	require.NoError(t, runSync(context.Background(), &out, ws.settings))
	assert.Equal(t, []string{"GET", "DELETE trck_2", "PATCH trck_1 Hello World", "GET"}, r.calls())
}

func TestRunSyncEmptyLedgerAborts(t *testing.T) {
	r := newRemote(t, librarySnapshot)

	for name, content := range map[string]string{"empty file": "", "missing file": "-"} {
		t.Run(name, func(t *testing.T) {
			ws := newWorkspace(t, r.server.URL, content)

			var out bytes.Buffer
			err := runSync(context.Background(), &out, ws.settings)
			require.ErrorIs(t, err, ledger.ErrEmpty)
			assert.Empty(t, r.calls())

			info, statErr := os.Stat(ws.ledger)
			require.NoError(t, statErr)
			assert.Zero(t, info.Size())
		})
	}
}

func TestRunSyncMissingInputsAbort(t *testing.T) {
	r := newRemote(t, librarySnapshot)

	t.Run("missing settings", func(t *testing.T) {
		err := runSync(context.Background(), &bytes.Buffer{}, filepath.Join(t.TempDir(), "settings.yaml"))
		require.ErrorIs(t, err, config.ErrMissingSettings)
	})

	t.Run("missing cookies", func(t *testing.T) {
		ws := newWorkspace(t, r.server.URL, "seed\n")
		require.NoError(t, os.Remove(filepath.Join(filepath.Dir(ws.settings), "cookies.txt")))

		err := runSync(context.Background(), &bytes.Buffer{}, ws.settings)
		require.ErrorIs(t, err, cookies.ErrMissing)
	})

	assert.Empty(t, r.calls())
}

func TestRootCommandRejectsArguments(t *testing.T) {
	root := NewRootCmd()
	root.SetArgs([]string{"extra"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})

	assert.Error(t, root.Execute())
}

func TestRootCommandRunsPass(t *testing.T) {
	r := newRemote(t, librarySnapshot)
	ws := newWorkspace(t, r.server.URL, "seed\n")
	t.Setenv("TRACKSYNC_SETTINGS", ws.settings)
	t.Setenv("TRACKSYNC_LOG_LEVEL", "warn")

	var out bytes.Buffer
	root := NewRootCmd()
	root.SetArgs([]string{})
	root.SetOut(&out)
	root.SetErr(&out)

	require.NoError(t, root.ExecuteContext(context.Background()))
	assert.Contains(t, r.calls(), "DELETE trck_2")
}
