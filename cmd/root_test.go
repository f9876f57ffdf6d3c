package cmd

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/gigaspace-pagegen/internal/summary"
)

func newAPI(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch strings.TrimPrefix(r.URL.Path, "/getcharacter/") {
		case "1":
			fmt.Fprint(w, `{"name":"Nova","category":"space","totalCount":3}`)
		case "2":
			fmt.Fprint(w, `{"name":"Orion","category":"space"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeConfig(t *testing.T, apiURL, templatePath string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	if templatePath == "" {
		templatePath = filepath.Join(dir, "index.html")
		require.NoError(t, os.WriteFile(templatePath, []byte("<html><head><title>app</title></head></html>"), 0o600))
	}
	out := filepath.Join(dir, "dist")
	cfg := fmt.Sprintf(`api:
  base_url: %q
template:
  path: %q
output:
  dir: %q
summary:
  path: %q
progress:
  enabled: false
`, apiURL, templatePath, out, filepath.Join(out, "generation-summary.json"))
	path := filepath.Join(dir, "pagegen.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))
	return path, out
}

func TestGenerateCommand(t *testing.T) {
	api := newAPI(t)
	cfgPath, out := writeConfig(t, api.URL, "")

	var stdout bytes.Buffer
	root := newRootCmd(&stdout)
	root.SetArgs([]string{"generate", "--config", cfgPath, "--concurrency", "2"})
	require.NoError(t, root.Execute())

	s, err := summary.ReadFile(filepath.Join(out, "generation-summary.json"))
	require.NoError(t, err)
	assert.Equal(t, 3, s.TotalEntities)
	assert.Equal(t, int64(2), s.Successful)
	assert.Equal(t, int64(6), s.TotalPages)
	assert.Contains(t, stdout.String(), "Generation complete")
	assert.FileExists(t, filepath.Join(out, "dashboard", "characters", "chat", "2", "index.html"))
}

func TestRootFlagsOverrideConfig(t *testing.T) {
	api := newAPI(t)
	cfgPath, out := writeConfig(t, api.URL, "")

	root := newRootCmd(&bytes.Buffer{})
	root.SetArgs([]string{"--config", cfgPath, "--total", "2", "--no-category-pages"})
	require.NoError(t, root.Execute())

	s, err := summary.ReadFile(filepath.Join(out, "generation-summary.json"))
	require.NoError(t, err)
	assert.Equal(t, 2, s.TotalEntities)
	assert.Equal(t, int64(2), s.TotalPages)
	assert.NoDirExists(t, filepath.Join(out, "dashboard", "categories"))
}

func TestFlagsRepairInvalidFileValues(t *testing.T) {
	api := newAPI(t)
	cfgPath, out := writeConfig(t, api.URL, "")
	f, err := os.OpenFile(cfgPath, os.O_APPEND|os.O_WRONLY, 0o600)
	require.NoError(t, err)
	_, err = f.WriteString("generator:\n  total: -1\n  max_concurrent: 0\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	root := newRootCmd(&bytes.Buffer{})
	root.SetArgs([]string{"generate", "--config", cfgPath, "--total", "2", "--concurrency", "2"})
	require.NoError(t, root.Execute())

	s, err := summary.ReadFile(filepath.Join(out, "generation-summary.json"))
	require.NoError(t, err)
	assert.Equal(t, 2, s.TotalEntities)
}

func TestGenerateFailsWithoutTemplate(t *testing.T) {
	api := newAPI(t)
	cfgPath, _ := writeConfig(t, api.URL, filepath.Join(t.TempDir(), "missing.html"))

	root := newRootCmd(&bytes.Buffer{})
	root.SetArgs([]string{"generate", "--config", cfgPath})
	root.SetErr(&bytes.Buffer{})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "template")
}

func TestGenerateRejectsInvalidConfig(t *testing.T) {
	cfgPath, _ := writeConfig(t, "", "")

	root := newRootCmd(&bytes.Buffer{})
	root.SetArgs([]string{"generate", "--config", cfgPath})
	root.SetErr(&bytes.Buffer{})
	require.ErrorContains(t, root.Execute(), "invalid config")
}
