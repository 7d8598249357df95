package cmd

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/fitedit/pkg/codec"
	"github.com/ssargent/fitedit/pkg/config"
	"github.com/ssargent/fitedit/pkg/di"
	"github.com/ssargent/fitedit/pkg/editor"
	"github.com/ssargent/fitedit/pkg/logging"
	"github.com/ssargent/fitedit/pkg/message"
	"github.com/ssargent/fitedit/pkg/metrics"
	"github.com/ssargent/fitedit/pkg/profile"
	"github.com/ssargent/fitedit/pkg/recording"
)

var start = time.Date(2024, time.June, 1, 6, 30, 0, 0, time.UTC)

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

type env struct {
	config  string
	dataDir string
}

func newEnv(t *testing.T) env {
	t.Helper()
	SetContainer(di.NewContainer())
	dir := t.TempDir()
	return env{config: filepath.Join(dir, "config.yaml"), dataDir: filepath.Join(dir, "data")}
}

func (e env) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	defer resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--config", e.config, "--data-dir", e.dataDir, "--log-level", "error"))
	err := rootCmd.Execute()
	return out.String(), err
}

// writeFIT writes a single-session run of n one-second samples to dir.
func writeFIT(t *testing.T, dir string, from time.Time, n int) string {
	t.Helper()
	end := from.Add(time.Duration(n-1) * time.Second)

	fileID := message.New(profile.MesgFileID)
	require.NoError(t, message.Set(fileID, "type", "activity", message.Pretty))
	msgs := []*message.Message{fileID}
	for i := 0; i < n; i++ {
		m := message.New(profile.MesgRecord)
		m.SetTimestamp(from.Add(time.Duration(i) * time.Second))
		require.NoError(t, m.SetFloat("distance", float64(i)*3))
		require.NoError(t, m.SetFloat("speed", 3))
		msgs = append(msgs, m)
	}
	lap := message.New(profile.MesgLap)
	require.NoError(t, lap.SetTime("start_time", from))
	require.NoError(t, lap.SetFloat("total_elapsed_time", float64(n-1)))
	lap.SetTimestamp(end)
	session := message.New(profile.MesgSession)
	require.NoError(t, message.Set(session, "sport", "cycling", message.Pretty))
	require.NoError(t, session.SetTime("start_time", from))
	session.SetTimestamp(end)
	msgs = append(msgs, lap, session)

	rec := recording.New()
	require.NoError(t, rec.AppendMessage(msgs...))
	require.NoError(t, rec.Normalize())
	data, err := codec.Marshal(rec)
	require.NoError(t, err)

	path := filepath.Join(dir, from.Format("150405")+".fit")
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

// importedIDs returns the ids printed by the import command.
func importedIDs(out string) []string {
	var ids []string
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "Imported ") {
			fields := strings.Fields(line)
			ids = append(ids, fields[len(fields)-1])
		}
	}
	return ids
}

func TestConfigInit(t *testing.T) {
	e := newEnv(t)

	out, err := e.run(t, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration created")

	cfg, err := config.LoadConfig(e.config)
	require.NoError(t, err)
	assert.Equal(t, e.dataDir, cfg.DataDir)
	assert.NoDirExists(t, e.dataDir)

	out, err = e.run(t, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "already exists")
}

func TestWorkflow(t *testing.T) {
	e := newEnv(t)
	files := t.TempDir()
	morning := writeFIT(t, files, start, 40)
	evening := writeFIT(t, files, start.Add(10*time.Hour), 20)

	out, err := e.run(t, "import", morning, evening)
	require.NoError(t, err)
	ids := importedIDs(out)
	require.Len(t, ids, 2)

	t.Run("list", func(t *testing.T) {
		out, err := e.run(t, "list")
		require.NoError(t, err)
		assert.Contains(t, out, ids[0])
		assert.Contains(t, out, ids[1])
	})

	t.Run("inspect", func(t *testing.T) {
		out, err := e.run(t, "inspect", ids[0])
		require.NoError(t, err)
		assert.Contains(t, out, "cycling")
		assert.Contains(t, out, "record")
		assert.Contains(t, out, "2024-06-01 06:30:00 UTC")

		out, err = e.run(t, "inspect", evening)
		require.NoError(t, err)
		assert.Contains(t, out, "16:30:00")
	})

	t.Run("repair", func(t *testing.T) {
		out, err := e.run(t, "repair", ids[0], "--strategy", "backfill")
		require.NoError(t, err)
		assert.Contains(t, out, "(backfill)")
		assert.Contains(t, out, "activity")

		_, err = e.run(t, "repair", ids[0], "--strategy", "magic")
		assert.Error(t, err)
	})

	t.Run("merge and split", func(t *testing.T) {
		out, err := e.run(t, "merge", ids[0], ids[1])
		require.NoError(t, err)
		fields := strings.Fields(strings.TrimSpace(out))
		merged := fields[len(fields)-1]

		out, err = e.run(t, "split", merged, "--laps")
		require.NoError(t, err)
		assert.Contains(t, out, "into 2 activities")

		out, err = e.run(t, "split", merged, "--at", start.Add(5*time.Hour).Format(time.RFC3339))
		require.NoError(t, err)
		assert.Contains(t, out, "into 2 activities")

		_, err = e.run(t, "split", merged)
		assert.Error(t, err)
	})

	t.Run("export and upload", func(t *testing.T) {
		exported := filepath.Join(t.TempDir(), "out.fit")
		_, err := e.run(t, "export", ids[1], "-o", exported)
		require.NoError(t, err)
		want, err := os.ReadFile(evening)
		require.NoError(t, err)
		got, err := os.ReadFile(exported)
		require.NoError(t, err)
		assert.Equal(t, want, got)

		outbox := t.TempDir()
		_, err = e.run(t, "upload", ids[1], "--dir", outbox)
		require.NoError(t, err)
		assert.FileExists(t, filepath.Join(outbox, ids[1]+".fit"))
	})

	t.Run("delete", func(t *testing.T) {
		_, err := e.run(t, "delete", ids[1])
		require.NoError(t, err)
		_, err = e.run(t, "export", ids[1])
		assert.Error(t, err)
	})
}

func TestCommandErrors(t *testing.T) {
	e := newEnv(t)

	_, err := e.run(t, "inspect", "not-an-id")
	assert.ErrorContains(t, err, "invalid activity id")

	_, err = e.run(t, "import", filepath.Join(t.TempDir(), "missing.fit"))
	assert.Error(t, err)

	SetContainer(nil)
	_, err = e.run(t, "list")
	assert.ErrorContains(t, err, "dependency container not initialized")
}

type brokenFactory struct{}

func (brokenFactory) CreateService(*config.Config, *metrics.Metrics, *slog.Logger, codec.ProgressFunc) (*editor.Service, error) {
	return nil, errors.New("store is locked")
}

func TestServiceFactoryFailure(t *testing.T) {
	e := newEnv(t)
	c := di.NewContainer()
	c.SetServiceFactory(brokenFactory{})
	SetContainer(c)

	_, err := e.run(t, "list")
	assert.ErrorContains(t, err, "failed to open store: store is locked")

	out, err := e.run(t, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration created")
}

func TestMetricsRouter(t *testing.T) {
	m := metrics.New()
	m.RecordOperation("import", true, time.Millisecond)
	router := metricsRouter(m, logging.Discard())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `fitedit_operations_total{operation="import",status="success"} 1`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/activities", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
