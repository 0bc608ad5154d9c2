package server

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/JakeFAU/news-harvester/internal/config"
	"github.com/JakeFAU/news-harvester/internal/crawler"
	"github.com/JakeFAU/news-harvester/internal/scheduler"
)

type fakeHarvester struct {
	summary crawler.RunSummary
	err     error
	pages   int
}

func (f *fakeHarvester) Run(_ context.Context, pages int) (crawler.RunSummary, error) {
	f.pages = pages
	return f.summary, f.err
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Store.Backend = config.BackendMemory
	cfg.Logging.File = ""
	cfg.Schedule.RunOnStart = false
	return cfg
}

func TestHarvestJobSkipsOverlappingRun(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.WarnLevel)
	h := &fakeHarvester{err: crawler.ErrRunInProgress}
	job := harvestJob(h, 3, zap.New(core))

	require.NoError(t, job(context.Background()))
	require.Equal(t, 3, h.pages)
	require.Equal(t, 1, logs.FilterMessage("harvest skipped; previous run still in progress").Len())
}

func TestHarvestJobWrapsRunError(t *testing.T) {
	t.Parallel()

	h := &fakeHarvester{summary: crawler.RunSummary{RunID: "run-1"}, err: context.Canceled}
	err := harvestJob(h, 1, zap.NewNop())(context.Background())
	require.ErrorIs(t, err, context.Canceled)
	require.Contains(t, err.Error(), "run-1")

	h = &fakeHarvester{}
	require.NoError(t, harvestJob(h, 1, zap.NewNop())(context.Background()))
}

func TestBuildWithMemoryStoreAndLocalArchive(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Archive.Backend = config.ArchiveLocal
	cfg.Archive.Dir = filepath.Join(t.TempDir(), "pages")
	cfg.Crawl.DetailRPS = 2
	cfg.Server.Enabled = true

	app, err := Build(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, app.orchestrator)
	require.NotNil(t, app.scheduler)
	require.NotNil(t, app.apiServer)
	require.DirExists(t, cfg.Archive.Dir)
	require.Equal(t, scheduler.StateIdle, app.scheduler.State())
	app.Close(context.Background())
}

func TestBuildFailsOnUnreachablePostgres(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Store.Backend = config.BackendPostgres
	cfg.Store.Postgres.DSN = "not a dsn ::"

	app, err := Build(context.Background(), cfg, zap.NewNop())
	require.Error(t, err)
	require.Nil(t, app)
	require.Contains(t, err.Error(), "postgres store init failed")
}

func TestBuildRejectsUnknownArchive(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Archive.Backend = "ftp"

	_, err := Build(context.Background(), cfg, zap.NewNop())
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown archive backend")
}

func TestRunStopsWhenContextCancelled(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	core, logs := observer.New(zap.InfoLevel)
	app, err := Build(context.Background(), cfg, zap.New(core))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, app.Run(ctx))
	require.Equal(t, scheduler.StateStopped, app.scheduler.State())
	require.Equal(t, 3, logs.FilterMessage("trigger registered").Len())
	require.Equal(t, 1, logs.FilterMessage("shutdown complete").Len())
}
