package api_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"podo/internal/api"
	"podo/internal/audio"
	"podo/internal/backend"
	"podo/internal/config"
	"podo/internal/evaluation"
	"podo/internal/evaluator"
	"podo/internal/logging"
	"podo/internal/services"
	"podo/internal/testsupport"
	"podo/internal/upload"
)

const probeJSON = `{"streams":[{"codec_type":"audio","sample_rate":"16000","channels":1}],"format":{"duration":"0.010"}}`

func newClient(t *testing.T, fb *testsupport.FakeBackend, status *bytes.Buffer, opts ...testsupport.ConfigOption) *api.Client {
	t.Helper()
	cfg := testsupport.NewConfig(t, append([]testsupport.ConfigOption{
		testsupport.WithBaseURL(fb.URL()),
		testsupport.WithStubbedFFprobe(probeJSON),
	}, opts...)...)
	client, err := api.New(context.Background(), api.Options{
		Config: cfg,
		Logger: logging.NewNop(),
		Status: status,
	})
	require.NoError(t, err)
	return client
}

func TestNewRequiresConfigAndAPIKey(t *testing.T) {
	_, err := api.New(context.Background(), api.Options{})
	assert.ErrorIs(t, err, services.ErrConfiguration)

	cfg := testsupport.NewConfig(t)
	cfg.API.APIKey = ""
	_, err = api.New(context.Background(), api.Options{Config: cfg})
	assert.ErrorIs(t, err, services.ErrConfiguration)
	assert.Contains(t, err.Error(), "PODONOS_API_KEY")
}

func TestNewS3ModeNeedsBucket(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Storage.Mode = config.StorageModeS3
	_, err := api.New(context.Background(), api.Options{Config: cfg})
	assert.ErrorIs(t, err, services.ErrConfiguration)
}

func TestVerify(t *testing.T) {
	fb := testsupport.NewFakeBackend(t)
	require.NoError(t, newClient(t, fb, nil).Verify(context.Background()))
}

func TestCreateEvaluatorEndToEnd(t *testing.T) {
	fb := testsupport.NewFakeBackend(t)
	status := &bytes.Buffer{}
	client := newClient(t, fb, status, testsupport.WithUploadWorkers(3))

	ev, err := client.CreateEvaluator(context.Background(),
		evaluation.WithName("end to end"),
		evaluation.WithType("NMOS"),
	)
	require.NoError(t, err)
	require.IsType(t, &evaluator.SingleStimulusEvaluator{}, ev)

	dir := t.TempDir()
	for _, name := range []string{"one.wav", "two.wav"} {
		path := testsupport.WriteWAV(t, dir, name, 16000, 1, 160)
		require.NoError(t, ev.AddFile(context.Background(), audio.NewFile(path, "model", nil, "", false)))
	}

	result, err := ev.Close(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Files)
	assert.Contains(t, status.String(), "Upload finished.")

	bodies := fb.CreateBodies()
	require.Len(t, bodies, 1)
	assert.Equal(t, "end to end", bodies[0]["title"])

	obj, ok := fb.Object(result.ManifestKey)
	require.True(t, ok)
	assert.Contains(t, string(obj.Body), `"max_upload_workers": 3`)

	regs := fb.Registered(result.EvaluationID)
	require.Len(t, regs, 2)
	assert.EqualValues(t, 10, regs[0]["duration"])
}

func TestCreateEvaluatorRejectsInvalidOptions(t *testing.T) {
	fb := testsupport.NewFakeBackend(t)
	client := newClient(t, fb, nil)

	_, err := client.CreateEvaluator(context.Background(), evaluation.WithType("XMOS"))
	assert.ErrorIs(t, err, services.ErrValidation)
	assert.Empty(t, fb.CreateBodies())
}

func TestCreateEvaluatorForwardsUploadHook(t *testing.T) {
	fb := testsupport.NewFakeBackend(t)
	cfg := testsupport.NewConfig(t, testsupport.WithBaseURL(fb.URL()))
	var results []upload.Result
	client, err := api.New(context.Background(), api.Options{
		Config:   cfg,
		Prober:   testsupport.NewFakeProber(),
		OnUpload: func(r upload.Result) { results = append(results, r) },
	})
	require.NoError(t, err)

	ev, err := client.CreateEvaluator(context.Background(), evaluation.WithName("hooked"), evaluation.WithMaxUploadWorkers(1))
	require.NoError(t, err)
	path := testsupport.WriteWAV(t, t.TempDir(), "a.wav", 8000, 1, 8)
	require.NoError(t, ev.AddFile(context.Background(), audio.NewFile(path, "", nil, "", false)))
	_, err = ev.Close(context.Background())
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.NoError(t, results[0].Err)
}

func TestListEvaluationsNewestFirst(t *testing.T) {
	fb := testsupport.NewFakeBackend(t)
	client := newClient(t, fb, nil)

	list, err := client.ListEvaluations(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)

	for _, name := range []string{"first", "second"} {
		ev, err := client.CreateEvaluator(context.Background(), evaluation.WithName(name))
		require.NoError(t, err)
		_, err = ev.Close(context.Background())
		require.NoError(t, err)
	}

	list, err = client.ListEvaluations(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "ev-2", list[0].ID)
	assert.Equal(t, "DRAFT", list[0].Status)
	assert.NotEmpty(t, list[0].CreatedAt)
}

const statsJSON = `[
  {"stimulus_name":"s1","files":[
    {"name":"a.wav","tags":["male","clean"],"type":"STIMULUS"},
    {"name":"b.wav","tags":[],"type":"REF"}
  ],"mean":3.5,"median":3,"std":0.25,"ci_90":0.1,"ci_95":0.2,"ci_99":0.3},
  {"stimulus_name":"s2","files":[{"name":"c.wav","tags":["x"],"type":"STIMULUS"}],"mean":4,"median":4,"std":0,"ci_90":0,"ci_95":0,"ci_99":0}
]`

func TestDownloadStatsCSV(t *testing.T) {
	fb := testsupport.NewFakeBackend(t)
	fb.SetStats("ev-7", statsJSON)
	client := newClient(t, fb, nil)

	out := filepath.Join(t.TempDir(), "reports", "stats.csv")
	require.NoError(t, client.DownloadStatsCSV(context.Background(), "ev-7", out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "name,tags,type,mean,median,std,ci_90,ci_95,ci_99", lines[0])
	assert.Equal(t, "a.wav,male;clean,STIMULUS,3.5,3,0.25,0.1,0.2,0.3", lines[1])
	assert.Equal(t, "b.wav,,REF,3.5,3,0.25,0.1,0.2,0.3", lines[2])
	assert.Equal(t, "c.wav,x,STIMULUS,4,4,0,0,0,0", lines[3])
}

func TestStatsUnknownIDIsEmpty(t *testing.T) {
	fb := testsupport.NewFakeBackend(t)
	client := newClient(t, fb, nil)

	stats, err := client.Stats(context.Background(), "unknown")
	require.NoError(t, err)
	assert.Empty(t, stats)

	_, err = client.Stats(context.Background(), "")
	assert.ErrorIs(t, err, services.ErrValidation)

	out := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, client.DownloadStatsCSV(context.Background(), "unknown", out))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "name,tags,type,mean,median,std,ci_90,ci_95,ci_99\n", string(data))
}

func TestWriteStatsCSVQuotesCommas(t *testing.T) {
	var buf bytes.Buffer
	err := api.WriteStatsCSV(&buf, []backend.StimulusStats{{
		Files: []backend.StatsFile{{Name: "a,b.wav", Tags: []string{"t"}, Type: "STIMULUS"}},
	}})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"a,b.wav",t,STIMULUS`)
}

func TestSortEvaluationsNewestFirst(t *testing.T) {
	sorted := api.SortEvaluationsNewestFirst([]api.EvaluationView{
		{ID: "a", CreatedAt: "2024-01-01T00:00:00.000Z"},
		{ID: "b", CreatedAt: "2024-02-01T00:00:00.000Z"},
		{ID: "c", CreatedAt: "2024-01-01T00:00:00.000Z"},
	})
	ids := []string{sorted[0].ID, sorted[1].ID, sorted[2].ID}
	assert.Equal(t, []string{"b", "c", "a"}, ids)
	assert.Nil(t, api.SortEvaluationsNewestFirst(nil))
}
