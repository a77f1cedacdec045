package manifest_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"podo/internal/audio"
	"podo/internal/evaluation"
	"podo/internal/manifest"
	"podo/internal/services"
)

func fixedClock() time.Time {
	return time.Date(2024, 3, 5, 7, 8, 9, 123e6, time.Local)
}

func uploaded(t *testing.T, file audio.File, place audio.Placement) audio.Descriptor {
	t.Helper()
	d := audio.NewDescriptor(file, audio.Metadata{Channels: 1, SampleRate: 16000, DurationMS: 1500}, place)
	require.NoError(t, d.SetUploadTimes("2024-03-05T07:08:10.000+00:00", "2024-03-05T07:08:11.000+00:00"))
	return d
}

func pairGroups(t *testing.T) [][]audio.Descriptor {
	t.Helper()
	target := uploaded(t, audio.NewFile("/data/target.wav", "model-a", []string{"clean"}, "", false),
		audio.Placement{RemoteKey: "ts/1-a", GroupID: "g1", Role: audio.RoleStimulus, Order: 0})
	ref := uploaded(t, audio.NewFile("/data/ref.wav", "model-b", nil, "", true),
		audio.Placement{RemoteKey: "ts/2-b", GroupID: "g1", Role: audio.RoleRef, Order: 1})
	return [][]audio.Descriptor{{target, ref}}
}

func TestBuildEncodeDecodeRoundTrip(t *testing.T) {
	cfg, err := evaluation.New(
		evaluation.WithName("pairs"),
		evaluation.WithType("CMOS"),
		evaluation.WithQuestion("Which sounds closer?", "Compare both"),
		evaluation.WithClock(fixedClock),
	)
	require.NoError(t, err)

	doc, err := manifest.Build(cfg.ManifestFields("ev-1"), cfg.Query(), pairGroups(t))
	require.NoError(t, err)
	assert.Equal(t, 2, doc.FileCount())

	data, err := doc.Encode()
	require.NoError(t, err)

	decoded, err := manifest.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, doc, decoded)
	assert.Equal(t, "Which sounds closer?", decoded.Query.Question.Title)
}

func TestEncodedShape(t *testing.T) {
	cfg, err := evaluation.New(evaluation.WithName("single"), evaluation.WithClock(fixedClock))
	require.NoError(t, err)

	single := uploaded(t, audio.NewFile("/data/one.wav", "m", nil, "", false),
		audio.Placement{RemoteKey: "ts/1-a", Role: audio.RoleStimulus})
	doc, err := manifest.Build(cfg.ManifestFields("ev-1"), cfg.Query(), [][]audio.Descriptor{{single}})
	require.NoError(t, err)

	data, err := doc.Encode()
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "ev-1", raw["eval_id"])
	assert.Equal(t, "NMOS", raw["eval_type"])
	assert.Contains(t, raw, "query")
	assert.Nil(t, raw["query"])

	files := raw["files"].([]any)
	require.Len(t, files, 1)
	entry := files[0].([]any)[0].(map[string]any)
	assert.Equal(t, "one.wav", entry["name"])
	assert.Equal(t, "ts/1-a", entry["remote_name"])
	assert.EqualValues(t, 16000, entry["framerate"])
	assert.EqualValues(t, 1500, entry["duration_in_ms"])
	assert.Equal(t, []any{}, entry["tag"])
	assert.Contains(t, entry, "script")
	assert.Nil(t, entry["script"])
	assert.Nil(t, entry["group"])
	assert.Equal(t, "STIMULUS", entry["type"])
}

func TestBuildRequiresUploadTimes(t *testing.T) {
	cfg, err := evaluation.New(evaluation.WithName("single"))
	require.NoError(t, err)

	pending := audio.NewDescriptor(audio.NewFile("/a.wav", "", nil, "", false),
		audio.Metadata{Channels: 1, SampleRate: 8000, DurationMS: 10},
		audio.Placement{RemoteKey: "ts/1", Role: audio.RoleStimulus})
	_, err = manifest.Build(cfg.ManifestFields("ev"), nil, [][]audio.Descriptor{{pending}})
	assert.ErrorIs(t, err, services.ErrState)
}

func TestValidateRejectsBrokenDocuments(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "malformed", data: `{"eval_id":`},
		{name: "missing files", data: `{"eval_id":"x","eval_name":"ab","eval_type":"NMOS","eval_language":"en-us","eval_num":1,"eval_expected_due":"d","eval_creation_timestamp":"c","eval_granularity":1,"max_upload_workers":1,"query":null}`},
		{name: "bad type", data: `{"eval_id":"x","eval_name":"ab","eval_type":"XMOS","eval_language":"en-us","eval_num":1,"eval_expected_due":"d","eval_creation_timestamp":"c","eval_granularity":1,"max_upload_workers":1,"query":null,"files":[]}`},
		{name: "empty group", data: `{"eval_id":"x","eval_name":"ab","eval_type":"NMOS","eval_language":"en-us","eval_num":1,"eval_expected_due":"d","eval_creation_timestamp":"c","eval_granularity":1,"max_upload_workers":1,"query":null,"files":[[]]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := manifest.Validate([]byte(tt.data))
			require.Error(t, err)
			assert.ErrorIs(t, err, services.ErrValidation)
		})
	}

	ok := `{"eval_id":"x","eval_name":"ab","eval_type":"NMOS","eval_language":"en-us","eval_num":1,"eval_expected_due":"d","eval_creation_timestamp":"c","eval_granularity":0.5,"max_upload_workers":1,"query":null,"files":[]}`
	assert.NoError(t, manifest.Validate([]byte(ok)))
}

func TestValidateReportsLocation(t *testing.T) {
	data := `{"eval_id":"x","eval_name":"ab","eval_type":"NMOS","eval_language":"en-us","eval_num":0,"eval_expected_due":"d","eval_creation_timestamp":"c","eval_granularity":1,"max_upload_workers":1,"query":null,"files":[]}`
	err := manifest.Validate([]byte(data))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/eval_num")
}
