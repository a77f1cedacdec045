package evaluation_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"podo/internal/evaluation"
	"podo/internal/services"
)

var fixedNow = time.Date(2024, time.March, 5, 7, 8, 9, 123_000_000, time.Local)

func clock() evaluation.Option {
	return evaluation.WithClock(func() time.Time { return fixedNow })
}

func TestNewAppliesDefaults(t *testing.T) {
	cfg, err := evaluation.New(clock())
	require.NoError(t, err)

	assert.Equal(t, evaluation.NMOS, cfg.Type())
	assert.Equal(t, evaluation.EnglishAmerican, cfg.Language())
	assert.Equal(t, 10, cfg.Repeats())
	assert.Equal(t, 1.0, cfg.Granularity())
	assert.Equal(t, 20, cfg.MaxUploadWorkers())
	assert.False(t, cfg.UseAnnotation())
	assert.False(t, cfg.AutoStart())
	assert.Nil(t, cfg.Query())
	assert.Equal(t, "202435789", cfg.Name())
	assert.Equal(t, "2024-03-05T07:08:09.123", cfg.CreationTimestamp())

	due, err := time.Parse(services.TimestampLayout, cfg.DueAt())
	require.NoError(t, err)
	assert.True(t, due.Equal(fixedNow.Add(12*time.Hour)))
	assert.NotEmpty(t, cfg.DueTZName())
}

func TestDueHoursBoundary(t *testing.T) {
	_, err := evaluation.New(clock(), evaluation.WithDueHours(11))
	require.Error(t, err)
	assert.True(t, errors.Is(err, services.ErrValidation))

	cfg, err := evaluation.New(clock(), evaluation.WithDueHours(12))
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.DueAt())
}

func TestGranularityBoundary(t *testing.T) {
	_, err := evaluation.New(clock(), evaluation.WithGranularity(0.75))
	require.ErrorIs(t, err, services.ErrValidation)

	for _, g := range []float64{0.5, 1.0} {
		cfg, err := evaluation.New(clock(), evaluation.WithGranularity(g))
		require.NoError(t, err)
		assert.Equal(t, g, cfg.Granularity())
	}
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opts []evaluation.Option
	}{
		{"short name", []evaluation.Option{evaluation.WithName("a")}},
		{"unknown type", []evaluation.Option{evaluation.WithType("MUSHRA")}},
		{"unknown language", []evaluation.Option{evaluation.WithLanguage("xx-yy")}},
		{"garbage language", []evaluation.Option{evaluation.WithLanguage("!!")}},
		{"zero repeats", []evaluation.Option{evaluation.WithRepeats(0)}},
		{"zero workers", []evaluation.Option{evaluation.WithMaxUploadWorkers(0)}},
		{"annotation on pair type", []evaluation.Option{evaluation.WithType("CMOS"), evaluation.WithAnnotation(true)}},
		{"blank question", []evaluation.Option{evaluation.WithQuestion("  ", "d")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := evaluation.New(append([]evaluation.Option{clock()}, tt.opts...)...)
			require.ErrorIs(t, err, services.ErrValidation)
			assert.Nil(t, cfg)
		})
	}
}

func TestAnnotationAllowedForScriptTypes(t *testing.T) {
	for _, typ := range []string{"NMOS", "QMOS", "P808"} {
		cfg, err := evaluation.New(clock(), evaluation.WithType(typ), evaluation.WithAnnotation(true))
		require.NoError(t, err, typ)
		assert.True(t, cfg.UseAnnotation())
	}
}

func TestParseLanguageCanonicalizes(t *testing.T) {
	tests := map[string]evaluation.Language{
		"en-us":  evaluation.EnglishAmerican,
		"EN_US":  evaluation.EnglishAmerican,
		"zh-CN":  evaluation.Mandarin,
		" audio": evaluation.Audio,
		"pl-PL":  evaluation.Polish,
	}
	for in, want := range tests {
		got, err := evaluation.ParseLanguage(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	assert.Len(t, evaluation.AllLanguages(), 14)
}

func TestParseTypeCaseInsensitive(t *testing.T) {
	got, err := evaluation.ParseType("cmos")
	require.NoError(t, err)
	assert.Equal(t, evaluation.CMOS, got)
	assert.Len(t, evaluation.AllTypes(), 7)
}

func TestCreateRequestShape(t *testing.T) {
	cfg, err := evaluation.New(clock(),
		evaluation.WithName("tts-v2"),
		evaluation.WithDescription("second round"),
		evaluation.WithType("PREF"),
		evaluation.WithLanguage("ko-kr"),
		evaluation.WithGranularity(0.5),
		evaluation.WithRepeats(5),
		evaluation.WithAutoStart(true),
	)
	require.NoError(t, err)

	data, err := json.Marshal(cfg.CreateRequest())
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"title": "tts-v2",
		"internal_name": "tts-v2",
		"description": "second round",
		"language": "ko-kr",
		"num_required_etors": 5,
		"granularity": 0.5,
		"evaluation_type": "SPEECH_PREFERENCE",
		"use_annotation": false,
		"auto_start": true
	}`, string(data))

	assert.Equal(t, "SPEECH_CMOS", evaluation.CMOS.BackendType())
}

func TestManifestFieldsCarryEvaluationID(t *testing.T) {
	cfg, err := evaluation.New(clock(), evaluation.WithName("demo"), evaluation.WithQuestion("Which is better?", ""))
	require.NoError(t, err)

	fields := cfg.ManifestFields("ev-123")
	assert.Equal(t, "ev-123", fields.EvalID)
	assert.Equal(t, "demo", fields.EvalName)
	assert.Equal(t, "NMOS", fields.EvalType)
	assert.Equal(t, "en-us", fields.EvalLanguage)
	assert.Equal(t, cfg.CreationTimestamp(), fields.EvalCreationTimestamp)
	assert.Equal(t, 20, fields.MaxUploadWorkers)

	q := cfg.Query()
	require.NotNil(t, q)
	q.Question.Title = "mutated"
	assert.Equal(t, "Which is better?", cfg.Query().Question.Title)
}
