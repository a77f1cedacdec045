package testsupport

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"podo/internal/audio"
)

// FakeProber returns canned metadata without touching ffprobe. Files listed
// in Fail produce an error.
type FakeProber struct {
	Meta audio.Metadata
	Fail map[string]error

	mu    sync.Mutex
	paths []string
}

// NewFakeProber returns a prober reporting mono 16 kHz audio of 1.5s.
func NewFakeProber() *FakeProber {
	return &FakeProber{Meta: audio.Metadata{Channels: 1, SampleRate: 16000, DurationMS: 1500}}
}

// Probe implements audio.Prober.
func (p *FakeProber) Probe(_ context.Context, path string) (audio.Metadata, error) {
	p.mu.Lock()
	p.paths = append(p.paths, path)
	p.mu.Unlock()
	if err, ok := p.Fail[filepath.Base(path)]; ok {
		return audio.Metadata{}, fmt.Errorf("probe %s: %w", path, err)
	}
	return p.Meta, nil
}

// Probed returns the paths probed so far.
func (p *FakeProber) Probed() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.paths...)
}
