package evaluator

import (
	"context"

	"podo/internal/audio"
	"podo/internal/evaluation"
)

var (
	singleTypes  = []evaluation.Type{evaluation.NMOS, evaluation.QMOS, evaluation.P808}
	doubleTypes  = []evaluation.Type{evaluation.SMOS, evaluation.PREF, evaluation.CMOS, evaluation.DMOS}
	orderedPairs = []evaluation.Type{evaluation.CMOS, evaluation.DMOS}
	plainPairs   = []evaluation.Type{evaluation.SMOS, evaluation.PREF}
)

// SingleStimulusEvaluator rates each file on its own.
type SingleStimulusEvaluator struct {
	*session
}

func (*SingleStimulusEvaluator) sealed() {}

// AddFile queues one file for upload.
func (e *SingleStimulusEvaluator) AddFile(ctx context.Context, file audio.File) error {
	if !e.typeIn(singleTypes) {
		return e.notSupported("AddFile", singleTypes)
	}
	return e.addGroup(ctx, "AddFile", false, slot{file: file, role: audio.RoleStimulus})
}

// AddFilePair is not available for single-stimulus evaluations.
func (e *SingleStimulusEvaluator) AddFilePair(context.Context, audio.File, audio.File) error {
	return e.notSupported("AddFilePair", orderedPairs)
}

// AddFiles is not available for single-stimulus evaluations.
func (e *SingleStimulusEvaluator) AddFiles(context.Context, audio.File, audio.File) error {
	return e.notSupported("AddFiles", plainPairs)
}
