package evaluator

import (
	"context"
	"fmt"

	"podo/internal/audio"
	"podo/internal/services"
)

// DoubleStimuliEvaluator rates files in pairs that share a group.
type DoubleStimuliEvaluator struct {
	*session
}

func (*DoubleStimuliEvaluator) sealed() {}

// AddFile is not available for paired evaluations.
func (e *DoubleStimuliEvaluator) AddFile(context.Context, audio.File) error {
	return e.notSupported("AddFile", singleTypes)
}

// AddFilePair queues a compared pair. Exactly one of the two files must be
// marked as the reference; order follows argument position.
func (e *DoubleStimuliEvaluator) AddFilePair(ctx context.Context, target, ref audio.File) error {
	if !e.typeIn(orderedPairs) {
		return e.notSupported("AddFilePair", orderedPairs)
	}
	if target.IsRef == ref.IsRef {
		return services.Wrap(services.ErrValidation, "evaluator", "AddFilePair",
			fmt.Sprintf("exactly one file must be the reference (%s: %t, %s: %t)", target.Path, target.IsRef, ref.Path, ref.IsRef), nil)
	}
	return e.addGroup(ctx, "AddFilePair", true,
		slot{file: target, role: roleOf(target)},
		slot{file: ref, role: roleOf(ref)},
	)
}

// AddFiles queues an unordered pair; both files are stimuli.
func (e *DoubleStimuliEvaluator) AddFiles(ctx context.Context, file0, file1 audio.File) error {
	if !e.typeIn(plainPairs) {
		return e.notSupported("AddFiles", plainPairs)
	}
	return e.addGroup(ctx, "AddFiles", true,
		slot{file: file0, role: audio.RoleStimulus},
		slot{file: file1, role: audio.RoleStimulus},
	)
}

func roleOf(f audio.File) audio.Role {
	if f.IsRef {
		return audio.RoleRef
	}
	return audio.RoleStimulus
}
