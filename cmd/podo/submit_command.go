package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"podo/internal/audio"
	"podo/internal/evaluation"
	"podo/internal/evaluator"
	"podo/internal/upload"
)

type submitOptions struct {
	evalType      string
	language      string
	name          string
	description   string
	repeats       int
	dueHours      int
	granularity   float64
	annotation    bool
	autoStart     bool
	workers       int
	questionTitle string
	questionDesc  string
	modelTag      string
	tags          []string
	scripts       map[string]string
	pairs         []string
	sets          []string
	jsonOutput    bool
}

// submitGroup is one add call: a single file, a target/reference pair, or
// an unordered pair.
type submitGroup struct {
	kind  string
	files []audio.File
}

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	opts := submitOptions{}

	cmd := &cobra.Command{
		Use:   "submit [files...]",
		Short: "Create an evaluation and upload audio files to it",
		Long: "Create an evaluation and upload audio files to it.\n\n" +
			"Single stimulus types (NMOS, QMOS, P808) take files as arguments.\n" +
			"CMOS and DMOS take --pair target,reference; SMOS and PREF take --set first,second.",
		RunE: func(cmd *cobra.Command, args []string) error {
			groups, err := opts.groups(args)
			if err != nil {
				return err
			}
			return runSubmit(cmd, ctx, opts, groups)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.evalType, "type", "t", string(evaluation.NMOS), "Evaluation type ("+evaluation.JoinTypes(evaluation.AllTypes())+")")
	flags.StringVarP(&opts.language, "lang", "l", "", fmt.Sprintf("Language of the audio (default %s)", evaluation.DefaultLanguage))
	flags.StringVarP(&opts.name, "name", "n", "", "Evaluation name (generated when empty)")
	flags.StringVar(&opts.description, "desc", "", "Evaluation description")
	flags.IntVar(&opts.repeats, "repeats", 0, fmt.Sprintf("Ratings required per file (default %d)", evaluation.DefaultRepeats))
	flags.IntVar(&opts.dueHours, "due-hours", 0, fmt.Sprintf("Hours until the evaluation is due (default %d)", evaluation.DefaultDueHours))
	flags.Float64Var(&opts.granularity, "granularity", 0, "Rating granularity, 0.5 or 1")
	flags.BoolVar(&opts.annotation, "annotation", false, "Ask raters to annotate scripts")
	flags.BoolVar(&opts.autoStart, "auto-start", false, "Start the evaluation as soon as uploads finish")
	flags.IntVar(&opts.workers, "workers", 0, "Concurrent upload workers (default from config)")
	flags.StringVar(&opts.questionTitle, "question-title", "", "Custom question title")
	flags.StringVar(&opts.questionDesc, "question-desc", "", "Custom question description")
	flags.StringVar(&opts.modelTag, "model-tag", "", "Model tag applied to every file")
	flags.StringArrayVar(&opts.tags, "tag", nil, "Tag applied to every file (repeatable)")
	flags.StringToStringVar(&opts.scripts, "script", nil, "Script for a file, as file=text (repeatable)")
	flags.StringArrayVar(&opts.pairs, "pair", nil, "Target and reference files, as target,reference (repeatable)")
	flags.StringArrayVar(&opts.sets, "set", nil, "Two stimuli compared without a reference, as first,second (repeatable)")
	flags.BoolVar(&opts.jsonOutput, "json", false, "Print the result as JSON")

	return cmd
}

func (o submitOptions) evaluationOptions() []evaluation.Option {
	opts := []evaluation.Option{
		evaluation.WithType(o.evalType),
		evaluation.WithName(o.name),
		evaluation.WithDescription(o.description),
		evaluation.WithAnnotation(o.annotation),
		evaluation.WithAutoStart(o.autoStart),
	}
	if o.language != "" {
		opts = append(opts, evaluation.WithLanguage(o.language))
	}
	if o.repeats != 0 {
		opts = append(opts, evaluation.WithRepeats(o.repeats))
	}
	if o.dueHours != 0 {
		opts = append(opts, evaluation.WithDueHours(o.dueHours))
	}
	if o.granularity != 0 {
		opts = append(opts, evaluation.WithGranularity(o.granularity))
	}
	if o.workers != 0 {
		opts = append(opts, evaluation.WithMaxUploadWorkers(o.workers))
	}
	if o.questionTitle != "" || o.questionDesc != "" {
		opts = append(opts, evaluation.WithQuestion(o.questionTitle, o.questionDesc))
	}
	return opts
}

func (o submitOptions) file(path string, isRef bool) audio.File {
	script := o.scripts[path]
	if script == "" {
		script = o.scripts[filepath.Base(path)]
	}
	return audio.NewFile(path, o.modelTag, o.tags, script, isRef)
}

func (o submitOptions) groups(args []string) ([]submitGroup, error) {
	var groups []submitGroup
	for _, path := range args {
		groups = append(groups, submitGroup{kind: "file", files: []audio.File{o.file(path, false)}})
	}
	for _, raw := range o.pairs {
		target, ref, err := splitPair("--pair", raw)
		if err != nil {
			return nil, err
		}
		groups = append(groups, submitGroup{kind: "pair", files: []audio.File{o.file(target, false), o.file(ref, true)}})
	}
	for _, raw := range o.sets {
		first, second, err := splitPair("--set", raw)
		if err != nil {
			return nil, err
		}
		groups = append(groups, submitGroup{kind: "set", files: []audio.File{o.file(first, false), o.file(second, false)}})
	}
	if len(groups) == 0 {
		return nil, errors.New("no files to submit (pass files, --pair, or --set)")
	}
	return groups, nil
}

func splitPair(flag, raw string) (string, string, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" || strings.TrimSpace(parts[1]) == "" {
		return "", "", fmt.Errorf("%s expects two comma separated paths, got %q", flag, raw)
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), nil
}

func countFiles(groups []submitGroup) int {
	total := 0
	for _, g := range groups {
		total += len(g.files)
	}
	return total
}

func runSubmit(cmd *cobra.Command, ctx *commandContext, opts submitOptions, groups []submitGroup) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}

	lockPath := filepath.Join(cfg.Logging.Dir, "submit.lock")
	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire submit lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another submit is running (lock held at %s)", lockPath)
	}
	defer func() { _ = lock.Unlock() }()

	bar := newUploadBar(cmd.ErrOrStderr(), countFiles(groups))
	client, err := ctx.newClient(cmd.Context(), clientOptions{
		status: newStatusWriter(cmd.OutOrStdout(), statusOK),
		onUpload: func(result upload.Result) {
			if result.Err == nil {
				_ = bar.Add(1)
			}
		},
	})
	if err != nil {
		return err
	}

	ev, err := client.CreateEvaluator(cmd.Context(), opts.evaluationOptions()...)
	if err != nil {
		return err
	}

	if err := addGroups(cmd.Context(), ev, groups); err != nil {
		_ = ev.Abort()
		_ = bar.Exit()
		return err
	}

	result, err := ev.Close(cmd.Context())
	_ = bar.Finish()
	if err != nil {
		return err
	}

	if opts.jsonOutput {
		return writeJSON(cmd.OutOrStdout(), result)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Evaluation: %s\n", result.EvaluationID)
	fmt.Fprintf(out, "Files:      %d\n", result.Files)
	fmt.Fprintf(out, "Manifest:   %s\n", result.ManifestKey)
	return nil
}

func addGroups(ctx context.Context, ev evaluator.Evaluator, groups []submitGroup) error {
	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			return err
		}
		var err error
		switch g.kind {
		case "pair":
			err = ev.AddFilePair(ctx, g.files[0], g.files[1])
		case "set":
			err = ev.AddFiles(ctx, g.files[0], g.files[1])
		default:
			err = ev.AddFile(ctx, g.files[0])
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func newUploadBar(w io.Writer, total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("uploading"),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetVisibility(shouldColorize(w)),
	)
}
