package evaluation

import (
	"fmt"
	"strings"
	"time"

	"podo/internal/services"
)

// Defaults applied before options.
const (
	DefaultType             = NMOS
	DefaultLanguage         = EnglishAmerican
	DefaultRepeats          = 10
	DefaultDueHours         = 12
	DefaultGranularity      = 1.0
	DefaultMaxUploadWorkers = 20

	minDueHours = 12
)

// CreationTimestampLayout is the local-time layout of the creation
// timestamp, which prefixes every remote object key of a session.
const CreationTimestampLayout = "2006-01-02T15:04:05.000"

// Question is a custom prompt shown to raters.
type Question struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Query wraps the custom question block of the manifest.
type Query struct {
	Question Question `json:"question"`
}

// Config is a validated, immutable evaluation configuration.
type Config struct {
	name              string
	description       string
	evalType          Type
	language          Language
	granularity       float64
	repeats           int
	dueAt             string
	dueTZName         string
	creationTimestamp string
	useAnnotation     bool
	autoStart         bool
	maxUploadWorkers  int
	query             *Query
}

type settings struct {
	name             string
	description      string
	evalType         string
	language         string
	granularity      float64
	repeats          int
	dueHours         int
	useAnnotation    bool
	autoStart        bool
	maxUploadWorkers int
	query            *Query
	queryErr         error
	now              func() time.Time
}

// Option customizes a Config under construction.
type Option func(*settings)

func WithName(name string) Option { return func(s *settings) { s.name = name } }

func WithDescription(desc string) Option { return func(s *settings) { s.description = desc } }

// WithType sets the evaluation type by name (NMOS, CMOS, ...).
func WithType(t string) Option { return func(s *settings) { s.evalType = t } }

// WithLanguage sets the rater language by code (en-us, ko-kr, ...).
func WithLanguage(lang string) Option { return func(s *settings) { s.language = lang } }

func WithGranularity(g float64) Option { return func(s *settings) { s.granularity = g } }

// WithRepeats sets the minimum number of ratings per stimulus.
func WithRepeats(n int) Option { return func(s *settings) { s.repeats = n } }

// WithDueHours sets how far in the future results are due.
func WithDueHours(h int) Option { return func(s *settings) { s.dueHours = h } }

func WithAnnotation(enabled bool) Option { return func(s *settings) { s.useAnnotation = enabled } }

func WithAutoStart(enabled bool) Option { return func(s *settings) { s.autoStart = enabled } }

func WithMaxUploadWorkers(n int) Option { return func(s *settings) { s.maxUploadWorkers = n } }

// WithQuestion attaches a custom question. The title must not be blank.
func WithQuestion(title, description string) Option {
	return func(s *settings) {
		if strings.TrimSpace(title) == "" {
			s.queryErr = invalid("question title must not be empty")
			return
		}
		s.query = &Query{Question: Question{Title: title, Description: description}}
	}
}

// WithClock overrides the clock used for the default name, due date, and
// creation timestamp.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

// New validates the options and returns an immutable Config. Any violation
// returns an ErrValidation error and no config.
func New(opts ...Option) (*Config, error) {
	s := settings{
		evalType:         string(DefaultType),
		language:         string(DefaultLanguage),
		granularity:      DefaultGranularity,
		repeats:          DefaultRepeats,
		dueHours:         DefaultDueHours,
		maxUploadWorkers: DefaultMaxUploadWorkers,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.queryErr != nil {
		return nil, s.queryErr
	}

	now := s.now().Local()

	name, err := validateName(s.name, now)
	if err != nil {
		return nil, err
	}
	evalType, err := ParseType(s.evalType)
	if err != nil {
		return nil, err
	}
	lang, err := ParseLanguage(s.language)
	if err != nil {
		return nil, err
	}
	if s.repeats < 1 {
		return nil, invalid(fmt.Sprintf("repeats must be >= 1, got %d", s.repeats))
	}
	if s.granularity != 0.5 && s.granularity != 1.0 {
		return nil, invalid(fmt.Sprintf("granularity must be 0.5 or 1.0, got %v", s.granularity))
	}
	if s.dueHours < minDueHours {
		return nil, invalid(fmt.Sprintf("due hours must be >= %d, got %d", minDueHours, s.dueHours))
	}
	if s.useAnnotation && !evalType.UsesScript() {
		return nil, invalid(fmt.Sprintf("annotation requires one of %s, got %s", JoinTypes(scriptTypes()), evalType))
	}
	if s.maxUploadWorkers < 1 {
		return nil, invalid(fmt.Sprintf("max upload workers must be >= 1, got %d", s.maxUploadWorkers))
	}

	due := now.Add(time.Duration(s.dueHours) * time.Hour)
	tzName, _ := due.Zone()

	return &Config{
		name:              name,
		description:       s.description,
		evalType:          evalType,
		language:          lang,
		granularity:       s.granularity,
		repeats:           s.repeats,
		dueAt:             due.Format(services.TimestampLayout),
		dueTZName:         tzName,
		creationTimestamp: now.Format(CreationTimestampLayout),
		useAnnotation:     s.useAnnotation,
		autoStart:         s.autoStart,
		maxUploadWorkers:  s.maxUploadWorkers,
		query:             s.query,
	}, nil
}

func validateName(name string, now time.Time) (string, error) {
	if name == "" {
		return fmt.Sprintf("%d%d%d%d%d%d", now.Year(), int(now.Month()), now.Day(), now.Hour(), now.Minute(), now.Second()), nil
	}
	if len([]rune(name)) <= 1 {
		return "", invalid("name must be longer than 1 character")
	}
	return name, nil
}

func scriptTypes() []Type {
	var out []Type
	for _, t := range allTypes {
		if t.UsesScript() {
			out = append(out, t)
		}
	}
	return out
}

func invalid(message string) error {
	return services.Wrap(services.ErrValidation, "evaluation", "validate config", message, nil)
}

func (c *Config) Name() string              { return c.name }
func (c *Config) Description() string       { return c.description }
func (c *Config) Type() Type                { return c.evalType }
func (c *Config) Language() Language        { return c.language }
func (c *Config) Granularity() float64      { return c.granularity }
func (c *Config) Repeats() int              { return c.repeats }
func (c *Config) DueAt() string             { return c.dueAt }
func (c *Config) DueTZName() string         { return c.dueTZName }
func (c *Config) CreationTimestamp() string { return c.creationTimestamp }
func (c *Config) UseAnnotation() bool       { return c.useAnnotation }
func (c *Config) AutoStart() bool           { return c.autoStart }
func (c *Config) MaxUploadWorkers() int     { return c.maxUploadWorkers }

// Query returns a copy of the custom question block, or nil.
func (c *Config) Query() *Query {
	if c.query == nil {
		return nil
	}
	q := *c.query
	return &q
}

// ManifestFields are the configuration fields written at the top level of
// the session manifest.
type ManifestFields struct {
	EvalID                string  `json:"eval_id"`
	EvalName              string  `json:"eval_name"`
	EvalDescription       string  `json:"eval_description"`
	EvalType              string  `json:"eval_type"`
	EvalLanguage          string  `json:"eval_language"`
	EvalNum               int     `json:"eval_num"`
	EvalExpectedDue       string  `json:"eval_expected_due"`
	EvalExpectedDueTZName string  `json:"eval_expected_due_tzname"`
	EvalCreationTimestamp string  `json:"eval_creation_timestamp"`
	EvalUseAnnotation     bool    `json:"eval_use_annotation"`
	EvalAutoStart         bool    `json:"eval_auto_start"`
	EvalGranularity       float64 `json:"eval_granularity"`
	MaxUploadWorkers      int     `json:"max_upload_workers"`
}

// ManifestFields renders the manifest header for the given server-assigned
// evaluation id.
func (c *Config) ManifestFields(evaluationID string) ManifestFields {
	return ManifestFields{
		EvalID:                evaluationID,
		EvalName:              c.name,
		EvalDescription:       c.description,
		EvalType:              string(c.evalType),
		EvalLanguage:          string(c.language),
		EvalNum:               c.repeats,
		EvalExpectedDue:       c.dueAt,
		EvalExpectedDueTZName: c.dueTZName,
		EvalCreationTimestamp: c.creationTimestamp,
		EvalUseAnnotation:     c.useAnnotation,
		EvalAutoStart:         c.autoStart,
		EvalGranularity:       c.granularity,
		MaxUploadWorkers:      c.maxUploadWorkers,
	}
}

// CreateRequest is the body of the backend create-evaluation call.
type CreateRequest struct {
	Title            string  `json:"title"`
	InternalName     string  `json:"internal_name"`
	Description      string  `json:"description"`
	Language         string  `json:"language"`
	NumRequiredEtors int     `json:"num_required_etors"`
	Granularity      float64 `json:"granularity"`
	EvaluationType   string  `json:"evaluation_type"`
	UseAnnotation    bool    `json:"use_annotation"`
	AutoStart        bool    `json:"auto_start"`
}

// CreateRequest renders the backend create-evaluation body.
func (c *Config) CreateRequest() CreateRequest {
	return CreateRequest{
		Title:            c.name,
		InternalName:     c.name,
		Description:      c.description,
		Language:         string(c.language),
		NumRequiredEtors: c.repeats,
		Granularity:      c.granularity,
		EvaluationType:   c.evalType.BackendType(),
		UseAnnotation:    c.useAnnotation,
		AutoStart:        c.autoStart,
	}
}
