// Package batch runs one ddtr invocation: translate a text into every
// configured language, append each success to its bundle, then append the
// source text to the default bundle.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/lmittmann/tint"

	"github.com/minios-linux/ddtr/config"
	"github.com/minios-linux/ddtr/langcode"
	"github.com/minios-linux/ddtr/propfile"
	"github.com/minios-linux/ddtr/translate"
)

var (
	// ErrEmptyKey is returned when no resource key was given.
	ErrEmptyKey = errors.New("resource key is empty")
	// ErrInvalidKey is returned for keys that would not survive a
	// .properties round trip.
	ErrInvalidKey = errors.New("resource key contains a separator or whitespace")
)

// Status is the final state of one language in a run.
type Status int

const (
	Written Status = iota
	TranslateFailed
	WriteFailed
)

func (s Status) String() string {
	switch s {
	case Written:
		return "written"
	case TranslateFailed:
		return "translation failed"
	case WriteFailed:
		return "write failed"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// LangResult describes what happened to one bundle.
type LangResult struct {
	Lang   langcode.Code
	Status Status
	Value  string
	// Path is empty when nothing was attempted.
	Path string
	Err  error
}

// Report summarises a run. Results follow the configured target order.
type Report struct {
	Key     string
	Text    string
	Results []LangResult
	Default LangResult
	Elapsed time.Duration
}

// Failed counts target languages that were not written.
func (r *Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Status != Written {
			n++
		}
	}
	return n
}

// Plan is a validated run that has not touched the network or the disk.
type Plan struct {
	Key         string
	Text        string
	From        langcode.Code
	Jobs        []translate.Job
	Paths       []string
	DefaultPath string
}

// Runner executes runs against one configuration.
type Runner struct {
	cfg        *config.Config
	translator translate.Translator
	appender   propfile.Appender
	log        *slog.Logger
	progress   func(translate.Outcome)
}

// Option configures a Runner.
type Option func(*Runner)

// WithAppender replaces the file appender.
func WithAppender(a propfile.Appender) Option {
	return func(r *Runner) { r.appender = a }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.log = l }
}

// WithProgress registers fn to be called as each translation completes.
func WithProgress(fn func(translate.Outcome)) Option {
	return func(r *Runner) { r.progress = fn }
}

// NewRunner returns a Runner for cfg. cfg must have passed Validate.
func NewRunner(cfg *config.Config, t translate.Translator, opts ...Option) *Runner {
	r := &Runner{
		cfg:        cfg,
		translator: t,
		appender:   propfile.FileAppender{},
		log:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Plan validates the inputs, resolves every language and checks the output
// directory. Any error here is fatal and no request has been made.
func (r *Runner) Plan(text, key string) (*Plan, error) {
	if strings.TrimSpace(text) == "" {
		return nil, translate.ErrEmptyText
	}
	if err := checkKey(key); err != nil {
		return nil, err
	}

	jobs, err := translate.ResolveJobs(text, r.cfg.DefaultLanguage, r.cfg.TargetLanguages)
	if err != nil {
		return nil, err
	}
	// ResolveJobs has already accepted the source code.
	from, _ := langcode.Parse(r.cfg.DefaultLanguage)
	if err := r.cfg.ValidateOutputDir(); err != nil {
		return nil, err
	}

	p := &Plan{
		Key:         key,
		Text:        text,
		From:        from,
		Jobs:        jobs,
		Paths:       make([]string, len(jobs)),
		DefaultPath: propfile.Path(r.cfg.OutputDir, r.cfg.DefaultBundle(), ""),
	}
	for i, job := range jobs {
		p.Paths[i] = propfile.Path(r.cfg.OutputDir, r.cfg.BaseFilename, job.To.String())
	}
	return p, nil
}

// Run translates text into every target language and appends the results.
// The returned error is non-nil only for fatal problems found before
// dispatch; per-language failures are recorded in the Report.
func (r *Runner) Run(ctx context.Context, text, key string) (*Report, error) {
	start := time.Now()

	plan, err := r.Plan(text, key)
	if err != nil {
		return nil, err
	}

	r.log.Debug("dispatching",
		"key", key,
		"targets", len(plan.Jobs),
		"concurrency", r.cfg.MaxConcurrent(),
		"interval", r.cfg.RequestInterval())

	d := translate.NewDispatcher(r.translator,
		translate.WithConcurrency(r.cfg.MaxConcurrent()),
		translate.WithInterval(r.cfg.RequestInterval()),
		translate.WithOnOutcome(r.onOutcome),
	)
	outcomes := d.Run(ctx, plan.Jobs)

	rep := &Report{
		Key:     key,
		Text:    text,
		Results: make([]LangResult, 0, len(outcomes)),
	}
	for _, o := range outcomes {
		rep.Results = append(rep.Results, r.write(key, o))
	}

	rep.Default = r.writeDefault(key, text, plan.From)

	rep.Elapsed = time.Since(start)
	r.log.Debug("run finished", "key", key, "failed", rep.Failed(), "elapsed", rep.Elapsed)
	return rep, nil
}

func (r *Runner) onOutcome(o translate.Outcome) {
	if len(o.Variants) > 1 {
		r.log.Debug("extra variants dropped", "lang", o.Lang, "variants", len(o.Variants))
	}
	if r.progress != nil {
		r.progress(o)
	}
}

func (r *Runner) write(key string, o translate.Outcome) LangResult {
	res := LangResult{Lang: o.Lang, Value: o.Value}
	if o.Err != nil {
		res.Status = TranslateFailed
		res.Err = o.Err
		r.log.Error("translation failed", "lang", o.Lang, tint.Err(o.Err))
		return res
	}

	path, err := r.appender.Append(r.cfg.OutputDir, r.cfg.BaseFilename, o.Lang.String(), key, o.Value)
	res.Path = path
	if err != nil {
		res.Status = WriteFailed
		res.Err = err
		r.log.Error("write failed", "lang", o.Lang, "path", path, tint.Err(err))
		return res
	}
	res.Status = Written
	return res
}

func (r *Runner) writeDefault(key, text string, lang langcode.Code) LangResult {
	res := LangResult{Lang: lang, Value: text}
	path, err := r.appender.Append(r.cfg.OutputDir, r.cfg.DefaultBundle(), "", key, text)
	res.Path = path
	if err != nil {
		res.Status = WriteFailed
		res.Err = err
		r.log.Error("write failed", "lang", lang, "path", path, tint.Err(err))
		return res
	}
	res.Status = Written
	return res
}

func checkKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if strings.ContainsAny(key, "=: \t\r\n") {
		return fmt.Errorf("%q: %w", key, ErrInvalidKey)
	}
	return nil
}
