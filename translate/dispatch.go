package translate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/minios-linux/ddtr/langcode"
)

// Job is one translation request. A Job belongs to a single goroutine.
type Job struct {
	Index int
	Text  string
	From  langcode.Code
	To    langcode.Code
}

// ResolveJobs looks up the source and target codes and builds one Job per
// target, in order. An unknown code fails the whole list with a
// *langcode.UnknownError before any Job exists.
func ResolveJobs(text, from string, targets []string) ([]Job, error) {
	src, err := langcode.Parse(from)
	if err != nil {
		return nil, fmt.Errorf("source language: %w", err)
	}
	dst, err := langcode.ParseTargets(targets)
	if err != nil {
		return nil, fmt.Errorf("target languages: %w", err)
	}
	return newJobs(text, src, dst), nil
}

func newJobs(text string, from langcode.Code, targets []langcode.Code) []Job {
	jobs := make([]Job, len(targets))
	for i, to := range targets {
		jobs[i] = Job{Index: i, Text: text, From: from, To: to}
	}
	return jobs
}

// Outcome is the result of one Job: a success when Err is nil, a failure
// otherwise. Outcomes are never retried.
type Outcome struct {
	Lang     langcode.Code
	Value    string
	Variants []string
	Err      error
	// Started is when the request was issued, after pacing.
	Started  time.Time
	Finished time.Time
}

// OK reports whether the job produced a translation.
func (o Outcome) OK() bool { return o.Err == nil }

// Dispatcher issues one request per target language. At most Concurrency
// requests are in flight and successive request starts are at least
// Interval apart. A failing target never cancels the others.
type Dispatcher struct {
	translator  Translator
	concurrency int
	interval    time.Duration
	onOutcome   func(Outcome)
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithConcurrency caps in-flight requests. Values below 1 mean 1.
func WithConcurrency(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n < 1 {
			n = 1
		}
		d.concurrency = n
	}
}

// WithInterval sets the minimum spacing between request starts. Zero
// disables spacing.
func WithInterval(interval time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if interval < 0 {
			interval = 0
		}
		d.interval = interval
	}
}

// WithOnOutcome registers fn to be called as each job completes, in
// completion order. Calls are serialized.
func WithOnOutcome(fn func(Outcome)) DispatcherOption {
	return func(d *Dispatcher) { d.onOutcome = fn }
}

// NewDispatcher returns a Dispatcher with concurrency 1 and no spacing
// unless configured otherwise.
func NewDispatcher(t Translator, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{translator: t, concurrency: 1}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch translates text from one language into every target and returns
// the outcomes in target order, regardless of completion order.
func (d *Dispatcher) Dispatch(ctx context.Context, text string, from langcode.Code, targets []langcode.Code) []Outcome {
	return d.Run(ctx, newJobs(text, from, targets))
}

// Run executes jobs. Job.Index must be the position of the job in jobs.
func (d *Dispatcher) Run(ctx context.Context, jobs []Job) []Outcome {
	outcomes := make([]Outcome, len(jobs))
	if len(jobs) == 0 {
		return outcomes
	}

	var p *pacer
	if d.interval > 0 {
		p = newPacer(d.interval)
	}

	var (
		g  errgroup.Group
		mu sync.Mutex
	)
	g.SetLimit(d.concurrency)

	for _, job := range jobs {
		job := job
		// Go blocks while the concurrency limit is reached; the pacer is
		// consulted only once a slot is held.
		g.Go(func() error {
			out := d.do(ctx, p, job)
			outcomes[job.Index] = out
			if d.onOutcome != nil {
				mu.Lock()
				d.onOutcome(out)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

func (d *Dispatcher) do(ctx context.Context, p *pacer, job Job) Outcome {
	out := Outcome{Lang: job.To}
	if p != nil {
		start, err := p.wait(ctx)
		if err != nil {
			out.Err = fmt.Errorf("waiting to translate to %s: %w", job.To, err)
			return out
		}
		out.Started = start
	} else {
		out.Started = time.Now()
	}
	out.Value, out.Variants, out.Err = d.translator.Translate(ctx, job.Text, job.From, job.To)
	out.Finished = time.Now()
	return out
}

// pacer hands out request start times that are at least interval apart.
// The limiter counts from reservation time, so last holds the start
// actually taken.
type pacer struct {
	mu       sync.Mutex
	limiter  *rate.Limiter
	interval time.Duration
	last     time.Time
}

func newPacer(interval time.Duration) *pacer {
	return &pacer{
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		interval: interval,
	}
}

// wait blocks until the next start is due and returns it. Callers are
// served one at a time.
func (p *pacer) wait(ctx context.Context) (time.Time, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.limiter.Wait(ctx); err != nil {
		return time.Time{}, err
	}
	if !p.last.IsZero() {
		if remaining := time.Until(p.last.Add(p.interval)); remaining > 0 {
			timer := time.NewTimer(remaining)
			select {
			case <-ctx.Done():
				timer.Stop()
				return time.Time{}, ctx.Err()
			case <-timer.C:
			}
		}
	}
	p.last = time.Now()
	return p.last, nil
}
