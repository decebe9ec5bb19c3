// Package translate turns one source text into translations for a list of
// target languages.
//
// Adapter validates input and wraps a remote Service (the Baidu client in
// production). Dispatcher fans a text out to every target under a
// concurrency cap and a minimum spacing between request starts, and returns
// one Outcome per target in target order.
package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/minios-linux/ddtr/langcode"
)

var (
	// ErrEmptyText is returned before any request when the text is blank.
	ErrEmptyText = errors.New("nothing to translate")
	// ErrNoVariants is returned when the service answered without a translation.
	ErrNoVariants = errors.New("service returned no translation")
)

// Service is the remote translation capability. from and to are wire codes.
// It returns every translated variant in the order the service sent them.
type Service interface {
	Translate(ctx context.Context, text, from, to string) ([]string, error)
}

// Translator translates text between two supported languages.
type Translator interface {
	Translate(ctx context.Context, text string, from, to langcode.Code) (value string, variants []string, err error)
}

// APIError wraps a Service failure. The service message is kept intact.
type APIError struct {
	Lang langcode.Code
	Err  error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("translating to %s: %v", e.Lang, e.Err)
}

func (e *APIError) Unwrap() error { return e.Err }

// Adapter implements Translator on top of a Service. It keeps no state
// between calls.
type Adapter struct {
	svc Service
}

// NewAdapter wraps svc.
func NewAdapter(svc Service) *Adapter {
	return &Adapter{svc: svc}
}

// Translate makes exactly one Service call. The returned value is the first
// variant; the others are passed back for logging only.
func (a *Adapter) Translate(ctx context.Context, text string, from, to langcode.Code) (string, []string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil, ErrEmptyText
	}
	if from.IsZero() {
		return "", nil, &langcode.UnknownError{Value: from.String()}
	}
	if to.IsZero() {
		return "", nil, &langcode.UnknownError{Value: to.String()}
	}

	variants, err := a.svc.Translate(ctx, text, from.Wire(), to.Wire())
	if err != nil {
		return "", nil, &APIError{Lang: to, Err: err}
	}
	if len(variants) == 0 || variants[0] == "" {
		return "", variants, &APIError{Lang: to, Err: ErrNoVariants}
	}
	return variants[0], variants, nil
}
