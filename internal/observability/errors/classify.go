// Package errors derives low-cardinality labels from error values for logs and metrics.
package errors

import (
	"context"
	goerrors "errors"
	"reflect"
	"strings"

	domainauth "github.com/viveconecta/admin-ui/internal/domain/auth"
	"github.com/viveconecta/admin-ui/internal/ports"
)

// Rule labels any error chain that matches Target via errors.Is.
type Rule struct {
	Target error
	Label  string
}

// DefaultRules cover the failures the session subsystem expects to see.
// Order matters: the first match wins.
//
//nolint:gochecknoglobals // read-only table
var DefaultRules = []Rule{
	{Target: context.DeadlineExceeded, Label: "timeout"},
	{Target: context.Canceled, Label: "canceled"},
	{Target: domainauth.ErrInvalidCredentials, Label: "invalid_credentials"},
	{Target: domainauth.ErrLoginInProgress, Label: "login_in_progress"},
	{Target: domainauth.ErrInvalidTransition, Label: "invalid_transition"},
	{Target: ports.ErrNotFound, Label: "not_found"},
}

// Classifier maps errors to labels. The zero value only uses the type-name fallback.
type Classifier struct {
	Rules []Rule
}

// Classify labels err with DefaultRules.
func Classify(err error) string {
	return Classifier{Rules: DefaultRules}.Classify(err)
}

// Classify returns the label of the first matching rule. Otherwise it names the
// innermost concrete error type in lower snake form ("errors_errorstring").
func (c Classifier) Classify(err error) string {
	if err == nil {
		return ""
	}
	for _, r := range c.Rules {
		if goerrors.Is(err, r.Target) {
			return r.Label
		}
	}
	return typeLabel(innermost(err))
}

// innermost follows the last branch of multi-%w errors, which holds the cause.
func innermost(err error) error {
	for {
		var next error
		switch u := err.(type) {
		case interface{ Unwrap() error }:
			next = u.Unwrap()
		case interface{ Unwrap() []error }:
			if errs := u.Unwrap(); len(errs) > 0 {
				next = errs[len(errs)-1]
			}
		}
		if next == nil {
			return err
		}
		err = next
	}
}

func typeLabel(err error) string {
	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.String() == "" {
		return "unknown"
	}
	return strings.ReplaceAll(strings.ToLower(t.String()), ".", "_")
}
