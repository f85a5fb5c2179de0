package pipeline

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/soochol/blogforge/internal/article"
)

// Error kinds below: Go has no exception hierarchy, so each is a small
// typed error wrapping an underlying cause; callers distinguish them with
// errors.As. Real types rather than a string-pattern classifier, since
// the kinds here are a fixed, known set rather than an open-ended
// transport-error vocabulary.
type InputError struct{ Msg string }

func (e *InputError) Error() string { return "input error: " + e.Msg }

type UpstreamUnavailableError struct{ Cause error }

func (e *UpstreamUnavailableError) Error() string { return fmt.Sprintf("upstream unavailable: %v", e.Cause) }
func (e *UpstreamUnavailableError) Unwrap() error { return e.Cause }

type ParseError struct{ Cause error }

func (e *ParseError) Error() string { return fmt.Sprintf("parse error: %v", e.Cause) }
func (e *ParseError) Unwrap() error { return e.Cause }

type ProbeError struct {
	URL string
	Cause error
}

func (e *ProbeError) Error() string { return fmt.Sprintf("probe error for %s: %v", e.URL, e.Cause) }
func (e *ProbeError) Unwrap() error { return e.Cause }

type InvariantViolationError struct{ Issues []string }

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("invariant violation: %v", e.Issues)
}

type ExporterError struct {
	Format string
	Cause error
}

func (e *ExporterError) Error() string { return fmt.Sprintf("export %s: %v", e.Format, e.Cause) }
func (e *ExporterError) Unwrap() error { return e.Cause }

// validateJobConfig returns an InputError for a missing keyword or a
// malformed company URL; this check runs before Stage 0 and is fatal.
func validateJobConfig(cfg article.JobConfig) error {
	if strings.TrimSpace(cfg.PrimaryKeyword) == "" {
		return &InputError{Msg: "primary_keyword is required"}
	}
	if strings.TrimSpace(cfg.CompanyURL) == "" {
		return &InputError{Msg: "company_url is required"}
	}
	u, err := url.Parse(cfg.CompanyURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return &InputError{Msg: "company_url is not a valid URL"}
	}
	return nil
}
