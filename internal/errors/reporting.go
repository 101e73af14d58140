package errors

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/getsentry/sentry-go"
)

// Reporter receives built errors. Only categories that indicate a server
// side failure are forwarded.
type Reporter interface {
	ReportError(err *EnhancedError)
	IsEnabled() bool
}

var (
	reporterMu         sync.RWMutex
	activeReporter     Reporter
	hasActiveReporting atomic.Bool
)

// SetReporter installs r as the process-wide reporter. Passing nil disables
// reporting.
func SetReporter(r Reporter) {
	reporterMu.Lock()
	defer reporterMu.Unlock()
	activeReporter = r
	hasActiveReporting.Store(r != nil && r.IsEnabled())
}

func reportError(ee *EnhancedError) {
	if !isReportable(ee.Category) {
		return
	}
	reporterMu.RLock()
	r := activeReporter
	reporterMu.RUnlock()
	if r == nil || !r.IsEnabled() || ee.IsReported() {
		return
	}
	r.ReportError(ee)
	ee.MarkReported()
}

// isReportable excludes client mistakes; those are answered, not reported.
func isReportable(c ErrorCategory) bool {
	switch c {
	case CategoryValidation, CategoryNotFound, CategoryConflict, CategoryLimit:
		return false
	default:
		return true
	}
}

// SentryReporter forwards errors to an initialized sentry-go client
type SentryReporter struct {
	hub *sentry.Hub
}

// NewSentryReporter initializes sentry-go with dsn and returns a reporter.
func NewSentryReporter(dsn, environment, release string) (*SentryReporter, error) {
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: environment,
		Release:     release,
	})
	if err != nil {
		return nil, fmt.Errorf("sentry init: %w", err)
	}
	return &SentryReporter{hub: sentry.NewHub(client, sentry.NewScope())}, nil
}

// IsEnabled reports whether the reporter has a client
func (sr *SentryReporter) IsEnabled() bool {
	return sr != nil && sr.hub != nil && sr.hub.Client() != nil
}

// ReportError sends ee to Sentry tagged with its component and category
func (sr *SentryReporter) ReportError(ee *EnhancedError) {
	sr.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("component", ee.Component)
		scope.SetTag("category", string(ee.Category))
		for key, value := range ee.GetContext() {
			scope.SetContext(key, sentry.Context{"value": value})
		}
		scope.SetFingerprint([]string{ee.Component, string(ee.Category), fmt.Sprintf("%T", ee.Err)})
		sr.hub.CaptureException(ee)
	})
}

// Flush waits for buffered events. Called on shutdown.
func (sr *SentryReporter) Flush() {
	if sr.IsEnabled() {
		sr.hub.Flush(flushTimeout)
	}
}
