//go:build ruleguard

package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

// ResultGeometry flags direct writes to a result's type or bounds outside the
// annotation package. Geometry.Apply keeps type and bounds consistent; a bare
// assignment can leave a WEAK result with a start time or a BOX without an
// end frequency.
//
//	r.Type = entities.ResultBox   // flagged
//	geometry.Apply(r)             // ok
func ResultGeometry(m dsl.Matcher) {
	m.Match(
		`$r.Type = $_`,
		`$r.StartTime = $_`,
		`$r.EndTime = $_`,
		`$r.StartFrequency = $_`,
		`$r.EndFrequency = $_`,
	).
		Where(m["r"].Type.Is("*entities.AnnotationResult") &&
			!m.File().PkgPath.Matches(`/internal/annotation$`) &&
			!m.File().Name.Matches(`_test\.go$`)).
		Report("set result bounds through annotation.Geometry.Apply")
}

// CentralLogger flags the standard library loggers. Everything logs through
// internal/logger so output carries the module name and trace ID.
func CentralLogger(m dsl.Matcher) {
	m.Import("log/slog")

	m.Match(
		`log.Print($*_)`,
		`log.Printf($*_)`,
		`log.Println($*_)`,
	).
		Where(m.File().Imports("log")).
		Report("use internal/logger instead of the log package")

	m.Match(
		`slog.Info($*_)`,
		`slog.Warn($*_)`,
		`slog.Error($*_)`,
		`slog.Debug($*_)`,
	).
		Where(!m.File().PkgPath.Matches(`/internal/logger$`)).
		Report("use internal/logger instead of calling slog directly")
}

// PlainErrorf flags fmt.Errorf calls with nothing to format.
//
//	fmt.Errorf("no rows")      // flagged
//	errors.NewStd("no rows")   // ok
func PlainErrorf(m dsl.Matcher) {
	m.Match(`fmt.Errorf($s)`).
		Where(m["s"].Const && !m["s"].Text.Matches(`%`)).
		Report("use errors.NewStd($s); fmt.Errorf has nothing to format")
}

// TimeSince suggests time.Since for elapsed-time calculations such as
// operation durations recorded in metrics.
func TimeSince(m dsl.Matcher) {
	m.Match(`time.Now().Sub($t)`).
		Report("use time.Since($t)").
		Suggest("time.Since($t)")
}
