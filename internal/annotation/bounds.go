package annotation

import (
	"time"

	"github.com/soundscape-lab/annotator/internal/datastore/entities"
)

// Geometry is the time/frequency extent of a result. Construct it with Weak,
// Point or Box; each kind carries exactly the bounds it needs.
type Geometry struct {
	kind      entities.ResultType
	startTime float64
	endTime   float64
	startFreq float64
	endFreq   float64
}

// Weak is a label for the whole file.
func Weak() Geometry {
	return Geometry{kind: entities.ResultWeak}
}

// Point is a single time/frequency coordinate.
func Point(t, f float64) Geometry {
	return Geometry{kind: entities.ResultPoint, startTime: t, startFreq: f}
}

// Box is a bounded rectangle. Each axis must be ordered.
func Box(startTime, endTime, startFreq, endFreq float64) (Geometry, error) {
	if endTime < startTime {
		return Geometry{}, validationError("end_time", "end time %g is before start time %g", endTime, startTime)
	}
	if endFreq < startFreq {
		return Geometry{}, validationError("end_frequency", "end frequency %g is below start frequency %g", endFreq, startFreq)
	}
	return Geometry{
		kind:      entities.ResultBox,
		startTime: startTime,
		endTime:   endTime,
		startFreq: startFreq,
		endFreq:   endFreq,
	}, nil
}

// orderedBox builds a box from two unordered pairs.
func orderedBox(t0, t1, f0, f1 float64) Geometry {
	if t1 < t0 {
		t0, t1 = t1, t0
	}
	if f1 < f0 {
		f0, f1 = f1, f0
	}
	return Geometry{kind: entities.ResultBox, startTime: t0, endTime: t1, startFreq: f0, endFreq: f1}
}

// Type returns the result type of the geometry.
func (g Geometry) Type() entities.ResultType { return g.kind }

// StartTime returns the start in seconds from file start, if the kind has one.
func (g Geometry) StartTime() (float64, bool) {
	return g.startTime, g.kind == entities.ResultPoint || g.kind == entities.ResultBox
}

// EndTime returns the end in seconds from file start, if the kind has one.
func (g Geometry) EndTime() (float64, bool) {
	return g.endTime, g.kind == entities.ResultBox
}

// StartFrequency returns the lower frequency in Hz, if the kind has one.
func (g Geometry) StartFrequency() (float64, bool) {
	return g.startFreq, g.kind == entities.ResultPoint || g.kind == entities.ResultBox
}

// EndFrequency returns the upper frequency in Hz, if the kind has one.
func (g Geometry) EndFrequency() (float64, bool) {
	return g.endFreq, g.kind == entities.ResultBox
}

// Apply writes the type and bounds into r, clearing the bounds the kind does
// not carry.
func (g Geometry) Apply(r *entities.AnnotationResult) {
	r.Type = g.kind
	r.StartTime, r.EndTime, r.StartFrequency, r.EndFrequency = nil, nil, nil, nil
	switch g.kind {
	case entities.ResultPoint:
		r.StartTime = float64Ptr(g.startTime)
		r.StartFrequency = float64Ptr(g.startFreq)
	case entities.ResultBox:
		r.StartTime = float64Ptr(g.startTime)
		r.EndTime = float64Ptr(g.endTime)
		r.StartFrequency = float64Ptr(g.startFreq)
		r.EndFrequency = float64Ptr(g.endFreq)
	}
}

// GeometryOf reads the geometry of a stored result.
func GeometryOf(r *entities.AnnotationResult) (Geometry, error) {
	switch r.Type {
	case entities.ResultWeak:
		return Weak(), nil
	case entities.ResultPoint:
		if r.StartTime == nil || r.StartFrequency == nil {
			return Geometry{}, validationError("type", "point result %d lacks start bounds", r.ID)
		}
		return Point(*r.StartTime, *r.StartFrequency), nil
	case entities.ResultBox:
		if r.StartTime == nil || r.EndTime == nil || r.StartFrequency == nil || r.EndFrequency == nil {
			return Geometry{}, validationError("type", "box result %d lacks bounds", r.ID)
		}
		return Box(*r.StartTime, *r.EndTime, *r.StartFrequency, *r.EndFrequency)
	default:
		return Geometry{}, validationError("type", "unknown result type %q", r.Type)
	}
}

// Within checks that the bounds lie inside [0, duration] seconds and
// [0, nyquist] Hz.
func (g Geometry) Within(duration, nyquist float64) error {
	check := func(field string, v, upper float64, ok bool) error {
		if !ok {
			return nil
		}
		if v < 0 || v > upper {
			return validationError(field, "%s %g is outside [0, %g]", field, v, upper)
		}
		return nil
	}
	st, okST := g.StartTime()
	et, okET := g.EndTime()
	sf, okSF := g.StartFrequency()
	ef, okEF := g.EndFrequency()
	for _, err := range []error{
		check("start_time", st, duration, okST),
		check("end_time", et, duration, okET),
		check("start_frequency", sf, nyquist, okSF),
		check("end_frequency", ef, nyquist, okEF),
	} {
		if err != nil {
			return err
		}
	}
	return nil
}

// FileExtent is the wall-clock span of one dataset file.
type FileExtent struct {
	Start time.Time
	End   time.Time
}

// Duration returns the file length in seconds.
func (f FileExtent) Duration() float64 {
	return f.End.Sub(f.Start).Seconds()
}

// ExtentOf returns the extent of a stored file.
func ExtentOf(f *entities.DatasetFile) FileExtent {
	return FileExtent{Start: f.Start, End: f.End}
}

// RawBounds are detection bounds as found in an import row.
type RawBounds struct {
	Start        time.Time
	End          time.Time
	MinFrequency *float64
	MaxFrequency *float64
	IsBox        bool
}

// Normalize maps raw bounds onto one file: times are clipped to the file and
// expressed in seconds from its start, frequencies default to the full band,
// and the result is classified. A window covering the whole file and band is
// WEAK. Equal start and end times make a POINT when the frequencies are equal
// too or no upper frequency was given. Anything else is a BOX with all four
// bounds.
func Normalize(raw RawBounds, file FileExtent, nyquist float64) Geometry {
	duration := file.Duration()

	startTime := 0.0
	if !raw.Start.Before(file.Start) {
		startTime = raw.Start.Sub(file.Start).Seconds()
	}
	endTime := duration
	if !raw.End.After(file.End) {
		endTime = raw.End.Sub(file.Start).Seconds()
	}

	startFreq := 0.0
	if raw.IsBox && raw.MinFrequency != nil {
		startFreq = *raw.MinFrequency
	}
	maxSupplied := raw.IsBox && raw.MaxFrequency != nil
	endFreq := nyquist
	if maxSupplied {
		endFreq = *raw.MaxFrequency
	}

	if startTime == 0 && endTime == duration && startFreq == 0 && endFreq == nyquist {
		return Weak()
	}
	if startTime == endTime && (startFreq == endFreq || !maxSupplied) {
		return Point(startTime, startFreq)
	}
	return orderedBox(startTime, endTime, startFreq, endFreq)
}

// NormalizeManual classifies manually entered bounds by which values are
// present: none is WEAK, a start time and start frequency alone are a POINT,
// all four are a BOX. Inverted pairs are swapped. Any other combination is
// rejected.
func NormalizeManual(startTime, endTime, startFreq, endFreq *float64) (Geometry, error) {
	switch {
	case startTime == nil && endTime == nil && startFreq == nil && endFreq == nil:
		return Weak(), nil
	case startTime != nil && startFreq != nil && endTime == nil && endFreq == nil:
		return Point(*startTime, *startFreq), nil
	case startTime != nil && endTime != nil && startFreq != nil && endFreq != nil:
		return orderedBox(*startTime, *endTime, *startFreq, *endFreq), nil
	}

	// name the first missing field so the client can point at it
	for _, f := range []struct {
		name string
		v    *float64
	}{
		{"start_time", startTime},
		{"start_frequency", startFreq},
		{"end_time", endTime},
		{"end_frequency", endFreq},
	} {
		if f.v == nil {
			return Geometry{}, validationError(f.name, "%s is required for this result shape", f.name)
		}
	}
	return Geometry{}, validationError("type", "unsupported combination of bounds")
}

func float64Ptr(v float64) *float64 { return &v }
