// Package metrics provides Prometheus collectors for the annotator backend.
package metrics

// Histogram bucket layout shared by the duration metrics.
const (
	// BucketStart1ms is the starting bucket for 1ms histograms.
	BucketStart1ms = 0.001
	// BucketFactor2 is the common exponential growth factor for histogram buckets.
	BucketFactor2 = 2
	// BucketCount15 defines 15 exponential buckets (1ms to ~16s).
	BucketCount15 = 15
)

// Operation labels.
const (
	// OpImport is one bulk import call.
	OpImport = "import"
	// OpUpsert is one single-result create or update.
	OpUpsert = "upsert"
	// OpGet is one result read.
	OpGet = "get"
)

// Result sources.
const (
	SourceImport = "import"
	SourceManual = "manual"
)

// Set kinds for fork accounting.
const (
	SetKindLabel      = "label"
	SetKindConfidence = "confidence"
)

// Import row outcomes besides the skip reasons.
const (
	OutcomeCreated = "created"
)

// Transaction statuses.
const (
	StatusCommitted = "committed"
	StatusRollback  = "rollback"
)
