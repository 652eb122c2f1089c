package driven

import "time"

// Metrics counts pipeline outcomes. Implementations must be safe for
// concurrent use.
type Metrics interface {
	// IncDocumentsProcessed counts a document that completed the full
	// pipeline.
	IncDocumentsProcessed()

	// IncDocumentsFailed counts a document that exhausted its retries.
	IncDocumentsFailed()

	// IncRetries counts one retry attempt.
	IncRetries()

	// IncMaskHits counts detected PII spans by category.
	IncMaskHits(category string, n int)

	// IncSegmentationFailures counts a failed segmentation stage run.
	IncSegmentationFailures()

	// ObserveQueryResults records the result count of a context query.
	ObserveQueryResults(n int)

	// ObserveRetrievalLatency records how long context assembly took.
	ObserveRetrievalLatency(d time.Duration)
}

// NopMetrics discards all observations.
type NopMetrics struct{}

// Compile-time check.
var _ Metrics = NopMetrics{}

func (NopMetrics) IncDocumentsProcessed()                {}
func (NopMetrics) IncDocumentsFailed()                   {}
func (NopMetrics) IncRetries()                           {}
func (NopMetrics) IncMaskHits(string, int)               {}
func (NopMetrics) IncSegmentationFailures()              {}
func (NopMetrics) ObserveQueryResults(int)               {}
func (NopMetrics) ObserveRetrievalLatency(time.Duration) {}
