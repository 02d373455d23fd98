package pipeline

// DiscardReason explains why a capture was not kept.
type DiscardReason string

const (
	// DiscardDuplicate marks a capture whose text was too similar to the
	// previous accepted one.
	DiscardDuplicate DiscardReason = "duplicate"
	// DiscardNoText marks a capture from which no text could be read.
	DiscardNoText DiscardReason = "no_text"
)

// Result describes the outcome of processing a single capture.
type Result struct {
	Accepted      bool
	DiscardReason DiscardReason
	ImagePath     string
	Text          string
	Similarity    float64
	RecordID      int64
}
