package detection

import "fmt"

// Reason classifies a non-fatal observation about the inputs.
type Reason string

const (
	// ReasonNoObjects means a mask contained no labeled objects.
	ReasonNoObjects Reason = "no_objects"

	// ReasonMoreReferenceObjects means the reference mask of an overlap
	// comparison held more objects than the query mask.
	ReasonMoreReferenceObjects Reason = "more_reference_objects"
)

// Warning is a degenerate-input observation. Warnings are recorded, never
// raised: the operation that produced them still returned a valid result.
type Warning struct {
	Label  int    `json:"label,omitempty"`
	Reason Reason `json:"reason"`
	Detail string `json:"detail,omitempty"`
}

func (w Warning) String() string {
	if w.Label > 0 {
		return fmt.Sprintf("label %d: %s (%s)", w.Label, w.Reason, w.Detail)
	}
	return fmt.Sprintf("%s (%s)", w.Reason, w.Detail)
}
