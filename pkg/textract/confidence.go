package textract

import "encoding/json"

// The numeric value unmeasured confidences present to the outside. The
// review UI and the CSV export expect 100.0 for "no data", which is distinct
// from a measured perfect score only through IsMeasured.
const unmeasuredValue = 100.0

// Confidence is a recognition score in [0,100] that distinguishes a measured
// value from the absence of a measurement. Textract omits the confidence
// field on some synthetic cells, and a cell without words has no word
// confidence to average; both are normal cases, not errors.
type Confidence struct {
	value    float64
	measured bool
}

// Measured wraps an actual score reported by the OCR engine.
func Measured(v float64) Confidence {
	return Confidence{value: v, measured: true}
}

// Unmeasured marks the absence of a score.
func Unmeasured() Confidence {
	return Confidence{}
}

// IsMeasured reports whether the value came from the OCR engine.
func (c Confidence) IsMeasured() bool {
	return c.measured
}

// Value returns the score, or the 100.0 sentinel when unmeasured.
func (c Confidence) Value() float64 {
	if !c.measured {
		return unmeasuredValue
	}
	return c.value
}

// MarshalJSON encodes the confidence as a plain number, preserving the
// external payload contract.
func (c Confidence) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Value())
}
