package textract

import "fmt"

// MalformedInputError reports a data-integrity fault in a block collection:
// a relationship edge pointing at an id absent from the collection, a table
// without CELL children, or a sparse row/column index range. Reconstructing
// a table from incomplete data would produce silently wrong results, so
// these fail loudly instead of skipping.
type MalformedInputError struct {
	BlockID BlockID
	Reason  string
}

func (e *MalformedInputError) Error() string {
	if e.BlockID != "" {
		return fmt.Sprintf("malformed block input: %s (block %s)", e.Reason, e.BlockID)
	}
	return "malformed block input: " + e.Reason
}
