// Package textract parses AWS Textract analysis output. It indexes the flat
// block list by id, reconstructs tables from the CELL/WORD relationship
// graph, and assembles the derived views the pipeline produces: dense table
// grids, CSV renderings and the human-review payload. It also wraps the
// Textract API client for starting jobs and fetching finished results.
//
// Main entry points:
//
// - NewParser: index a block collection and validate its relationship graph
// - Parser.TableAsGrid / Parser.AllTables: reconstruct tables as dense grids
// - Parser.ReviewPayload: assemble the payload for the human-review UI
// - Client.StartAnalysis / Client.FetchBlocks: talk to the Textract service
package textract

import (
	"encoding/json"
	"fmt"

	"github.com/textlift/textlift/pkg/geometry"
)

// BlockID identifies one block within an analysis result.
type BlockID string

// BlockType is the kind of document structure a block describes.
type BlockType string

const (
	BlockTypePage             BlockType = "PAGE"
	BlockTypeLine             BlockType = "LINE"
	BlockTypeWord             BlockType = "WORD"
	BlockTypeTable            BlockType = "TABLE"
	BlockTypeCell             BlockType = "CELL"
	BlockTypeForm             BlockType = "FORM"
	BlockTypeKeyValueSet      BlockType = "KEY_VALUE_SET"
	BlockTypeSelectionElement BlockType = "SELECTION_ELEMENT"
)

// RelationshipType is the kind of a directed parent to child edge.
type RelationshipType string

const (
	RelationshipChild RelationshipType = "CHILD"
	RelationshipValue RelationshipType = "VALUE"
)

// SelectionStatus is the state of a SELECTION_ELEMENT block (checkbox,
// radio button).
type SelectionStatus string

const (
	SelectionSelected    SelectionStatus = "SELECTED"
	SelectionNotSelected SelectionStatus = "NOT_SELECTED"
)

// Relationship is a typed edge from its holding block to a list of child
// block ids. The id order is the reading order of the children.
type Relationship struct {
	Type RelationshipType `json:"Type"`
	IDs  []BlockID        `json:"Ids"`
}

// Geometry carries the location of a block on its page.
type Geometry struct {
	BoundingBox geometry.NormalizedBox `json:"BoundingBox"`
}

// Block is one recognition unit of the OCR output graph: a word, line,
// table, cell or form element. The JSON field names follow the Textract
// response shape so block files round-trip unchanged. Blocks are immutable
// once received.
type Block struct {
	ID              BlockID         `json:"Id"`
	BlockType       BlockType       `json:"BlockType"`
	Confidence      *float64        `json:"Confidence,omitempty"`
	Text            string          `json:"Text,omitempty"`
	Page            int             `json:"Page,omitempty"`
	RowIndex        int             `json:"RowIndex,omitempty"`
	ColumnIndex     int             `json:"ColumnIndex,omitempty"`
	SelectionStatus SelectionStatus `json:"SelectionStatus,omitempty"`
	Geometry        *Geometry       `json:"Geometry,omitempty"`
	Relationships   []Relationship  `json:"Relationships,omitempty"`
}

// AnalysisOutput is the envelope the block list is stored in, matching the
// Textract GetDocumentAnalysis response shape.
type AnalysisOutput struct {
	Blocks []Block `json:"Blocks"`
}

// DecodeBlocks parses a stored analysis result. It accepts either the full
// {"Blocks": [...]} envelope or a bare block array.
func DecodeBlocks(data []byte) ([]Block, error) {
	var out AnalysisOutput
	if err := json.Unmarshal(data, &out); err == nil && out.Blocks != nil {
		return out.Blocks, nil
	}

	var blocks []Block
	if err := json.Unmarshal(data, &blocks); err != nil {
		return nil, fmt.Errorf("failed to decode block JSON: %w", err)
	}
	return blocks, nil
}
