package textract

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReviewPayloadShape(t *testing.T) {
	p, err := NewParser(simpleTable())
	require.NoError(t, err)

	meta := ReviewMetadata{
		OriginalObject: "s3://docs/in.pdf",
		InputObject:    "s3://review/in.json",
		OutputObject:   "s3://review/out.json",
	}
	payload, err := p.ReviewPayload(meta, nil)
	require.NoError(t, err)

	require.Len(t, payload.Titles, 100)
	require.Len(t, payload.Pages, 1)

	page := payload.Pages[0]
	require.Equal(t, BlockID("table-1"), page.Table)
	require.Equal(t, 1, page.PageNumber)
	require.Len(t, page.Rows, 2)

	// Row and column indices are 1-based strings in the external contract.
	require.Equal(t, "1", page.Rows[0].Row)
	require.Equal(t, "2", page.Rows[1].Cells[1].Column)
	require.Equal(t, "Total Due", page.Rows[0].Cells[0].Text)
}

func TestReviewPayloadConfidenceIsWordAverage(t *testing.T) {
	p, err := NewParser(simpleTable())
	require.NoError(t, err)

	payload, err := p.ReviewPayload(ReviewMetadata{}, []string{"Invoice"})
	require.NoError(t, err)
	require.Equal(t, []string{"Invoice"}, payload.Titles)

	cell := payload.Pages[0].Rows[0].Cells[0]
	require.InDelta(t, 98.0, cell.Confidence.Value(), 1e-9)
	require.Len(t, cell.WordConfidence, 1)
	require.InDelta(t, 98.0, cell.WordConfidence[0].Value(), 1e-9)
}

func TestReviewPayloadJSONContract(t *testing.T) {
	p, err := NewParser(simpleTable())
	require.NoError(t, err)

	payload, err := p.ReviewPayload(ReviewMetadata{OriginalObject: "s3://docs/in.pdf"}, []string{})
	require.NoError(t, err)

	data, err := json.Marshal(payload)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Contains(t, decoded, "Titles")
	require.Contains(t, decoded, "Pages")
	require.Contains(t, decoded, "meta-data")

	// Unmeasured confidences must surface as the numeric sentinel 100.
	pages := decoded["Pages"].([]any)
	rows := pages[0].(map[string]any)["Rows"].([]any)
	cells := rows[1].(map[string]any)["Cells"].([]any)
	emptyCell := cells[0].(map[string]any)
	require.Equal(t, 100.0, emptyCell["Confidence"])
}

func TestCSVRendering(t *testing.T) {
	p, err := NewParser(simpleTable())
	require.NoError(t, err)

	grid, err := p.TableAsGrid("table-1")
	require.NoError(t, err)

	require.Equal(t, "Total Due,42\n,X\n", grid.CSV(""))
	require.Equal(t, "Total Due;42\n;X\n", grid.CSV(";"))
}
