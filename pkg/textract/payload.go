package textract

import "strconv"

// Review payload shapes consumed by the human-review UI. The field names,
// nesting and string-typed indices are part of the external contract and
// must stay exactly as they are.

// ReviewCell is one table cell in the review payload.
type ReviewCell struct {
	Text           string       `json:"Text"`
	Confidence     Confidence   `json:"Confidence"`
	WordConfidence []Confidence `json:"WordConfidence"`
	Column         string       `json:"Column"`
}

// ReviewRow is one table row in the review payload.
type ReviewRow struct {
	Row   string       `json:"Row"`
	Cells []ReviewCell `json:"Cells"`
}

// ReviewPage is one table in the review payload.
type ReviewPage struct {
	Table      BlockID     `json:"Table"`
	PageNumber int         `json:"PageNumber"`
	Rows       []ReviewRow `json:"Rows"`
}

// ReviewMetadata locates the objects the review run reads and writes.
type ReviewMetadata struct {
	OriginalObject string `json:"original-object"`
	InputObject    string `json:"a2i_input_object"`
	OutputObject   string `json:"a2i_output_object"`
}

// ReviewPayload is the full payload handed to the review UI.
type ReviewPayload struct {
	Titles   []string       `json:"Titles"`
	Pages    []ReviewPage   `json:"Pages"`
	Metadata ReviewMetadata `json:"meta-data"`
}

// ReviewPayload assembles the review payload from every table in the
// collection. The per-cell Confidence carries the average word confidence,
// which is the value the UI displays; the cell score is not surfaced. A nil
// titles slice falls back to 100 empty titles, which the UI template still
// expects.
func (p *Parser) ReviewPayload(meta ReviewMetadata, titles []string) (*ReviewPayload, error) {
	if titles == nil {
		titles = make([]string, 100)
	}

	payload := &ReviewPayload{
		Titles:   titles,
		Pages:    []ReviewPage{},
		Metadata: meta,
	}

	for _, id := range p.tableIDs {
		grid, err := p.TableAsGrid(id)
		if err != nil {
			return nil, err
		}

		page := ReviewPage{
			Table:      id,
			PageNumber: grid.Page,
		}
		for i, row := range grid.Cells {
			reviewRow := ReviewRow{Row: strconv.Itoa(i + 1)}
			for j, cell := range row {
				reviewRow.Cells = append(reviewRow.Cells, ReviewCell{
					Text:           cell.Text,
					Confidence:     cell.WordConfidence,
					WordConfidence: []Confidence{cell.WordConfidence},
					Column:         strconv.Itoa(j + 1),
				})
			}
			page.Rows = append(page.Rows, reviewRow)
		}
		payload.Pages = append(payload.Pages, page)
	}

	return payload, nil
}
