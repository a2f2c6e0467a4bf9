package textract

import (
	"fmt"
	"strings"
)

// Parser indexes a flat block collection by id and reconstructs tabular
// structures from the CELL/WORD relationship graph. A parser owns its block
// collection for its lifetime; blocks are never mutated.
type Parser struct {
	blocks   map[BlockID]*Block
	tableIDs []BlockID
	formIDs  []BlockID
}

// NewParser builds the block index and the TABLE/FORM id lists, preserving
// the input order of the special blocks. It returns a MalformedInputError if
// any relationship edge references an id absent from the collection.
func NewParser(blocks []Block) (*Parser, error) {
	p := &Parser{
		blocks: make(map[BlockID]*Block, len(blocks)),
	}
	for i := range blocks {
		blk := &blocks[i]
		p.blocks[blk.ID] = blk
		switch blk.BlockType {
		case BlockTypeTable:
			p.tableIDs = append(p.tableIDs, blk.ID)
		case BlockTypeForm:
			p.formIDs = append(p.formIDs, blk.ID)
		}
	}

	// Every edge must land on an indexed block before any traversal runs.
	for i := range blocks {
		for _, rel := range blocks[i].Relationships {
			for _, id := range rel.IDs {
				if _, ok := p.blocks[id]; !ok {
					return nil, &MalformedInputError{
						BlockID: blocks[i].ID,
						Reason:  fmt.Sprintf("relationship references unknown block %s", id),
					}
				}
			}
		}
	}

	return p, nil
}

// Block returns the block with the given id.
func (p *Parser) Block(id BlockID) (*Block, bool) {
	blk, ok := p.blocks[id]
	return blk, ok
}

// TableIDs returns the ids of all TABLE blocks in input order.
func (p *Parser) TableIDs() []BlockID {
	return p.tableIDs
}

// FormIDs returns the ids of all FORM blocks in input order.
func (p *Parser) FormIDs() []BlockID {
	return p.formIDs
}

func (p *Parser) String() string {
	return fmt.Sprintf("textract.Parser, nb_blocks: %d, nb_tables: %d, nb_forms: %d",
		len(p.blocks), len(p.tableIDs), len(p.formIDs))
}

// Cell is one reconstructed table cell with its derived values.
type Cell struct {
	Text           string
	CellConfidence Confidence // how sure the engine is that this is a cell
	WordConfidence Confidence // mean confidence over the cell's WORD children
}

// TableGrid is a dense, row-major reconstruction of one TABLE block. Row and
// column indices are 1-based in the source semantics and stored zero-based
// here. Every row has the same column count.
type TableGrid struct {
	TableID BlockID
	Page    int
	Cells   [][]Cell
}

// Rows returns the number of rows in the grid.
func (g *TableGrid) Rows() int {
	return len(g.Cells)
}

// Columns returns the number of columns in the grid.
func (g *TableGrid) Columns() int {
	if len(g.Cells) == 0 {
		return 0
	}
	return len(g.Cells[0])
}

// Row returns the cells of one row, zero-based.
func (g *TableGrid) Row(i int) []Cell {
	return g.Cells[i]
}

// Column returns the cells of one column, zero-based.
func (g *TableGrid) Column(j int) []Cell {
	col := make([]Cell, 0, len(g.Cells))
	for _, row := range g.Cells {
		col = append(col, row[j])
	}
	return col
}

// TextRows returns the grid as rows of cell text.
func (g *TableGrid) TextRows() [][]string {
	rows := make([][]string, len(g.Cells))
	for i, row := range g.Cells {
		rows[i] = make([]string, len(row))
		for j, cell := range row {
			rows[i][j] = cell.Text
		}
	}
	return rows
}

// WordConfidenceRows returns the grid as rows of average word confidence.
func (g *TableGrid) WordConfidenceRows() [][]float64 {
	rows := make([][]float64, len(g.Cells))
	for i, row := range g.Cells {
		rows[i] = make([]float64, len(row))
		for j, cell := range row {
			rows[i][j] = cell.WordConfidence.Value()
		}
	}
	return rows
}

// CellConfidenceRows returns the grid as rows of cell confidence.
func (g *TableGrid) CellConfidenceRows() [][]float64 {
	rows := make([][]float64, len(g.Cells))
	for i, row := range g.Cells {
		rows[i] = make([]float64, len(row))
		for j, cell := range row {
			rows[i][j] = cell.CellConfidence.Value()
		}
	}
	return rows
}

// TableAsGrid reconstructs the table identified by id as a dense grid. The
// reconstruction assumes row and column indices form a contiguous 1..N range
// in both dimensions and fails with a MalformedInputError if a coordinate is
// missing. Merged cells surface as repeated coordinates; the first block
// seen for a coordinate wins, which is lossy but matches the one-cell-per-
// index model of this reconstruction.
func (p *Parser) TableAsGrid(id BlockID) (*TableGrid, error) {
	table, ok := p.blocks[id]
	if !ok {
		return nil, &MalformedInputError{BlockID: id, Reason: "no such table block"}
	}
	if table.BlockType != BlockTypeTable {
		return nil, &MalformedInputError{
			BlockID: id,
			Reason:  fmt.Sprintf("block is a %s, not a TABLE", table.BlockType),
		}
	}

	rows := make(map[int]map[int]Cell)
	for _, rel := range table.Relationships {
		if rel.Type != RelationshipChild {
			continue
		}
		for _, childID := range rel.IDs {
			// Presence is guaranteed by NewParser.
			child := p.blocks[childID]
			if child.BlockType != BlockTypeCell {
				continue
			}
			r, c := child.RowIndex, child.ColumnIndex
			if rows[r] == nil {
				rows[r] = make(map[int]Cell)
			}
			if _, dup := rows[r][c]; dup {
				continue
			}
			rows[r][c] = p.cellValues(child)
		}
	}

	if len(rows) == 0 {
		return nil, &MalformedInputError{BlockID: id, Reason: "table has no CELL children"}
	}

	// Densify: row count is the number of distinct row indices, column count
	// is taken from row 1.
	nrows := len(rows)
	first, ok := rows[1]
	if !ok {
		return nil, &MalformedInputError{BlockID: id, Reason: "table has no row 1; row indices must start at 1"}
	}
	ncols := len(first)

	grid := make([][]Cell, nrows)
	for i := 0; i < nrows; i++ {
		grid[i] = make([]Cell, ncols)
		for j := 0; j < ncols; j++ {
			cell, ok := rows[i+1][j+1]
			if !ok {
				return nil, &MalformedInputError{
					BlockID: id,
					Reason:  fmt.Sprintf("no cell at row %d, column %d; indices must be contiguous from 1", i+1, j+1),
				}
			}
			grid[i][j] = cell
		}
	}

	return &TableGrid{TableID: id, Page: table.Page, Cells: grid}, nil
}

// AllTables reconstructs every table in the collection, keyed by table id.
// Iteration over TableIDs preserves the input order of the tables.
func (p *Parser) AllTables() (map[BlockID]*TableGrid, error) {
	grids := make(map[BlockID]*TableGrid, len(p.tableIDs))
	for _, id := range p.tableIDs {
		grid, err := p.TableAsGrid(id)
		if err != nil {
			return nil, err
		}
		grids[id] = grid
	}
	return grids, nil
}

// cellValues derives the text and confidence values of one CELL block. The
// text concatenates the cell's WORD children in relationship order with
// single spaces, a SELECTED selection element contributing a literal "X".
func (p *Parser) cellValues(cell *Block) Cell {
	var text strings.Builder
	var confidences []float64

	for _, rel := range cell.Relationships {
		if rel.Type != RelationshipChild {
			continue
		}
		for _, childID := range rel.IDs {
			child := p.blocks[childID]
			switch child.BlockType {
			case BlockTypeWord:
				text.WriteString(child.Text)
				text.WriteString(" ")
				if child.Confidence != nil {
					confidences = append(confidences, *child.Confidence)
				}
			case BlockTypeSelectionElement:
				if child.SelectionStatus == SelectionSelected {
					text.WriteString("X ")
				}
			}
		}
	}

	cellConfidence := Unmeasured()
	if cell.Confidence != nil {
		cellConfidence = Measured(*cell.Confidence)
	}

	wordConfidence := Unmeasured()
	if len(confidences) > 0 {
		var sum float64
		for _, c := range confidences {
			sum += c
		}
		wordConfidence = Measured(sum / float64(len(confidences)))
	}

	return Cell{
		Text:           strings.TrimSuffix(text.String(), " "),
		CellConfidence: cellConfidence,
		WordConfidence: wordConfidence,
	}
}
