package textract

import "strings"

// CSV renders the grid's text values, rows separated by newlines and values
// joined by sep. An empty sep defaults to ",".
func (g *TableGrid) CSV(sep string) string {
	if sep == "" {
		sep = ","
	}
	var sb strings.Builder
	for _, row := range g.Cells {
		for j, cell := range row {
			if j > 0 {
				sb.WriteString(sep)
			}
			sb.WriteString(cell.Text)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
