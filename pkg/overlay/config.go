package overlay

// Config holds user options for the overlay compositor.
type Config struct {
	Debug         bool   // render the text visibly in the highlight color
	DrawWordBoxes bool   // stroke the detected word rectangles
	DPI           int    // DPI the page rasters were rendered at
	LayerName     string // base name of the OCR layer (page number will be appended)
	Font          FontConfig
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Debug:         false,
		DrawWordBoxes: false,
		DPI:           200,
		LayerName:     "OCR Text", // formatted as "OCR Text (Page X)" in the final PDF
		Font:          DefaultFont,
	}
}

// FontConfig contains font settings for the OCR text rendering.
type FontConfig struct {
	Name          string  // font name (e.g. "Helvetica")
	Style         string  // font style ("", "B", "I", "BI")
	ReferenceSize float64 // size a word's natural width is measured at before fitting
}

// DefaultFont sets the default font to Helvetica which is tried and tested
// for the OCR layer. The reference size of 15 is what the width fit solves
// against.
var DefaultFont = FontConfig{
	Name:          "Helvetica",
	Style:         "",
	ReferenceSize: 15,
}

// Stroke width of the debug word rectangles, in points.
const boxStrokeWidth = 0.7

// Highlight color for debug text and word boxes, a red-ish crimson.
var highlightColor = struct{ R, G, B int }{220, 20, 60}
