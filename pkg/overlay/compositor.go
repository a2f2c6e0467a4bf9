// Package overlay builds image-backed PDFs that carry a selectable text
// layer positioned over the recognized words of each page.
//
// The output pages show the original raster unchanged; the text layer is
// invisible by default (fill opacity zero), so the page stays visually
// identical while becoming searchable and text selectable. In debug mode the
// text renders visibly in a highlight color and the detected word rectangles
// can be stroked.
//
// Because the output is rebuilt from rasters, any selectable text the source
// document already had is discarded. This is intentional: it avoids
// overlaying characters on characters when the source mixes pixel and
// selectable text.
package overlay

import (
	"bytes"
	"fmt"
	"image"
	"math"
	"strings"

	_ "image/jpeg"
	_ "image/png"

	"codeberg.org/go-pdf/fpdf"
	"golang.org/x/text/encoding/charmap"

	"github.com/textlift/textlift/pkg/geometry"
	"github.com/textlift/textlift/pkg/textract"
)

// PageIndexError reports a WORD block whose page number points outside the
// raster list, i.e. blocks and rasters from different documents.
type PageIndexError struct {
	Page  int
	Pages int
}

func (e *PageIndexError) Error() string {
	return fmt.Sprintf("block page %d out of range: document has %d pages", e.Page, e.Pages)
}

// PageRaster is one source page rendered to an image, together with the
// logical page size in points the output page keeps.
type PageRaster struct {
	Image  []byte  // PNG or JPEG bytes
	Width  float64 // logical page width in points
	Height float64 // logical page height in points
}

// RasterFromImage builds a PageRaster from image bytes rendered at the given
// DPI, deriving the logical page size from the pixel dimensions.
func RasterFromImage(data []byte, dpi int) (PageRaster, error) {
	if dpi <= 0 {
		return PageRaster{}, fmt.Errorf("dpi must be positive, got %d", dpi)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return PageRaster{}, fmt.Errorf("failed to decode image config: %w", err)
	}
	return PageRaster{
		Image:  data,
		Width:  float64(cfg.Width) * 72 / float64(dpi),
		Height: float64(cfg.Height) * 72 / float64(dpi),
	}, nil
}

// Compositor assembles the output document page by page. It is not safe for
// concurrent use; pages of independent documents can be composited in
// parallel with separate compositors.
type Compositor struct {
	cfg   Config
	pdf   *fpdf.Fpdf
	pages int
}

// NewCompositor prepares an empty output document.
func NewCompositor(cfg Config) *Compositor {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetFont(cfg.Font.Name, cfg.Font.Style, cfg.Font.ReferenceSize)
	return &Compositor{cfg: cfg, pdf: pdf}
}

// AddPage appends one output page built from the raster and overlays every
// WORD block belonging to that page. Blocks of any other type, and word
// blocks tagged with a different page number, are skipped.
func (c *Compositor) AddPage(raster PageRaster, blocks []textract.Block) error {
	c.pages++
	pageNum := c.pages

	c.pdf.AddPageFormat("P", fpdf.SizeType{Wd: raster.Width, Ht: raster.Height})

	imageName := fmt.Sprintf("page%d", pageNum)
	imageType, err := detectImageType(raster.Image)
	if err != nil {
		return fmt.Errorf("failed to detect image type for page %d: %w", pageNum, err)
	}
	opts := fpdf.ImageOptions{ReadDpi: false, ImageType: imageType}
	c.pdf.RegisterImageOptionsReader(imageName, opts, bytes.NewReader(raster.Image))
	c.pdf.ImageOptions(imageName, 0, 0, raster.Width, raster.Height, false, opts, 0, "")

	layer := c.pdf.AddLayer(fmt.Sprintf("%s (Page %d)", c.cfg.LayerName, pageNum), true)
	c.pdf.BeginLayer(layer)
	if c.cfg.Debug {
		c.pdf.SetTextColor(highlightColor.R, highlightColor.G, highlightColor.B)
	} else {
		c.pdf.SetAlpha(0.0, "Normal") // hide the text from normal view
	}

	for _, blk := range blocks {
		if blk.BlockType != textract.BlockTypeWord {
			continue
		}
		if blk.Page != pageNum {
			continue
		}
		c.drawWord(raster, blk)
	}

	c.pdf.EndLayer()
	if !c.cfg.Debug {
		c.pdf.SetAlpha(1.0, "Normal")
	}

	return nil
}

// drawWord paints a single word at its detected position, sized so the glyph
// run covers the same width as the original pixels.
func (c *Compositor) drawWord(raster PageRaster, blk textract.Block) {
	if blk.Geometry == nil {
		return
	}

	// Normalized coordinates are width/height-relative, so the scale to page
	// units is non-uniform.
	box := geometry.FromNormalized(blk.Geometry.BoundingBox)
	box.Scale(raster.Width, raster.Height)

	if c.cfg.DrawWordBoxes {
		// The alpha-0 state hides strokes too, so the boxes are drawn at
		// full opacity and the state restored before the text.
		if !c.cfg.Debug {
			c.pdf.SetAlpha(1.0, "Normal")
		}
		c.pdf.SetDrawColor(highlightColor.R, highlightColor.G, highlightColor.B)
		c.pdf.SetLineWidth(boxStrokeWidth)
		c.pdf.Rect(box.Left, box.Top, box.Width(), box.Height(), "D")
		if !c.cfg.Debug {
			c.pdf.SetAlpha(0.0, "Normal")
		}
	}

	// fpdf core fonts cannot encode text outside ISO-8859-1.
	text, err := charmap.ISO8859_1.NewEncoder().String(blk.Text)
	if err != nil {
		text = blk.Text
	}

	size, ok := c.fitFontSize(text, box.Width())
	if !ok {
		// Empty or unmeasurable words would divide by zero. These are a
		// known artifact of the OCR source and are skipped, not errors.
		return
	}

	c.pdf.SetFontSize(size)
	c.pdf.Text(box.Left, box.Bottom, text) // baseline at the bottom-left corner
	c.pdf.SetFontSize(c.cfg.Font.ReferenceSize)
}

// fitFontSize solves for the integral font size at which the word's rendered
// width matches boxWidth, given the width measured at the reference size.
// The fit keeps the reference font's aspect ratio rather than fitting each
// glyph; the result is always a non-negative integer value.
func (c *Compositor) fitFontSize(text string, boxWidth float64) (float64, bool) {
	if len(text) == 0 {
		return 0, false
	}
	referenceWidth := c.pdf.GetStringWidth(text)
	if referenceWidth <= 0 {
		return 0, false
	}
	return math.Floor((boxWidth / referenceWidth) * c.cfg.Font.ReferenceSize), true
}

// PageCount returns the number of pages added so far.
func (c *Compositor) PageCount() int {
	return c.pages
}

// Output finalizes the document and returns the PDF bytes.
func (c *Compositor) Output() ([]byte, error) {
	var buf bytes.Buffer
	if err := c.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// AssembleSearchable builds the complete output document: one page per
// raster, each carrying its page's WORD blocks as a selectable layer. A
// block whose page number falls outside the raster list is a fatal
// PageIndexError; it means the blocks belong to a different document.
func AssembleSearchable(rasters []PageRaster, blocks []textract.Block, cfg Config) ([]byte, error) {
	byPage := make(map[int][]textract.Block)
	for _, blk := range blocks {
		if blk.BlockType != textract.BlockTypeWord {
			continue
		}
		if blk.Page < 1 || blk.Page > len(rasters) {
			return nil, &PageIndexError{Page: blk.Page, Pages: len(rasters)}
		}
		byPage[blk.Page] = append(byPage[blk.Page], blk)
	}

	c := NewCompositor(cfg)
	for i, raster := range rasters {
		if err := c.AddPage(raster, byPage[i+1]); err != nil {
			return nil, err
		}
	}
	return c.Output()
}

// detectImageType tries to figure out whether the data is PNG, JPEG, etc.
func detectImageType(data []byte) (string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to decode image config: %w", err)
	}
	return strings.ToUpper(format), nil
}
