package overlay

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"regexp"
	"strings"
	"testing"

	"github.com/textlift/textlift/pkg/geometry"
	"github.com/textlift/textlift/pkg/textract"
)

// pagePNG encodes a white w-by-h PNG
func pagePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test PNG: %v", err)
	}
	return buf.Bytes()
}

// wordOnPage creates a WORD block with the given normalized geometry
func wordOnPage(text string, page int, left, top, width, height float64) textract.Block {
	return textract.Block{
		ID:        textract.BlockID("word-" + text),
		BlockType: textract.BlockTypeWord,
		Text:      text,
		Page:      page,
		Geometry: &textract.Geometry{
			BoundingBox: geometry.NormalizedBox{Left: left, Top: top, Width: width, Height: height},
		},
	}
}

func TestRasterFromImage(t *testing.T) {
	raster, err := RasterFromImage(pagePNG(t, 1600, 2000), 144)
	if err != nil {
		t.Fatalf("RasterFromImage failed: %v", err)
	}
	if raster.Width != 800 {
		t.Errorf("Expected width 800, got %f", raster.Width)
	}
	if raster.Height != 1000 {
		t.Errorf("Expected height 1000, got %f", raster.Height)
	}
}

func TestRasterFromImageRejectsBadInput(t *testing.T) {
	if _, err := RasterFromImage([]byte("not an image"), 200); err == nil {
		t.Error("expected error for invalid image data")
	}
	if _, err := RasterFromImage(pagePNG(t, 10, 10), 0); err == nil {
		t.Error("expected error for non-positive dpi")
	}
}

func TestFitFontSizePositive(t *testing.T) {
	c := NewCompositor(DefaultConfig())

	size, ok := c.fitFontSize("Hello", 160)
	if !ok {
		t.Fatal("expected a font size for a non-empty word")
	}
	if size <= 0 {
		t.Errorf("Expected positive font size, got %f", size)
	}
	if size != float64(int(size)) {
		t.Errorf("Expected integral font size, got %f", size)
	}
}

func TestFitFontSizeDoublesWithBoxWidth(t *testing.T) {
	c := NewCompositor(DefaultConfig())

	single, ok := c.fitFontSize("Hello", 100)
	if !ok {
		t.Fatal("expected a font size")
	}
	double, ok := c.fitFontSize("Hello", 200)
	if !ok {
		t.Fatal("expected a font size")
	}

	// Doubling the box width doubles the size, floor truncation aside.
	if double != 2*single && double != 2*single+1 {
		t.Errorf("Expected doubled size near %f, got %f", 2*single, double)
	}
}

func TestFitFontSizeSkipsEmptyWord(t *testing.T) {
	c := NewCompositor(DefaultConfig())

	if _, ok := c.fitFontSize("", 100); ok {
		t.Error("expected empty word to be skipped")
	}
}

func TestAssembleSearchableSinglePage(t *testing.T) {
	rasters := []PageRaster{{Image: pagePNG(t, 800, 1000), Width: 800, Height: 1000}}
	blocks := []textract.Block{
		wordOnPage("Hello", 1, 0.1, 0.1, 0.2, 0.05),
	}

	pdfData, err := AssembleSearchable(rasters, blocks, DefaultConfig())
	if err != nil {
		t.Fatalf("AssembleSearchable failed: %v", err)
	}
	if !bytes.HasPrefix(pdfData, []byte("%PDF")) {
		t.Error("expected output to start with a PDF header")
	}

	result, err := CheckOCRLayers(pdfData, DefaultConfig().LayerName)
	if err != nil {
		t.Fatalf("layer check failed: %v", err)
	}
	if !result.HasOCRLayer {
		t.Errorf("expected an OCR layer in the output, found layers: %v", result.Layers)
	}
}

func TestAssembleSearchableMultiPage(t *testing.T) {
	rasters := []PageRaster{
		{Image: pagePNG(t, 200, 300), Width: 200, Height: 300},
		{Image: pagePNG(t, 200, 300), Width: 200, Height: 300},
	}
	blocks := []textract.Block{
		wordOnPage("first", 1, 0.1, 0.1, 0.3, 0.05),
		wordOnPage("second", 2, 0.2, 0.4, 0.3, 0.05),
	}

	c := NewCompositor(DefaultConfig())
	for i, raster := range rasters {
		if err := c.AddPage(raster, []textract.Block{blocks[i]}); err != nil {
			t.Fatalf("AddPage %d failed: %v", i+1, err)
		}
	}
	if c.PageCount() != 2 {
		t.Errorf("Expected 2 pages, got %d", c.PageCount())
	}

	if _, err := c.Output(); err != nil {
		t.Fatalf("Output failed: %v", err)
	}
}

func TestAssembleSearchablePageOutOfRange(t *testing.T) {
	rasters := []PageRaster{{Image: pagePNG(t, 100, 100), Width: 100, Height: 100}}
	blocks := []textract.Block{
		wordOnPage("stray", 2, 0.1, 0.1, 0.2, 0.05),
	}

	_, err := AssembleSearchable(rasters, blocks, DefaultConfig())
	var pageErr *PageIndexError
	if !errors.As(err, &pageErr) {
		t.Fatalf("expected PageIndexError, got %v", err)
	}
	if pageErr.Page != 2 || pageErr.Pages != 1 {
		t.Errorf("unexpected error detail: %+v", pageErr)
	}
}

func TestNonWordBlocksAndEmptyWordsAreSkipped(t *testing.T) {
	rasters := []PageRaster{{Image: pagePNG(t, 100, 100), Width: 100, Height: 100}}
	blocks := []textract.Block{
		// A LINE block with an out-of-range page must not trip the page
		// check; only WORD blocks are overlaid.
		{ID: "line-1", BlockType: textract.BlockTypeLine, Page: 9},
		wordOnPage("", 1, 0.1, 0.1, 0.2, 0.05),
		{ID: "word-nogeom", BlockType: textract.BlockTypeWord, Text: "x", Page: 1},
	}

	pdfData, err := AssembleSearchable(rasters, blocks, DefaultConfig())
	if err != nil {
		t.Fatalf("AssembleSearchable failed: %v", err)
	}
	if len(pdfData) == 0 {
		t.Error("expected non-empty output")
	}
}

func TestWordTextLandsAtScaledBaseline(t *testing.T) {
	c := NewCompositor(DefaultConfig())
	c.pdf.SetCompression(false)

	raster := PageRaster{Image: pagePNG(t, 800, 1000), Width: 800, Height: 1000}
	if err := c.AddPage(raster, []textract.Block{
		wordOnPage("Hello", 1, 0.1, 0.1, 0.2, 0.05),
	}); err != nil {
		t.Fatalf("AddPage failed: %v", err)
	}
	pdfData, err := c.Output()
	if err != nil {
		t.Fatalf("Output failed: %v", err)
	}
	content := string(pdfData)

	// The box {0.1, 0.1, 0.2, 0.05} on an 800x1000pt page puts the word's
	// baseline at (80, 150): left scales by the width, bottom = top + height
	// scales by the height. fpdf writes text as "x (pageHeight-y) Td", so
	// y=150 appears as 850.
	if !strings.Contains(content, "BT 80.00 850.00 Td (Hello) Tj ET") {
		t.Error("expected the word's text run at baseline (80, 150)")
	}
	if n := strings.Count(content, "Tj ET"); n != 1 {
		t.Errorf("expected exactly one text run, got %d", n)
	}
}

func TestWordBoxesStrokeOpaquelyWhenTextHidden(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DrawWordBoxes = true

	c := NewCompositor(cfg)
	c.pdf.SetCompression(false)

	raster := PageRaster{Image: pagePNG(t, 800, 1000), Width: 800, Height: 1000}
	if err := c.AddPage(raster, []textract.Block{
		wordOnPage("Hello", 1, 0.1, 0.1, 0.2, 0.05),
	}); err != nil {
		t.Fatalf("AddPage failed: %v", err)
	}
	pdfData, err := c.Output()
	if err != nil {
		t.Fatalf("Output failed: %v", err)
	}
	content := string(pdfData)

	rectAt := strings.Index(content, " re S")
	if rectAt < 0 {
		t.Fatal("expected a stroked word rectangle in the content stream")
	}

	// The first graphics state after the layer opens is the alpha-0 state
	// that hides the text. The rectangle must be stroked under a different
	// state, or the boxes are invisible.
	gsOps := regexp.MustCompile(`/GS\d+ gs`).FindAllStringIndex(content, -1)
	var hideGS, rectGS string
	for _, span := range gsOps {
		if span[0] > rectAt {
			break
		}
		op := content[span[0]:span[1]]
		if hideGS == "" {
			hideGS = op
		}
		rectGS = op
	}
	if hideGS == "" {
		t.Fatal("expected graphics state changes before the rectangle")
	}
	if rectGS == hideGS {
		t.Errorf("rectangle stroked in the text-hiding state %s; boxes must stay visible", rectGS)
	}

	// The text after the rectangle still renders hidden.
	textAt := strings.Index(content[rectAt:], "BT ")
	if textAt < 0 {
		t.Fatal("expected a text run after the rectangle")
	}
	if !strings.Contains(content[rectAt:rectAt+textAt], hideGS) {
		t.Error("expected the text-hiding state to be restored before the text run")
	}
}

func TestDebugModeOutput(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Debug = true
	cfg.DrawWordBoxes = true

	rasters := []PageRaster{{Image: pagePNG(t, 400, 400), Width: 400, Height: 400}}
	blocks := []textract.Block{wordOnPage("debug", 1, 0.25, 0.25, 0.5, 0.1)}

	pdfData, err := AssembleSearchable(rasters, blocks, cfg)
	if err != nil {
		t.Fatalf("AssembleSearchable failed: %v", err)
	}
	if !bytes.HasPrefix(pdfData, []byte("%PDF")) {
		t.Error("expected output to start with a PDF header")
	}
}
