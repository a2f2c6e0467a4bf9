package overlay

import (
	"fmt"
	"regexp"
	"strings"
)

// LayerCheckResult reports what the layer scan found in a PDF.
type LayerCheckResult struct {
	Layers       []string // all detected layer names
	HasOCRLayer  bool     // true if the named OCR layer exists
	OCRLayerName string   // the matched layer name, if any
	Warnings     []string // layers that look like OCR but did not match
}

var ocgNamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`/Type\s*/OCG\s*/Name\s*\(([^)]+)\)`),
	regexp.MustCompile(`<</Type/OCG/Name\(([^)]+)\)`),
	regexp.MustCompile(`/OCG\s*<<[^>]*?/Name\s*\(([^)]+)\)`),
	regexp.MustCompile(`/Name\s*\(([^)]+)\)[\s\S]{1,50}/Type\s*/OCG`),
}

// detectPDFLayers finds optional-content-group layer names in raw PDF data.
func detectPDFLayers(pdfData []byte) ([]string, error) {
	if len(pdfData) == 0 {
		return nil, fmt.Errorf("empty PDF data")
	}

	content := string(pdfData)
	var layers []string
	for _, pattern := range ocgNamePatterns {
		for _, match := range pattern.FindAllStringSubmatch(content, -1) {
			layers = append(layers, unescapePDFString(match[1]))
		}
	}

	// Layer names may be written as UTF-16BE with a BOM.
	for i, layer := range layers {
		if len(layer) >= 2 && layer[0] == '\xfe' && layer[1] == '\xff' {
			if decoded, err := decodeUTF16BE([]byte(layer)); err == nil {
				layers[i] = decoded
			}
		}
	}

	unique := make([]string, 0, len(layers))
	seen := make(map[string]bool)
	for _, layer := range layers {
		if !seen[layer] {
			seen[layer] = true
			unique = append(unique, layer)
		}
	}
	return unique, nil
}

// CheckOCRLayers scans a PDF for layers written by this package (or another
// OCR tool). Useful to verify an output actually carries its text layer, or
// to warn before processing a document that was already overlaid.
func CheckOCRLayers(pdfData []byte, ocrLayerName string) (LayerCheckResult, error) {
	result := LayerCheckResult{}

	layers, err := detectPDFLayers(pdfData)
	if err != nil {
		return result, fmt.Errorf("cannot analyze layers: %w", err)
	}
	result.Layers = layers

	// The compositor appends " (Page N)" to the base layer name. The
	// pattern is lenient about the closing paren: UTF-16 names recovered
	// from the raw byte scan can lose their final character.
	pageLayerPattern := regexp.MustCompile(fmt.Sprintf(`^%s\s*\(Page\s*\d+.*`, regexp.QuoteMeta(ocrLayerName)))

	for _, layer := range layers {
		if layer == ocrLayerName || pageLayerPattern.MatchString(layer) {
			result.HasOCRLayer = true
			result.OCRLayerName = layer
			break
		}
		if strings.Contains(strings.ToLower(layer), "ocr") {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("existing layer might contain OCR: %s", layer))
		}
	}

	return result, nil
}

func unescapePDFString(s string) string {
	s = strings.ReplaceAll(s, `\(`, "(")
	s = strings.ReplaceAll(s, `\)`, ")")
	s = strings.ReplaceAll(s, `\\`, `\`)
	return s
}

func decodeUTF16BE(b []byte) (string, error) {
	if len(b) < 2 || b[0] != 0xFE || b[1] != 0xFF {
		return "", fmt.Errorf("no BOM detected, cannot confirm UTF-16BE")
	}
	b = b[2:]
	var runes []rune
	for i := 0; i+1 < len(b); i += 2 {
		runes = append(runes, rune(uint16(b[i])<<8|uint16(b[i+1])))
	}
	return string(runes), nil
}
