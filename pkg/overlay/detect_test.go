package overlay

import "testing"

func TestDetectPDFLayersASCII(t *testing.T) {
	data := []byte(`%PDF-1.4
1 0 obj <</Type /OCG /Name (My Layer)>> endobj
2 0 obj <</Type /OCG /Name (Tesseract OCR output)>> endobj`)

	layers, err := detectPDFLayers(data)
	if err != nil {
		t.Fatalf("detectPDFLayers failed: %v", err)
	}
	if len(layers) != 2 {
		t.Fatalf("expected 2 layers, got %v", layers)
	}
	if layers[0] != "My Layer" {
		t.Errorf("unexpected layer name: %q", layers[0])
	}
}

func TestDetectPDFLayersEmptyInput(t *testing.T) {
	if _, err := detectPDFLayers(nil); err == nil {
		t.Error("expected error for empty data")
	}
}

func TestCheckOCRLayersMatchAndWarning(t *testing.T) {
	data := []byte(`<</Type /OCG /Name (OCR Text \(Page 1\))>>
<</Type /OCG /Name (legacy ocr dump)>>`)

	result, err := CheckOCRLayers(data, "OCR Text")
	if err != nil {
		t.Fatalf("CheckOCRLayers failed: %v", err)
	}
	if !result.HasOCRLayer {
		t.Errorf("expected OCR layer match, layers: %v", result.Layers)
	}
}

func TestCheckOCRLayersWarnsOnForeignOCR(t *testing.T) {
	data := []byte(`<</Type /OCG /Name (tesseract ocr layer)>>`)

	result, err := CheckOCRLayers(data, "OCR Text")
	if err != nil {
		t.Fatalf("CheckOCRLayers failed: %v", err)
	}
	if result.HasOCRLayer {
		t.Error("foreign layer must not count as our OCR layer")
	}
	if len(result.Warnings) == 0 {
		t.Error("expected a warning about a potential OCR layer")
	}
}

func TestUnescapePDFString(t *testing.T) {
	if got := unescapePDFString(`a\(b\)c\\d`); got != `a(b)c\d` {
		t.Errorf("unexpected unescape result: %q", got)
	}
}

func TestDecodeUTF16BE(t *testing.T) {
	encoded := []byte{0xFE, 0xFF, 0x00, 'O', 0x00, 'C', 0x00, 'R'}
	decoded, err := decodeUTF16BE(encoded)
	if err != nil {
		t.Fatalf("decodeUTF16BE failed: %v", err)
	}
	if decoded != "OCR" {
		t.Errorf("expected OCR, got %q", decoded)
	}

	if _, err := decodeUTF16BE([]byte{0x00, 'x'}); err == nil {
		t.Error("expected error without BOM")
	}
}
