// textlift is a command-line tool for turning OCR block output into
// selectable PDFs and table exports.
//
// Given a Textract analysis result (the block JSON) and the page images of
// the source document, it builds a PDF whose pages show the original raster
// unchanged while carrying an invisible text layer at the exact position of
// each recognized word. It can also dump every table detected in the block
// graph as CSV.
//
// Usage:
//
//	textlift -blocks blocks.json [options]
//
// Required flags:
//
//	-blocks string     Path to the Textract block JSON file
//
// Output options (one required):
//
//	-image-dir string  Directory containing one page image per document page
//	-output string     Output PDF path (used with -image-dir)
//	-tables-dir string Write each detected table as CSV into this directory
//
// Processing options:
//
//	-dpi int           DPI the page images were rendered at (default 200)
//	-sep string        CSV value separator (default ",")
//	-debug             Render the OCR text visibly
//	-word-boxes        Stroke the detected word bounding boxes
//	-overwrite         Overwrite the output PDF if it already exists
//	-verify            Scan the output PDF for the OCR layer after writing
//
// Examples:
//
// Build a selectable PDF from page images:
//
//	textlift -blocks blocks.json -image-dir ./page_images -output report_selectable.pdf
//
// Dump the detected tables as CSV:
//
//	textlift -blocks blocks.json -tables-dir ./tables -sep ";"
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/textlift/textlift/pkg/overlay"
	"github.com/textlift/textlift/pkg/textract"
)

func main() {
	blocksPath := flag.String("blocks", "", "Path to the Textract block JSON file")
	imageDirPath := flag.String("image-dir", "", "Directory containing one page image per document page")
	outputPath := flag.String("output", "", "Output PDF path")
	tablesDir := flag.String("tables-dir", "", "Write each detected table as CSV into this directory")
	sep := flag.String("sep", ",", "CSV value separator")
	dpi := flag.Int("dpi", 200, "DPI the page images were rendered at")
	debug := flag.Bool("debug", false, "Render the OCR text visibly")
	wordBoxes := flag.Bool("word-boxes", false, "Stroke the detected word bounding boxes")
	overwriteOutput := flag.Bool("overwrite", false, "Overwrite the output PDF if it already exists")
	verify := flag.Bool("verify", false, "Scan the output PDF for the OCR layer after writing")
	flag.Parse()

	if *blocksPath == "" {
		fmt.Println("Error: Must provide -blocks path")
		os.Exit(1)
	}
	if *imageDirPath == "" && *tablesDir == "" {
		fmt.Println("Error: Must provide either -image-dir or -tables-dir")
		os.Exit(1)
	}

	blockData, err := os.ReadFile(*blocksPath)
	if err != nil {
		fmt.Printf("Failed to read block file: %v\n", err)
		os.Exit(1)
	}
	blocks, err := textract.DecodeBlocks(blockData)
	if err != nil {
		fmt.Printf("Failed to decode blocks: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded %d blocks from %s\n", len(blocks), *blocksPath)

	if *tablesDir != "" {
		if err := exportTables(blocks, *tablesDir, *sep); err != nil {
			fmt.Printf("Error exporting tables: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *outputPath == "" {
		fmt.Println("Error: Must provide -output path with -image-dir")
		os.Exit(1)
	}
	if _, err := os.Stat(*outputPath); err == nil {
		if !*overwriteOutput {
			fmt.Printf("Output file %s already exists. Use -overwrite to overwrite.\n", *outputPath)
			os.Exit(1)
		}
		os.Remove(*outputPath)
	}

	imagePaths, err := filepath.Glob(filepath.Join(*imageDirPath, "*"))
	if err != nil {
		fmt.Printf("Error accessing image directory: %v\n", err)
		os.Exit(1)
	}
	sort.Strings(imagePaths)
	fmt.Printf("Found %d image files in %s\n", len(imagePaths), *imageDirPath)

	var rasters []overlay.PageRaster
	for _, imgPath := range imagePaths {
		imgBytes, err := os.ReadFile(imgPath)
		if err != nil {
			fmt.Printf("Failed to read image %s: %v\n", imgPath, err)
			os.Exit(1)
		}
		raster, err := overlay.RasterFromImage(imgBytes, *dpi)
		if err != nil {
			fmt.Printf("Failed to load image %s: %v\n", imgPath, err)
			os.Exit(1)
		}
		rasters = append(rasters, raster)
	}

	config := overlay.DefaultConfig()
	config.Debug = *debug
	config.DrawWordBoxes = *wordBoxes
	config.DPI = *dpi

	finalPDF, err := overlay.AssembleSearchable(rasters, blocks, config)
	if err != nil {
		fmt.Printf("Error creating selectable PDF: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile(*outputPath, finalPDF, 0666); err != nil {
		fmt.Printf("Failed to write output PDF: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Selectable PDF created:", *outputPath)

	if *verify {
		result, err := overlay.CheckOCRLayers(finalPDF, config.LayerName)
		if err != nil {
			fmt.Printf("Layer verification failed: %v\n", err)
			os.Exit(1)
		}
		if !result.HasOCRLayer {
			fmt.Printf("Warning: no OCR layer detected in output (layers found: %v)\n", result.Layers)
			os.Exit(1)
		}
		fmt.Printf("Verified OCR layer: %s\n", result.OCRLayerName)
	}
}

// exportTables reconstructs every table in the block graph and writes one
// CSV file per table into dir.
func exportTables(blocks []textract.Block, dir, sep string) error {
	parser, err := textract.NewParser(blocks)
	if err != nil {
		return err
	}
	fmt.Println(parser)

	grids, err := parser.AllTables()
	if err != nil {
		return err
	}
	if len(grids) == 0 {
		fmt.Println("No tables detected")
		return nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	for i, id := range parser.TableIDs() {
		grid := grids[id]
		name := filepath.Join(dir, fmt.Sprintf("table_%02d.csv", i+1))
		if err := os.WriteFile(name, []byte(grid.CSV(sep)), 0666); err != nil {
			return err
		}
		fmt.Printf("Wrote %s (%dx%d, page %d)\n", name, grid.Rows(), grid.Columns(), grid.Page)
	}
	return nil
}
