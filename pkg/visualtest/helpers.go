package visualtest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"svgtrav/pkg/raster"
	"svgtrav/pkg/svgdoc"
)

// RenderSVGToFile renders SVG source to a PNG file. A zero width or height
// uses the document's own size. Relative image references resolve against
// basePath.
func RenderSVGToFile(src, outputPath string, width, height int, basePath string) error {
	doc, err := svgdoc.Open(strings.NewReader(src), svgdoc.Options{BaseURL: basePath})
	if err != nil {
		return fmt.Errorf("parse error: %w", err)
	}
	if width <= 0 || height <= 0 {
		width, height = doc.Size()
	}

	renderer := raster.NewRenderer(width, height)
	if err := doc.Paint(renderer); err != nil {
		return fmt.Errorf("layout error: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := renderer.SavePNG(outputPath); err != nil {
		return fmt.Errorf("save error: %w", err)
	}
	return nil
}

// RenderSVGFile renders an SVG file to a PNG file
func RenderSVGFile(svgPath, outputPath string, width, height int) error {
	src, err := os.ReadFile(svgPath)
	if err != nil {
		return fmt.Errorf("failed to read SVG file: %w", err)
	}
	return RenderSVGToFile(string(src), outputPath, width, height, filepath.Dir(svgPath))
}
