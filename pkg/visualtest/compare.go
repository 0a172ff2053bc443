// Package visualtest compares rendered images against references.
package visualtest

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
)

// CompareResult contains the results of an image comparison
type CompareResult struct {
	Match           bool
	DifferentPixels int
	TotalPixels     int
	MaxDifference   int // Max color channel difference found
}

// CompareOptions configures the image comparison
type CompareOptions struct {
	// Tolerance: maximum allowed difference per color channel (0-255)
	// Recommended: 2-5 for anti-aliasing differences, 0 for exact match
	Tolerance int

	// FuzzyRadius: if > 0, a pixel matches if it matches any pixel within this radius
	FuzzyRadius int

	// MaxDifferentPercent: if > 0, pass if the percentage of different pixels is <= this value
	MaxDifferentPercent float64

	// Region limits the comparison to a rectangle; empty compares everything.
	Region image.Rectangle

	// SaveDiffImage: if true, saves a diff image highlighting differences
	SaveDiffImage bool
	DiffImagePath string
}

// DefaultOptions returns sensible defaults for image comparison
func DefaultOptions() CompareOptions {
	return CompareOptions{Tolerance: 2}
}

// LoadPNG decodes the PNG file at path.
func LoadPNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return img, nil
}

// CompareImages compares two PNG images pixel-by-pixel
func CompareImages(actualPath, expectedPath string, opts CompareOptions) (*CompareResult, error) {
	actual, err := LoadPNG(actualPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load actual image: %w", err)
	}
	expected, err := LoadPNG(expectedPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load expected image: %w", err)
	}
	return Compare(actual, expected, opts)
}

// Compare compares two decoded images pixel-by-pixel.
func Compare(actual, expected image.Image, opts CompareOptions) (*CompareResult, error) {
	bounds := actual.Bounds()
	if bounds != expected.Bounds() {
		return &CompareResult{Match: false},
			fmt.Errorf("image dimensions differ: actual=%v, expected=%v", bounds, expected.Bounds())
	}
	area := bounds
	if !opts.Region.Empty() {
		area = opts.Region.Intersect(bounds)
	}

	result := &CompareResult{Match: true, TotalPixels: area.Dx() * area.Dy()}
	var diffImg *image.RGBA
	if opts.SaveDiffImage {
		diffImg = image.NewRGBA(bounds)
	}

	for y := area.Min.Y; y < area.Max.Y; y++ {
		for x := area.Min.X; x < area.Max.X; x++ {
			a := actual.At(x, y)
			diff := pixelDiff(a, expected.At(x, y))
			result.MaxDifference = max(result.MaxDifference, diff)

			matched := diff <= opts.Tolerance
			if !matched && opts.FuzzyRadius > 0 {
				matched = fuzzyMatch(actual, expected, x, y, opts.FuzzyRadius, opts.Tolerance, area)
			}
			if !matched {
				result.Match = false
				result.DifferentPixels++
			}
			if diffImg == nil {
				continue
			}
			if matched {
				gray := color.GrayModel.Convert(a).(color.Gray).Y
				diffImg.Set(x, y, color.RGBA{gray, gray, gray, 255})
			} else {
				diffImg.Set(x, y, color.RGBA{255, 0, 0, 255})
			}
		}
	}

	if !result.Match && opts.MaxDifferentPercent > 0 && result.TotalPixels > 0 {
		pct := float64(result.DifferentPixels) / float64(result.TotalPixels) * 100
		if pct <= opts.MaxDifferentPercent {
			result.Match = true
		}
	}

	if diffImg != nil && !result.Match && opts.DiffImagePath != "" {
		if err := savePNG(diffImg, opts.DiffImagePath); err != nil {
			return result, fmt.Errorf("failed to save diff image: %w", err)
		}
	}
	return result, nil
}

// pixelDiff returns the largest 8-bit channel difference between a and b.
func pixelDiff(a, b color.Color) int {
	ar, ag, ab, aa := a.RGBA()
	br, bg, bb, ba := b.RGBA()
	return max(
		absInt(int(ar>>8)-int(br>>8)),
		absInt(int(ag>>8)-int(bg>>8)),
		absInt(int(ab>>8)-int(bb>>8)),
		absInt(int(aa>>8)-int(ba>>8)),
	)
}

// fuzzyMatch checks if the actual pixel at (x, y) matches any expected pixel within radius
func fuzzyMatch(actual, expected image.Image, x, y, radius, tolerance int, bounds image.Rectangle) bool {
	a := actual.At(x, y)
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			p := image.Pt(x+dx, y+dy)
			if !p.In(bounds) {
				continue
			}
			if pixelDiff(a, expected.At(p.X, p.Y)) <= tolerance {
				return true
			}
		}
	}
	return false
}

func savePNG(img image.Image, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return png.Encode(file, img)
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
