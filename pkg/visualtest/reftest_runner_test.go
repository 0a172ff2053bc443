package visualtest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// collectReftests returns every foo.svg under dir that has a sibling
// foo-ref.svg.
func collectReftests(t *testing.T, dir string) []string {
	t.Helper()
	var tests []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		if !strings.HasSuffix(path, ".svg") || strings.HasSuffix(path, "-ref.svg") {
			return nil
		}
		if _, err := os.Stat(refPath(path)); err == nil {
			tests = append(tests, path)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("failed to walk test directory: %v", err)
	}
	return tests
}

func refPath(testPath string) string {
	return strings.TrimSuffix(testPath, ".svg") + "-ref.svg"
}

// TestReftests renders each test and its reference and compares the
// resulting images pixel by pixel.
func TestReftests(t *testing.T) {
	testDir := filepath.Join("testdata", "reftests")
	if _, err := os.Stat(testDir); os.IsNotExist(err) {
		t.Skip("no reftests testdata directory found")
	}
	testFiles := collectReftests(t, testDir)
	if len(testFiles) == 0 {
		t.Skip("no reftests found")
	}

	passed, failed := 0, 0
	for _, testFile := range testFiles {
		relPath, _ := filepath.Rel(testDir, testFile)
		t.Run(relPath, func(t *testing.T) {
			if runReftest(t, testFile) {
				passed++
			} else {
				failed++
			}
		})
	}
	t.Logf("Summary: %d/%d passed, %d failed", passed, len(testFiles), failed)
}

// runReftest reports whether testPath renders like its reference.
func runReftest(t *testing.T, testPath string) bool {
	t.Helper()

	tmpDir := t.TempDir()
	testPNG := filepath.Join(tmpDir, "test.png")
	refPNG := filepath.Join(tmpDir, "ref.png")

	if err := RenderSVGFile(testPath, testPNG, 0, 0); err != nil {
		t.Fatalf("failed to render test: %v", err)
	}
	if err := RenderSVGFile(refPath(testPath), refPNG, 0, 0); err != nil {
		t.Fatalf("failed to render reference: %v", err)
	}

	opts := DefaultOptions()
	opts.Tolerance = 2
	opts.FuzzyRadius = 1
	opts.SaveDiffImage = true
	opts.DiffImagePath = filepath.Join(tmpDir, "diff.png")

	result, err := CompareImages(testPNG, refPNG, opts)
	if err != nil {
		t.Fatalf("comparison failed: %v", err)
	}
	if !result.Match {
		pct := float64(result.DifferentPixels) / float64(result.TotalPixels) * 100
		t.Errorf("REFTEST FAIL: %d/%d pixels differ (%.1f%%, max diff: %d)",
			result.DifferentPixels, result.TotalPixels, pct, result.MaxDifference)

		outputDir := filepath.Join("..", "..", "output", "reftests")
		if err := os.MkdirAll(outputDir, 0755); err == nil {
			baseName := strings.TrimSuffix(filepath.Base(testPath), filepath.Ext(testPath))
			copyFile(testPNG, filepath.Join(outputDir, baseName+"_test.png"))
			copyFile(refPNG, filepath.Join(outputDir, baseName+"_ref.png"))
			copyFile(opts.DiffImagePath, filepath.Join(outputDir, baseName+"_diff.png"))
			t.Logf("  saved to output/reftests/%s_*.png", baseName)
		}
		return false
	}
	return true
}

// copyFile copies src to dst.
func copyFile(src, dst string) {
	data, err := os.ReadFile(src)
	if err != nil {
		return
	}
	os.WriteFile(dst, data, 0644)
}
