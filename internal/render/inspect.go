package render

import (
	"fmt"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

func init() {
	// pdfcpu otherwise writes a config directory under the user's home.
	api.DisableConfigDir()
}

// Inspect checks that path holds a PDF and returns its page count.
func Inspect(path string) (int, error) {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return 0, fmt.Errorf("render: detect type: %w", err)
	}
	if !mt.Is("application/pdf") {
		return 0, fmt.Errorf("%w: got %s", ErrNotPDF, mt.String())
	}
	pages, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("render: page count: %w", err)
	}
	return pages, nil
}
