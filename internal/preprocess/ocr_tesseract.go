//go:build ocr

// ABOUTME: Image OCR through tesseract, enabled with the ocr build tag
// ABOUTME: Requires libtesseract at build and run time
package preprocess

import (
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

func ocr(data []byte, lang string) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(lang); err != nil {
		return "", fmt.Errorf("ocr: %w", err)
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return "", fmt.Errorf("ocr: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("ocr: %w", err)
	}
	return strings.TrimSpace(text), nil
}
