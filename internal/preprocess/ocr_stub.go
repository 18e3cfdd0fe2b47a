//go:build !ocr

// ABOUTME: Image OCR placeholder for builds without tesseract
// ABOUTME: Images fail with ErrOCRUnavailable so batches record them as empty
package preprocess

func ocr([]byte, string) (string, error) {
	return "", ErrOCRUnavailable
}
