// ABOUTME: Preprocess command extracts text from local files
// ABOUTME: Failed files are reported with empty text and do not stop the batch
package commands

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/harper/doccy/internal/logging"
	"github.com/harper/doccy/internal/preprocess"
	"github.com/spf13/cobra"
)

// NewPreprocessCmd creates the preprocess command
func NewPreprocessCmd() *cobra.Command {
	var (
		asJSON      bool
		concurrency int
		ocrLang     string
	)

	cmd := &cobra.Command{
		Use:   "preprocess <file>...",
		Short: "Extract text from documents",
		Long: `Extract plain text from pdf, docx, xlsx, csv, txt, json and image files.

Files that fail to extract are listed with empty text. Image OCR
needs a build with -tags ocr.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validatePositiveInt(concurrency, "concurrency"); err != nil {
				return err
			}
			p := preprocess.New(preprocess.Options{
				OCRLang:     ocrLang,
				Concurrency: concurrency,
				Logger:      logging.New(cmd.ErrOrStderr(), logLevel(slog.LevelWarn)),
			})

			results := p.ProcessFiles(cmd.Context(), args)
			if asJSON {
				return printJSON(cmd, results)
			}

			names := make([]string, 0, len(results))
			for name := range results {
				names = append(names, name)
			}
			sort.Strings(names)
			out := cmd.OutOrStdout()
			for _, name := range names {
				text := results[name]
				if text == "" {
					fmt.Fprintf(out, "%s: (no text)\n", filepath.Base(name))
					continue
				}
				fmt.Fprintf(out, "%s: %s\n", filepath.Base(name), truncate(text, 80))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print full results as JSON")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "Files extracted in parallel")
	cmd.Flags().StringVar(&ocrLang, "ocr-lang", "eng", "Tesseract language for images")
	return cmd
}
