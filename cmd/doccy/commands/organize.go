// ABOUTME: Organize and enrich commands for document content
// ABOUTME: Print organizer and enrichment results as JSON
package commands

import (
	"fmt"
	"os"

	"github.com/harper/doccy/internal/models"
	"github.com/spf13/cobra"
)

// NewOrganizeCmd creates the organize command
func NewOrganizeCmd() *cobra.Command {
	var (
		file    string
		tags    []string
		source  string
	)

	cmd := &cobra.Command{
		Use:   "organize [text]",
		Short: "Extract tags and a category for content",
		Long: `Extract tags and pick a category for a piece of content.

Examples:
  doccy organize "Rotating keys in Azure storage accounts"
  doccy organize --file notes.md --tags=azure,ops`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, file, args)
			if err != nil {
				return err
			}
			services, err := loadServices(cmd)
			if err != nil {
				return err
			}
			defer services.Close()

			out, err := services.Organizer.Analyze(cmd.Context(), models.OrganizerInput{
				Text:         text,
				ExistingTags: tags,
				Context:      source,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd, out)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Read content from a file")
	cmd.Flags().StringSliceVar(&tags, "tags", []string{}, "Existing tags (comma-separated)")
	cmd.Flags().StringVar(&source, "context", "", "Where the content came from")
	return cmd
}

// NewEnrichCmd creates the enrich command
func NewEnrichCmd() *cobra.Command {
	var meta, oldFile, newFile string

	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Restructure content into an enriched document",
		Long: `Restructure content into an enriched document.

Give --new for fresh content, --old to revise an existing document,
or both to merge new content into an existing one.

Examples:
  doccy enrich --meta "runbook" --new draft.md
  doccy enrich --meta "runbook" --old current.md --new addendum.md`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := models.EnrichInput{MetaData: meta}
			for _, f := range []struct {
				path string
				dest **string
			}{{oldFile, &in.OldData}, {newFile, &in.NewData}} {
				if f.path == "" {
					continue
				}
				data, err := os.ReadFile(f.path)
				if err != nil {
					return fmt.Errorf("reading file: %w", err)
				}
				s := string(data)
				*f.dest = &s
			}

			services, err := loadServices(cmd)
			if err != nil {
				return err
			}
			defer services.Close()

			out, err := services.Enricher.Restructure(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out.FinalData)
			return nil
		},
	}

	cmd.Flags().StringVar(&meta, "meta", "", "Document metadata")
	cmd.Flags().StringVar(&oldFile, "old", "", "File with the existing document")
	cmd.Flags().StringVar(&newFile, "new", "", "File with the new content")
	_ = cmd.MarkFlagRequired("meta")
	return cmd
}
