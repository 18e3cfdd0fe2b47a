// ABOUTME: Query, generate, research and intent commands
// ABOUTME: Run one routing episode or a single-prompt chain from the terminal
package commands

import (
	"context"
	"fmt"

	"github.com/harper/doccy/internal/app"
	"github.com/harper/doccy/internal/config"
	"github.com/spf13/cobra"
)

// NewQueryCmd creates the query command
func NewQueryCmd() *cobra.Command {
	var (
		file      string
		maxTurns  int
		showTrace bool
	)

	cmd := &cobra.Command{
		Use:   "query [text]",
		Short: "Answer a query through the agent router",
		Long: `Answer a query by letting the router pick agents turn by turn.

Examples:
  doccy query "How do I rotate the storage key?"
  doccy query --file question.txt --trace`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var overrides []func(*config.Config)
			if cmd.Flags().Changed("max-turns") {
				if err := validatePositiveInt(maxTurns, "max-turns"); err != nil {
					return err
				}
				overrides = append(overrides, func(c *config.Config) { c.MaxTurns = maxTurns })
			}
			query, err := readInput(cmd, file, args)
			if err != nil {
				return err
			}

			services, err := loadServices(cmd, overrides...)
			if err != nil {
				return err
			}
			defer services.Close()

			res, err := services.Orchestrator.Process(cmd.Context(), query)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if showTrace {
				for _, m := range res.Conversation.Messages() {
					who := string(m.Role)
					if m.Name != "" {
						who = m.Name
					}
					fmt.Fprintf(out, "[%s] %s\n", who, truncate(m.Content, 120))
				}
				fmt.Fprintf(out, "episode %s, %d turns\n\n", res.EpisodeID, res.Turns)
			}
			fmt.Fprintln(out, res.Response)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Read the query from a file")
	cmd.Flags().IntVar(&maxTurns, "max-turns", 0, "Override DOCCY_MAX_TURNS")
	cmd.Flags().BoolVar(&showTrace, "trace", false, "Print the conversation before the answer")
	return cmd
}

// NewGenerateCmd creates the generate command
func NewGenerateCmd() *cobra.Command {
	return newChainCmd("generate", "Answer a question with a single prompt",
		func(ctx context.Context, s *app.Services, q string) (string, error) {
			return s.Chains.Generate(ctx, q)
		})
}

// NewResearchCmd creates the research command
func NewResearchCmd() *cobra.Command {
	return newChainCmd("research", "Write a structured overview of a topic",
		func(ctx context.Context, s *app.Services, q string) (string, error) {
			return s.Chains.Research(ctx, q)
		})
}

// NewIntentCmd creates the intent command
func NewIntentCmd() *cobra.Command {
	return newChainCmd("intent", "Rewrite a loose request as an explicit instruction",
		func(ctx context.Context, s *app.Services, q string) (string, error) {
			return s.Chains.Intent(ctx, q)
		})
}

func newChainCmd(name, short string, run func(context.Context, *app.Services, string) (string, error)) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   name + " [text]",
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := readInput(cmd, file, args)
			if err != nil {
				return err
			}
			services, err := loadServices(cmd)
			if err != nil {
				return err
			}
			defer services.Close()

			out, err := run(cmd.Context(), services, query)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Read the query from a file")
	return cmd
}
