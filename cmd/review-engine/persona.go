// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/review-engine/internal/persona"
	"github.com/pdiddy/review-engine/pkg/types"
)

var personaCmd = &cobra.Command{
	Use:   "persona",
	Short: "Manage the prior-reviewer-comment store (ingest, query)",
	Long: `Persona manages a local SQLite store of prior reviewer comments. The
review command retrieves the comments most relevant to each section and
injects them as persona context, so generated reviews echo the concerns a
particular reviewer keeps raising.`,
}

var personaIngestCmd = &cobra.Command{
	Use:   "ingest [dir]",
	Short: "Ingest prior review files into the persona store",
	Long: `Ingest loads a directory of prior reviews into the persona store. YAML
files carry explicit comment lists; Markdown and plain-text files are split
into paragraph comments. Unchanged files are skipped on subsequent runs.`,
	Args: cobra.ExactArgs(1),
	RunE: runPersonaIngest,
}

func runPersonaIngest(cmd *cobra.Command, args []string) error {
	store, err := persona.Open(personaConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := store.Ingest(context.Background(), args[0], os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d file(s) failed ingestion", summary.Failed)
	}
	return nil
}

var personaQueryCmd = &cobra.Command{
	Use:   "query [text...]",
	Short: "Retrieve the stored comments most relevant to a query",
	RunE:  runPersonaQuery,
}

func runPersonaQuery(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide query text")
	}
	limit, _ := cmd.Flags().GetInt("limit")

	store, err := persona.Open(personaConfig(cmd))
	if err != nil {
		return err
	}
	defer store.Close()

	snippets, err := store.Retrieve(context.Background(), strings.Join(args, " "), limit)
	if err != nil {
		return err
	}

	if len(snippets) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	for i, s := range snippets {
		fmt.Fprintf(os.Stdout, "%-4d  %s\n", i+1, s)
	}
	fmt.Fprintf(os.Stdout, "\n%d results\n", len(snippets))
	return nil
}

func personaConfig(cmd *cobra.Command) types.PersonaConfig {
	dbPath, _ := cmd.Flags().GetString("persona-db")
	if dbPath == "" {
		dbPath = "persona/persona.db"
	}
	maxSnippets, _ := cmd.Flags().GetInt("max-snippets")
	return types.PersonaConfig{DBPath: dbPath, MaxSnippets: maxSnippets}
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	personaCmd.PersistentFlags().String("persona-db", "persona/persona.db", "persona SQLite database file")
	personaCmd.PersistentFlags().Int("max-snippets", 5, "default number of retrieved comments")

	personaQueryCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")

	personaCmd.AddCommand(personaIngestCmd)
	personaCmd.AddCommand(personaQueryCmd)

	rootCmd.AddCommand(personaCmd)
}
