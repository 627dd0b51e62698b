// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/review-engine/internal/document"
	"github.com/pdiddy/review-engine/internal/llm"
	"github.com/pdiddy/review-engine/internal/persona"
	"github.com/pdiddy/review-engine/internal/review"
	"github.com/pdiddy/review-engine/internal/secrets"
	"github.com/pdiddy/review-engine/pkg/types"
)

const defaultModel = "claude-sonnet-4-5-20250929"

var reviewCmd = &cobra.Command{
	Use:   "review [manuscript]",
	Short: "Generate an anchored peer review for a manuscript",
	Long: `Review reads a Markdown or plain-text manuscript, builds its knowledge
tree, reviews every section through the quality gate, and writes the review
artifact (summary, per-section bundles, and the anchored edit set) to the
output path. A progress table is printed when the run completes.`,
	Args: cobra.ExactArgs(1),
	RunE: runReview,
}

func init() {
	reviewCmd.Flags().String("output", "", "artifact path (default: <manuscript>-review.<format>)")
	reviewCmd.Flags().String("format", "yaml", "artifact format: yaml or json")
	reviewCmd.Flags().String("persona-db", "", "persona SQLite database (empty disables persona context)")
	reviewCmd.Flags().String("rubrics", "", "YAML file of rubric overrides")
	reviewCmd.Flags().Int("max-iterations", 0, "quality-gate iterations per section (default 3)")
	reviewCmd.Flags().Int("parallelism", 0, "concurrent section reviews (default 4)")
	reviewCmd.Flags().Duration("timeout", 0, "single API call timeout (default 120s)")
	reviewCmd.Flags().String("model", "", "AI model identifier")
	reviewCmd.Flags().String("provider", "", "AI provider: claude or openai")
	reviewCmd.Flags().String("base-url", "", "API endpoint override for OpenAI-compatible gateways")

	rootCmd.AddCommand(reviewCmd)
}

func runReview(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	if format != "yaml" && format != "json" {
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}

	cfg, err := reviewConfig(cmd)
	if err != nil {
		return err
	}
	log := newLogger(cmd)
	ctx := context.Background()

	doc, err := document.Load(args[0])
	if err != nil {
		return err
	}
	log.Info("manuscript loaded", "document", doc.ID, "paragraphs", len(doc.Paragraphs))

	gen, err := llm.New(cfg.AIConfig)
	if err != nil {
		return err
	}

	tree, err := document.NewBuilder(gen, cfg.AIConfig, log).Build(ctx, doc)
	if err != nil {
		return err
	}
	log.Info("knowledge tree built", "sections", len(tree.Sections))

	rubrics, err := review.LoadRubrics(cfg.RubricPath)
	if err != nil {
		return err
	}

	var personaSource review.PersonaSource
	if cfg.Persona.DBPath != "" {
		store, err := persona.Open(cfg.Persona)
		if err != nil {
			return err
		}
		defer store.Close()
		personaSource = store
	}

	engine := review.NewEngine(gen, cfg, rubrics, personaSource, log)
	result, err := engine.ReviewDocument(ctx, tree)
	if err != nil {
		return err
	}

	outPath, _ := cmd.Flags().GetString("output")
	if outPath == "" {
		base := strings.TrimSuffix(args[0], filepath.Ext(args[0]))
		outPath = base + "-review." + format
	}
	if err := writeArtifact(result, outPath, format); err != nil {
		return err
	}

	review.FormatTable(result, tree, os.Stdout)
	fmt.Fprintf(os.Stdout, "\nReview written to %s\n", outPath)
	return nil
}

// reviewConfig assembles the explicit engine configuration from flags, the
// viper config file, and loaded secrets. Flags win over the config file.
func reviewConfig(cmd *cobra.Command) (types.ReviewConfig, error) {
	provider := stringSetting(cmd, "provider", "provider")
	if provider == "" {
		provider = string(types.ProviderClaude)
	}
	model := stringSetting(cmd, "model", "model")
	if model == "" {
		model = defaultModel
	}

	maxIterations, _ := cmd.Flags().GetInt("max-iterations")
	if maxIterations == 0 {
		maxIterations = viper.GetInt("max_iterations")
	}
	parallelism, _ := cmd.Flags().GetInt("parallelism")
	if parallelism == 0 {
		parallelism = viper.GetInt("parallelism")
	}
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = viper.GetDuration("call_timeout")
	}

	cfg := types.ReviewConfig{
		AIConfig: types.AIConfig{
			Provider:    types.Provider(provider),
			Model:       model,
			TaskModels:  viper.GetStringMapString("task_models"),
			BaseURL:     stringSetting(cmd, "base-url", "base_url"),
			CallTimeout: timeout,
			MaxRetries:  viper.GetInt("max_retries"),
		},
		MaxIterations: maxIterations,
		Parallelism:   parallelism,
		RubricPath:    stringSetting(cmd, "rubrics", "rubric_path"),
		Persona: types.PersonaConfig{
			DBPath:      stringSetting(cmd, "persona-db", "persona.db_path"),
			MaxSnippets: viper.GetInt("persona.max_snippets"),
		},
	}

	switch cfg.Provider {
	case types.ProviderClaude:
		cfg.APIKey = secrets.Resolve(loadedSecrets, "anthropic-api-key", "ANTHROPIC_API_KEY")
	case types.ProviderOpenAI:
		cfg.APIKey = secrets.Resolve(loadedSecrets, "openai-api-key", "OPENAI_API_KEY")
	default:
		return types.ReviewConfig{}, fmt.Errorf("unsupported provider %q: use claude or openai", cfg.Provider)
	}
	if cfg.APIKey == "" {
		return types.ReviewConfig{}, fmt.Errorf("no API key for provider %s: add it to .secrets/ or the environment", cfg.Provider)
	}

	return cfg.WithDefaults(), nil
}

// stringSetting reads a flag, falling back to the viper config key.
func stringSetting(cmd *cobra.Command, flag, key string) string {
	if v, _ := cmd.Flags().GetString(flag); v != "" {
		return v
	}
	return viper.GetString(key)
}

func writeArtifact(result *types.ReviewResult, path, format string) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case "json":
		data, err = json.MarshalIndent(result, "", "  ")
	default:
		data, err = yaml.Marshal(result)
	}
	if err != nil {
		return fmt.Errorf("encoding review artifact: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing review artifact: %w", err)
	}
	return nil
}
