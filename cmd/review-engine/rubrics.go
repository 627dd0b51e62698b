// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/review-engine/internal/review"
)

var rubricsCmd = &cobra.Command{
	Use:   "rubrics",
	Short: "Print the effective per-section-type review rubrics",
	Long: `Rubrics prints the rubric table the review command would use: the
built-in defaults merged with any overrides file, as YAML.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("rubrics")
		table, err := review.LoadRubrics(path)
		if err != nil {
			return err
		}
		data, err := yaml.Marshal(table)
		if err != nil {
			return fmt.Errorf("encoding rubric table: %w", err)
		}
		_, err = os.Stdout.Write(data)
		return err
	},
}

func init() {
	rubricsCmd.Flags().String("rubrics", "", "YAML file of rubric overrides")

	rootCmd.AddCommand(rubricsCmd)
}
