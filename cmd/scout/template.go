package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alfredjeanlab/scout/internal/client"
	"github.com/spf13/cobra"
)

var templateCmd = &cobra.Command{
	Use:     "template",
	Short:   "Inspect the scouting templates served to clients",
	GroupID: "templates",
}

var templateGetCmd = &cobra.Command{
	Use:   "get [uuid]",
	Short: "Show the default template, or the latest version of uuid",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := &client.GetTemplateRequest{}
		if len(args) == 1 {
			req.Identity = args[0]
		}
		if cmd.Flags().Changed("version") {
			if req.Identity == "" {
				return fmt.Errorf("--version requires a template uuid")
			}
			v, _ := cmd.Flags().GetInt("version")
			req.Version = &v
		}

		t, err := scoutClient.GetTemplate(context.Background(), req)
		if err != nil {
			return fmt.Errorf("getting template: %w", err)
		}
		if jsonOutput {
			return printJSON(os.Stdout, t)
		}
		printTemplate(os.Stdout, t)
		return nil
	},
}

var templateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every loaded template version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		summaries, err := scoutClient.ListTemplates(context.Background())
		if err != nil {
			return fmt.Errorf("listing templates: %w", err)
		}
		if jsonOutput {
			return printJSON(os.Stdout, summaries)
		}
		printTemplateSummaries(os.Stdout, summaries)
		return nil
	},
}

func init() {
	templateGetCmd.Flags().Int("version", 0, "exact template version")
	templateCmd.AddCommand(templateGetCmd)
	templateCmd.AddCommand(templateListCmd)
}
