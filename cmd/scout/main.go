package main

import (
	"os"

	"github.com/alfredjeanlab/scout/internal/client"
	"github.com/alfredjeanlab/scout/internal/ui"
	"github.com/spf13/cobra"
)

var (
	serverURL  string
	authToken  string
	jsonOutput bool
	noColor    bool

	scoutClient client.ScoutClient
)

func defaultServerURL() string {
	if s := os.Getenv("SCOUT_SERVER"); s != "" {
		return s
	}
	return "http://localhost:8090"
}

var rootCmd = &cobra.Command{
	Use:          "scout <command>",
	Short:        "Scouting record sync server and client",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if noColor {
			ui.ForceNoColor()
		} else {
			ui.Configure()
		}
		if authToken == "" {
			authToken = os.Getenv("SCOUT_TOKEN")
		}
		scoutClient = client.NewHTTPClient(serverURL, authToken)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if scoutClient != nil {
			scoutClient.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", defaultServerURL(), "server URL ($SCOUT_SERVER)")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", "", "bearer token for the server ($SCOUT_TOKEN)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddGroup(
		&cobra.Group{ID: "records", Title: "Records:"},
		&cobra.Group{ID: "templates", Title: "Templates:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)

	cobra.EnableCommandSorting = false
	rootCmd.SetHelpFunc(colorizedHelpFunc())

	// Records
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(watchCmd)

	// Templates
	rootCmd.AddCommand(templateCmd)

	// System
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(healthCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
