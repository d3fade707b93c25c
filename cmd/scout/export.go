package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/alfredjeanlab/scout/internal/backup"
	"github.com/alfredjeanlab/scout/internal/client"
	"github.com/alfredjeanlab/scout/internal/model"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:     "export",
	Short:   "Export stored records",
	GroupID: "records",
}

var exportCSVCmd = &cobra.Command{
	Use:   "csv <pit|match>",
	Short: "Download every record of a kind as CSV",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := model.ParseKind(args[0])
		if err != nil {
			return err
		}
		data, err := scoutClient.ExportCSV(context.Background(), kind)
		if err != nil {
			return fmt.Errorf("exporting %s: %w", kind, err)
		}
		out, _ := cmd.Flags().GetString("output")
		return writeExport(out, data)
	},
}

var exportJSONLCmd = &cobra.Command{
	Use:   "jsonl",
	Short: "Download every record as a JSONL snapshot",
	Long: `Download every pit and match record as one JSONL snapshot, the same
format the server writes to its backup destinations. The first line is a
header with per-kind counts.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var buf bytes.Buffer
		if err := backup.ExportJSONL(context.Background(), clientLister{scoutClient}, &buf, time.Now()); err != nil {
			return fmt.Errorf("exporting snapshot: %w", err)
		}
		out, _ := cmd.Flags().GetString("output")
		return writeExport(out, buf.Bytes())
	},
}

// clientLister reads full record sets through the server API.
type clientLister struct {
	c client.ScoutClient
}

func (l clientLister) List(ctx context.Context, kind model.Kind) ([]*model.Record, error) {
	return l.c.ListRecords(ctx, kind, nil)
}

// writeExport writes data to path, or to stdout when path is empty or "-".
func writeExport(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	fmt.Fprintf(os.Stderr, "Wrote %d bytes to %s\n", len(data), path)
	return nil
}

func init() {
	exportCSVCmd.Flags().StringP("output", "o", "", "write to this file instead of stdout")
	exportJSONLCmd.Flags().StringP("output", "o", "", "write to this file instead of stdout")
	exportCmd.AddCommand(exportCSVCmd, exportJSONLCmd)
}
