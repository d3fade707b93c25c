package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/alfredjeanlab/scout/internal/engine"
	"github.com/alfredjeanlab/scout/internal/idgen"
	"github.com/alfredjeanlab/scout/internal/model"
	"github.com/spf13/cobra"
)

var recordCmd = &cobra.Command{
	Use:     "record",
	Short:   "List, push and delete scouting records",
	GroupID: "records",
}

var recordListCmd = &cobra.Command{
	Use:   "list <pit|match>",
	Short: "List stored records, optionally only those stored after --since",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := model.ParseKind(args[0])
		if err != nil {
			return err
		}
		var since *time.Time
		if s, _ := cmd.Flags().GetString("since"); s != "" {
			t, err := engine.ParseSince(s)
			if err != nil {
				return err
			}
			since = &t
		}

		recs, err := scoutClient.ListRecords(context.Background(), kind, since)
		if err != nil {
			return fmt.Errorf("listing records: %w", err)
		}
		if jsonOutput {
			return printJSON(os.Stdout, recs)
		}
		printRecordTable(os.Stdout, recs)
		return nil
	},
}

var recordPushCmd = &cobra.Command{
	Use:   "push <pit|match> <file|->",
	Short: "Upload a record (or a JSON array of records) from a file or stdin",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := model.ParseKind(args[0])
		if err != nil {
			return err
		}
		fill, _ := cmd.Flags().GetBool("new")
		touch, _ := cmd.Flags().GetBool("touch")

		var in io.Reader = os.Stdin
		if args[1] != "-" {
			f, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}
		recs, err := readRecords(in, pushOptions{fill: fill, touch: touch, now: time.Now()})
		if err != nil {
			return err
		}

		var pushed []any
		for _, rec := range recs {
			resp, err := scoutClient.UpsertRecord(context.Background(), kind, rec)
			if err != nil {
				return fmt.Errorf("pushing %s: %w", rec.RecordID, err)
			}
			if jsonOutput {
				pushed = append(pushed, map[string]any{"outcome": resp.Outcome, "record": resp.Record})
				continue
			}
			printUpsert(os.Stdout, resp)
		}
		if jsonOutput {
			return printJSON(os.Stdout, pushed)
		}
		return nil
	},
}

var recordDeleteCmd = &cobra.Command{
	Use:   "delete <pit|match> <uuid>",
	Short: "Delete a stored record",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := model.ParseKind(args[0])
		if err != nil {
			return err
		}
		ok, err := scoutClient.DeleteRecord(context.Background(), kind, args[1])
		if err != nil {
			return fmt.Errorf("deleting record: %w", err)
		}
		if jsonOutput {
			return printJSON(os.Stdout, map[string]bool{"success": ok})
		}
		if ok {
			fmt.Printf("Deleted %s\n", args[1])
		} else {
			fmt.Printf("No %s record %s\n", kind, args[1])
		}
		return nil
	},
}

func init() {
	recordListCmd.Flags().String("since", "", "only records stored after this time (RFC 3339 or epoch ms)")
	recordPushCmd.Flags().Bool("new", false, "assign a uuid and timestamps to records that lack them")
	recordPushCmd.Flags().Bool("touch", false, "set updated to now so the push wins over stored versions")

	recordCmd.AddCommand(recordListCmd)
	recordCmd.AddCommand(recordPushCmd)
	recordCmd.AddCommand(recordDeleteCmd)
}

type pushOptions struct {
	fill  bool
	touch bool
	now   time.Time
}

// readRecords decodes one record object or an array of them. With fill,
// a missing or blank uuid and missing created/updated keys are generated
// before the record is validated.
func readRecords(r io.Reader, opts pushOptions) ([]*model.Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading records: %w", err)
	}
	data = bytes.TrimSpace(data)

	var raws []json.RawMessage
	if len(data) > 0 && data[0] == '[' {
		if err := json.Unmarshal(data, &raws); err != nil {
			return nil, fmt.Errorf("decoding records: %w", err)
		}
	} else {
		raws = []json.RawMessage{data}
	}

	nowMillis, _ := json.Marshal(opts.now.UnixMilli())
	out := make([]*model.Record, 0, len(raws))
	for i, raw := range raws {
		if opts.fill || opts.touch {
			var obj map[string]json.RawMessage
			if err := json.Unmarshal(raw, &obj); err != nil {
				return nil, fmt.Errorf("record %d: %w", i, err)
			}
			if opts.fill {
				var id string
				if err := json.Unmarshal(obj["uuid"], &id); err != nil || id == "" {
					obj["uuid"], _ = json.Marshal(idgen.RecordID())
				}
				for _, key := range []string{"created", "updated"} {
					if _, ok := obj[key]; !ok {
						obj[key] = nowMillis
					}
				}
			}
			if opts.touch {
				obj["updated"] = nowMillis
			}
			if raw, err = json.Marshal(obj); err != nil {
				return nil, fmt.Errorf("record %d: %w", i, err)
			}
		}

		var rec model.Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, &rec)
	}
	return out, nil
}
