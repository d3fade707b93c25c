package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/alfredjeanlab/scout/internal/client"
	"github.com/alfredjeanlab/scout/internal/model"
	"github.com/alfredjeanlab/scout/internal/ui"
)

const timeLayout = "2006-01-02 15:04:05"

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(timeLayout)
}

func printTemplateSummaries(w io.Writer, summaries []model.Summary) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "UUID\tVERSION\tNAME")
	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", s.Identity, s.Version, s.Name)
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d templates\n", len(summaries))
}

func printTemplate(w io.Writer, t *model.Template) {
	fmt.Fprintf(w, "Name:     %s\n", t.Name)
	fmt.Fprintf(w, "UUID:     %s\n", t.Identity)
	fmt.Fprintf(w, "Version:  %d\n", t.Version)
	for _, kind := range model.Kinds {
		tab := t.Section(kind)
		title := tab.Title
		if title == "" {
			title = string(kind)
		}
		fmt.Fprintf(w, "\n%s %s\n", ui.RenderAccent(title), ui.RenderMuted("("+string(kind)+")"))
		if len(tab.Entries) == 0 {
			fmt.Fprintln(w, ui.RenderMuted("  no entries"))
			continue
		}
		stored := t.FieldKinds(kind)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, e := range tab.Entries {
			name, vk := e.FieldName(), "-"
			if k, ok := stored[name]; ok {
				vk = k.String()
			}
			if name == "" {
				name = "-"
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", e.Type(), name, vk, model.Prompt(e))
		}
		tw.Flush()
	}
}

func printRecordTable(w io.Writer, recs []*model.Record) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "UUID\tTEMPLATE\tUPDATED\tSTORED\tFIELDS")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%s@%d\t%s\t%s\t%d\n",
			r.RecordID,
			r.TemplateIdentity,
			r.TemplateVersion,
			formatTime(r.UpdatedAt),
			formatTime(r.StoredAt),
			r.Fields.Len(),
		)
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d records\n", len(recs))
}

func printRecord(w io.Writer, r *model.Record) {
	fmt.Fprintf(w, "UUID:      %s\n", r.RecordID)
	fmt.Fprintf(w, "Type:      %s\n", r.Kind)
	fmt.Fprintf(w, "Template:  %s@%d\n", r.TemplateIdentity, r.TemplateVersion)
	fmt.Fprintf(w, "Created:   %s\n", formatTime(r.CreatedAt))
	fmt.Fprintf(w, "Updated:   %s\n", formatTime(r.UpdatedAt))
	fmt.Fprintf(w, "Stored:    %s\n", formatTime(r.StoredAt))
	if r.Fields.Len() == 0 {
		return
	}
	fmt.Fprintln(w, "Fields:")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, k := range r.Fields.Keys() {
		v, _ := r.Fields.Get(k)
		text := v.Text()
		if v.IsNull() {
			text = ui.RenderMuted("null")
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", k, ui.RenderMuted(v.Kind().String()), strings.ReplaceAll(text, "\n", `\n`))
	}
	tw.Flush()
}

func printUpsert(w io.Writer, resp *client.UpsertResponse) {
	fmt.Fprintf(w, "%s %s (stored %s)\n",
		resp.Record.RecordID,
		ui.RenderOutcome(resp.Outcome),
		formatTime(resp.Record.StoredAt),
	)
}
