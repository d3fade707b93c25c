package backup

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/alfredjeanlab/scout/internal/model"
)

// Lister reads every stored record of a kind.
type Lister interface {
	List(ctx context.Context, kind model.Kind) ([]*model.Record, error)
}

// Snapshot is one JSONL export of the whole store.
type Snapshot struct {
	TakenAt time.Time
	Counts  map[model.Kind]int
	Data    []byte
	// Digest is the hex SHA-256 of the record lines. It ignores the header
	// so two snapshots of unchanged records compare equal.
	Digest  string
}

// header is the first JSONL line of a snapshot.
type header struct {
	Version   string             `json:"version"`
	Type      string             `json:"type"`
	Timestamp time.Time          `json:"timestamp"`
	Counts    map[model.Kind]int `json:"counts"`
}

// line wraps a single record with its kind.
type line struct {
	Type   string        `json:"type"`
	Record *model.Record `json:"record"`
}

// Take reads every record from src and encodes a header line followed by
// one line per record, pit records first, each kind in the store's natural
// order.
func Take(ctx context.Context, src Lister, now time.Time) (*Snapshot, error) {
	snap := &Snapshot{TakenAt: now.UTC(), Counts: make(map[model.Kind]int, len(model.Kinds))}

	var body bytes.Buffer
	sum := sha256.New()
	enc := json.NewEncoder(io.MultiWriter(&body, sum))
	enc.SetEscapeHTML(false)
	for _, kind := range model.Kinds {
		recs, err := src.List(ctx, kind)
		if err != nil {
			return nil, fmt.Errorf("list %s records: %w", kind, err)
		}
		snap.Counts[kind] = len(recs)
		for _, r := range recs {
			if err := enc.Encode(line{Type: string(kind), Record: r}); err != nil {
				return nil, fmt.Errorf("encode %s record %s: %w", kind, r.RecordID, err)
			}
		}
	}
	snap.Digest = hex.EncodeToString(sum.Sum(nil))

	var out bytes.Buffer
	hdr := json.NewEncoder(&out)
	hdr.SetEscapeHTML(false)
	if err := hdr.Encode(header{
		Version:   "1",
		Type:      "header",
		Timestamp: snap.TakenAt,
		Counts:    snap.Counts,
	}); err != nil {
		return nil, fmt.Errorf("encode header: %w", err)
	}
	out.Write(body.Bytes())
	snap.Data = out.Bytes()
	return snap, nil
}

// ExportJSONL writes a snapshot of src to w.
func ExportJSONL(ctx context.Context, src Lister, w io.Writer, now time.Time) error {
	snap, err := Take(ctx, src, now)
	if err != nil {
		return err
	}
	_, err = w.Write(snap.Data)
	return err
}

// timePlaceholder in a destination path or key is replaced by the
// snapshot time so every snapshot lands in its own object.
const timePlaceholder = "{time}"

func expandTime(pattern string, t time.Time) string {
	return strings.ReplaceAll(pattern, timePlaceholder, t.UTC().Format("20060102T150405Z"))
}
