package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/alfredjeanlab/scout/internal/events"
	"github.com/alfredjeanlab/scout/internal/model"
	"github.com/alfredjeanlab/scout/internal/ui"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:     "watch <pit|match>",
	Short:   "Follow records as they are stored, the way a tablet syncs",
	GroupID: "records",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := model.ParseKind(args[0])
		if err != nil {
			return err
		}
		interval, _ := cmd.Flags().GetDuration("interval")
		natsURL, _ := cmd.Flags().GetString("nats-url")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		w := &watcher{kind: kind}
		if err := w.sync(ctx); err != nil {
			return err
		}
		if natsURL != "" {
			return w.watchNATS(ctx, natsURL)
		}
		return w.watchPoll(ctx, interval)
	},
}

// watcher keeps a storedAt cursor and fetches only the delta after it.
type watcher struct {
	kind    model.Kind
	cursor  *time.Time
	dropped uint64 // subscriber drop count already accounted for
}

// advance moves the cursor to the latest storedAt in recs.
func (w *watcher) advance(recs []*model.Record) {
	for _, r := range recs {
		if w.cursor == nil || r.StoredAt.After(*w.cursor) {
			t := r.StoredAt
			w.cursor = &t
		}
	}
}

// sync fetches records stored after the cursor and prints them.
func (w *watcher) sync(ctx context.Context) error {
	recs, err := scoutClient.ListRecords(ctx, w.kind, w.cursor)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("listing records: %w", err)
	}
	w.advance(recs)
	if len(recs) == 0 {
		return nil
	}
	if jsonOutput {
		return printJSON(os.Stdout, recs)
	}
	printRecordTable(os.Stdout, recs)
	return nil
}

// watchNATS re-syncs on record events with a short debounce. Deletions
// have no delta representation so they are printed from the event itself.
func (w *watcher) watchNATS(ctx context.Context, natsURL string) error {
	// reconnectCh receives a signal when the NATS client reconnects after
	// a disconnect, so we can immediately re-query for missed events.
	reconnectCh := make(chan struct{}, 1)

	sub, err := events.NewNATSSubscriber(natsURL,
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Printf("nats: disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Printf("nats: reconnected")
			select {
			case reconnectCh <- struct{}{}:
			default:
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("connecting to NATS: %w", err)
	}
	defer sub.Close()

	ch, cancel, err := sub.Subscribe(events.TopicAll)
	if err != nil {
		return fmt.Errorf("subscribing to events: %w", err)
	}
	defer cancel()

	debounce := time.NewTimer(0)
	debounce.Stop()
	// Drain the timer channel in case it fired between NewTimer and Stop.
	select {
	case <-debounce.C:
	default:
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if n := w.missed(sub.Dropped()); n > 0 {
				log.Printf("nats: %d events dropped by a full buffer; resyncing", n)
				debounce.Reset(0)
			}
			if !w.wants(msg) {
				continue
			}
			if msg.Topic == events.TopicRecordDeleted {
				w.printDeleted(msg)
				continue
			}
			debounce.Reset(200 * time.Millisecond)
		case <-reconnectCh:
			debounce.Reset(0)
		case <-debounce.C:
			if err := w.sync(ctx); err != nil {
				return err
			}
		}
	}
}

// watchPoll polls for deltas at the given interval.
func (w *watcher) watchPoll(ctx context.Context, interval time.Duration) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
		if err := w.sync(ctx); err != nil {
			return err
		}
	}
}

// wants reports whether msg may change what the watcher has printed.
// Stale pushes leave the stored record untouched. Messages without a kind
// header always trigger a sync.
func (w *watcher) wants(msg events.Message) bool {
	if msg.Topic == events.TopicRecordStale {
		return false
	}
	return msg.Kind == "" || msg.Kind == w.kind
}

// missed returns how many drops happened since the last call, given the
// subscriber's running total.
func (w *watcher) missed(total uint64) uint64 {
	if total <= w.dropped {
		return 0
	}
	n := total - w.dropped
	w.dropped = total
	return n
}

func (w *watcher) printDeleted(msg events.Message) {
	if msg.RecordID == "" {
		return
	}
	if jsonOutput {
		_ = printJSON(os.Stdout, events.RecordDeleted{Kind: w.kind, RecordID: msg.RecordID})
		return
	}
	fmt.Printf("%s %s\n", msg.RecordID, ui.RenderWarn("deleted"))
}

func init() {
	watchCmd.Flags().Duration("interval", 5*time.Second, "polling interval when NATS is not configured")
	watchCmd.Flags().String("nats-url", os.Getenv("SCOUT_NATS_URL"), "NATS server for push notifications ($SCOUT_NATS_URL)")
}
