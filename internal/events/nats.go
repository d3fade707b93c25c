package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alfredjeanlab/scout/internal/model"
	"github.com/nats-io/nats.go"
)

// subscriberBuffer is how many undelivered messages a subscription holds
// before further ones are dropped.
const subscriberBuffer = 64

func connect(url, name string, opts []nats.Option) (*nats.Conn, error) {
	all := append([]nats.Option{
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	}, opts...)
	nc, err := nats.Connect(url, all...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	return nc, nil
}

// NATSPublisher publishes JSON-encoded events to NATS subjects.
type NATSPublisher struct {
	conn *nats.Conn
}

// NewNATSPublisher connects to the NATS server at url. Extra options are
// applied after the defaults.
func NewNATSPublisher(url string, opts ...nats.Option) (*NATSPublisher, error) {
	nc, err := connect(url, "scout", opts)
	if err != nil {
		return nil, err
	}
	return &NATSPublisher{conn: nc}, nil
}

// Publish sends ev.Payload as JSON on ev.Topic with the kind and record id
// as headers.
func (p *NATSPublisher) Publish(ctx context.Context, ev Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(ev.Payload)
	if err != nil {
		return fmt.Errorf("marshaling %s event: %w", ev.Topic, err)
	}
	msg := nats.NewMsg(ev.Topic)
	msg.Data = data
	if ev.Kind != "" {
		msg.Header.Set(HeaderKind, string(ev.Kind))
	}
	if ev.RecordID != "" {
		msg.Header.Set(HeaderRecordID, ev.RecordID)
	}
	return p.conn.PublishMsg(msg)
}

func (p *NATSPublisher) Close() error {
	// Push buffered publishes out before closing.
	_ = p.conn.FlushTimeout(time.Second)
	p.conn.Close()
	return nil
}

// NATSSubscriber subscribes to events from NATS subjects.
type NATSSubscriber struct {
	conn    *nats.Conn
	dropped atomic.Uint64
}

// NewNATSSubscriber connects to NATS with automatic reconnection.
// Extra options (e.g. disconnect/reconnect handlers) are applied after the
// defaults.
func NewNATSSubscriber(url string, opts ...nats.Option) (*NATSSubscriber, error) {
	nc, err := connect(url, "scout-watch", opts)
	if err != nil {
		return nil, err
	}
	return &NATSSubscriber{conn: nc}, nil
}

// Dropped reports how many messages were discarded because a subscriber
// channel was full.
func (s *NATSSubscriber) Dropped() uint64 {
	return s.dropped.Load()
}

// Subscribe returns a channel that receives messages for the given topic
// (supports NATS wildcards like "scout.>"). Call the returned cancel
// function to unsubscribe and close the channel.
func (s *NATSSubscriber) Subscribe(topic string) (<-chan Message, func(), error) {
	ch := make(chan Message, subscriberBuffer)

	var (
		mu     sync.Mutex
		closed bool
	)
	sub, err := s.conn.Subscribe(topic, func(msg *nats.Msg) {
		m := Message{Topic: msg.Subject, Data: msg.Data}
		if msg.Header != nil {
			m.Kind = model.Kind(msg.Header.Get(HeaderKind))
			m.RecordID = msg.Header.Get(HeaderRecordID)
		}
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case ch <- m:
		default:
			// Never block the NATS dispatcher.
			s.dropped.Add(1)
		}
	})
	if err != nil {
		close(ch)
		return nil, nil, fmt.Errorf("subscribing to %s: %w", topic, err)
	}
	// The subscription must be registered on the server before returning
	// so messages published on other connections are routed to it.
	if err := s.conn.Flush(); err != nil {
		_ = sub.Unsubscribe()
		close(ch)
		return nil, nil, fmt.Errorf("flushing subscription: %w", err)
	}

	cancel := func() {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		closed = true
		_ = sub.Unsubscribe()
		for {
			select {
			case <-ch:
			default:
				close(ch)
				return
			}
		}
	}
	return ch, cancel, nil
}

func (s *NATSSubscriber) Close() error {
	s.conn.Close()
	return nil
}
