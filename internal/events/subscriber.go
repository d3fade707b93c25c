package events

import "github.com/alfredjeanlab/scout/internal/model"

// Message is one received event. Kind and RecordID come from the message
// headers and are empty for messages published without them.
type Message struct {
	Topic    string
	Kind     model.Kind
	RecordID string
	Data     []byte
}

// Subscriber receives events from the event bus.
type Subscriber interface {
	// Subscribe delivers messages on the returned channel.
	// Call the returned cancel function to unsubscribe and close the channel.
	Subscribe(topic string) (<-chan Message, func(), error)
	Close() error
}
