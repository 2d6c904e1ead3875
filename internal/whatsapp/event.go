package whatsapp

import "errors"

// ErrNoTextMessage marks webhook payloads that carry no processable text
// message: status updates, media messages, or malformed events. Such events
// are acknowledged and dropped.
var ErrNoTextMessage = errors.New("no text message in event")

// Event mirrors the nested Graph webhook payload. Only the path
// entry[0].changes[0].value.messages[0] is read.
type Event struct {
	Entry []Entry `json:"entry"`
}

type Entry struct {
	Changes []Change `json:"changes"`
}

type Change struct {
	Value Value `json:"value"`
}

type Value struct {
	Messages []Message `json:"messages"`
}

type Message struct {
	From string `json:"from"`
	Type string `json:"type"`
	Text *Text  `json:"text"`
}

type Text struct {
	Body string `json:"body"`
}

// TextMessage digs the first inbound text message out of the event.
func (e *Event) TextMessage() (from, body string, err error) {
	if len(e.Entry) == 0 || len(e.Entry[0].Changes) == 0 {
		return "", "", ErrNoTextMessage
	}
	value := e.Entry[0].Changes[0].Value
	if len(value.Messages) == 0 {
		return "", "", ErrNoTextMessage
	}
	msg := value.Messages[0]
	if msg.Type != "text" || msg.Text == nil || msg.From == "" {
		return "", "", ErrNoTextMessage
	}
	return msg.From, msg.Text.Body, nil
}
