package ingest

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Firehose message parsing errors.
var (
	ErrInvalidCBOR  = errors.New("invalid CBOR data")
	ErrMissingUser  = errors.New("missing user id in firehose message")
	ErrMissingItem  = errors.New("missing item id in firehose message")
	ErrMissingLabel = errors.New("missing label in firehose message")
	ErrMissingSeq   = errors.New("missing sequence number in firehose message")
	ErrUnknownKind  = errors.New("unsupported firehose message kind")
	ErrMissingEvent = errors.New("missing event payload in firehose message")
)

// FirehoseMessage is the top-level message structure on the feedback
// firehose. Besides interaction events the stream carries control
// messages (heartbeats, info) which consumers skip.
type FirehoseMessage struct {
	// Seq is the monotonic stream position, used as the resume cursor.
	Seq int64 `cbor:"seq"`

	// Kind is the message type ("event", "heartbeat", "info").
	Kind string `cbor:"kind"`

	// Event contains the interaction data (when Kind == "event").
	Event *InteractionEvent `cbor:"event,omitempty"`
}

// InteractionEvent is one user interaction carried on the firehose.
type InteractionEvent struct {
	UserID string `cbor:"user_id"`
	ItemID string `cbor:"item_id"`
	Label  string `cbor:"label"`

	// Factors optionally attributes the interaction to scoring factors.
	Factors []string `cbor:"factors,omitempty"`

	// TimeUS is the event timestamp in microseconds.
	TimeUS int64 `cbor:"time_us"`
}

// KindEvent is the message kind carrying interaction payloads.
const KindEvent = "event"

// DecodeMessage decodes a CBOR-encoded firehose message.
// Returns the parsed message or an error if decoding fails.
func DecodeMessage(data []byte) (*FirehoseMessage, error) {
	if len(data) == 0 {
		return nil, ErrInvalidCBOR
	}

	var msg FirehoseMessage
	dec := cbor.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCBOR, err)
	}

	return &msg, nil
}

// ParseEvent extracts and validates an interaction event from a firehose
// message. Non-event kinds return ErrUnknownKind so callers can skip
// them without treating it as corruption.
func ParseEvent(data []byte) (*FirehoseMessage, error) {
	msg, err := DecodeMessage(data)
	if err != nil {
		return nil, err
	}

	if msg.Seq <= 0 {
		return nil, ErrMissingSeq
	}
	if msg.Kind != KindEvent {
		return msg, ErrUnknownKind
	}
	if msg.Event == nil {
		return nil, ErrMissingEvent
	}

	if msg.Event.UserID == "" {
		return nil, ErrMissingUser
	}
	if msg.Event.ItemID == "" {
		return nil, ErrMissingItem
	}
	if msg.Event.Label == "" {
		return nil, ErrMissingLabel
	}

	return msg, nil
}

// EncodeMessage encodes a firehose message to CBOR bytes.
// This is useful for testing round-trip encoding/decoding.
func EncodeMessage(msg *FirehoseMessage) ([]byte, error) {
	var buf bytes.Buffer
	enc := cbor.NewEncoder(&buf)
	if err := enc.Encode(msg); err != nil {
		return nil, fmt.Errorf("failed to encode CBOR: %w", err)
	}
	return buf.Bytes(), nil
}
