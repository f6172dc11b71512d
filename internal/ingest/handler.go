package ingest

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/yojanahub/avsar/internal/feedback"
)

// Recorder is the sink for validated interaction events. The feedback
// ledger satisfies it.
type Recorder interface {
	Record(ctx context.Context, userID, itemID, label string, factors ...string) (*feedback.Event, error)
}

// Handler decodes firehose messages, records valid interactions, and
// advances the resume cursor. Malformed or unknown messages are counted
// and skipped; they never tear down the connection.
type Handler struct {
	recorder Recorder
	cursor   CursorTracker
	logger   *slog.Logger
	metrics  *Metrics

	// lastSeq is the highest sequence processed this session (atomic).
	// Messages at or below it are replay duplicates after a reconnect.
	lastSeq int64
}

// NewHandler creates a firehose message handler.
func NewHandler(recorder Recorder, cursor CursorTracker, logger *slog.Logger, metrics *Metrics) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		recorder: recorder,
		cursor:   cursor,
		logger:   logger,
		metrics:  metrics,
	}
}

// Resume loads the persisted cursor so replayed messages from before the
// restart are skipped.
func (h *Handler) Resume(ctx context.Context) (int64, error) {
	seq, err := h.cursor.GetLastSequence(ctx)
	if err != nil {
		return 0, err
	}
	atomic.StoreInt64(&h.lastSeq, seq)
	return seq, nil
}

// HandlerFunc binds a context and returns the callback for the WebSocket
// client.
func (h *Handler) HandlerFunc(ctx context.Context) MessageHandler {
	return func(messageType int, payload []byte) error {
		return h.handle(ctx, payload)
	}
}

func (h *Handler) handle(ctx context.Context, payload []byte) error {
	msg, err := ParseEvent(payload)

	// Control messages still advance the cursor.
	if errors.Is(err, ErrUnknownKind) {
		h.advance(ctx, msg.Seq)
		if h.metrics != nil {
			h.metrics.IncMessages(StatusSkipped)
		}
		return nil
	}
	if err != nil {
		h.logger.Warn("skipping malformed firehose message",
			slog.String("error", err.Error()))
		if h.metrics != nil {
			h.metrics.IncMessages(StatusInvalid)
		}
		return nil
	}

	if msg.Seq <= atomic.LoadInt64(&h.lastSeq) {
		if h.metrics != nil {
			h.metrics.IncMessages(StatusDuplicate)
		}
		return nil
	}

	event := msg.Event
	if _, err := h.recorder.Record(ctx, event.UserID, event.ItemID, event.Label, event.Factors...); err != nil {
		if errors.Is(err, feedback.ErrUnknownLabel) {
			h.logger.Warn("skipping firehose event with unknown label",
				slog.String("label", event.Label),
				slog.Int64("seq", msg.Seq))
			h.advance(ctx, msg.Seq)
			if h.metrics != nil {
				h.metrics.IncMessages(StatusInvalid)
			}
			return nil
		}
		// Persistence failures are fatal for this message; disconnect so
		// the stream replays from the last committed cursor.
		h.logger.Error("failed to record firehose event",
			slog.Int64("seq", msg.Seq),
			slog.String("error", err.Error()))
		if h.metrics != nil {
			h.metrics.IncMessages(StatusError)
		}
		return err
	}

	h.advance(ctx, msg.Seq)
	if h.metrics != nil {
		h.metrics.IncMessages(StatusProcessed)
	}
	return nil
}

// advance moves the in-session and persisted cursors forward.
func (h *Handler) advance(ctx context.Context, seq int64) {
	if seq <= 0 {
		return
	}
	atomic.StoreInt64(&h.lastSeq, seq)
	if err := h.cursor.UpdateSequence(ctx, seq); err != nil {
		h.logger.Error("failed to persist cursor",
			slog.Int64("seq", seq),
			slog.String("error", err.Error()))
	}
	if h.metrics != nil {
		h.metrics.SetLastSequence(float64(seq))
	}
}
