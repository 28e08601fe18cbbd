package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/windsim/internal/domain"
)

// publishBatch bounds the number of messages handed to a single WriteMessages call.
const publishBatch = 500

// TracePointMessage is the JSON value of one published trace point.
type TracePointMessage struct {
	RunID        string  `json:"run_id"`
	Index        int     `json:"index"`
	Time         float64 `json:"time"`
	Wind         float64 `json:"wind"`
	Storm        float64 `json:"storm"`
	Burst        float64 `json:"burst"`
	Speed        float64 `json:"speed"`
	StormPresent bool    `json:"storm_present"`
}

// Writer publishes merged trace points to a Kafka topic, keyed by run ID so
// a run stays on one partition in order.
// It implements pipeline.Sink.
//
// A failed Load remembers how many points of the run were acknowledged, so a
// retry of the same run resumes after them instead of publishing them again.
type Writer struct {
	writer messageWriter
	topic  string
	logger *slog.Logger

	mu        sync.Mutex
	published map[string]int // run ID -> acknowledged points of an unfinished run
}

// messageWriter is the subset of *kafkago.Writer used here.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// NewWriter creates a Kafka producer for the trace topic.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchSize:    publishBatch,
	}
	return newWriter(w, topic, logger)
}

func newWriter(mw messageWriter, topic string, logger *slog.Logger) *Writer {
	return &Writer{
		writer:    mw,
		topic:     topic,
		logger:    logger,
		published: make(map[string]int),
	}
}

func (w *Writer) Name() string { return "kafka" }

// Load publishes the trace points of the run in grid order, starting after
// any points a previous failed Load of the same run already published.
func (w *Writer) Load(ctx context.Context, run *domain.Run) error {
	msgs, err := runToMessages(run)
	if err != nil {
		return err
	}

	resumed := w.progress(run.ID)
	if resumed > 0 {
		w.logger.Info("resuming trace publish", "run_id", run.ID, "from", resumed)
	}
	for start := resumed; start < len(msgs); start += publishBatch {
		end := min(start+publishBatch, len(msgs))
		if err := w.writer.WriteMessages(ctx, msgs[start:end]...); err != nil {
			w.setProgress(run.ID, start)
			return fmt.Errorf("publish trace points %d-%d: %w", start, end-1, err)
		}
	}

	w.mu.Lock()
	delete(w.published, run.ID)
	w.mu.Unlock()

	w.logger.Info("trace published", "run_id", run.ID, "topic", w.topic, "messages", len(msgs)-resumed)
	return nil
}

func (w *Writer) progress(runID string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.published[runID]
}

func (w *Writer) setProgress(runID string, n int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if n > 0 {
		w.published[runID] = n
	}
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// runToMessages serializes each trace point with its source series values.
func runToMessages(run *domain.Run) ([]kafkago.Message, error) {
	headers := []kafkago.Header{
		{Key: "run_id", Value: []byte(run.ID)},
		{Key: "seed", Value: []byte(strconv.FormatUint(run.Seed, 10))},
	}

	msgs := make([]kafkago.Message, len(run.Trace))
	for i, p := range run.Trace {
		data, err := json.Marshal(TracePointMessage{
			RunID:        run.ID,
			Index:        i,
			Time:         p.Time,
			Wind:         valueAt(run.Wind, i),
			Storm:        valueAt(run.Storm, i),
			Burst:        valueAt(run.Burst, i),
			Speed:        p.Speed,
			StormPresent: p.StormPresent,
		})
		if err != nil {
			return nil, fmt.Errorf("serialize trace point %d: %w", i, err)
		}
		msgs[i] = kafkago.Message{
			Key:     []byte(run.ID),
			Value:   data,
			Headers: headers,
		}
	}
	return msgs, nil
}

func valueAt(s domain.Series, i int) float64 {
	if i < len(s) {
		return s[i].Value
	}
	return 0
}
