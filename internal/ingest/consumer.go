// v1
// internal/ingest/consumer.go
package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"rotctools/attendance/internal/attendance"
)

// Drop reason identifiers exported so instrumentation avoids
// stringly-typed constants at call sites.
const (
	DropReasonJSONError     = "json_error"
	DropReasonMissingPerson = "missing_person"
	DropReasonBadDate       = "bad_date"
	DropReasonBadStatus     = "bad_status"
)

// Observer receives ingest lifecycle signals. Implementations must be
// safe for concurrent use.
type Observer interface {
	MarkConsumed()
	MarkDropped(reason string)
	StoreDepth(persons, days int)
}

// MarkSink persists accepted marks, typically the on-disk journal used to
// rebuild the store after a restart.
type MarkSink interface {
	Append(Mark) error
}

// MarkConsumerConfig captures the runtime tunables required to consume
// the attendance mark stream. Brokers, topic, and group are mandatory.
type MarkConsumerConfig struct {
	Brokers     []string
	Topic       string
	GroupID     string
	PollTimeout time.Duration
}

// kafkaMessageFetcher captures the read capability of the Kafka reader so
// tests can substitute a scripted fetcher.
type kafkaMessageFetcher interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
}

// MarkConsumer streams attendance marks from Kafka into the in-memory
// store, journaling each accepted mark for restart recovery.
type MarkConsumer struct {
	cfg     MarkConsumerConfig
	reader  *kafka.Reader
	fetcher kafkaMessageFetcher
	store   *RecordStore
	journal MarkSink
	obs     Observer
	log     *slog.Logger
	poll    time.Duration
}

// NewMarkConsumer builds a Kafka reader for the mark topic and wires it to
// the supplied store. The journal and observer are optional.
func NewMarkConsumer(cfg MarkConsumerConfig, store *RecordStore, journal MarkSink, obs Observer, log *slog.Logger) (*MarkConsumer, error) {
	if log == nil {
		return nil, errors.New("logger must not be nil")
	}
	if store == nil {
		return nil, errors.New("store must not be nil")
	}
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("at least one broker is required")
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, errors.New("mark topic must not be empty")
	}
	if strings.TrimSpace(cfg.GroupID) == "" {
		return nil, errors.New("consumer group must not be empty")
	}

	poll := cfg.PollTimeout
	if poll <= 0 {
		poll = 5 * time.Second
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		Topic:       cfg.Topic,
		StartOffset: kafka.FirstOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
	})

	return &MarkConsumer{
		cfg:     cfg,
		reader:  reader,
		fetcher: reader,
		store:   store,
		journal: journal,
		obs:     obs,
		log:     log,
		poll:    poll,
	}, nil
}

// Store exposes the backing RecordStore so callers can query buffered marks.
func (c *MarkConsumer) Store() *RecordStore {
	return c.store
}

// Close shuts down the underlying Kafka reader.
func (c *MarkConsumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

// Run blocks until the context is cancelled or the reader is closed,
// consuming messages and updating the in-memory store. Malformed payloads
// are dropped with a classified reason and never stop consumption.
func (c *MarkConsumer) Run(ctx context.Context) error {
	if c == nil {
		return errors.New("nil consumer")
	}
	if ctx == nil {
		return errors.New("context must not be nil")
	}

	c.log.Info("mark_consumer_started",
		slog.String("topic", c.cfg.Topic),
		slog.String("group", c.cfg.GroupID),
		slog.String("brokers", strings.Join(c.cfg.Brokers, ",")),
		slog.Duration("pollTimeout", c.poll),
	)
	defer c.log.Info("mark_consumer_stopped")

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		fetchCtx, cancel := context.WithTimeout(ctx, c.poll)
		msg, err := c.fetcher.FetchMessage(fetchCtx)
		cancel()
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			if errors.Is(err, context.Canceled) {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				continue
			}
			if errors.Is(err, io.ErrClosedPipe) || errors.Is(err, kafka.ErrGroupClosed) {
				return nil
			}
			c.log.Error("mark_consumer_fetch_error", slog.Any("err", err))
			continue
		}

		c.observeConsumed()
		mark, reason, decodeErr := decodeMarkMessage(msg.Value)
		if decodeErr != nil {
			c.observeDropped(reason)
			c.log.Warn("mark_consumer_decode_error",
				slog.Any("err", decodeErr),
				slog.String("reason", reason),
				slog.Int64("offset", msg.Offset),
			)
		} else {
			replaced := c.store.Put(mark)
			if c.journal != nil {
				if err := c.journal.Append(mark); err != nil {
					c.log.Error("mark_journal_append_error", slog.Any("err", err))
				}
			}
			persons, days := c.store.Size()
			c.observeDepth(persons, days)
			c.log.Info("mark_buffered",
				slog.String("personId", mark.PersonID),
				slog.String("cohort", mark.Cohort),
				slog.Time("day", mark.Day),
				slog.String("status", mark.Status.String()),
				slog.Bool("replaced", replaced),
			)
		}

		commitCtx, commitCancel := context.WithTimeout(ctx, c.poll)
		if err := c.reader.CommitMessages(commitCtx, msg); err != nil {
			if !(errors.Is(err, context.Canceled) && ctx.Err() != nil) {
				c.log.Error("mark_consumer_commit_error", slog.Any("err", err))
			}
		}
		commitCancel()
	}
}

func (c *MarkConsumer) observeConsumed() {
	if c.obs != nil {
		c.obs.MarkConsumed()
	}
}

func (c *MarkConsumer) observeDropped(reason string) {
	if c.obs != nil {
		c.obs.MarkDropped(reason)
	}
}

func (c *MarkConsumer) observeDepth(persons, days int) {
	if c.obs != nil {
		c.obs.StoreDepth(persons, days)
	}
}

// markEnvelope mirrors the fields emitted by the spreadsheet-sync job
// while ignoring future extensions. Alias fields cover the two header
// vocabularies the sync job has used.
type markEnvelope struct {
	PersonID string          `json:"personId"`
	Name     string          `json:"name"`
	Cohort   string          `json:"cohort"`
	MS       string          `json:"ms"`
	Date     json.RawMessage `json:"date"`
	Status   string          `json:"status"`
	Mark     string          `json:"mark"`
}

// decodeMarkMessage extracts a mark from a Kafka message value, enforcing
// the expected types while tolerating either field vocabulary. It returns
// the drop reason alongside the error for instrumentation.
func decodeMarkMessage(raw []byte) (Mark, string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var env markEnvelope
	if err := dec.Decode(&env); err != nil {
		return Mark{}, DropReasonJSONError, fmt.Errorf("decode mark payload: %w", err)
	}

	personID := strings.TrimSpace(env.PersonID)
	if personID == "" {
		personID = strings.TrimSpace(env.Name)
	}
	if personID == "" {
		return Mark{}, DropReasonMissingPerson, errors.New("personId missing or empty")
	}

	cohort := strings.TrimSpace(env.Cohort)
	if cohort == "" {
		cohort = strings.TrimSpace(env.MS)
	}

	day, err := parseMarkDate(env.Date)
	if err != nil {
		return Mark{}, DropReasonBadDate, err
	}

	rawStatus := env.Status
	if strings.TrimSpace(rawStatus) == "" {
		rawStatus = env.Mark
	}
	status, known := attendance.ParseStatus(rawStatus)
	if !known {
		return Mark{}, DropReasonBadStatus, fmt.Errorf("unknown status mark %q", rawStatus)
	}

	return Mark{PersonID: personID, Cohort: cohort, Day: day, Status: status}, "", nil
}

// parseMarkDate resolves the mark date field accepting calendar strings,
// RFC3339 timestamps, and Unix epoch milliseconds provided either as
// string or numeric JSON values.
func parseMarkDate(raw json.RawMessage) (time.Time, error) {
	if len(raw) == 0 {
		return time.Time{}, errors.New("date field missing")
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		trimmed := strings.TrimSpace(asString)
		if trimmed == "" {
			return time.Time{}, errors.New("date string empty")
		}
		if day, err := attendance.ParseDay(trimmed); err == nil {
			return day, nil
		}
		if ts, err := time.Parse(time.RFC3339, trimmed); err == nil {
			return attendance.DayOf(ts), nil
		}
		if millis, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
			return attendance.DayOf(time.UnixMilli(millis)), nil
		}
		return time.Time{}, fmt.Errorf("unsupported date string %q", trimmed)
	}

	var asNumber json.Number
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		if millis, err := asNumber.Int64(); err == nil {
			return attendance.DayOf(time.UnixMilli(millis)), nil
		}
	}

	return time.Time{}, errors.New("date format not recognized")
}
