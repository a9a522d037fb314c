package accounting

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/credisol/crediledger/internal/domain"
	"github.com/credisol/crediledger/internal/usecase"
)

// Poster drains the outbox and delivers events to the external accounting
// system. It runs outside the ledger's transactions: a slow or failing
// accounting endpoint delays delivery but never blocks a payment.
type Poster struct {
	outboxRepo    usecase.OutboxRepository
	sink          Sink
	logger        *slog.Logger
	batchSize     int
	interval      time.Duration
	postRetries   int
	retryInterval time.Duration
}

// Sink delivers a single event to the accounting system.
type Sink interface {
	Post(ctx context.Context, event *domain.OutboxEvent) error
}

// Config for Poster.
type Config struct {
	OutboxRepo    usecase.OutboxRepository
	Sink          Sink
	Logger        *slog.Logger
	BatchSize     int           // Number of events to fetch per batch
	Interval      time.Duration // Polling interval
	PostRetries   int           // Delivery retries per event before leaving it for the next poll
	RetryInterval time.Duration // Initial backoff between delivery retries
}

// NewPoster creates a new Poster.
func NewPoster(cfg Config) *Poster {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.Interval == 0 {
		cfg.Interval = 5 * time.Second
	}
	if cfg.PostRetries == 0 {
		cfg.PostRetries = 3
	}
	if cfg.RetryInterval == 0 {
		cfg.RetryInterval = 100 * time.Millisecond
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Poster{
		outboxRepo:    cfg.OutboxRepo,
		sink:          cfg.Sink,
		logger:        cfg.Logger,
		batchSize:     cfg.BatchSize,
		interval:      cfg.Interval,
		postRetries:   cfg.PostRetries,
		retryInterval: cfg.RetryInterval,
	}
}

// Start begins the posting worker. It runs continuously until the context
// is cancelled.
func (p *Poster) Start(ctx context.Context) error {
	p.logger.Info("accounting poster started",
		slog.Int("batch_size", p.batchSize),
		slog.Duration("interval", p.interval))

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// Drain immediately on start
	if err := p.drain(ctx); err != nil {
		p.logger.Error("error draining outbox on start", slog.String("error", err.Error()))
	}

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("accounting poster shutting down")
			return ctx.Err()
		case <-ticker.C:
			if err := p.drain(ctx); err != nil {
				p.logger.Error("error draining outbox", slog.String("error", err.Error()))
			}
		}
	}
}

// drain fetches and posts a batch of unpublished events.
func (p *Poster) drain(ctx context.Context) error {
	events, err := p.outboxRepo.GetUnpublished(ctx, p.batchSize)
	if err != nil {
		return err
	}

	if len(events) == 0 {
		return nil
	}

	p.logger.Info("posting events", slog.Int("count", len(events)))

	for _, event := range events {
		if err := p.post(ctx, event); err != nil {
			p.logger.Error("failed to post event",
				slog.String("event_id", event.ID),
				slog.String("event_type", event.EventType),
				slog.String("error", err.Error()))
			// Continue posting other events even if one fails
			continue
		}

		if err := p.outboxRepo.MarkPublished(ctx, event.ID, time.Now()); err != nil {
			p.logger.Error("failed to mark event as published",
				slog.String("event_id", event.ID),
				slog.String("error", err.Error()))
			// Don't continue - we don't want to re-post this event
		}
	}

	return nil
}

// post delivers one event, retrying transient sink failures with exponential
// backoff. After the retry budget is spent the event stays unpublished and is
// picked up again on the next poll.
func (p *Poster) post(ctx context.Context, event *domain.OutboxEvent) error {
	p.logger.Debug("posting event",
		slog.String("event_id", event.ID),
		slog.String("event_type", event.EventType),
		slog.String("aggregate_type", event.AggregateType),
		slog.String("aggregate_id", event.AggregateID))

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.retryInterval

	retries := 0
	err := backoff.Retry(func() error {
		err := p.sink.Post(ctx, event)
		if err == nil {
			return nil
		}

		retries++
		if retries > p.postRetries {
			return backoff.Permanent(err)
		}

		p.logger.Warn("accounting post failed, retrying",
			slog.String("event_id", event.ID),
			slog.Int("retry", retries),
			slog.String("error", err.Error()))

		return err
	}, backoff.WithContext(b, ctx))
	if err != nil {
		return err
	}

	p.logger.Info("event posted",
		slog.String("event_id", event.ID),
		slog.String("event_type", event.EventType))

	return nil
}

// LogSink is a sink that logs events instead of delivering them. It is the
// default when no accounting endpoint is configured.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a new LogSink.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

// Post logs the event.
func (s *LogSink) Post(ctx context.Context, event *domain.OutboxEvent) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}

	s.logger.Info("ACCOUNTING EVENT",
		slog.String("event_id", event.ID),
		slog.String("event_type", event.EventType),
		slog.String("aggregate_type", event.AggregateType),
		slog.String("aggregate_id", event.AggregateID),
		slog.String("payload", string(payload)))

	return nil
}
