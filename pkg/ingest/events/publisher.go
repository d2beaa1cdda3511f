// Package events provides event publishing for the review load pipeline.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fintech-reviews/revload/pkg/logging"
)

// Redis channels for load job events
const (
	ChannelLoadJobProgress  = "events.load_job.progress"
	ChannelLoadJobCompleted = "events.load_job.completed"
)

// BaseEvent contains common fields for all events.
type BaseEvent struct {
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	Version   string    `json:"version"`
}

// NewBaseEvent creates a BaseEvent with sensible defaults.
func NewBaseEvent(eventType string) BaseEvent {
	return BaseEvent{
		EventType: eventType,
		Timestamp: time.Now().UTC(),
		Source:    "revload",
		Version:   "1.0",
	}
}

// LoadJobProgressEvent is published after each committed chunk.
type LoadJobProgressEvent struct {
	BaseEvent

	JobID string `json:"job_id"`
	File  string `json:"file"`

	TotalRecords  int `json:"total_records"`
	LoadedCount   int `json:"loaded_count"`
	InsertedCount int `json:"inserted_count"`
	UpdatedCount  int `json:"updated_count"`
	SkippedCount  int `json:"skipped_count"`
	RejectedCount int `json:"rejected_count"`

	ChunkIndex     int     `json:"chunk_index"`
	TotalChunks    int     `json:"total_chunks"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	Status         string  `json:"status"`
}

// LoadJobCompletedEvent is published when a load run finishes.
type LoadJobCompletedEvent struct {
	BaseEvent

	JobID string `json:"job_id"`
	File  string `json:"file"`

	TotalRecords  int `json:"total_records"`
	InsertedCount int `json:"inserted_count"`
	UpdatedCount  int `json:"updated_count"`
	SkippedCount  int `json:"skipped_count"`
	RejectedCount int `json:"rejected_count"`

	StartedAt       time.Time `json:"started_at"`
	CompletedAt     time.Time `json:"completed_at"`
	DurationSeconds float64   `json:"duration_seconds"`

	Success bool `json:"success"`
}

// Publisher publishes load events to Redis. A nil Publisher (or one built
// on a nil client) silently drops events, so event publishing stays
// optional.
type Publisher struct {
	client *redis.Client
	logger logging.Logger
}

// PublisherConfig holds Redis connection configuration.
type PublisherConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewPublisher creates a new event publisher.
func NewPublisher(client *redis.Client, logger logging.Logger) *Publisher {
	return &Publisher{
		client: client,
		logger: logger.With(logging.F("component", "event_publisher")),
	}
}

// NewPublisherFromConfig creates a publisher with a new Redis connection.
func NewPublisherFromConfig(cfg PublisherConfig, logger logging.Logger) (*Publisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewPublisher(client, logger), nil
}

// JobProgressParams contains parameters for publishing job progress.
type JobProgressParams struct {
	JobID          string
	File           string
	TotalRecords   int
	LoadedCount    int
	InsertedCount  int
	UpdatedCount   int
	SkippedCount   int
	RejectedCount  int
	ChunkIndex     int
	TotalChunks    int
	ElapsedSeconds float64
	Status         string
}

// PublishJobProgress publishes a progress update for a load job.
func (p *Publisher) PublishJobProgress(ctx context.Context, params JobProgressParams) error {
	event := LoadJobProgressEvent{
		BaseEvent:      NewBaseEvent("load_job.progress"),
		JobID:          params.JobID,
		File:           params.File,
		TotalRecords:   params.TotalRecords,
		LoadedCount:    params.LoadedCount,
		InsertedCount:  params.InsertedCount,
		UpdatedCount:   params.UpdatedCount,
		SkippedCount:   params.SkippedCount,
		RejectedCount:  params.RejectedCount,
		ChunkIndex:     params.ChunkIndex,
		TotalChunks:    params.TotalChunks,
		ElapsedSeconds: params.ElapsedSeconds,
		Status:         params.Status,
	}

	return p.publish(ctx, ChannelLoadJobProgress, event)
}

// JobCompletedParams contains parameters for publishing job completion.
type JobCompletedParams struct {
	JobID         string
	File          string
	TotalRecords  int
	InsertedCount int
	UpdatedCount  int
	SkippedCount  int
	RejectedCount int
	StartedAt     time.Time
	CompletedAt   time.Time
	Success       bool
}

// PublishJobCompleted publishes a completion event for a load job.
func (p *Publisher) PublishJobCompleted(ctx context.Context, params JobCompletedParams) error {
	event := LoadJobCompletedEvent{
		BaseEvent:       NewBaseEvent("load_job.completed"),
		JobID:           params.JobID,
		File:            params.File,
		TotalRecords:    params.TotalRecords,
		InsertedCount:   params.InsertedCount,
		UpdatedCount:    params.UpdatedCount,
		SkippedCount:    params.SkippedCount,
		RejectedCount:   params.RejectedCount,
		StartedAt:       params.StartedAt,
		CompletedAt:     params.CompletedAt,
		DurationSeconds: params.CompletedAt.Sub(params.StartedAt).Seconds(),
		Success:         params.Success,
	}

	return p.publish(ctx, ChannelLoadJobCompleted, event)
}

// publish serializes and publishes an event to Redis. Publish failures are
// logged as warnings; events are advisory and never fail a load.
func (p *Publisher) publish(ctx context.Context, channel string, event interface{}) error {
	if p == nil || p.client == nil {
		return nil
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.client.Publish(ctx, channel, data).Err(); err != nil {
		p.logger.Warn("Failed to publish event",
			logging.Err(err),
			logging.F("channel", channel))
		return fmt.Errorf("failed to publish to %s: %w", channel, err)
	}

	p.logger.Debug("Event published",
		logging.F("channel", channel),
		logging.F("payload_size", len(data)))

	return nil
}

// Close closes the Redis connection.
func (p *Publisher) Close() error {
	if p == nil || p.client == nil {
		return nil
	}
	return p.client.Close()
}
