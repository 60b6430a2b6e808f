// Package events publishes artifact notifications for display clients.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"ledcanvas/internal/models"
)

const TypeArtifactCreated = "artifact.created"

type ArtifactCreated struct {
	Type            string    `json:"type"`
	ID              string    `json:"id"`
	Filename        string    `json:"filename"`
	OwnerID         int64     `json:"owner_id"`
	Width           int       `json:"width"`
	Height          int       `json:"height"`
	DisplayName     *string   `json:"display_name"`
	ScrollDirection string    `json:"scroll_direction"`
	ScrollSpeed     int       `json:"scroll_speed"`
	CreatedAt       time.Time `json:"created_at"`
}

func NewArtifactCreated(a *models.Artifact) ArtifactCreated {
	return ArtifactCreated{
		Type:            TypeArtifactCreated,
		ID:              a.ID.String(),
		Filename:        a.Filename,
		OwnerID:         a.OwnerID,
		Width:           a.Width,
		Height:          a.Height,
		DisplayName:     a.DisplayName,
		ScrollDirection: string(a.ScrollDirection),
		ScrollSpeed:     a.ScrollSpeed,
		CreatedAt:       a.CreatedAt,
	}
}

type Publisher interface {
	ArtifactCreated(ctx context.Context, a *models.Artifact) error
}

// MessageWriter is satisfied by *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type KafkaPublisher struct {
	w MessageWriter
}

func NewKafkaPublisher(w MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{w: w}
}

// Events are written one at a time, so the writer flushes almost immediately
// instead of waiting kafka-go's default second to fill a batch.
const (
	writerBatchTimeout = 5 * time.Millisecond
	writerMaxAttempts  = 3
	writerTimeout      = 2 * time.Second
)

// NewKafkaWriter builds the writer used by KafkaPublisher.
func NewKafkaWriter(broker, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(broker),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           writerBatchTimeout,
		MaxAttempts:            writerMaxAttempts,
		WriteTimeout:           writerTimeout,
	}
}

func (p *KafkaPublisher) ArtifactCreated(ctx context.Context, a *models.Artifact) error {
	const op = "events.ArtifactCreated"

	payload, err := json.Marshal(NewArtifactCreated(a))
	if err != nil {
		return fmt.Errorf("%s: %v", op, err)
	}

	msg := kafka.Message{
		Key:   []byte(a.ID.String()),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(TypeArtifactCreated)},
		},
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
