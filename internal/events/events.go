// Package events publishes step completion notifications to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"github.com/ruitoque/fronteras/internal/models"
)

const (
	deliveryTimeout = 5 * time.Second
	flushTimeoutMs  = 5000
)

// StepEvent is the JSON payload of one finished step.
type StepEvent struct {
	RunID      string    `json:"run_id"`
	Step       string    `json:"step"`
	Period     string    `json:"period"`
	Status     string    `json:"status"`
	Message    string    `json:"message"`
	Files      int       `json:"files"`
	FinishedAt time.Time `json:"finished_at"`
}

// producer is the subset of *kafka.Producer the publisher uses.
type producer interface {
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
	Flush(timeoutMs int) int
	Close()
}

// Publisher writes StepEvents keyed by period, so events of one month stay
// ordered within a partition. Publish waits for the delivery report.
type Publisher struct {
	producer producer
	topic    string
}

// NewProducer creates the producer used for step events.
func NewProducer(broker string) (*kafka.Producer, error) {
	config := kafka.ConfigMap{
		"bootstrap.servers": broker,
		"acks":              "1",
	}
	p, err := kafka.NewProducer(&config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}
	return p, nil
}

func NewPublisher(p *kafka.Producer, topic string) *Publisher {
	return &Publisher{producer: p, topic: topic}
}

func (p *Publisher) Publish(ctx context.Context, run *models.Run) error {
	data, err := json.Marshal(StepEvent{
		RunID:      run.ID,
		Step:       run.Step,
		Period:     run.Period,
		Status:     run.Status,
		Message:    run.Message,
		Files:      run.Files,
		FinishedAt: run.FinishedAt,
	})
	if err != nil {
		return fmt.Errorf("encode step event: %w", err)
	}

	topic := p.topic
	delivery := make(chan kafka.Event, 1)
	err = p.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Key:            []byte(run.Period),
		Value:          data,
	}, delivery)
	if err != nil {
		return fmt.Errorf("kafka produce failed: %w", err)
	}

	timer := time.NewTimer(deliveryTimeout)
	defer timer.Stop()
	select {
	case e := <-delivery:
		switch ev := e.(type) {
		case *kafka.Message:
			if ev.TopicPartition.Error != nil {
				return fmt.Errorf("kafka delivery failed: %w", ev.TopicPartition.Error)
			}
			return nil
		case kafka.Error:
			return fmt.Errorf("kafka delivery failed: %w", ev)
		}
		return fmt.Errorf("unexpected delivery event %v", e)
	case <-timer.C:
		return fmt.Errorf("kafka delivery report not received within %s", deliveryTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close flushes pending messages and closes the producer.
func (p *Publisher) Close() error {
	if left := p.producer.Flush(flushTimeoutMs); left > 0 {
		p.producer.Close()
		return fmt.Errorf("%d step events not delivered before close", left)
	}
	p.producer.Close()
	return nil
}
