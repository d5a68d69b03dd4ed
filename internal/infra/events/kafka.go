// Package events publishes assessment lifecycle events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/bryanwahyu/medassist/internal/domain/assessment"
)

// DefaultTopic carries one message per completed report.
const DefaultTopic = "assessment.completed"

// messageWriter is satisfied by *kafka.Writer.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Publisher struct {
	w       messageWriter
	timeout time.Duration
}

func NewPublisher(brokers []string, topic string) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Publisher{
		w: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		},
		timeout: 10 * time.Second,
	}
}

// CompletedEvent is the payload consumed by the notification pipeline.
// It carries no symptom text.
type CompletedEvent struct {
	Type                string    `json:"type"`
	ReportID            string    `json:"report_id"`
	HospitalID          string    `json:"hospital_id"`
	PatientID           string    `json:"patient_id,omitempty"`
	RiskLevel           string    `json:"risk_level"`
	RecommendedDoctorID *string   `json:"recommended_doctor_id,omitempty"`
	Provider            string    `json:"provider"`
	Model               string    `json:"model"`
	CreatedAt           time.Time `json:"created_at"`
}

func (p *Publisher) ReportCompleted(ctx context.Context, r *assessment.Report) error {
	msg, err := completionMessage(r)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.w.WriteMessages(ctx, msg)
}

// completionMessage keys by hospital so one tenant's events stay ordered.
func completionMessage(r *assessment.Report) (kafka.Message, error) {
	body, err := json.Marshal(CompletedEvent{
		Type:                "assessment.completed",
		ReportID:            r.ID,
		HospitalID:          r.HospitalID,
		PatientID:           r.PatientID,
		RiskLevel:           string(r.RiskLevel),
		RecommendedDoctorID: r.RecommendedDoctorID,
		Provider:            r.Provider,
		Model:               r.Model,
		CreatedAt:           r.CreatedAt,
	})
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(r.HospitalID),
		Value: body,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte("assessment.completed")},
		},
	}, nil
}

func (p *Publisher) Close() error { return p.w.Close() }
