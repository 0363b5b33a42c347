package infrastructure

import (
	"context"
	"fmt"
	"time"

	"questhelper/events"
	"questhelper/infrastructure/observability"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"
)

const sourceService = "questhelper"

type messagePublisher interface {
	Publish(ctx context.Context, subject string, data []byte, msgID string) error
}

// Envelope is the decoded form of a published event
type Envelope struct {
	EventID       string
	EventType     string
	Timestamp     time.Time
	SourceService string
	Payload       map[string]any
}

// NATSEventPublisher delivers events to in-process subscribers and then to NATS
type NATSEventPublisher struct {
	client        messagePublisher
	subjectMapper *EventSubjectMapper
	local         *events.Bus
	timeout       time.Duration
}

// NewNATSEventPublisher creates a publisher. local may be nil.
func NewNATSEventPublisher(client messagePublisher, subjectMapper *EventSubjectMapper, local *events.Bus) *NATSEventPublisher {
	return &NATSEventPublisher{
		client:        client,
		subjectMapper: subjectMapper,
		local:         local,
		timeout:       5 * time.Second,
	}
}

// Publish emits the event locally and publishes its envelope to NATS
func (p *NATSEventPublisher) Publish(event events.Event) error {
	if p.local != nil {
		p.local.Emit(context.Background(), event)
	}

	subject := p.subjectMapper.MapEventToSubject(event)
	eventID := uuid.New().String()

	data, err := EncodeEnvelope(eventID, event, timestamppb.Now())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	if err := p.client.Publish(ctx, subject, data, eventID); err != nil {
		return fmt.Errorf("failed to publish event to NATS: %w", err)
	}

	observability.GetMetrics().RecordNATSMessagePublished(string(event.Type()))

	log.WithFields(log.Fields{
		"eventType": event.Type(),
		"eventId":   eventID,
		"subject":   subject,
	}).Debug("Published event to NATS")

	return nil
}

// EncodeEnvelope serializes an event as a protobuf Struct
func EncodeEnvelope(eventID string, event events.Event, ts *timestamppb.Timestamp) ([]byte, error) {
	payload, err := structpb.NewStruct(event.Fields())
	if err != nil {
		return nil, fmt.Errorf("failed to encode event payload: %w", err)
	}

	envelope := &structpb.Struct{
		Fields: map[string]*structpb.Value{
			"event_id":       structpb.NewStringValue(eventID),
			"event_type":     structpb.NewStringValue(string(event.Type())),
			"timestamp":      structpb.NewStringValue(ts.AsTime().UTC().Format(time.RFC3339Nano)),
			"source_service": structpb.NewStringValue(sourceService),
			"payload":        structpb.NewStructValue(payload),
		},
	}

	data, err := proto.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event envelope: %w", err)
	}
	return data, nil
}

// DecodeEnvelope parses bytes produced by EncodeEnvelope
func DecodeEnvelope(data []byte) (*Envelope, error) {
	var envelope structpb.Struct
	if err := proto.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event envelope: %w", err)
	}

	fields := envelope.GetFields()
	ts, err := time.Parse(time.RFC3339Nano, fields["timestamp"].GetStringValue())
	if err != nil {
		return nil, fmt.Errorf("invalid envelope timestamp: %w", err)
	}

	return &Envelope{
		EventID:       fields["event_id"].GetStringValue(),
		EventType:     fields["event_type"].GetStringValue(),
		Timestamp:     ts,
		SourceService: fields["source_service"].GetStringValue(),
		Payload:       fields["payload"].GetStructValue().AsMap(),
	}, nil
}

// EnsureDomainEventStream ensures the stream for published events exists
func EnsureDomainEventStream(client *NATSClient, mapper *EventSubjectMapper) error {
	return client.EnsureStream(DomainEventStream, mapper.GetAllSubjects())
}
