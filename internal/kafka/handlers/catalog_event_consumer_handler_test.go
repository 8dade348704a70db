package kafkahandlers

import (
	"context"
	"testing"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"catalog-admin/internal/catalogtypes"
)

type recordingBroadcaster struct {
	events []catalogtypes.Event
}

func (r *recordingBroadcaster) BroadcastEvent(event catalogtypes.Event) {
	r.events = append(r.events, event)
}

func TestHandleCatalogEvent(t *testing.T) {
	b := &recordingBroadcaster{}
	logic := NewCatalogEventConsumerLogic(b)

	msg := &kafka.Message{Value: []byte(`{"type":"folder.created","dir":"Shoes","name":"Boots","timestamp":"2026-05-01T00:00:00Z"}`)}
	if err := logic.HandleCatalogEvent(context.Background(), msg); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(b.events) != 1 || b.events[0].Type != catalogtypes.FolderCreatedEvent || b.events[0].Dir != "Shoes" {
		t.Errorf("Unexpected broadcast: %+v", b.events)
	}
}

func TestHandleCatalogEventSkipsGarbage(t *testing.T) {
	b := &recordingBroadcaster{}
	logic := NewCatalogEventConsumerLogic(b)

	if err := logic.HandleCatalogEvent(context.Background(), &kafka.Message{Value: []byte("{")}); err != nil {
		t.Errorf("Expected garbage to be skipped without error, got %v", err)
	}
	if len(b.events) != 0 {
		t.Errorf("Expected no broadcast, got %+v", b.events)
	}
}
