package events

import (
	"go.uber.org/zap"
)

// InMemoryEventStore keeps events in append order. Handlers run inline on
// append; a run is single-threaded so the store takes no locks.
type InMemoryEventStore struct {
	streams     map[string][]Event
	subscribers map[string][]EventHandler
	allEvents   []Event
	logger      *zap.Logger
}

func NewInMemoryEventStore(logger *zap.Logger) *InMemoryEventStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InMemoryEventStore{
		streams:     make(map[string][]Event),
		subscribers: make(map[string][]EventHandler),
		allEvents:   make([]Event, 0),
		logger:      logger,
	}
}

func (s *InMemoryEventStore) AppendEvent(streamID string, event Event) error {
	eventWithVersion := BaseEvent{
		EventType:    event.Type(),
		Stream:       streamID,
		EventData:    event.Data(),
		EventTime:    event.Timestamp(),
		EventVersion: len(s.streams[streamID]) + 1,
	}

	s.streams[streamID] = append(s.streams[streamID], eventWithVersion)
	s.allEvents = append(s.allEvents, eventWithVersion)

	s.notifySubscribers(eventWithVersion)
	return nil
}

func (s *InMemoryEventStore) ReadEvents(streamID string) []Event {
	events := s.streams[streamID]
	out := make([]Event, len(events))
	copy(out, events)
	return out
}

func (s *InMemoryEventStore) ReadAllEvents() []Event {
	out := make([]Event, len(s.allEvents))
	copy(out, s.allEvents)
	return out
}

func (s *InMemoryEventStore) Subscribe(eventTypes []string, handler EventHandler) {
	for _, eventType := range eventTypes {
		s.subscribers[eventType] = append(s.subscribers[eventType], handler)
	}
}

func (s *InMemoryEventStore) notifySubscribers(event Event) {
	for _, handler := range s.subscribers[event.Type()] {
		if !handler.CanHandle(event.Type()) {
			continue
		}
		if err := handler.Handle(event); err != nil {
			s.logger.Warn("Event handler failed",
				zap.String("event", event.Type()),
				zap.Error(err))
		}
	}
}
