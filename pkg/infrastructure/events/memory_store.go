package events

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AllEvents subscribes a handler to every event type
const AllEvents = "*"

type InMemoryEventStore struct {
	streams     map[string][]Event
	subscribers map[string][]EventHandler
	allEvents   []Event
	logger      *zap.Logger
	mutex       sync.RWMutex
	// serializes delivery so handlers observe events in append order
	notify sync.Mutex
}

func NewInMemoryEventStore(logger *zap.Logger) *InMemoryEventStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InMemoryEventStore{
		streams:     make(map[string][]Event),
		subscribers: make(map[string][]EventHandler),
		logger:      logger,
	}
}

// AppendEvent versions the event within its stream, stores it and delivers
// it to subscribers before returning. Handler failures are logged and
// joined into the returned error; the event stays appended either way.
func (s *InMemoryEventStore) AppendEvent(streamID string, event Event) error {
	if streamID == "" {
		return errors.New("stream id cannot be empty")
	}

	s.notify.Lock()
	defer s.notify.Unlock()

	s.mutex.Lock()
	id := event.ID()
	if id == uuid.Nil {
		id = uuid.New()
	}
	versioned := BaseEvent{
		EventID:      id,
		EventType:    event.Type(),
		Stream:       streamID,
		EventData:    event.Data(),
		EventTime:    event.Timestamp(),
		EventVersion: len(s.streams[streamID]) + 1,
	}
	s.streams[streamID] = append(s.streams[streamID], versioned)
	s.allEvents = append(s.allEvents, versioned)
	handlers := s.handlersFor(versioned.Type())
	s.mutex.Unlock()

	return s.deliver(versioned, handlers)
}

func (s *InMemoryEventStore) ReadEvents(streamID string, fromVersion int) ([]Event, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	events := s.streams[streamID]
	if fromVersion < 1 {
		fromVersion = 1
	}
	if fromVersion > len(events) {
		return []Event{}, nil
	}
	return append([]Event(nil), events[fromVersion-1:]...), nil
}

func (s *InMemoryEventStore) ReadAllEvents(fromPosition int) ([]Event, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if fromPosition < 0 {
		fromPosition = 0
	}
	if fromPosition >= len(s.allEvents) {
		return []Event{}, nil
	}
	return append([]Event(nil), s.allEvents[fromPosition:]...), nil
}

func (s *InMemoryEventStore) Subscribe(eventTypes []string, handler EventHandler) error {
	if handler == nil {
		return errors.New("handler cannot be nil")
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, eventType := range eventTypes {
		s.subscribers[eventType] = append(s.subscribers[eventType], handler)
	}
	return nil
}

func (s *InMemoryEventStore) Unsubscribe(handler EventHandler) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for eventType, handlers := range s.subscribers {
		kept := handlers[:0:0]
		for _, h := range handlers {
			if h != handler {
				kept = append(kept, h)
			}
		}
		s.subscribers[eventType] = kept
	}
	return nil
}

// Len returns the number of events appended so far
func (s *InMemoryEventStore) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.allEvents)
}

// handlersFor must be called with the mutex held
func (s *InMemoryEventStore) handlersFor(eventType string) []EventHandler {
	handlers := append([]EventHandler(nil), s.subscribers[eventType]...)
	return append(handlers, s.subscribers[AllEvents]...)
}

func (s *InMemoryEventStore) deliver(event Event, handlers []EventHandler) error {
	var errs []error
	for _, handler := range handlers {
		if !handler.CanHandle(event.Type()) {
			continue
		}
		if err := handler.Handle(event); err != nil {
			s.logger.Warn("event handler failed",
				zap.String("event_type", event.Type()),
				zap.String("stream_id", event.StreamID()),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("handling %s: %w", event.Type(), err))
		}
	}
	return errors.Join(errs...)
}
