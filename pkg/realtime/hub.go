package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Topics clients may subscribe to.
const (
	TopicPrograms      = "programs"
	TopicCoverage      = "coverage"
	TopicConfiguration = "configuration"
	TopicReports       = "reports"
)

// Event types published by the API.
const (
	EventProgramsInvalidated  = "programs.invalidated"
	EventCoverageInvalidated  = "coverage.invalidated"
	EventConfigurationUpdated = "configuration.updated"
	EventReportFinished       = "report.finished"
)

const (
	writeWait  = 5 * time.Second
	sendBuffer = 16
)

// Event tells subscribers that cached views of a topic are stale.
type Event struct {
	Type       string    `json:"type"`
	Topic      string    `json:"topic"`
	ResourceID string    `json:"resourceId,omitempty"`
	At         time.Time `json:"at"`
}

// subscriber owns the only writer of its connection.
type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans events out to websocket connections grouped by topic.
type Hub struct {
	mu     sync.Mutex
	subs   map[*websocket.Conn]*subscriber
	topics map[string]map[*subscriber]struct{}
	logger *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		subs:   make(map[*websocket.Conn]*subscriber),
		topics: make(map[string]map[*subscriber]struct{}),
		logger: logger,
	}
}

// Subscribe registers ws for each topic and starts its writer.
func (h *Hub) Subscribe(ws *websocket.Conn, topics ...string) {
	sub := &subscriber{conn: ws, send: make(chan []byte, sendBuffer)}
	h.add(sub, topics...)
	go h.writePump(sub)
}

func (h *Hub) add(sub *subscriber, topics ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs[sub.conn] = sub
	for _, topic := range topics {
		members, ok := h.topics[topic]
		if !ok {
			members = make(map[*subscriber]struct{})
			h.topics[topic] = members
		}
		members[sub] = struct{}{}
	}
}

// Unsubscribe drops ws from every topic and closes it.
func (h *Hub) Unsubscribe(ws *websocket.Conn) {
	h.mu.Lock()
	if sub, ok := h.subs[ws]; ok {
		h.removeLocked(sub)
	}
	h.mu.Unlock()
	_ = ws.Close()
}

// removeLocked detaches sub and closes its queue; h.mu must be held.
func (h *Hub) removeLocked(sub *subscriber) {
	if h.subs[sub.conn] != sub {
		return
	}
	delete(h.subs, sub.conn)
	for topic, members := range h.topics {
		delete(members, sub)
		if len(members) == 0 {
			delete(h.topics, topic)
		}
	}
	close(sub.send)
}

// Subscribers counts connections on a topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.topics[topic])
}

// Publish queues evt for every subscriber of its topic without waiting on the network.
// Subscribers whose queue is full are dropped. A nil hub discards events.
func (h *Hub) Publish(evt Event) {
	if h == nil {
		return
	}
	if evt.At.IsZero() {
		evt.At = time.Now().UTC()
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		h.logger.Warn("marshal realtime event", zap.Error(err))
		return
	}

	var dropped []*websocket.Conn
	h.mu.Lock()
	for sub := range h.topics[evt.Topic] {
		select {
		case sub.send <- payload:
		default:
			h.logger.Debug("dropping slow realtime subscriber", zap.String("topic", evt.Topic))
			h.removeLocked(sub)
			dropped = append(dropped, sub.conn)
		}
	}
	h.mu.Unlock()

	for _, ws := range dropped {
		if ws != nil {
			_ = ws.Close()
		}
	}
}

func (h *Hub) writePump(sub *subscriber) {
	for payload := range sub.send {
		_ = sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := sub.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.logger.Debug("realtime write failed", zap.Error(err))
			h.Unsubscribe(sub.conn)
			return
		}
	}
}
