package realtime

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/noah-isme/drrm-training-api/pkg/middleware/cors"
)

var defaultTopics = []string{TopicPrograms, TopicCoverage, TopicConfiguration}

var knownTopics = map[string]struct{}{
	TopicPrograms:      {},
	TopicCoverage:      {},
	TopicConfiguration: {},
	TopicReports:       {},
}

// Handler upgrades the request and streams events for ?topics=a,b until the client leaves.
func Handler(hub *Hub, allowedOrigins []string) gin.HandlerFunc {
	origins := cors.NewOriginSet(allowedOrigins)
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || origins.Allows(origin)
		},
	}

	return func(c *gin.Context) {
		topics := parseTopics(c.Query("topics"))
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			hub.logger.Debug("websocket upgrade failed", zap.Error(err))
			return
		}

		// The greeting is written before Subscribe so the write pump is the only writer afterwards.
		if err := ws.WriteJSON(Event{Type: "subscribed", Topic: strings.Join(topics, ",")}); err != nil {
			_ = ws.Close()
			return
		}
		hub.Subscribe(ws, topics...)

		// Inbound frames are ignored; reading detects the close.
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				break
			}
		}
		hub.Unsubscribe(ws)
	}
}

func parseTopics(raw string) []string {
	var topics []string
	for _, part := range strings.Split(raw, ",") {
		topic := strings.ToLower(strings.TrimSpace(part))
		if _, ok := knownTopics[topic]; ok {
			topics = append(topics, topic)
		}
	}
	if len(topics) == 0 {
		return defaultTopics
	}
	return topics
}
