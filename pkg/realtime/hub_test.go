package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws" + query
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })

	var hello Event
	require.NoError(t, ws.ReadJSON(&hello))
	require.Equal(t, "subscribed", hello.Type)
	return ws
}

func waitForSubscribers(t *testing.T, hub *Hub, topic string, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.Subscribers(topic) == n }, time.Second, 10*time.Millisecond)
}

func TestPublishReachesTopicSubscribers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub(nil)
	r := gin.New()
	r.GET("/ws", Handler(hub, nil))
	srv := httptest.NewServer(r)
	defer srv.Close()

	coverage := dial(t, srv, "?topics=coverage")
	programs := dial(t, srv, "")
	waitForSubscribers(t, hub, TopicCoverage, 2)
	waitForSubscribers(t, hub, TopicPrograms, 1)

	hub.Publish(Event{Type: "invalidate", Topic: TopicPrograms, ResourceID: "prog-1"})

	var got Event
	require.NoError(t, programs.SetReadDeadline(time.Now().Add(time.Second)))
	require.NoError(t, programs.ReadJSON(&got))
	assert.Equal(t, "prog-1", got.ResourceID)
	assert.False(t, got.At.IsZero())

	require.NoError(t, coverage.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err := coverage.ReadMessage()
	assert.Error(t, err)
}

func TestUnsubscribeOnClose(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub(nil)
	r := gin.New()
	r.GET("/ws", Handler(hub, nil))
	srv := httptest.NewServer(r)
	defer srv.Close()

	ws := dial(t, srv, "?topics=reports")
	waitForSubscribers(t, hub, TopicReports, 1)
	require.NoError(t, ws.Close())
	waitForSubscribers(t, hub, TopicReports, 0)
}

func TestOriginCheck(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws", Handler(NewHub(nil), []string{"https://portal.example.ph"}))
	srv := httptest.NewServer(r)
	defer srv.Close()

	header := http.Header{"Origin": []string{"https://evil.example.com"}}
	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestParseTopics(t *testing.T) {
	assert.Equal(t, []string{"coverage", "reports"}, parseTopics(" Coverage ,reports,unknown"))
	assert.Equal(t, defaultTopics, parseTopics(""))
}

func TestNilHubPublishIsNoop(t *testing.T) {
	var hub *Hub
	assert.NotPanics(t, func() { hub.Publish(Event{Type: EventProgramsInvalidated, Topic: TopicPrograms}) })
}

func TestPublishDropsSubscriberWithFullQueue(t *testing.T) {
	hub := NewHub(nil)
	stalled := &subscriber{send: make(chan []byte, 1)}
	hub.add(stalled, TopicPrograms)

	start := time.Now()
	hub.Publish(Event{Type: EventProgramsInvalidated, Topic: TopicPrograms, ResourceID: "prog-1"})
	hub.Publish(Event{Type: EventProgramsInvalidated, Topic: TopicPrograms, ResourceID: "prog-2"})
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, 0, hub.Subscribers(TopicPrograms))

	queued, ok := <-stalled.send
	require.True(t, ok)
	assert.Contains(t, string(queued), "prog-1")
	_, ok = <-stalled.send
	assert.False(t, ok)
}
