package ws

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pettopia/pettopia-server/cmd/models"
	"github.com/sirupsen/logrus"
)

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(logger)
	go hub.Run(ctx)

	router := mux.NewRouter()
	NewHandler(hub, []string{"*"}).RegisterRoutes(router)
	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return ev
}

func TestHubPublishesPostUpdates(t *testing.T) {
	hub, url := startHub(t)
	all := dial(t, url)
	onlyP2 := dial(t, url+"?post_id=p2")
	// Registration happens after the handshake completes.
	time.Sleep(50 * time.Millisecond)

	hub.PublishPost(models.Post{ID: "p1", LikeCount: 4}, true)
	hub.PublishPost(models.Post{ID: "p2", LikeCount: 9}, false)

	ev := readEvent(t, all)
	if ev.Type != EventPostUpdated || ev.Post.ID != "p1" || !ev.Optimistic || ev.Post.LikeCount != 4 {
		t.Errorf("first event = %+v", ev)
	}
	if ev := readEvent(t, all); ev.Post.ID != "p2" {
		t.Errorf("second event = %+v", ev)
	}

	ev = readEvent(t, onlyP2)
	if ev.Post.ID != "p2" || ev.Optimistic {
		t.Errorf("filtered subscriber got %+v", ev)
	}
}

func TestHubRejectsForeignOrigin(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	router := mux.NewRouter()
	NewHandler(NewHub(logger), []string{"https://h5.zalo.me"}).RegisterRoutes(router)
	srv := httptest.NewServer(router)
	defer srv.Close()

	header := map[string][]string{"Origin": {"https://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", header)
	if err == nil {
		t.Fatal("dial succeeded from a foreign origin")
	}
	if resp == nil || resp.StatusCode != 403 {
		t.Errorf("response = %v", resp)
	}
}
