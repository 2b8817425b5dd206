package progress

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

type recorder struct {
	events []Event
}

func (r *recorder) Report(ev Event) { r.events = append(r.events, ev) }

func TestMultiAndStep(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	Step(Multi{a, b, Nop{}}, "download", "2025-01", 1, 3, "aenc0101.TxF")

	for _, r := range []*recorder{a, b} {
		if len(r.events) != 1 {
			t.Fatalf("Expected 1 event, got %d", len(r.events))
		}
		ev := r.events[0]
		if ev.Stage != "download" || ev.Done != 1 || ev.Total != 3 || ev.Period != "2025-01" {
			t.Errorf("Unexpected event %+v", ev)
		}
		if ev.Time.IsZero() {
			t.Error("Expected event time to be set")
		}
	}

	// nil reporter is tolerated
	Step(nil, "download", "2025-01", 1, 1, "")
}

func TestHubBroadcast(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	hub := NewHub(logger)

	srv := httptest.NewServer(hub)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Clients() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if hub.Clients() != 1 {
		t.Fatalf("Expected 1 client, got %d", hub.Clients())
	}

	hub.Report(Event{Stage: "process", Period: "2025-03", Done: 2, Total: 31})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read: %v", err)
	}
	if ev.Stage != "process" || ev.Done != 2 || ev.Total != 31 {
		t.Errorf("Unexpected event %+v", ev)
	}
}
