// Package progress carries incremental progress of long pipeline loops to
// whoever is watching: logs, websocket clients, or nobody.
package progress

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Event is one progress notification.
type Event struct {
	Stage   string    `json:"stage"`
	Period  string    `json:"period"`
	Done    int       `json:"done"`
	Total   int       `json:"total"`
	Message string    `json:"message,omitempty"`
	Time    time.Time `json:"time"`
}

// Reporter receives progress events. Implementations must not block.
type Reporter interface {
	Report(ev Event)
}

// Nop discards events.
type Nop struct{}

func (Nop) Report(Event) {}

// LogReporter writes events at debug level.
type LogReporter struct {
	Logger *logrus.Logger
}

func (r LogReporter) Report(ev Event) {
	r.Logger.WithFields(logrus.Fields{
		"stage":  ev.Stage,
		"period": ev.Period,
		"done":   ev.Done,
		"total":  ev.Total,
	}).Debug(ev.Message)
}

// Multi fans an event out to several reporters.
type Multi []Reporter

func (m Multi) Report(ev Event) {
	for _, r := range m {
		r.Report(ev)
	}
}

// Step reports done/total for a stage with the current time.
func Step(r Reporter, stage, period string, done, total int, msg string) {
	if r == nil {
		return
	}
	r.Report(Event{Stage: stage, Period: period, Done: done, Total: total, Message: msg, Time: time.Now()})
}
