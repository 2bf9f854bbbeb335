// Package audit mirrors notable service events to a flat log file and to
// the logs table. Writes are asynchronous and best-effort: a full queue
// drops the event rather than stalling a command handler.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"
)

const timeLayout = "2006-01-02 15:04:05"

// LogStore is the slice of the store the sink writes through.
type LogStore interface {
	InsertLogEvent(ctx context.Context, ts time.Time, event string) error
}

type event struct {
	ts   time.Time
	text string
}

type Sink struct {
	log       *slog.Logger
	store     LogStore
	file      *os.File
	events    chan event
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewSink opens the audit file for appending (empty path skips the file
// half) and starts the writer goroutine.
func NewSink(path string, store LogStore, log *slog.Logger) (*Sink, error) {
	var file *os.File
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		file = f
	}

	s := &Sink{
		log:    log,
		store:  store,
		file:   file,
		events: make(chan event, 256),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go s.run()
	return s, nil
}

// Eventf queues one audit line.
func (s *Sink) Eventf(format string, args ...any) {
	e := event{ts: time.Now(), text: fmt.Sprintf(format, args...)}

	select {
	case <-s.quit:
		return
	default:
	}

	select {
	case s.events <- e:
	default:
		s.log.Debug("audit.dropped", "event", e.text)
	}
}

// Close drains queued events and releases the file. Safe to call more
// than once.
func (s *Sink) Close() {
	s.closeOnce.Do(func() { close(s.quit) })
	<-s.done
}

func (s *Sink) run() {
	defer close(s.done)

	for {
		select {
		case e := <-s.events:
			s.write(e)
		case <-s.quit:
			for {
				select {
				case e := <-s.events:
					s.write(e)
				default:
					if s.file != nil {
						_ = s.file.Close()
					}
					return
				}
			}
		}
	}
}

func (s *Sink) write(e event) {
	if s.file != nil {
		line := e.ts.Format(timeLayout) + " - " + e.text + "\n"
		if _, err := s.file.WriteString(line); err != nil {
			s.log.Warn("audit.file_write_failed", "error", err)
		}
	}
	if s.store != nil {
		if err := s.store.InsertLogEvent(context.Background(), e.ts, e.text); err != nil {
			s.log.Warn("audit.store_write_failed", "error", err)
		}
	}
}
