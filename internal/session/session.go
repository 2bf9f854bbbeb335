// Package session implements the line protocol spoken on every client
// connection: framing, authentication state, command dispatch, and the
// wire-level reply strings.
//
// A connection carries one session. Requests are single LF-terminated
// UTF-8 lines; every request gets exactly one reply line. Handlers run
// under the process-wide state lock, which is released before the reply
// is written back so a slow client never stalls the rest of the server.
package session

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"examhall/internal/audit"
	"examhall/internal/auth"
	"examhall/internal/exam"
	"examhall/internal/metrics"
	"examhall/internal/selector"
	"examhall/internal/store"
)

// MaxRequestBytes caps a single request line. A client that sends more
// without a newline is cut off.
const MaxRequestBytes = 8192

// Handler carries the shared state every connection dispatches against.
// Mu is the process-wide lock guarding the registry and the store; all
// command handlers run with it held.
type Handler struct {
	Mu       *sync.Mutex
	Store    *store.Store
	Auth     *auth.Service
	Selector *selector.Selector
	Rooms    *exam.Registry
	Audit    *audit.Sink
	Metrics  *metrics.Metrics
	Log      *slog.Logger

	// Clock is the time source for join deadlines and submissions.
	// Nil means time.Now.
	Clock func() time.Time
}

// session is the per-connection state. It is only ever touched by the
// goroutine serving its connection, so it needs no locking of its own.
type session struct {
	id            string
	authenticated bool
	username      string
	userID        int64
	role          exam.Role

	// One pending practice question at a time; answering or drawing a
	// new one replaces it.
	practiceQID    int64
	practiceAnswer string

	log *slog.Logger
}

func (h *Handler) newSession() *session {
	id := uuid.NewString()
	return &session{id: id, log: h.Log.With("session_id", id)}
}

func (h *Handler) now() time.Time {
	if h.Clock != nil {
		return h.Clock()
	}
	return time.Now()
}

// Serve owns conn until the client disconnects, sends EXIT, or breaks
// framing. It closes conn on the way out.
func (h *Handler) Serve(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	sess := h.newSession()
	sess.log = sess.log.With("remote_addr", conn.RemoteAddr().String())

	if h.Metrics != nil {
		h.Metrics.SessionsActive.Inc()
		defer h.Metrics.SessionsActive.Dec()
	}
	sess.log.Info("session.opened")
	defer sess.log.Info("session.closed", "user", sess.username)

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), MaxRequestBytes)

	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")

		reply, exit := h.execute(ctx, sess, line)
		h.countCommand(line, reply)

		if _, err := io.WriteString(conn, reply+"\n"); err != nil {
			sess.log.Warn("session.write_failed", "error", err)
			return
		}
		if exit {
			return
		}
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			sess.log.Warn("session.request_too_large", "limit", MaxRequestBytes)
			return
		}
		sess.log.Debug("session.read_failed", "error", err)
	}
}

// execute parses one request line, applies the auth and role gates, and
// runs the handler under the state lock. The reply is returned rather
// than written so Serve can release the lock before touching the socket.
func (h *Handler) execute(ctx context.Context, sess *session, line string) (string, bool) {
	verb, rest, _ := strings.Cut(line, " ")

	cmd, ok := commands[verb]
	if !ok {
		return "FAIL Unknown command", false
	}
	if cmd.auth && !sess.authenticated {
		return "FAIL Please login first", false
	}
	if cmd.admin && sess.role != exam.RoleAdmin {
		return "FAIL Admin only", false
	}

	h.Mu.Lock()
	defer h.Mu.Unlock()
	return cmd.run(h, ctx, sess, rest, line)
}

func (h *Handler) countCommand(line, reply string) {
	if h.Metrics == nil {
		return
	}
	verb, _, _ := strings.Cut(line, " ")
	if _, known := commands[verb]; !known {
		verb = "unknown"
	}
	status := "success"
	if strings.HasPrefix(reply, "FAIL") {
		status = "fail"
	}
	h.Metrics.CommandsTotal.WithLabelValues(verb, status).Inc()
}

// failFor maps domain errors onto their wire replies. Anything without a
// mapping is an internal failure: it is logged, audited, and reported to
// the client as a generic server error.
func (h *Handler) failFor(sess *session, err error) string {
	switch {
	case errors.Is(err, exam.ErrUserExists):
		return "FAIL User already exists"
	case errors.Is(err, exam.ErrInvalidCredentials):
		return "FAIL Invalid credentials"
	case errors.Is(err, exam.ErrUserNotFound):
		return "FAIL Invalid credentials"
	case errors.Is(err, auth.ErrBadSecret):
		return "FAIL Invalid Admin Secret Code!"
	case errors.Is(err, auth.ErrBadRole):
		return "FAIL Role must be admin or student"
	case errors.Is(err, exam.ErrRoomExists):
		return "FAIL Room already exists"
	case errors.Is(err, exam.ErrRoomNotFound):
		return "FAIL Room not found"
	case errors.Is(err, exam.ErrRegistryFull):
		return "FAIL Room limit reached"
	case errors.Is(err, exam.ErrTopicNotFound):
		return "FAIL No question found"
	case errors.Is(err, exam.ErrQuestionNotFound):
		return "FAIL No question found"
	case errors.Is(err, exam.ErrUnknownDifficulty):
		return "FAIL Invalid difficulty"
	case errors.Is(err, selector.ErrOversubscribed):
		return "FAIL Topic counts exceed requested total"
	}
	sess.log.Error("command.failed", "error", err)
	h.audit("server error: %v", err)
	return "FAIL Server error"
}

func (h *Handler) audit(format string, args ...any) {
	if h.Audit != nil {
		h.Audit.Eventf(format, args...)
	}
}
