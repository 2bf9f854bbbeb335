package server

import (
	"context"
	"time"

	"examhall/internal/exam"
)

// timerLoop wakes once per second and finalizes every attempt that ran
// past its room's duration plus the grace window.
func (s *Server) timerLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			s.sweepExpired(ctx, s.clock())
			s.mu.Unlock()
		}
	}
}

// sweepExpired runs one pass under the state lock. An attempt flips to
// submitted only after its rows reach the store, so a failed write is
// retried on the next tick and a SUBMIT racing the sweep always sees
// either a still-open attempt or the settled score, never both.
func (s *Server) sweepExpired(ctx context.Context, now time.Time) {
	s.rooms.Each(func(room *exam.Room) {
		for _, p := range room.Participants {
			if !p.InProgress() || !room.Expired(p, now) {
				continue
			}

			total := room.NumQuestions()
			score := p.ScoreAgainst(room.Questions)
			records := p.AnswerRecords(room.Questions)
			if err := s.store.SaveSubmission(ctx, p.ID, room.ID, records, score, total, score, now); err != nil {
				s.log.Error("timer.submit_failed", "user", p.Username, "room", room.Name, "error", err)
				continue
			}
			p.Score = score
			p.SubmitTime = now

			s.metrics.AutoSubmits.Inc()
			s.audit.Eventf("auto-submitted %s in room %s: %d/%d", p.Username, room.Name, score, total)
			s.log.Info("timer.auto_submit", "user", p.Username, "room", room.Name, "score", score, "total", total)
		}
	})
}
