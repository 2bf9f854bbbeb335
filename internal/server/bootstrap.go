package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"examhall/internal/exam"
)

// seedQuestionBank runs the configured SQL seed script. It only fires
// while the bank is empty, so restarting the server with the same seed
// file does not duplicate questions. A missing file is skipped.
func (s *Server) seedQuestionBank(ctx context.Context) error {
	if s.cfg.SeedFile == "" {
		return nil
	}
	count, err := s.store.CountQuestions(ctx)
	if err != nil {
		return fmt.Errorf("count questions: %w", err)
	}
	if count > 0 {
		return nil
	}
	if _, err := os.Stat(s.cfg.SeedFile); errors.Is(err, fs.ErrNotExist) {
		s.log.Warn("seed.missing", "path", s.cfg.SeedFile)
		return nil
	}

	if err := s.store.ExecSeedFile(ctx, s.cfg.SeedFile); err != nil {
		return fmt.Errorf("seed questions: %w", err)
	}
	count, err = s.store.CountQuestions(ctx)
	if err != nil {
		return fmt.Errorf("count questions: %w", err)
	}
	s.log.Info("seed.applied", "path", s.cfg.SeedFile, "questions", count)
	return nil
}

// rehydrate rebuilds the registry from the store: every unfinished room,
// its question snapshot in position order, and each participant's answer
// vector. Rehydrated attempts keep their stored join time, so ones that
// expired while the server was down are swept on the first timer tick.
func (s *Server) rehydrate(ctx context.Context) error {
	rooms, err := s.store.LoadActiveRooms(ctx)
	if err != nil {
		return fmt.Errorf("load rooms: %w", err)
	}

	for i := range rooms {
		room := &rooms[i]

		room.Questions, err = s.store.RoomQuestions(ctx, room.ID)
		if err != nil {
			return fmt.Errorf("load questions for room %s: %w", room.Name, err)
		}

		records, err := s.store.RoomParticipants(ctx, room.ID)
		if err != nil {
			return fmt.Errorf("load participants for room %s: %w", room.Name, err)
		}
		for _, rec := range records {
			answers, err := s.store.ParticipantAnswers(ctx, rec.ID, room.NumQuestions())
			if err != nil {
				return fmt.Errorf("load answers for room %s: %w", room.Name, err)
			}
			room.Participants = append(room.Participants, &exam.Participant{
				ID:        rec.ID,
				UserID:    rec.UserID,
				Username:  rec.Username,
				Answers:   answers,
				Score:     rec.Score,
				StartTime: rec.JoinedAt,
			})
		}

		if err := s.rooms.Add(room); err != nil {
			// Can only mean the registry cap shrank below what the
			// store holds; keep the earliest rooms and serve.
			s.log.Warn("rehydrate.room_skipped", "room", room.Name, "error", err)
		}
	}

	s.metrics.RoomsActive.Set(float64(s.rooms.Len()))
	s.log.Info("rehydrate.done", "rooms", s.rooms.Len())
	return nil
}
