package leaderboard

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mcoot/greenlight/internal/model"
	"github.com/mcoot/greenlight/internal/storage"
)

// Service records winning rounds in completion order
type Service struct {
	storage storage.Storage
	logger  *slog.Logger
}

// New creates a new leaderboard Service
func New(storage storage.Storage, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		logger:  logger.With(slog.String("component", "leaderboard")),
	}
}

// Record appends a winning round. Losses are rejected with ErrNotAWin.
func (s *Service) Record(ctx context.Context, result model.RoundResult) error {
	if !result.Won() {
		return model.ErrNotAWin
	}

	if err := s.storage.AppendRound(ctx, &result); err != nil {
		return fmt.Errorf("append round: %w", err)
	}

	s.logger.Info("round recorded",
		slog.String("round_id", result.ID.String()),
		slog.String("player", result.PlayerName),
		slog.Int("score", result.Score),
		slog.String("difficulty", string(result.Difficulty)))
	return nil
}

// Entries returns a snapshot of the leaderboard, oldest win first
func (s *Service) Entries(ctx context.Context) ([]model.RoundResult, error) {
	return s.storage.ListRounds(ctx)
}

// Count returns the number of recorded wins
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.storage.CountRounds(ctx)
}
