package storage

import (
	"context"

	"github.com/mcoot/greenlight/internal/model"
)

// Storage defines the interface for data persistence.
// Implementations only keep data for the lifetime of the process.
type Storage interface {
	// Session operations
	SaveSession(ctx context.Context, session *model.Session) error
	GetSession(ctx context.Context, id model.SessionID) (*model.Session, error)
	DeleteSession(ctx context.Context, id model.SessionID) error
	SessionExists(ctx context.Context, id model.SessionID) (bool, error)

	// Leaderboard operations. Rounds are append-only and listed in insertion order.
	AppendRound(ctx context.Context, result *model.RoundResult) error
	ListRounds(ctx context.Context) ([]model.RoundResult, error)
	CountRounds(ctx context.Context) (int, error)
}
