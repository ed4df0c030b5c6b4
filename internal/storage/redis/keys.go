package redis

import (
	"fmt"

	"github.com/mcoot/greenlight/internal/model"
)

// Key prefix for all game-related data
const keyPrefix = "glgame"

// sessionKey returns the Redis key for a Session
func sessionKey(instance string, id model.SessionID) string {
	return fmt.Sprintf("%s:session:%s:%s", keyPrefix, instance, id)
}

// sessionIndexKey returns the Redis key for the SET of session keys owned by an instance
func sessionIndexKey(instance string) string {
	return fmt.Sprintf("%s:sessions:%s", keyPrefix, instance)
}

// leaderboardKey returns the Redis key for the LIST of winning rounds
func leaderboardKey(instance string) string {
	return fmt.Sprintf("%s:leaderboard:%s", keyPrefix, instance)
}
