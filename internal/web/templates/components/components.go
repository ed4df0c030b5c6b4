package components

import (
	"fmt"

	"github.com/mcoot/greenlight/internal/model"
)

// Element ids targeted by SSE out-of-band swaps
const (
	GamePanelID    = "game-panel"
	NotificationID = "notification"
	LeaderboardID  = "leaderboard"
)

// FormData is the registration form with the last submitted values and any field errors
type FormData struct {
	Name         string
	Email        string
	Mobile       string
	Difficulty   string
	Errors       model.FieldErrors
	Difficulties []model.Difficulty
}

func difficultyLabel(d model.Difficulty) string {
	return fmt.Sprintf("%s (%d clicks in %ds)", d.Title(), d.WinningScore(), d.Level().TimeBudgetSeconds)
}
