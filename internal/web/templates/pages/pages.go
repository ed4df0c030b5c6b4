package pages

import (
	"github.com/mcoot/greenlight/internal/model"
	"github.com/mcoot/greenlight/internal/web/templates/components"
	"github.com/mcoot/greenlight/internal/web/templates/layout"
)

// HomeData is the registration page
type HomeData struct {
	layout.PageData
	Form        components.FormData
	Leaderboard []model.RoundResult
}

// PlayData is the live game page of one session
type PlayData struct {
	layout.PageData
	SessionID   model.SessionID
	State       model.GameState
	Leaderboard []model.RoundResult
}
