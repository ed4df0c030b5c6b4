package components

import (
	"bytes"
	"context"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/greenlight/internal/model"
)

func render(t *testing.T, c templ.Component) (string, *goquery.Document) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	return buf.String(), doc
}

const hostile = `<script>alert("x")</script>`

func TestGamePanel_EscapesPlayerName(t *testing.T) {
	state := model.GameState{
		Status:          model.GameStatusRunning,
		Player:          &model.Player{Name: hostile},
		Difficulty:      model.DifficultyHard,
		Score:           3,
		TimeLeftSeconds: 12,
		Signal:          model.SignalGo,
	}

	html, doc := render(t, GamePanel(state))

	assert.NotContains(t, html, "<script>")
	assert.Contains(t, doc.Find(".player").First().Text(), hostile)
	assert.Equal(t, "running", doc.Find("#game-panel").AttrOr("data-status", ""))
	assert.True(t, doc.Find("#game-box").HasClass("go"))
	assert.Equal(t, "12", doc.Find("#time-left").Text())
	assert.Equal(t, "3", doc.Find("#score").Text())
	assert.Contains(t, doc.Find(".player").Eq(1).Text(), "Hard")
}

func TestGamePanel_Idle(t *testing.T) {
	_, doc := render(t, GamePanel(model.IdleState(model.DifficultyEasy)))

	assert.Equal(t, 0, doc.Find("#game-box").Length())
	assert.Equal(t, "/", doc.Find("#game-panel a").AttrOr("href", ""))
}

func TestNotification_KindSelectsClass(t *testing.T) {
	_, doc := render(t, Notification(model.NotificationFor(model.RoundResult{Outcome: model.OutcomeWin, Score: 11})))
	assert.Equal(t, 1, doc.Find("#notification.notification-win").Length())
	assert.Contains(t, doc.Find(".final-score").Text(), "11")

	_, doc = render(t, Notification(model.NotificationFor(model.RoundResult{Outcome: model.OutcomeLoss})))
	assert.Equal(t, 1, doc.Find("#notification.notification-loss").Length())
}

func TestLeaderboard_EscapesEntries(t *testing.T) {
	entries := []model.RoundResult{{PlayerName: hostile, Score: 11, Difficulty: model.DifficultyEasy, TimeLeftSeconds: 20}}

	html, doc := render(t, Leaderboard(entries))

	assert.NotContains(t, html, "<script>")
	assert.Equal(t, hostile, doc.Find(".leaderboard-entry .name").Text())
	assert.Equal(t, "20", doc.Find(".leaderboard-entry .time-left").Text())
	assert.Equal(t, 0, doc.Find(".leaderboard-empty").Length())
}

func TestRegistrationForm_KeepsValuesEscaped(t *testing.T) {
	form := FormData{
		Name:         `"><b>x</b>`,
		Difficulty:   "medium",
		Difficulties: model.Difficulties(),
		Errors:       model.FieldErrors{model.FieldEmail: "Please enter a valid email."},
	}

	html, doc := render(t, RegistrationForm(form))

	assert.NotContains(t, html, "<b>x</b>")
	assert.Equal(t, form.Name, doc.Find(`input[name="name"]`).AttrOr("value", ""))
	assert.Equal(t, "medium", doc.Find("option[selected]").AttrOr("value", ""))
	assert.Equal(t, "Please enter a valid email.", doc.Find(`.error[data-field="email"]`).Text())
	assert.Contains(t, doc.Find("option").Eq(2).Text(), "26 clicks in 40s")
}
