package model

// NotificationKind identifies a user-facing round notification
type NotificationKind string

const (
	NotificationWin  NotificationKind = "win"
	NotificationLoss NotificationKind = "loss"
)

// Messages shown to the player when a round ends
const (
	WinMessage  = "You win!"
	LossMessage = "Game Over!"
)

// Notification is emitted exactly once for every round that ends
type Notification struct {
	Kind    NotificationKind `json:"kind"`
	Message string           `json:"message"`
	Result  RoundResult      `json:"result"`
}

// NotificationFor builds the notification for a finished round
func NotificationFor(result RoundResult) Notification {
	if result.Won() {
		return Notification{Kind: NotificationWin, Message: WinMessage, Result: result}
	}
	return Notification{Kind: NotificationLoss, Message: LossMessage, Result: result}
}
