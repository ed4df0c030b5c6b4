package model

// Player holds the contact details a player registers with.
// A Player is copied by value into the engine when a round starts and never mutated.
type Player struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Mobile string `json:"mobile"`
}

// Registration is validated player input waiting for the game to start
type Registration struct {
	Player     Player     `json:"player"`
	Difficulty Difficulty `json:"difficulty"`
}
