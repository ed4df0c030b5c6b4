package request

// RegistrationRequest is the request body for submitting a registration
type RegistrationRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Mobile     string `json:"mobile"`
	Difficulty string `json:"difficulty,omitempty"` // empty selects easy
}
