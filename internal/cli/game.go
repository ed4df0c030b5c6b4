package cli

import (
	"github.com/spf13/cobra"
)

// registrationRequest matches the API registration body
type registrationRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Mobile     string `json:"mobile"`
	Difficulty string `json:"difficulty,omitempty"`
}

func addRegistrationFlags(cmd *cobra.Command, req *registrationRequest) {
	cmd.Flags().StringVar(&req.Name, "name", "", "Player name (at least 6 characters)")
	cmd.Flags().StringVar(&req.Email, "email", "", "Player email")
	cmd.Flags().StringVar(&req.Mobile, "mobile", "", "Player mobile number (up to 10 characters)")
	cmd.Flags().StringVarP(&req.Difficulty, "difficulty", "d", "", "Difficulty: easy, medium, hard (default easy)")
}

func register(id string, req registrationRequest) error {
	return client.Post(sessionPath(id, "registration"), req, nil)
}

func newRegisterCmd() *cobra.Command {
	var req registrationRequest

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Submit player details for the next game",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := cfg.RequireSession()
			if err != nil {
				return err
			}

			if err := register(id, req); err != nil {
				return err
			}

			output(cmd).PrintMessage("Registered " + req.Name)
			return nil
		},
	}

	addRegistrationFlags(cmd, &req)
	return cmd
}

func newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start a game with the registered player",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := cfg.RequireSession()
			if err != nil {
				return err
			}

			var result Game
			if err := client.Post(sessionPath(id, "game"), nil, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newClickCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "click",
		Short: "Click the target once",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := cfg.RequireSession()
			if err != nil {
				return err
			}

			var result ClickResult
			if err := client.Post(sessionPath(id, "click"), nil, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newStateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Show the current game state",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := cfg.RequireSession()
			if err != nil {
				return err
			}

			var result Game
			if err := client.Get(sessionPath(id, "game"), &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}
