package cli

import (
	"github.com/spf13/cobra"
)

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Session commands",
	}

	cmd.AddCommand(newSessionCreateCmd())
	cmd.AddCommand(newSessionGetCmd())
	cmd.AddCommand(newSessionCloseCmd())

	return cmd
}

func newSessionCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Create a new session and remember its id",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Session

			if err := client.Post("/api/v1/sessions", nil, &result); err != nil {
				return err
			}

			if err := cfg.SaveSession(result.ID); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newSessionGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := cfg.RequireSession()
			if err != nil {
				return err
			}

			var result Session
			if err := client.Get(sessionPath(id), &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newSessionCloseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "close",
		Short: "Close the current session and forget its id",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := cfg.RequireSession()
			if err != nil {
				return err
			}

			if err := client.Delete(sessionPath(id)); err != nil {
				return err
			}

			if err := cfg.ClearSession(); err != nil {
				return err
			}

			output(cmd).PrintMessage("Closed session " + id)
			return nil
		},
	}
}
