package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

// Event names carrying JSON; the rest are HTML fragments for the web page
const (
	eventState      = "state"
	eventRoundEnded = "round-ended"
)

func newEventsCmd() *cobra.Command {
	var (
		jsonOutput bool
		all        bool
	)

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Stream SSE events from the current session",
		Long: `Connect to the session's SSE endpoint and stream events in real-time.

Events include:
  - state: Game snapshot after every change
  - round-ended: Win or loss notification with the round result

With --all the HTML fragments pushed to the web page (game, notification,
leaderboard) are shown too.

Press Ctrl+C to disconnect.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := cfg.RequireSession()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return streamEvents(ctx, cmd.OutOrStdout(), id, jsonOutput, all)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output events as JSON lines")
	cmd.Flags().BoolVar(&all, "all", false, "Include HTML fragment events")

	return cmd
}

// SSEEvent represents a parsed SSE event
type SSEEvent struct {
	Time  time.Time `json:"time"`
	Event string    `json:"event"`
	Data  string    `json:"data"`
}

func streamEvents(ctx context.Context, w io.Writer, id string, jsonOutput, all bool) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, client.URL(sessionPath(id, "events")), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	// No timeout for SSE
	resp, err := (&http.Client{}).Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		var errResp ErrorResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.Error.Code != "" {
			errResp.Error.Status = resp.StatusCode
			return &errResp.Error
		}
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	if !jsonOutput {
		_, _ = fmt.Fprintf(w, "Connected to session %s\n", id)
	}

	err = readEvents(resp.Body, func(e SSEEvent) {
		if !all && e.Event != eventState && e.Event != eventRoundEnded {
			return
		}
		printEvent(w, e, jsonOutput, cfg.Verbose)
	})
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("stream error: %w", err)
	}

	if !jsonOutput {
		_, _ = fmt.Fprintln(w, "Disconnected")
	}
	return nil
}

// readEvents parses an SSE stream, calling fn for every complete event
func readEvents(r io.Reader, fn func(SSEEvent)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var currentEvent string
	var dataLines []string

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case strings.HasPrefix(line, "event: "):
			currentEvent = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			dataLines = append(dataLines, strings.TrimPrefix(line, "data: "))
		case line == "":
			// End of event
			if currentEvent != "" {
				fn(SSEEvent{
					Time:  time.Now(),
					Event: currentEvent,
					Data:  strings.Join(dataLines, "\n"),
				})
			}
			currentEvent = ""
			dataLines = nil
		}
	}

	return scanner.Err()
}

func printEvent(w io.Writer, e SSEEvent, jsonOutput, verbose bool) {
	if jsonOutput {
		data, _ := json.Marshal(e)
		_, _ = fmt.Fprintln(w, string(data))
		return
	}

	timestamp := e.Time.Format("2006-01-02 15:04:05")
	_, _ = fmt.Fprintf(w, "[%s] %s: %s\n", timestamp, e.Event, describeEvent(e, verbose))
}

// describeEvent renders a one-line summary of an event's payload
func describeEvent(e SSEEvent, verbose bool) string {
	switch e.Event {
	case eventState:
		var g Game
		if err := json.Unmarshal([]byte(e.Data), &g); err == nil {
			if !g.Running() {
				return g.Status
			}
			return fmt.Sprintf("score=%d time_left=%ds signal=%s", g.Score, g.TimeLeftSeconds, g.Signal)
		}
	case eventRoundEnded:
		var n Notification
		if err := json.Unmarshal([]byte(e.Data), &n); err == nil {
			return fmt.Sprintf("%s score=%d", n.Message, n.Result.Score)
		}
	}

	// Truncate data if it's too long for display
	data := e.Data
	if !verbose && len(data) > 100 {
		data = data[:100] + "..."
	}
	// Remove newlines for cleaner display
	return strings.ReplaceAll(data, "\n", " ")
}

// Notification is pushed when a round ends
type Notification struct {
	Kind    string      `json:"kind"`
	Message string      `json:"message"`
	Result  RoundResult `json:"result"`
}
