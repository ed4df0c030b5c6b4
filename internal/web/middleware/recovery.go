package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/greenlight/internal/middleware"
	"github.com/mcoot/greenlight/internal/web/templates/layout"
	"github.com/mcoot/greenlight/internal/web/templates/pages"
)

// PanicMessage is shown on the error page after a recovered panic
const PanicMessage = "Something went wrong. Your game is still running in the background."

// Recovery creates panic recovery middleware for the web interface.
// Recovered panics render the site's error page.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, webPanicHandler)
}

func webPanicHandler(w http.ResponseWriter, r *http.Request, _ any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)

	page := pages.Error(layout.PageData{
		Title: "Error",
		Flash: &layout.FlashMessage{Type: FlashError, Message: PanicMessage},
	})
	_ = page.Render(r.Context(), w)
}
