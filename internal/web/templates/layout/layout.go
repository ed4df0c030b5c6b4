package layout

// FlashMessage is a one-shot message shown at the top of the next page
type FlashMessage struct {
	Type    string // "info" or "error"
	Message string
}

// PageData is shared by every full page
type PageData struct {
	Title string
	Flash *FlashMessage
}

const siteName = "Green Light Red Light"

func pageTitle(title string) string {
	if title == "" {
		return siteName
	}
	return title + " | " + siteName
}
