package controllers

// Event types accepted on POST /events.
const (
	EventReaderAppeared     = "reader_appeared"
	EventReaderDisappeared  = "reader_disappeared"
	EventContentVisibility  = "content_visibility"
	EventVerseVisible       = "verse_visible"
	EventVerseHidden        = "verse_hidden"
	EventVerseInteraction   = "verse_interaction"
	EventNoteCreated        = "note_created"
	EventHighlightCreated   = "highlight_created"
	EventReaderInteraction  = "reader_interaction"
	EventAppActive          = "app_active"
	EventAppResignActive    = "app_resign_active"
	EventAppEnterBackground = "app_enter_background"
	EventResync             = "resync"
	EventDebugQualify       = "debug_qualify"
)

type EventPayload struct {
	Profile string `json:"profile" validate:"required|regexp:^[A-Za-z0-9_-]+$|maxLen:64"`
	Type    string `json:"type" validate:"required|in:reader_appeared,reader_disappeared,content_visibility,verse_visible,verse_hidden,verse_interaction,note_created,highlight_created,reader_interaction,app_active,app_resign_active,app_enter_background,resync,debug_qualify"`
	VerseID string `json:"verseId"`
	Visible *bool  `json:"visible"`
	At      any    `json:"at"`
	EventID string `json:"eventId" validate:"maxLen:128"`
}
