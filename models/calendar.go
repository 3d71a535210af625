package models

// CalendarEvent is one VEVENT derived from a filtered match. It is ephemeral:
// built per request, rendered and discarded.
//
// UID is a stable hash of the two team names (home first), so repeated
// generations of the same fixture keep the same identifier and calendar
// clients update in place instead of duplicating entries.
type CalendarEvent struct {
	UID         string
	Stamp       string
	Summary     string
	Description string
	Start       string
	End         string
	Location    string
}
