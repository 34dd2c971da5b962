package constants

const (
	// Default per-type notification times
	DefaultWorkStartTime  = "09:00"
	DefaultLunchStartTime = "12:00"
	DefaultLunchEndTime   = "13:00"
	DefaultWorkEndTime    = "18:00"

	DefaultMasterEnabled = true
	DefaultTypeEnabled   = true
	DefaultTimezone      = "Local" // Use system local timezone by default

	// Document versions
	CalendarDocumentVersion = 1
	SettingsDocumentVersion = 1
)
