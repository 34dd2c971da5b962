package constants

import "time"

const (
	AppName            = "shiftbell"
	DefaultKeyringUser = "storage-connection"
	DefaultConfigDir   = "~/.config/shiftbell"
	DefaultConfigFile  = "~/.config/shiftbell/config.yaml"
	DefaultStoragePath = "~/.config/shiftbell/shiftbell.db"
	Version            = "v0.3.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the standard time format used throughout the application (HH:MM)
	TimeFormat = "15:04"

	// MonthFormat identifies a calendar month slice (YYYY-MM)
	MonthFormat = "2006-01"

	// Persistence keys. Each holds one whole JSON document.
	CalendarRecordKey       = "shiftbell.calendar"
	SettingsRecordKey       = "shiftbell.settings"
	ReconciliationRecordKey = "shiftbell.reconciliation"

	// NotificationIDPrefix namespaces every notification this app schedules.
	NotificationIDPrefix = "shiftbell:"

	// Reconciliation constants
	DefaultHorizonDays        = 14
	MaxHorizonDays            = 62
	DefaultBackgroundInterval = 15 * time.Minute
	DefaultRunTimeout         = 30 * time.Second
	BackgroundJobName         = "shiftbell:reconcile"
	RunLockFileName           = "reconcile.lock"
	StatusNextLimit           = 5

	// Tray companion constants
	NotifierLockfileName = "shiftbell-notifier.lock"
	TrayAppIdentifier    = "com.julianstephens.shiftbell"
	TrayExecutablePrefix = "shiftbell-tray"
	TraySecretHeader     = "X-Shiftbell-Secret"
	TrayRequestTimeout   = 5 * time.Second

	// Port rate limiting
	DefaultPortRatePerSec = 10
	DefaultPortBurst      = 10

	// Environment
	EnvStorageConnection = "SHIFTBELL_DB_CONNECTION"
)
