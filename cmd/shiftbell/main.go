package main

import (
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/shiftbell/internal/cli"
	"github.com/julianstephens/shiftbell/internal/cli/calendar"
	"github.com/julianstephens/shiftbell/internal/cli/settings"
	"github.com/julianstephens/shiftbell/internal/cli/system"
	"github.com/julianstephens/shiftbell/internal/config"
	"github.com/julianstephens/shiftbell/internal/constants"
	apperrors "github.com/julianstephens/shiftbell/internal/errors"
	"github.com/julianstephens/shiftbell/internal/logger"
	"github.com/julianstephens/shiftbell/internal/storage"
)

var CLI struct {
	Version    kong.VersionFlag
	ConfigFile string `help:"Config file path." type:"path" default:"~/.config/shiftbell/config.yaml"`
	Storage    string `help:"Storage override: SQLite path, file://path.json, postgres://..., redis://... or 'keyring'. Credentials must NOT be embedded; use SHIFTBELL_DB_CONNECTION or the OS keyring instead."`
	Debug      bool   `help:"Enable debug logging."`

	Init     system.InitCmd     `cmd:"" help:"Initialize shiftbell storage."`
	Migrate  system.MigrateCmd  `cmd:"" help:"Run database migrations."`
	Doctor   system.DoctorCmd   `cmd:"" help:"Run health checks and diagnostics."`
	Status   system.StatusCmd   `cmd:"" help:"Show today's classification and upcoming notifications." default:"1"`
	Day      struct {
		Show calendar.DayShowCmd `cmd:"" help:"Show a date's classification." default:"1"`
		Tap  calendar.DayTapCmd  `cmd:"" help:"Advance a date to the next classification."`
		Set  calendar.DaySetCmd  `cmd:"" help:"Set a date's classification."`
	} `cmd:"" help:"Classify single days."`
	Month struct {
		Show  calendar.MonthShowCmd  `cmd:"" help:"Show every day of a month." default:"1"`
		Fill  calendar.MonthFillCmd  `cmd:"" help:"Classify matching weekdays of a month."`
		Clear calendar.MonthClearCmd `cmd:"" help:"Clear every classification in a month."`
	} `cmd:"" help:"Edit whole months."`
	Settings   settings.SettingsCmd `cmd:"" help:"Manage notification settings."`
	Reconcile  system.ReconcileCmd  `cmd:"" help:"Bring scheduled notifications in line with the calendar."`
	Permission struct {
		Request system.PermissionRequestCmd `cmd:"" help:"Ask for notification permission."`
		Status  system.PermissionStatusCmd  `cmd:"" help:"Show notification permission." default:"1"`
	} `cmd:"" help:"Notification permission."`
	Daemon  system.DaemonCmd `cmd:"" help:"Reconcile periodically in the background."`
	Keyring struct {
		Set    system.KeyringSetCmd    `cmd:"" help:"Store a connection string in the OS keyring."`
		Get    system.KeyringGetCmd    `cmd:"" help:"Show the stored connection string (masked)."`
		Delete system.KeyringDeleteCmd `cmd:"" help:"Delete the stored connection string."`
		Status system.KeyringStatusCmd `cmd:"" help:"Check OS keyring availability." default:"1"`
	} `cmd:"" help:"Manage storage credentials in the OS keyring."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Shift calendar and work-day notification scheduler"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	)
	command := ctx.Command()

	cfg, err := config.Load(CLI.ConfigFile)
	if err != nil {
		apperrors.Fatal(err)
	}
	if CLI.Storage != "" {
		cfg.Storage = CLI.Storage
	}
	if CLI.Debug {
		cfg.Debug = true
	}

	if err := logger.Init(logger.Config{
		Debug:     cfg.Debug,
		ConfigDir: filepath.Dir(cfg.Path),
		Stderr:    strings.HasPrefix(command, "daemon"),
	}); err != nil {
		apperrors.Fatalf("failed to initialize logger: %v", err)
	}

	// keyring commands must work before any storage is reachable
	if strings.HasPrefix(command, "keyring") {
		apperrors.Fatal(ctx.Run(&cli.Context{Config: cfg}))
		return
	}

	connStr, source, err := storage.Resolve(cfg.Storage)
	if err != nil {
		apperrors.Fatal(err)
	}
	store, err := storage.Open(connStr, source)
	if err != nil {
		apperrors.Fatal(err)
	}

	appCtx, err := cli.NewContext(cfg, store, cli.NewPort(cfg))
	if err != nil {
		apperrors.Fatal(err)
	}

	// Load the store before running the command (Init command will handle its own loading)
	if command != "init" {
		if err := store.Load(); err != nil {
			apperrors.Fatal(err)
		}
	}

	err = ctx.Run(appCtx)
	_ = appCtx.Close()
	apperrors.Fatal(err)
}
