package system

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/julianstephens/shiftbell/internal/background"
	"github.com/julianstephens/shiftbell/internal/cli"
	"github.com/julianstephens/shiftbell/internal/config"
	"github.com/julianstephens/shiftbell/internal/constants"
	"github.com/julianstephens/shiftbell/internal/logger"
	"github.com/julianstephens/shiftbell/internal/models"
)

// DaemonCmd hosts the periodic wake-up. It reconciles once on start, then every
// background_interval, until SIGINT or SIGTERM.
type DaemonCmd struct {
	Once bool `help:"Run the start-up reconciliation and exit."`
}

func (c *DaemonCmd) Run(ctx *cli.Context) error {
	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := newDaemon(ctx)
	if err != nil {
		return err
	}
	return d.run(sigCtx, c.Once)
}

type daemon struct {
	app *cli.Context
	bg  *background.Service

	mu  sync.Mutex
	cfg *config.Config
}

func newDaemon(app *cli.Context) (*daemon, error) {
	loc, err := app.Config.Location()
	if err != nil {
		return nil, err
	}
	return &daemon{app: app, bg: background.New(loc), cfg: app.Config}, nil
}

func (d *daemon) run(ctx context.Context, once bool) error {
	if rec, err := d.app.Runs.Get(ctx); err != nil {
		logger.Warn("could not read last reconciliation", "error", err)
	} else if rec.Stale(d.app.Now(), d.config().BackgroundInterval, d.app.Engine.HorizonDays()) {
		logger.Warn("background wake-up missed, catching up",
			"last_run_at", rec.LastRunAt, "horizon_end", rec.HorizonEnd)
	}
	d.reconcile(ctx, models.TriggerAppStart)
	if once {
		return nil
	}

	if err := d.register(); err != nil {
		return err
	}
	d.bg.Start(ctx)
	logger.Info("daemon started", "interval", d.config().BackgroundInterval, "next_wake", d.nextWake(), "storage", d.app.Store.Describe())

	if path := d.config().Path; path != "" {
		w := config.NewWatcher(path, d.config(), d.applyConfig)
		go func() {
			if err := w.Watch(ctx); err != nil {
				logger.Warn("config watcher stopped", "path", path, "error", err)
			}
		}()
	}

	<-ctx.Done()
	stopCtx, cancel := context.WithTimeout(context.Background(), d.config().RunTimeout)
	defer cancel()
	d.bg.Stop(stopCtx)
	logger.Info("daemon stopped")
	return nil
}

// register is safe to call repeatedly; the entry is replaced, never duplicated.
func (d *daemon) register() error {
	return d.bg.Register(constants.BackgroundJobName, d.config().BackgroundInterval, func(ctx context.Context) {
		d.reconcile(ctx, models.TriggerBackground)
	})
}

// reconcile runs one time-boxed reconciliation. Failures are logged only; the next
// wake-up retries against live port state.
func (d *daemon) reconcile(parent context.Context, source models.TriggerSource) {
	ctx, cancel := context.WithTimeout(parent, d.config().RunTimeout)
	defer cancel()

	out := d.app.Reconciler.Trigger(ctx, source)
	if out.Coalesced {
		return
	}
	if err := out.Result.Err(); err != nil {
		logger.Warn("reconciliation finished with errors", "trigger", source, "runs", out.Runs, "error", err)
	}
}

func (d *daemon) config() *config.Config {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg
}

func (d *daemon) applyConfig(next *config.Config) {
	d.mu.Lock()
	prev := d.cfg
	d.cfg = next
	d.mu.Unlock()

	if next.BackgroundInterval != prev.BackgroundInterval {
		if err := d.register(); err != nil {
			logger.Error("failed to re-register wake-up", "interval", next.BackgroundInterval, "error", err)
		} else {
			logger.Info("wake-up interval changed", "from", prev.BackgroundInterval, "to", next.BackgroundInterval)
		}
	}
	if next.Debug != prev.Debug {
		logger.SetLevel(next.Debug)
	}
	if next.HorizonDays != prev.HorizonDays || next.Timezone != prev.Timezone ||
		next.Storage != prev.Storage || next.Port != prev.Port {
		logger.Warn("config change takes effect after restarting the daemon",
			"horizon_days", next.HorizonDays, "timezone", next.Timezone)
	}
}

// nextWake reports when the wake-up fires next, zero if it is not registered.
func (d *daemon) nextWake() time.Time {
	for _, e := range d.bg.Entries() {
		if e.Name == constants.BackgroundJobName {
			return e.Next
		}
	}
	return time.Time{}
}
