// Command redpilot is the CLI front end for the browser automation
// engine: SMS login, login validation, image-post publishing and
// account management for the creator site.
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"redpilot/pkg/auth"
	"redpilot/pkg/browser"
	"redpilot/pkg/config"
	"redpilot/pkg/dispatch"
	"redpilot/pkg/logging"
	"redpilot/pkg/publish"
	"redpilot/pkg/store"
)

// CLI is the top-level command structure.
type CLI struct {
	Config  string `help:"Path to config file" type:"path"`
	Headed  bool   `help:"Run browsers with a visible window (overrides config)"`
	Debug   bool   `help:"Enable debug logging" short:"d"`
	Workers int64  `help:"Maximum concurrent automation workflows" default:"2"`

	Login    LoginCmd    `cmd:"" help:"Sign an account in via SMS code"`
	Validate ValidateCmd `cmd:"" help:"Check whether an account is still signed in"`
	Publish  PublishCmd  `cmd:"" help:"Publish an image post"`
	Logout   LogoutCmd   `cmd:"" help:"Sign an account out and erase its local data"`
	Users    UsersCmd    `cmd:"" help:"List known accounts"`
	Posts    PostsCmd    `cmd:"" help:"List an account's publish history"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("redpilot"),
		kong.Description("Browser automation for the creator platform."),
		kong.UsageOnError(),
	)

	app, err := newApp(&cli)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer app.shutdown()

	if err := ctx.Run(app); err != nil {
		app.log.Errorf("command failed: %v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		app.shutdown()
		os.Exit(1)
	}
}

// app holds the wired engine shared by all commands.
type app struct {
	cfg      *config.Config
	log      *logging.Logger
	store    *store.Store
	launcher *browser.ChromiumLauncher
	manager  *browser.Manager
	auth     *auth.Controller
	publish  *publish.Executor
	pool     *dispatch.Pool
}

func newApp(cli *CLI) (*app, error) {
	log, err := logging.New("cli")
	if err != nil {
		return nil, err
	}
	if cli.Debug {
		log.SetMinLevel(logging.LevelDebug)
	}

	cfg, err := config.Load(cli.Config)
	if err != nil {
		return nil, err
	}
	if cli.Headed {
		cfg.Headless = false
	}

	db, err := store.Open(cfg.DatabasePath, log)
	if err != nil {
		return nil, err
	}

	launcher := browser.NewChromiumLauncher(log)
	manager := browser.NewManager(launcher, browser.NewJanitor(log), cfg.ProfileDir, cfg.Headless, log)
	diag := browser.NewDiagnostics(cfg.DebugDir, log)

	authOpts := auth.Options{
		NavigationTimeout: cfg.NavigationTimeout,
		ElementTimeout:    cfg.ElementTimeout,
		SettleDelay:       cfg.SettleDelay,
	}
	publishOpts := publish.Options{
		NavigationTimeout: cfg.NavigationTimeout,
		ElementTimeout:    cfg.ElementTimeout,
		SettleDelay:       cfg.SettleDelay,
	}

	return &app{
		cfg:      cfg,
		log:      log,
		store:    db,
		launcher: launcher,
		manager:  manager,
		auth:     auth.NewController(manager, diag, db, authOpts, log),
		publish:  publish.NewExecutor(manager, diag, publishOpts, log),
		pool:     dispatch.NewPool(cli.Workers, log),
	}, nil
}

// shutdown tears the engine down in dependency order: sessions, then
// the driver, then the database. Safe to call more than once.
func (a *app) shutdown() {
	a.manager.Shutdown()
	if err := a.launcher.Shutdown(); err != nil {
		a.log.Warnf("driver shutdown: %v", err)
	}
	if err := a.store.Close(); err != nil {
		a.log.Warnf("database close: %v", err)
	}
	a.log.Close()
}
