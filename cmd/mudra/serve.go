package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
)

var serveOpts struct {
	addr      string
	staticDir string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API without a camera",
	Long: `Run the HTTP API only. Snapshots are posted to /api/recognize by an
external tracker; recognized gestures are journaled, streamed on
/api/events/stream and dispatched to their bound plugin actions.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, cleanup, err := openApp()
		if err != nil {
			return err
		}
		defer cleanup()

		return newServer(a).Run(ctx, serverAddr())
	},
}

func init() {
	addServerFlags(serveCmd)
	rootCmd.AddCommand(serveCmd)
}

func addServerFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&serveOpts.addr, "addr", "", "Listen address (overrides server.addr)")
	cmd.Flags().StringVar(&serveOpts.staticDir, "static", "", "Directory of static web files (overrides server.static_dir)")
}

func serverAddr() string {
	if serveOpts.addr != "" {
		return serveOpts.addr
	}
	return cfg.Server.Addr
}

func newServer(a *app.App) *server.Server {
	staticDir := serveOpts.staticDir
	if staticDir == "" {
		staticDir = cfg.Server.StaticDir
	}
	if staticDir == "" {
		staticDir = findWebDir()
	}
	if staticDir != "" {
		logger.Info("serving static files", "dir", staticDir)
	}

	return server.New(server.Config{
		StaticDir: staticDir,
		App:       a,
		Logger:    logger,
	})
}

// openApp opens the store, discovers plugins and builds the App. The
// returned cleanup closes the store.
func openApp() (*app.App, func(), error) {
	st, err := store.New(cfg.Store.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store: %w", err)
	}
	logger.Info("store opened", "path", st.Path())

	if r := cfg.Store.Retention.Duration; r > 0 {
		n, err := st.Events().DeleteBefore(time.Now().Add(-r))
		if err != nil {
			logger.Warn("failed to prune events", "err", err)
		} else if n > 0 {
			logger.Info("pruned old events", "count", n, "retention", r)
		}
	}

	plugins := plugin.NewManager(cfg.Plugins.Dir, logger)
	if err := plugins.Discover(); err != nil {
		st.Close()
		return nil, nil, fmt.Errorf("failed to discover plugins: %w", err)
	}
	logger.Info("plugins discovered", "dir", plugins.PluginDir(), "count", len(plugins.List()))

	a := app.New(app.Config{
		Recognition: cfg.Gesture(),
		Store:       st,
		Plugins:     plugins,
		Executor:    plugin.NewExecutor(cfg.Plugins.Timeout.Duration),
		Logger:      logger,
	})

	cleanup := func() {
		if err := st.Close(); err != nil {
			logger.Warn("error closing store", "err", err)
		}
	}
	return a, cleanup, nil
}

// findWebDir returns the first of web, ../web, ../../web and
// ~/.mudra/web that exists, or "".
func findWebDir() string {
	for _, p := range []string{"web", "../web", "../../web"} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}

	home := filepath.Join(config.DataDir(), "web")
	if info, err := os.Stat(home); err == nil && info.IsDir() {
		return home
	}
	return ""
}
