package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gantry-sh/gantry/pkg/config"
	"github.com/gantry-sh/gantry/pkg/log"
	"github.com/gantry-sh/gantry/pkg/server"
	"github.com/gantry-sh/gantry/pkg/server/endpoints"
	"github.com/gantry-sh/gantry/pkg/stack"
	"github.com/gantry-sh/gantry/pkg/stack/graph"
	stategorm "github.com/gantry-sh/gantry/pkg/state/gorm"
	"github.com/gantry-sh/gantry/pkg/supervisor"
	"github.com/gantry-sh/gantry/pkg/volume"
)

// upCmd represents the up command
var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Start the stack and supervise it until shutdown",
	Long: `Start the stack and supervise it until shutdown.

Services start in dependency order: each service launches only once every
service it depends on has reached the required readiness condition
(service_started, service_healthy, or service_completed_successfully).
Once every service has reached its goal state the supervisor keeps running
in the foreground, serving the control API, until SIGINT or SIGTERM.

If any service fails to become ready, everything already started is stopped
in reverse order and the command exits 1 naming the failing service.

By default, state database migrations are run on startup. Use --no-migrate
to skip.

Example:
  gantryctl up
  gantryctl up -f examples/paper-trading/stack.yml
  gantryctl up --no-api`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fail("Failed to load configuration: %v", err)
		}

		file, _ := cmd.Flags().GetString("file")
		noAPI, _ := cmd.Flags().GetBool("no-api")
		noMigrate, _ := cmd.Flags().GetBool("no-migrate")

		if err := runUp(cfg, file, noAPI, noMigrate); err != nil {
			fmt.Fprintf(os.Stderr, "Startup failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(upCmd)
	upCmd.Flags().StringP("file", "f", stack.DefaultFileName, "Path to the stack file")
	upCmd.Flags().Bool("no-api", false, "Do not serve the control API")
	upCmd.Flags().Bool("no-migrate", false, "Skip running state database migrations on start")
}

func runUp(cfg *config.Config, file string, noAPI, noMigrate bool) error {
	st, err := stack.Load(file)
	if err != nil {
		return err
	}
	if err := st.Validate(); err != nil {
		return err
	}
	g, err := graph.New(st)
	if err != nil {
		return err
	}

	volumes := volume.NewManager(cfg.StateDir, st.Dir())

	dbURL := stateDatabaseURL(cfg)
	if !noMigrate {
		if err := runMigrations(dbURL); err != nil {
			return fmt.Errorf("migrate state database: %w", err)
		}
	}
	gdb, err := stategorm.Open(dbURL)
	if err != nil {
		return err
	}
	store := stategorm.NewStore(gdb)

	sup, err := supervisor.New(supervisor.Options{
		Stack:   st,
		Graph:   g,
		Volumes: volumes,
		Store:   store,
		LogDir:  cfg.LogDir(),
	})
	if err != nil {
		return err
	}

	logger := log.WithComponent("up").WithField("run", sup.RunID())

	var srv *server.Server
	if !noAPI {
		srv = server.NewServer(sup, store, cfg.ListenAddress, cfg.APIKey)
		endpoints.RegisterAll(srv)
		go func() {
			logger.WithField("address", srv.Addr()).Info("serving control API")
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.WithError(err).Error("control API server stopped")
			}
		}()
		err := server.WriteDiscovery(cfg.StateDir, server.Discovery{
			PID:       os.Getpid(),
			Address:   cfg.ListenAddress,
			RunID:     sup.RunID(),
			StackPath: st.Path(),
			StartedAt: time.Now(),
		})
		if err != nil {
			return err
		}
		defer func() { _ = server.RemoveDiscovery(cfg.StateDir) }()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := sup.Up(ctx); err != nil {
		shutdownAPI(srv)
		return err
	}

	fmt.Println("Stack is up. Press Ctrl+C to stop.")
	select {
	case <-ctx.Done():
		stop()
		logger.Info("shutting down")
		sup.Down()
	case <-sup.Done():
		// The whole run was stopped through the control API.
		logger.Info("stack stopped")
	}
	shutdownAPI(srv)
	return nil
}

func shutdownAPI(srv *server.Server) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}
