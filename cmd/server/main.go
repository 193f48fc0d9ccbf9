/*
main.go - Application entry point

PURPOSE:
  Command-line entry for the flying star engine: the HTTP server and a
  small chart printer for the terminal.

COMMANDS:
  serve   Start the HTTP API
  chart   Print a period plate as a 3x3 grid

STARTUP SEQUENCE (serve):
  1. Configure logging
  2. Load engine config (YAML, optional)
  3. Initialize SQLite store
  4. Create engine, API handler and router
  5. Start server with graceful shutdown

FLAGS (serve):
  --port       HTTP server port (default: 8080)
  --db         SQLite database path (default: flyingstar.db)
               Use ":memory:" for in-memory database
  --config     Engine config YAML (default: built-in defaults)
  --log-level  debug, info, warn or error (default: info)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  ./server serve --db=./data/flyingstar.db --config=./engine.yaml
  ./server serve --db=":memory:" --port=3000
  ./server chart --period 9 --facing 180 --tigua

SEE ALSO:
  - api/server.go: Router configuration
  - engine/config.go: Config file format
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/qiflow/flyingstar/api"
	"github.com/qiflow/flyingstar/engine"
	"github.com/qiflow/flyingstar/store/sqlite"
)

var (
	servePort     int
	serveDBPath   string
	serveConfig   string
	serveLogLevel string

	chartPeriod int
	chartFacing float64
	chartTigua  bool
	chartFangua bool
)

var rootCmd = &cobra.Command{
	Use:   "server",
	Short: "Xuankong flying star assessment engine",
	Long: `Computes flying star charts for a house facing and a reference date,
scores every palace and reports classical patterns and key positions.`,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  runServe,
}

var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Print a period plate as a 3x3 grid",
	Long: `Print the period plate for a facing bearing, south at the top.
Each cell shows mountain star, facing star and period star.

Example usage:
  server chart --period 9 --facing 180
  server chart --period 8 --facing 30 --tigua`,
	RunE: runChart,
}

func init() {
	rootCmd.AddCommand(serveCmd, chartCmd)

	serveCmd.Flags().IntVar(&servePort, "port", 8080, "HTTP server port")
	serveCmd.Flags().StringVar(&serveDBPath, "db", "flyingstar.db", "SQLite database path")
	serveCmd.Flags().StringVar(&serveConfig, "config", "", "Engine config YAML")
	serveCmd.Flags().StringVar(&serveLogLevel, "log-level", "info", "Log level: debug, info, warn, error")

	chartCmd.Flags().IntVar(&chartPeriod, "period", 9, "Period 1-9")
	chartCmd.Flags().Float64Var(&chartFacing, "facing", 180, "Facing bearing in degrees")
	chartCmd.Flags().BoolVar(&chartTigua, "tigua", false, "Apply the substitute-star rule")
	chartCmd.Flags().BoolVar(&chartFangua, "fangua", false, "Apply the reversed-seed rule")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	level, err := zerolog.ParseLevel(serveLogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", serveLogLevel, err)
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	// Engine
	cfg, err := engine.LoadConfig(serveConfig)
	if err != nil {
		return err
	}
	eng, err := engine.New(cfg)
	if err != nil {
		return fmt.Errorf("invalid engine config: %w", err)
	}

	// Store
	store, err := sqlite.New(serveDBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer store.Close()

	handler := api.NewHandler(eng, store, log.Logger)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", servePort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", servePort).Str("db", serveDBPath).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for interrupt signal or a failed listener
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	}

	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("server stopped")
	return nil
}

func runChart(cmd *cobra.Command, args []string) error {
	out, err := renderChart(chartPeriod, chartFacing, chartTigua, chartFangua)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}
