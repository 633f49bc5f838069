package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ari/claude-monitor/internal/config"
	"github.com/ari/claude-monitor/internal/logger"
	"github.com/ari/claude-monitor/internal/monitor"
	"github.com/ari/claude-monitor/internal/server"
	"github.com/ari/claude-monitor/internal/ui"
)

var (
	cfgPath    string
	cfg        *config.Config
	port       int
	foreground bool
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "claude-monitor",
	Short: "Monitor Claude Code usage with a local web dashboard",
	Long:  `Watches the Claude Code data directory, aggregates token usage from session transcripts, and serves a live dashboard on localhost.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for help command
		if cmd.Name() == "help" {
			return nil
		}
		var err error
		cfg, err = config.LoadConfig(cfgPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default: start in foreground
		foreground = true
		port = cfg.Port
		return runServer()
	},
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the monitor server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if isRunning() {
			return errors.New("claude-monitor is already running")
		}
		if !cmd.Flags().Changed("port") {
			port = cfg.Port
		}
		// TODO: real daemonization; for now start always runs in the
		// foreground and --foreground only switches the log format.
		if !foreground {
			fmt.Printf("Starting claude-monitor on port %d...\n", port)
		}
		return runServer()
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the monitor server",
	Run: func(cmd *cobra.Command, args []string) {
		stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current status",
	Run: func(cmd *cobra.Command, args []string) {
		if isRunning() {
			fmt.Println("claude-monitor is running")
		} else {
			fmt.Println("claude-monitor is not running")
		}
	},
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show loaded configuration",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Config loaded:\n")
		fmt.Printf("  Claude dir:   %s\n", cfg.ClaudeDir)
		fmt.Printf("  Projects dir: %s\n", cfg.ProjectsDir())
		fmt.Printf("  History file: %s\n", cfg.HistoryFile())
		fmt.Printf("  Port:         %d\n", cfg.Port)
		fmt.Printf("  Token limit:  %s per %dh window\n", ui.FormatTokens(cfg.TokenLimit), cfg.WindowHours)
	},
}

// runServer runs the monitor until interrupted: initial scan, file watcher,
// HTTP server, graceful shutdown on SIGINT/SIGTERM.
func runServer() error {
	log, err := logger.New(foreground, logLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	if err := writePIDFile(); err != nil {
		log.Warn("could not write pid file", zap.Error(err))
	}
	defer removePIDFile()

	state := monitor.NewState(cfg, log)

	// Initial load of data
	if err := state.Refresh(); err != nil {
		log.Error("failed to load initial data", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watcherDone := make(chan struct{})
	go func() {
		defer close(watcherDone)
		if err := monitor.NewWatcher(state, log).Run(ctx); err != nil {
			log.Error("file watcher error", zap.Error(err))
		}
	}()

	srv := &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", port),
		Handler: server.NewRouter(state, log),
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.ListenAndServe()
	}()

	log.Info("claude monitor running", zap.String("addr", "http://"+srv.Addr))
	fmt.Printf("\n  Claude Monitor is running!\n")
	fmt.Printf("  Open http://localhost:%d in your browser\n\n", port)

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-serverErr:
		stop()
		<-watcherDone
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("server shutdown", zap.Error(err))
	}

	stop()
	<-watcherDone
	return nil
}

func pidFilePath() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate cache directory: %w", err)
	}
	return filepath.Join(cacheDir, "claude-monitor.pid"), nil
}

func writePIDFile() error {
	path, err := pidFilePath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0644)
}

func removePIDFile() {
	if path, err := pidFilePath(); err == nil {
		_ = os.Remove(path)
	}
}

func readPID() (int, error) {
	path, err := pidFilePath()
	if err != nil {
		return 0, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid pid file %s: %w", path, err)
	}
	return pid, nil
}

// isRunning probes the PID file and checks whether that process is alive.
func isRunning() bool {
	pid, err := readPID()
	if err != nil {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}

func stopServer() {
	pid, err := readPID()
	if err != nil {
		fmt.Println("claude-monitor is not running")
		return
	}
	if proc, err := os.FindProcess(pid); err == nil {
		_ = proc.Signal(syscall.SIGTERM)
	}
	removePIDFile()
	fmt.Println("Stopped claude-monitor")
}

// Execute runs the root command. Cobra handles --version itself, before any
// config loading.
func Execute(version, buildTime string) {
	rootCmd.Version = fmt.Sprintf("%s (built: %s)", version, buildTime)
	if err := rootCmd.Execute(); err != nil {
		ui.Error(err.Error())
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "Path to config file (default: ~/.claude-monitor/config.toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level (debug, info, warn, error)")
	startCmd.Flags().IntVarP(&port, "port", "p", 3456, "Port to listen on")
	startCmd.Flags().BoolVarP(&foreground, "foreground", "f", false, "Run in foreground with console logs")
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(infoCmd)
}
