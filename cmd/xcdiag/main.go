// xcdiag: Xcode Build/Test Diagnostics MCP Server
//
// Parses xcodebuild console output, .xcresult bundles, and crash
// reports into structured diagnostic reports, and serves the analysis
// tools over MCP (stdio transport).
//
// Usage:
//
//	xcdiag serve              # Start MCP server (stdio transport)
//	xcdiag serve --config y   # Serve with an explicit config file
//	xcdiag version            # Print the version
package main

import (
	"fmt"
	"os"

	"github.com/cameronhq/xcdiag/internal/config"
	xdserver "github.com/cameronhq/xcdiag/internal/server"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	configPath string
	verbose    bool

	cfg    config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "xcdiag",
	Short: "xcdiag - Xcode build/test diagnostics MCP server",
	Long: `xcdiag turns raw Xcode build and test output into structured
diagnostic reports: compiler errors, linker failures, failed tests,
coverage, crash summaries, and scheme suggestions.

It runs as an MCP server over stdio, so any MCP-capable client can
feed it captured xcodebuild output and get analysis back.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// version must print even with a broken config file.
		if cmd.Name() == "version" {
			return nil
		}

		path := configPath
		if path == "" {
			path = config.DefaultPath()
		}

		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		// stdout is the MCP transport; all logging goes to stderr.
		zcfg := zap.NewProductionConfig()
		zcfg.OutputPaths = []string{"stderr"}
		zcfg.ErrorOutputPaths = []string{"stderr"}
		zcfg.Level = zap.NewAtomicLevelAt(logLevel(cfg.LogLevel))
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("initializing logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// serveCmd starts the MCP server on stdio.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server (stdio transport)",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, cleanup, err := xdserver.New(cfg, logger)
		if err != nil {
			return fmt.Errorf("creating server: %w", err)
		}
		defer cleanup()

		logger.Info("serving on stdio",
			zap.String("version", xdserver.Version),
			zap.String("data_dir", cfg.DataDir))
		return server.ServeStdio(s)
	},
}

// versionCmd prints the build version.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("xcdiag v%s\n", xdserver.Version)
	},
}

func logLevel(name string) zapcore.Level {
	switch name {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func main() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default ~/.xcdiag/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(serveCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
