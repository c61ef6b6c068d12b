// Package main is the entry point for the cantinabot CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"cantinabot/pkg/bus"
	"cantinabot/pkg/cache"
	"cantinabot/pkg/channels"
	"cantinabot/pkg/commands"
	"cantinabot/pkg/config"
	"cantinabot/pkg/logger"
	"cantinabot/pkg/scheduler"
	"cantinabot/pkg/version"
	"cantinabot/pkg/workflow"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "cantinabot",
	Short: "cantinabot - university cantina menu bot",
	Long: `cantinabot watches the university cantina menu uploads, posts the
daily menu to the configured chat channels and answers on-demand menu
commands.`,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the bot in the foreground",
	Run: func(cmd *cobra.Command, args []string) {
		runForeground()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.GetFullVersion())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path")

	cobra.OnInitialize(func() {
		// Credentials commonly live in a .env next to the binary.
		_ = godotenv.Load()
		if configPath != "" {
			_ = os.Setenv(config.ConfigPathEnv, configPath)
		}
	})

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serviceCmd)
	rootCmd.AddCommand(versionCmd)
}

// appModules assembles the bot application.
func appModules() fx.Option {
	return fx.Options(
		config.Module,
		logger.Module,
		bus.Module,
		commands.Module,
		cache.Module,
		workflow.Module,
		channels.Module,
		scheduler.Module,
	)
}

// runForeground runs the bot until interrupted. app.Run blocks until
// SIGINT or SIGTERM and drives the fx shutdown hooks.
func runForeground() {
	app := fx.New(
		appModules(),

		fx.Invoke(func(lc fx.Lifecycle, log *logger.Logger, cm *channels.Manager, cfg *config.Config) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					names := make([]string, 0)
					for _, ch := range cm.ListChannels() {
						names = append(names, ch.Name())
					}
					log.Info("Bot started",
						zap.String("version", version.GetVersion()),
						zap.Strings("channels", names),
						zap.String("post_time", cfg.Schedule.PostTime),
						zap.String("timezone", cfg.Schedule.Timezone))

					log.Info("Press Ctrl+C to stop")
					return nil
				},
			})
		}),
	)

	app.Run()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
