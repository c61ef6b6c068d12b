package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kardianos/service"
	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"cantinabot/pkg/config"
)

var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Manage the bot as a system service",
}

func init() {
	serviceCmd.AddCommand(
		&cobra.Command{
			Use:   "install",
			Short: "Install the bot as a system service",
			RunE:  func(cmd *cobra.Command, args []string) error { return installService() },
		},
		&cobra.Command{
			Use:   "uninstall",
			Short: "Uninstall the bot service",
			RunE:  func(cmd *cobra.Command, args []string) error { return uninstallService() },
		},
		&cobra.Command{
			Use:   "start",
			Short: "Start the bot service",
			RunE:  func(cmd *cobra.Command, args []string) error { return startService() },
		},
		&cobra.Command{
			Use:   "stop",
			Short: "Stop the bot service",
			RunE:  func(cmd *cobra.Command, args []string) error { return stopService() },
		},
		&cobra.Command{
			Use:   "restart",
			Short: "Restart the bot service",
			RunE:  func(cmd *cobra.Command, args []string) error { return restartService() },
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show the bot service status",
			RunE:  func(cmd *cobra.Command, args []string) error { return statusService() },
		},
		&cobra.Command{
			Use:    "run",
			Short:  "Run under the service manager",
			Hidden: true,
			RunE:   func(cmd *cobra.Command, args []string) error { return runService() },
		},
	)
}

// BotService implements service.Interface for the bot.
type BotService struct {
	app    *fx.App
	logger service.Logger
}

// Start implements service.Interface.
func (s *BotService) Start(svc service.Service) error {
	if s.logger != nil {
		s.logger.Info("Starting cantinabot service")
	}

	go s.run()
	return nil
}

// Stop implements service.Interface.
func (s *BotService) Stop(svc service.Service) error {
	if s.logger != nil {
		s.logger.Info("Stopping cantinabot service")
	}

	if s.app != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := s.app.Stop(ctx); err != nil {
			if s.logger != nil {
				s.logger.Errorf("Error stopping service: %v", err)
			}
			return err
		}
	}

	return nil
}

func (s *BotService) run() {
	s.app = fx.New(
		appModules(),
		fx.NopLogger, // fx noise does not belong in the service log
	)

	s.app.Run()
}

// ServiceConfig returns the service manager configuration. The config
// flag is baked into the service arguments so the daemon loads the same
// file the installer saw.
func ServiceConfig() *service.Config {
	args := []string{}

	path := strings.TrimSpace(configPath)
	if path == "" {
		path = strings.TrimSpace(os.Getenv(config.ConfigPathEnv))
	}
	if path != "" {
		args = append(args, "-c", path)
	}
	args = append(args, "service", "run")

	return &service.Config{
		Name:        "cantinabot",
		DisplayName: "CantinaBot",
		Description: "University cantina menu bot for Discord and Telegram",
		Arguments:   args,
	}
}

func newService() (service.Service, *BotService, error) {
	prg := &BotService{}
	s, err := service.New(prg, ServiceConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("creating service: %w", err)
	}
	return s, prg, nil
}

func installService() error {
	s, _, err := newService()
	if err != nil {
		return err
	}

	if err := s.Install(); err != nil {
		return fmt.Errorf("installing service: %w", err)
	}

	fmt.Println("Service installed successfully!")
	fmt.Println("Use 'cantinabot service start' to start the service")
	return nil
}

func uninstallService() error {
	s, _, err := newService()
	if err != nil {
		return err
	}

	if err := s.Uninstall(); err != nil {
		return fmt.Errorf("uninstalling service: %w", err)
	}

	fmt.Println("Service uninstalled successfully!")
	return nil
}

func startService() error {
	s, _, err := newService()
	if err != nil {
		return err
	}

	if err := s.Start(); err != nil {
		return fmt.Errorf("starting service: %w", err)
	}

	fmt.Println("Service started successfully!")
	return nil
}

func stopService() error {
	s, _, err := newService()
	if err != nil {
		return err
	}

	if err := s.Stop(); err != nil {
		return fmt.Errorf("stopping service: %w", err)
	}

	fmt.Println("Service stopped successfully!")
	return nil
}

func restartService() error {
	s, _, err := newService()
	if err != nil {
		return err
	}

	if err := s.Restart(); err != nil {
		return fmt.Errorf("restarting service: %w", err)
	}

	fmt.Println("Service restarted successfully!")
	return nil
}

func statusService() error {
	s, _, err := newService()
	if err != nil {
		return err
	}

	status, err := s.Status()
	if err != nil {
		return fmt.Errorf("getting service status: %w", err)
	}

	statusStr := "Unknown"
	switch status {
	case service.StatusRunning:
		statusStr = "Running"
	case service.StatusStopped:
		statusStr = "Stopped"
	}

	fmt.Printf("Service Status: %s\n", statusStr)
	return nil
}

func runService() error {
	s, prg, err := newService()
	if err != nil {
		return err
	}

	svcLogger, err := s.Logger(nil)
	if err != nil {
		return fmt.Errorf("creating service logger: %w", err)
	}
	prg.logger = svcLogger

	if err := s.Run(); err != nil {
		svcLogger.Error(err)
		return err
	}

	return nil
}
