// Command shopctl runs maintenance tasks against the shop database.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/EthanMadison/hack-yourself.shop/internal/bootstrap"
	"github.com/EthanMadison/hack-yourself.shop/internal/infrastructure/config"
	"github.com/EthanMadison/hack-yourself.shop/internal/infrastructure/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type cli struct {
	configFile string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:          "shopctl",
		Short:        "Maintenance commands for the shop",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&c.configFile, "config", "", "config file (default: ./config.toml)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(c.seedCmd(), c.createAdminCmd())
	return root
}

func (c *cli) seedCmd() *cobra.Command {
	var fake int
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the demo categories and products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if fake < 0 {
				return errors.New("--fake must not be negative")
			}
			return c.withApp(cmd.Context(), func(ctx context.Context, app *bootstrap.App) error {
				res, err := app.Seeder.SeedDemo(ctx, fake)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d categories and %d products\n", res.Categories, res.Products)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&fake, "fake", 0, "also generate N random products")
	return cmd
}

func (c *cli) createAdminCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		Long:  "Create an administrator account. --email and --password fall back to ADMIN_EMAIL and ADMIN_PASSWORD.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if email == "" {
				email = os.Getenv("ADMIN_EMAIL")
			}
			if password == "" {
				password = os.Getenv("ADMIN_PASSWORD")
			}
			if email == "" || password == "" {
				return errors.New("email and password are required (flags or ADMIN_EMAIL/ADMIN_PASSWORD)")
			}
			return c.withApp(cmd.Context(), func(ctx context.Context, app *bootstrap.App) error {
				created, err := app.Auth.CreateAdmin(ctx, email, password)
				if err != nil {
					return err
				}
				if !created {
					fmt.Fprintf(cmd.OutOrStdout(), "Existing user %s is now an admin\n", email)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Admin %s created\n", email)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "admin email")
	cmd.Flags().StringVar(&password, "password", "", "admin password")
	return cmd
}

// withApp loads the configuration, assembles the app and runs fn with it
func (c *cli) withApp(ctx context.Context, fn func(context.Context, *bootstrap.App) error) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	log, err := logger.New(logger.Config{Level: c.logLevel, Format: "console", Output: "stderr"})
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	app, err := bootstrap.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(context.Background()); err != nil {
			log.Warn("Error releasing resources", zap.Error(err))
		}
	}()
	return fn(ctx, app)
}

func (c *cli) loadConfig() (*config.Config, error) {
	if c.configFile != "" {
		return config.LoadFile(c.configFile)
	}
	return config.Load()
}
