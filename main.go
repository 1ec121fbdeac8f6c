package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/openrecon/openrecon/config"
	"github.com/openrecon/openrecon/server"
)

var (
	// Version and Revision are replaced at build time via ldflags.
	Version  = "0.0.1"
	Revision = "xxx"

	Name  = "openrecon"
	Usage = "Passive external reconnaissance service"
)

func main() {
	app := cli.NewApp()
	app.Version = Version
	app.Name = Name
	app.Usage = Usage

	var configPath string
	var address string

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "path to the configuration file",
			Destination: &configPath,
		},
		&cli.StringFlag{
			Name:        "address",
			Aliases:     []string{"a"},
			Usage:       "listen address, overrides the configured value",
			Destination: &address,
		},
		&cli.BoolFlag{
			Name:  "debug",
			Usage: "enable debug logging",
		},
	}

	app.Action = func(c *cli.Context) error {
		if err := setupLogger(c.Bool("debug")); err != nil {
			return err
		}
		defer zap.S().Sync()

		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			zap.S().Errorw("failed to load config", "path", configPath, "error", err)
			return err
		}
		if address != "" {
			cfg.Server.Address = address
		}

		return server.Run(cfg, Name, Version, Revision)
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogger(debug bool) error {
	zapConfig := zap.NewProductionConfig()
	if debug {
		zapConfig = zap.NewDevelopmentConfig()
	}
	logger, err := zapConfig.Build()
	if err != nil {
		return err
	}
	zap.ReplaceGlobals(logger)
	return nil
}
