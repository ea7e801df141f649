package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"registrar/internal/platform/config"
	"registrar/internal/platform/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var flags = []cli.Flag{
	&cli.StringFlag{
		Name:    "listen-addr",
		Value:   "127.0.0.1:8080",
		Usage:   "address to listen on for the API",
		EnvVars: []string{"REGISTRAR_LISTEN_ADDR"},
	},
	&cli.StringFlag{
		Name:    "metrics-addr",
		Value:   "127.0.0.1:8090",
		Usage:   "address to listen on for Prometheus metrics and drain switches; empty disables",
		EnvVars: []string{"REGISTRAR_METRICS_ADDR"},
	},
	&cli.StringFlag{
		Name:    "log-level",
		Value:   "info",
		Usage:   "minimum log level: debug, info, warn or error",
		EnvVars: []string{"REGISTRAR_LOG_LEVEL"},
	},
	&cli.BoolFlag{
		Name:    "log-json",
		Value:   false,
		Usage:   "log in JSON format",
		EnvVars: []string{"REGISTRAR_LOG_JSON"},
	},
	&cli.DurationFlag{
		Name:    "shutdown-timeout",
		Value:   defaultShutdownTimeout,
		Usage:   "time allowed for in-flight requests and background jobs on shutdown",
		EnvVars: []string{"REGISTRAR_SHUTDOWN_TIMEOUT"},
	},
}

func main() {
	app := &cli.App{
		Name:    "registrar",
		Usage:   "self-service registration mediator for a Matrix homeserver",
		Version: version,
		Flags:   flags,
		Action:  serve,
		Commands: []*cli.Command{
			{
				Name:  "config-check",
				Usage: "load and validate the configuration, then exit",
				Action: func(cCtx *cli.Context) error {
					cfg, err := config.FromEnv()
					if err != nil {
						return cli.Exit(err.Error(), 1)
					}
					fmt.Fprintf(cCtx.App.Writer, "configuration ok (development mode: %t)\n", cfg.DevelopmentMode)
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serve(cCtx *cli.Context) error {
	log := logger.New(logger.Options{
		Level:   cCtx.String("log-level"),
		JSON:    cCtx.Bool("log-json"),
		Service: "registrar",
		Version: version,
	})

	cfg, err := config.FromEnv()
	if err != nil {
		log.Error("failed to load configuration", "error", err)
		return err
	}
	if cfg.DevelopmentMode {
		log.Warn("development mode: in-memory storage and fake homeserver enabled")
	}

	return run(cCtx.Context, cfg, runOptions{
		listenAddr:      cCtx.String("listen-addr"),
		metricsAddr:     cCtx.String("metrics-addr"),
		shutdownTimeout: cCtx.Duration("shutdown-timeout"),
	}, log)
}
