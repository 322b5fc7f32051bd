package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"opensesame/internal/logger"

	"github.com/urfave/cli/v2"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "signup:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "signup",
		Usage: "link your GitHub account and create your OpenSesame profile",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Usage:   "OpenSesame origin",
				Value:   "http://localhost:8080",
				EnvVars: []string{"OPENSESAME_URL"},
			},
			&cli.StringFlag{
				Name:     "github-client-id",
				Usage:    "OAuth app client id with device flow enabled",
				EnvVars:  []string{"GITHUB_CLIENT_ID"},
				Required: true,
			},
			&cli.StringFlag{
				Name:    "github-api-url",
				Value:   "https://api.github.com",
				EnvVars: []string{"GITHUB_API_BASE_URL"},
			},
			&cli.StringSliceFlag{
				Name:    "catalog",
				Usage:   "interest tags offered by the server",
				Value:   cli.NewStringSlice("go", "rust", "python", "javascript", "java", "docs"),
				EnvVars: []string{"SIGNUP_INTEREST_TAGS"},
			},
			&cli.StringSliceFlag{
				Name:    "interest",
				Aliases: []string{"i"},
				Usage:   "interest tag to select, repeatable",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "error",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Action: run,
	}
}

func run(c *cli.Context) error {
	if err := logger.Init(c.String("log-level")); err != nil {
		return err
	}
	defer logger.Sync()

	s, err := newSession(sessionConfig{
		Server:         c.String("server"),
		GitHubClientID: c.String("github-client-id"),
		GitHubAPIURL:   c.String("github-api-url"),
		Catalog:        c.StringSlice("catalog"),
		Out:            c.App.Writer,
		ErrOut:         c.App.ErrWriter,
	})
	if err != nil {
		return err
	}
	defer s.Close()

	return s.Run(c.Context, c.StringSlice("interest"))
}
