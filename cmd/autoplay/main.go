// Command autoplay plays Block Rush through the REST API. It creates (or
// resumes) a session, then walks shortest routes to the exit, pushing blocks
// out of the way when no clear route exists, until it has cleared the
// requested number of levels.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/mcp-training/blockrush/logging"
)

func main() {
	cmd := &cli.Command{
		Name:  "autoplay",
		Usage: "play Block Rush against a running server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "game server URL", Sources: cli.EnvVars("BLOCKRUSH_URL")},
			&cli.StringFlag{Name: "config", Usage: "preset for a new session"},
			&cli.StringFlag{Name: "continue", Usage: "resume an existing session by ID"},
			&cli.BoolFlag{Name: "reset", Usage: "regenerate the level before playing"},
			&cli.IntFlag{Name: "levels", Value: 3, Usage: "levels to clear"},
			&cli.IntFlag{Name: "max-moves", Value: 3000, Usage: "move budget"},
			&cli.IntFlag{Name: "max-stalls", Value: 200, Usage: "consecutive waits allowed while boxed in"},
			&cli.IntFlag{Name: "batch", Value: 8, Usage: "moves per bulk request on a clear route"},
			&cli.DurationFlag{Name: "delay", Usage: "pause between requests"},
			&cli.StringFlag{Name: "log-level", Value: "info", Sources: cli.EnvVars("LOG_LEVEL")},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	logging.Init(cmd.String("log-level"), "", os.Stderr)
	log := logging.Log.WithField("component", "autoplay")

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client := NewClient(cmd.String("url"))
	if id := cmd.String("continue"); id != "" {
		client.Resume(id)
		log.WithField("session", id).Info("resuming session")
	} else {
		info, err := client.CreateSession(ctx, cmd.String("config"))
		if err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		log.WithFields(logrus.Fields{"session": info.ID, "config": info.ConfigName}).Info("session created")
	}

	if cmd.Bool("reset") {
		if _, err := client.Reset(ctx); err != nil {
			return fmt.Errorf("reset: %w", err)
		}
	}

	opts := Options{
		TargetLevels: int(cmd.Int("levels")),
		MaxMoves:     int(cmd.Int("max-moves")),
		MaxStalls:    int(cmd.Int("max-stalls")),
		Batch:        int(cmd.Int("batch")),
		Delay:        cmd.Duration("delay"),
	}

	start := time.Now()
	report, err := Play(ctx, client, opts, logging.Session(client.SessionID()))
	log.WithFields(logrus.Fields{
		"session":  client.SessionID(),
		"moves":    report.Moves,
		"pushes":   report.Pushes,
		"level":    report.Level,
		"cleared":  report.LevelsCleared,
		"timeouts": report.Timeouts,
		"elapsed":  time.Since(start).Round(time.Millisecond),
	}).Info("autoplay finished")
	if err != nil {
		return err
	}
	if !report.Reached {
		return cli.Exit("target not reached", 1)
	}
	return nil
}
