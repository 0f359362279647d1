package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"bitbucket.org/mmdatafocus/syncstock_backend/config"
	"bitbucket.org/mmdatafocus/syncstock_backend/models"
	"bitbucket.org/mmdatafocus/syncstock_backend/rollup"
)

// Exit codes for schedulers that want to tell outcomes apart.
const (
	exitOK             = 0
	exitFailure        = 1
	exitRunActive      = 2
	exitInvalidPayload = 3
)

// syncstock-run executes one rollup pass and exits. This is the entry point
// for scheduled invocations (cron, CI); the webhook server wraps the same
// engine for on-demand triggers.
func main() {
	payloadFlag := flag.String("payload", "", "Optional trigger payload: empty, YYYY-MM-DD, or {\"start_date\": ...}")
	strictPayload := flag.Bool("strict-payload", false, "Exit with an error on a malformed payload instead of running the default window")
	strictSkip := flag.Bool("strict-skip", false, "Exit non-zero when another run holds the lock (default: clean skip)")
	flag.Parse()

	payload := *payloadFlag
	if payload == "" && flag.Arg(0) != "" {
		payload = flag.Arg(0)
	}

	os.Exit(run(payload, *strictPayload, *strictSkip))
}

func run(payload string, strictPayload, strictSkip bool) int {
	logger := config.GetLogger()

	userStart, err := rollup.ParseStartDate(payload)
	if err != nil {
		if strictPayload {
			fmt.Fprintln(os.Stderr, err)
			return exitInvalidPayload
		}
		logger.WithField("module", "syncstock-run").Warn(err.Error() + "; running with the default window")
		userStart = nil
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitFailure
	}

	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitFailure
	}
	defer func() {
		if sqlDB, derr := db.DB(); derr == nil && sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()

	if err := models.MigrateTable(db); err != nil {
		fmt.Fprintf(os.Stderr, "migrate tables: %v\n", err)
		return exitFailure
	}

	if userStart != nil {
		logger.WithField("start_date", userStart.Format("2006-01-02")).Info("caller-supplied resume date")
	}

	res, err := rollup.NewEngine(db, logger).Run(context.Background(), userStart)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rollup run failed: %v\n", err)
		return exitFailure
	}
	if res.Skipped {
		if strictSkip {
			return exitRunActive
		}
		return exitOK
	}

	logger.WithField("duration", time.Since(res.StartedAt).String()).Info("syncstock run complete")
	return exitOK
}
