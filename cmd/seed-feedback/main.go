package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/kaliber/internal/seedfeedback"
	"github.com/okian/kaliber/pkg/logger"
)

// Default configuration constants.
const (
	defaultRecommendations = 500
	defaultFeedbackRatio   = 0.8
	defaultMeasureRatio    = 0.5
	defaultWorkers         = 2 // multiplier for runtime.NumCPU()
	defaultTimeout         = 30 * time.Second
	defaultSeedTimeout     = 10 * time.Minute
)

func main() {
	var (
		baseURL       = flag.String("url", "http://localhost:8080", "Base URL of the service")
		numRecs       = flag.Int("recommendations", defaultRecommendations, "Number of recommendations to register")
		feedbackRatio = flag.Float64("feedback-ratio", defaultFeedbackRatio, "Fraction of recommendations that receive feedback")
		measureRatio  = flag.Float64("measure-ratio", defaultMeasureRatio, "Fraction of accepted feedback that gets a measured outcome")
		workers       = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout       = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		verbose       = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultSeedTimeout)
	defer cancel()

	cfg := &seedfeedback.Config{
		BaseURL:            *baseURL,
		NumRecommendations: *numRecs,
		FeedbackRatio:      *feedbackRatio,
		MeasureRatio:       *measureRatio,
		Workers:            *workers,
		Timeout:            *timeout,
		Verbose:            *verbose,
	}

	if err := seedfeedback.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("seed failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
