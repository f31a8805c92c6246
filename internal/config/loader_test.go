package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/kaliber/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.Store, convey.ShouldEqual, config.StoreMemory)
				convey.So(cfg.MaturationWindowDays, convey.ShouldEqual, 30)
				convey.So(cfg.BatchWorkerCount, convey.ShouldEqual, 4)
				convey.So(cfg.EntityFeedbackLimit, convey.ShouldEqual, 50)
				convey.So(cfg.StrictOutcome, convey.ShouldBeFalse)
				convey.So(cfg.TrainingThreshold, convey.ShouldEqual, 100)
				convey.So(cfg.MaxWindowDays, convey.ShouldEqual, 365)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("KALIBER_ADDR", ":9090")
			_ = os.Setenv("KALIBER_STORE", "sqlite")
			_ = os.Setenv("KALIBER_SQLITE_PATH", "/tmp/kaliber-test.db")
			_ = os.Setenv("KALIBER_MATURATION_WINDOW_DAYS", "14")
			_ = os.Setenv("KALIBER_STRICT_OUTCOME", "true")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.Store, convey.ShouldEqual, config.StoreSQLite)
				convey.So(cfg.SQLitePath, convey.ShouldEqual, "/tmp/kaliber-test.db")
				convey.So(cfg.MaturationWindowDays, convey.ShouldEqual, 14)
				convey.So(cfg.StrictOutcome, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":7070"
store: "sqlite"
sqlite_path: "/var/lib/kaliber/feedback.db"
maturation_window_days: 21
batch_worker_count: 8
training_threshold: 200
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("KALIBER_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.Store, convey.ShouldEqual, config.StoreSQLite)
				convey.So(cfg.SQLitePath, convey.ShouldEqual, "/var/lib/kaliber/feedback.db")
				convey.So(cfg.MaturationWindowDays, convey.ShouldEqual, 21)
				convey.So(cfg.BatchWorkerCount, convey.ShouldEqual, 8)
				convey.So(cfg.TrainingThreshold, convey.ShouldEqual, 200)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
addr: ":7070"
batch_worker_count: 8
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("KALIBER_CONFIG", tmpFile)
			_ = os.Setenv("KALIBER_ADDR", ":9090")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")           // Overridden by env
				convey.So(cfg.BatchWorkerCount, convey.ShouldEqual, 8)     // From file
				convey.So(cfg.EntityFeedbackLimit, convey.ShouldEqual, 50) // From defaults
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("KALIBER_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("KALIBER_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with an unknown store backend", func() {
			_ = os.Setenv("KALIBER_STORE", "postgres")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with a non-positive max window", func() {
			_ = os.Setenv("KALIBER_MAX_WINDOW_DAYS", "0")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with a non-positive maturation window", func() {
			_ = os.Setenv("KALIBER_MATURATION_WINDOW_DAYS", "0")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"KALIBER_CONFIG",
		"KALIBER_ADDR",
		"KALIBER_STORE",
		"KALIBER_SQLITE_PATH",
		"KALIBER_MATURATION_WINDOW_DAYS",
		"KALIBER_BATCH_WORKER_COUNT",
		"KALIBER_ENTITY_FEEDBACK_LIMIT",
		"KALIBER_STRICT_OUTCOME",
		"KALIBER_TRAINING_THRESHOLD",
		"KALIBER_MATURATION_INTERVAL_MINUTES",
		"KALIBER_MAX_WINDOW_DAYS",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "kaliber-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
