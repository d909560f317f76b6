package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/prizewheel/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.StoreDriver, convey.ShouldEqual, config.DriverMemory)
				convey.So(cfg.SpinPlayback, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("PRIZEWHEEL_ADDR", ":8080")
			_ = os.Setenv("PRIZEWHEEL_SPIN_TURNS", "6")
			_ = os.Setenv("PRIZEWHEEL_SPIN_PLAYBACK", "false")
			_ = os.Setenv("PRIZEWHEEL_ADMIN_TOKEN", "s3cret")
			_ = os.Setenv("PRIZEWHEEL_LOCALE", "en")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.SpinTurns, convey.ShouldEqual, 6)
				convey.So(cfg.SpinPlayback, convey.ShouldBeFalse)
				convey.So(cfg.AdminToken, convey.ShouldEqual, "s3cret")
				convey.So(cfg.Locale, convey.ShouldEqual, "en")
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile(`
addr: ":9090"
store_driver: sqlite
sqlite_path: /tmp/wheel.db
notification_ttl_ms: 5000
`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("PRIZEWHEEL_CONFIG", tmpFile)
			_ = os.Setenv("PRIZEWHEEL_ADDR", ":8080")

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.StoreDriver, convey.ShouldEqual, config.DriverSQLite)
				convey.So(cfg.SQLitePath, convey.ShouldEqual, "/tmp/wheel.db")
				convey.So(cfg.NotificationTTLMS, convey.ShouldEqual, 5000)
				convey.So(cfg.SpinTurns, convey.ShouldEqual, 10)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("PRIZEWHEEL_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("PRIZEWHEEL_CONFIG", "/non/existent/file.yaml")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("PRIZEWHEEL_ADDR", "")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("PRIZEWHEEL_SPIN_TURNS", "many")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func clearConfigEnvVars() {
	for _, key := range []string{
		"PRIZEWHEEL_CONFIG",
		"PRIZEWHEEL_ADDR",
		"PRIZEWHEEL_SPIN_TURNS",
		"PRIZEWHEEL_SPIN_PLAYBACK",
		"PRIZEWHEEL_ADMIN_TOKEN",
		"PRIZEWHEEL_LOCALE",
		"PRIZEWHEEL_STORE_DRIVER",
	} {
		_ = os.Unsetenv(key)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "prizewheel-config-*.yaml")
	if err != nil {
		panic(err)
	}
	defer func() { _ = tmpFile.Close() }()

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}
	return tmpFile.Name()
}
