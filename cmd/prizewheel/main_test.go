package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/prizewheel/internal/config"
	"github.com/okian/prizewheel/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestConfigFromEnvironment(t *testing.T) {
	convey.Convey("Given PRIZEWHEEL_ environment variables", t, func() {
		t.Setenv("PRIZEWHEEL_ADDR", ":8080")
		t.Setenv("PRIZEWHEEL_SNAPSHOT_QUEUE_SIZE", "128")
		t.Setenv("PRIZEWHEEL_ADMIN_TOKEN", "tok")

		convey.Convey("Then configuration picks them up", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.SnapshotQueueSize, convey.ShouldEqual, 128)
			convey.So(cfg.AdminToken, convey.ShouldEqual, "tok")
		})

		convey.Convey("And an empty address is rejected", func() {
			t.Setenv("PRIZEWHEEL_ADDR", "")
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})
	})
}

func TestBuildService(t *testing.T) {
	convey.Convey("Given a default configuration", t, func() {
		ctx := context.Background()
		cfg := config.New()
		cfg.Timezone = "UTC"
		cfg.SpinPlayback = false

		convey.Convey("When the memory driver is selected", func() {
			svc, err := buildService(ctx, cfg, logger.Get())
			convey.So(err, convey.ShouldBeNil)
			convey.So(svc.Start(ctx), convey.ShouldBeNil)
			defer svc.Stop()

			convey.Convey("Then the service reports its driver", func() {
				stats := svc.GetStats()
				convey.So(stats["started"], convey.ShouldEqual, true)
				convey.So(stats["driver"], convey.ShouldEqual, config.DriverMemory)
			})
		})

		convey.Convey("When the sqlite driver is selected", func() {
			cfg.StoreDriver = config.DriverSQLite
			cfg.SQLitePath = filepath.Join(t.TempDir(), "prizewheel.db")

			svc, err := buildService(ctx, cfg, logger.Get())
			convey.So(err, convey.ShouldBeNil)
			convey.So(svc.Start(ctx), convey.ShouldBeNil)
			defer svc.Stop()

			convey.Convey("Then the service starts on it", func() {
				convey.So(svc.GetStats()["driver"], convey.ShouldEqual, config.DriverSQLite)
			})
		})

		convey.Convey("When the timezone is unknown", func() {
			cfg.Timezone = "Mars/Olympus"
			_, err := buildService(ctx, cfg, logger.Get())

			convey.Convey("Then it fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestMux(t *testing.T) {
	convey.Convey("Given the assembled routes", t, func() {
		ctx := context.Background()
		cfg := config.New()
		cfg.Timezone = "UTC"
		cfg.AdminToken = "tok"

		svc, err := buildService(ctx, cfg, logger.Get())
		convey.So(err, convey.ShouldBeNil)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()
		mux := newMux(ctx, cfg, svc, logger.Get())

		get := func(path string, auth bool) int {
			r := httptest.NewRequest(http.MethodGet, path, http.NoBody)
			if auth {
				r.Header.Set("Authorization", "Bearer tok")
			}
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, r)
			return w.Code
		}

		convey.Convey("Then every surface answers", func() {
			convey.So(get("/", false), convey.ShouldEqual, http.StatusOK)
			convey.So(get("/healthz", false), convey.ShouldEqual, http.StatusOK)
			convey.So(get("/openapi.yaml", false), convey.ShouldEqual, http.StatusOK)
			convey.So(get("/api-docs", false), convey.ShouldEqual, http.StatusOK)
			convey.So(get("/api/prizes", false), convey.ShouldEqual, http.StatusOK)
		})

		convey.Convey("And the admin API needs the token", func() {
			convey.So(get("/api/admin/prizes", false), convey.ShouldEqual, http.StatusUnauthorized)
			convey.So(get("/api/admin/prizes", true), convey.ShouldEqual, http.StatusOK)
		})
	})
}

func TestMetricsUpdaters(t *testing.T) {
	convey.Convey("Given the metrics updaters", t, func() {
		cfg := config.New()
		cfg.Timezone = "UTC"
		svc, err := buildService(context.Background(), cfg, logger.Get())
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("Then they run without panicking and stop with the context", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
			convey.So(func() { updateServiceMetrics(svc) }, convey.ShouldNotPanic)

			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
			convey.So(func() { startServiceMetricsUpdater(ctx, svc) }, convey.ShouldNotPanic)
		})
	})
}
