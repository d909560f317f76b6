package loadtest_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/prizewheel/internal/adapters/http/api"
	"github.com/okian/prizewheel/internal/adapters/store"
	service "github.com/okian/prizewheel/internal/app"
	"github.com/okian/prizewheel/internal/loadtest"
	"github.com/okian/prizewheel/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

const token = "load-token"

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func startServer(t *testing.T) *httptest.Server {
	t.Helper()
	svc := service.New(
		service.WithStore(store.NewMemory()),
		service.WithLocale("en", time.UTC),
	)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}
	mux := http.NewServeMux()
	api.NewServer(svc, svc.Console(), svc, api.WithAdminToken(token)).Register(context.Background(), mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		srv.Close()
		svc.Stop()
	})
	return srv
}

func TestRun(t *testing.T) {
	srv := startServer(t)

	Convey("Given a running prizewheel server", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		config := &loadtest.Config{
			BaseURL:    srv.URL,
			AdminToken: token,
			NumEntries: 120,
			Workers:    16,
			Timeout:    5 * time.Second,
			Window:     time.Minute,
			Settle:     5 * time.Second,
		}

		Convey("When entries are submitted concurrently", func() {
			stats, err := loadtest.Run(ctx, config)

			Convey("Then every entry is accepted and stored", func() {
				So(err, ShouldBeNil)
				So(stats.PrizeID, ShouldNotBeEmpty)
				So(stats.EntriesAccepted, ShouldEqual, 120)
				So(stats.EntriesStored, ShouldEqual, 120)
				So(stats.EntriesMissing, ShouldEqual, 0)
				So(stats.EntriesFailed, ShouldEqual, 0)
			})
		})

		Convey("When the run also draws after a short window", func() {
			config.NumEntries = 20
			config.Window = time.Second
			config.Draw = true
			config.OutputFile = filepath.Join(t.TempDir(), "out", "entries.json")

			stats, err := loadtest.Run(ctx, config)

			Convey("Then a submitted entry wins and the file is written", func() {
				So(err, ShouldBeNil)
				So(stats.Winner, ShouldNotBeEmpty)
				_, statErr := os.Stat(config.OutputFile)
				So(statErr, ShouldBeNil)
			})
		})

		Convey("When the admin token is wrong", func() {
			config.AdminToken = "nope"
			_, err := loadtest.Run(ctx, config)

			Convey("Then the prize cannot be created", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "401")
			})
		})
	})
}

func TestRunUnreachable(t *testing.T) {
	Convey("Given a server that is not listening", t, func() {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := loadtest.Run(context.Background(), &loadtest.Config{
			BaseURL:    url,
			NumEntries: 1,
			Workers:    1,
			Timeout:    time.Second,
		})

		Convey("Then the health check fails", func() {
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "health check")
		})
	})
}
