package loadgen_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/podium/internal/adapters/http/api"
	service "github.com/okian/podium/internal/app"
	"github.com/okian/podium/internal/loadgen"
	"github.com/okian/podium/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(logger.WithLevel("error")); err != nil {
		panic(err)
	}
}

func TestRun(t *testing.T) {
	Convey("Given a running server over generated rows", t, func() {
		svc := service.New(service.WithRows(loadgen.GenerateRows(11, 400)), service.WithLogger(logger.Nop()))
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()
		mux := http.NewServeMux()
		api.NewServer(svc, svc).Register(context.Background(), mux)
		srv := httptest.NewServer(mux)
		defer srv.Close()

		cfg := &loadgen.Config{
			BaseURL:  srv.URL,
			Sessions: 3,
			Intents:  30,
			Workers:  4,
			Timeout:  5 * time.Second,
			Seed:     5,
		}

		Convey("When the load run completes", func() {
			stats, err := loadgen.Run(context.Background(), cfg)

			Convey("Then every intent is answered and sessions are consistent", func() {
				So(err, ShouldBeNil)
				So(stats.SessionsOpened, ShouldEqual, 3)
				So(stats.IntentsSubmitted, ShouldEqual, 90)
				So(stats.IntentsFailed, ShouldEqual, 0)
				So(stats.IntentsRejected, ShouldEqual, 0)
				So(stats.Duplicates, ShouldEqual, 0)
				So(stats.IntentsApplied+stats.IntentsNoop, ShouldEqual, 90)
			})

			Convey("Then the sessions are closed afterwards", func() {
				So(svc.GetStats()["sessions"], ShouldEqual, 0)
			})
		})

		Convey("When the server is unreachable", func() {
			cfg.BaseURL = "http://127.0.0.1:1"
			_, err := loadgen.Run(context.Background(), cfg)

			Convey("Then the health check fails", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "health check")
			})
		})
	})
}
