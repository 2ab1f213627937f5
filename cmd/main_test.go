package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	app "github.com/okian/drawtree/internal/app"
	"github.com/okian/drawtree/internal/config"
	"github.com/okian/drawtree/pkg/logger"
	"github.com/okian/drawtree/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			_ = os.Setenv("DRAWTREE_ADDR", ":8080")
			_ = os.Setenv("DRAWTREE_QUEUE_SIZE", "1000")
			_ = os.Setenv("DRAWTREE_WORKER_COUNT", "4")
			defer func() {
				_ = os.Unsetenv("DRAWTREE_ADDR")
				_ = os.Unsetenv("DRAWTREE_QUEUE_SIZE")
				_ = os.Unsetenv("DRAWTREE_WORKER_COUNT")
			}()

			convey.Convey("Then configuration should be loadable", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.ShareQueueSize, convey.ShouldEqual, 1000)
				convey.So(cfg.ShareWorkerCount, convey.ShouldEqual, 4)
			})

			convey.Convey("And the service should pick the values up", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)

				stats := newService(cfg, nil).GetStats()
				convey.So(stats["queueSize"], convey.ShouldEqual, 1000)
				convey.So(stats["workerCount"], convey.ShouldEqual, 4)
				convey.So(stats["tickIntervalMs"], convey.ShouldEqual, int64(cfg.TickIntervalMS))
				convey.So(stats["totalDurationMs"], convey.ShouldEqual, float64(cfg.TotalDurationMS))
			})
		})

		convey.Convey("When testing invalid configuration", func() {
			_ = os.Setenv("DRAWTREE_ADDR", "")
			defer func() { _ = os.Unsetenv("DRAWTREE_ADDR") }()

			convey.Convey("Then configuration loading should fail", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func TestMainApplicationIntegration(t *testing.T) {
	convey.Convey("Given a started service behind the full mux", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		cfg := config.New(ctx)
		cfg.ShareWorkerCount = 1
		svc := newService(cfg, logger.Get())
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		srv := httptest.NewServer(newMux(ctx, svc))
		defer srv.Close()

		convey.Convey("Then docs, reference and sessions are served", func() {
			resp, err := http.Get(srv.URL + "/")
			convey.So(err, convey.ShouldBeNil)
			_ = resp.Body.Close()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)

			resp, err = http.Get(srv.URL + "/openapi.yaml")
			convey.So(err, convey.ShouldBeNil)
			_ = resp.Body.Close()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)

			resp, err = http.Get(srv.URL + "/reference")
			convey.So(err, convey.ShouldBeNil)
			var ref app.ReferenceView
			convey.So(json.NewDecoder(resp.Body).Decode(&ref), convey.ShouldBeNil)
			_ = resp.Body.Close()
			convey.So(len(ref.Points), convey.ShouldBeGreaterThan, 0)

			body := `{"user_agent":"Mozilla/5.0 (iPhone) Mobile","platform":"iPhone","max_touch_points":5,"has_touch_event":true,"width":390,"height":844}`
			resp, err = http.Post(srv.URL+"/sessions", "application/json", strings.NewReader(body))
			convey.So(err, convey.ShouldBeNil)
			var view app.SessionView
			convey.So(json.NewDecoder(resp.Body).Decode(&view), convey.ShouldBeNil)
			_ = resp.Body.Close()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusCreated)
			convey.So(view.State, convey.ShouldEqual, "idle")

			resp, err = http.Post(srv.URL+"/sessions/"+view.ID+"/start", "application/json", http.NoBody)
			convey.So(err, convey.ShouldBeNil)
			_ = resp.Body.Close()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
		})

		convey.Convey("And the stats endpoint reports a running service", func() {
			resp, err := http.Get(srv.URL + "/stats")
			convey.So(err, convey.ShouldBeNil)
			var stats map[string]interface{}
			convey.So(json.NewDecoder(resp.Body).Decode(&stats), convey.ShouldBeNil)
			_ = resp.Body.Close()
			convey.So(stats["started"], convey.ShouldEqual, true)
		})
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given main application components", t, func() {
		convey.Convey("The system metrics updater returns on cancel", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
		})

		convey.Convey("The service metrics updater returns on cancel", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			convey.So(func() { startServiceMetricsUpdater(ctx, app.New()) }, convey.ShouldNotPanic)
		})

		convey.Convey("Metric updates do not panic on an idle service", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
			convey.So(func() { updateServiceMetrics(app.New()) }, convey.ShouldNotPanic)
		})

		convey.Convey("A metrics manager can use its own registry", func() {
			manager := metrics.NewManager(metrics.WithPrometheusRegistry(prometheus.NewRegistry()))
			convey.So(manager, convey.ShouldNotBeNil)
		})
	})
}
