package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	service "github.com/okian/drawtree/internal/app"
	"github.com/okian/drawtree/internal/domain/device"
	"github.com/okian/drawtree/internal/domain/mapper"
	"github.com/okian/drawtree/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

var (
	phone = device.Report{
		UserAgent:      "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) Mobile",
		Platform:       "iPhone",
		MaxTouchPoints: 5,
		HasTouchEvent:  true,
	}
	desktop = device.Report{
		UserAgent: "Mozilla/5.0 (X11; Linux x86_64)",
		Platform:  "Linux x86_64",
	}
	rawSurface = mapper.Geometry{Rect: &mapper.Rect{Width: 256, Height: 291}}
)

func touchAt(x, y float64) mapper.Event {
	return mapper.Event{Touches: []mapper.Contact{{ClientX: x, ClientY: y}}}
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should have sensible defaults", func() {
			So(svc, ShouldNotBeNil)
			stats := svc.GetStats()
			So(stats["tickIntervalMs"], ShouldEqual, int64(100))
			So(stats["totalDurationMs"], ShouldEqual, 5000.0)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithWorkerCount(8),
			service.WithQueueSize(50_000),
			service.WithDedupeSize(25_000),
			service.WithShardCount(2),
			service.WithTickInterval(10*time.Millisecond),
			service.WithTotalDuration(3000),
			service.WithRecorderThresholds(1, 50),
			service.WithCoverageThreshold(15),
			service.WithSessionTTL(time.Minute),
			service.WithSiteURL("https://example.test"),
			service.WithUpload("http://127.0.0.1:1/upload", "", time.Second),
			service.WithDetector(device.NewDetector(device.WithTouchMacAsMobile(false))),
		)

		Convey("Then they are reflected in the stats", func() {
			stats := svc.GetStats()
			So(stats["workerCount"], ShouldEqual, 8)
			So(stats["queueSize"], ShouldEqual, 50_000)
			So(stats["dedupeSize"], ShouldEqual, 25_000)
			So(stats["tickIntervalMs"], ShouldEqual, int64(10))
			So(stats["totalDurationMs"], ShouldEqual, 3000.0)
		})
	})
}

func TestService_Start(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New(service.WithWorkerCount(1))
		// Ensure service is stopped after test
		defer svc.Stop()

		Convey("When starting the service", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			err := svc.Start(ctx)

			Convey("Then it should start successfully", func() {
				So(err, ShouldBeNil)
				So(svc.Start(ctx), ShouldBeNil)
			})

			Convey("And it should be marked as started", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
				So(stats["sessions"], ShouldEqual, 0)
				So(stats["queueLength"], ShouldEqual, 0)
			})
		})
	})
}

func TestService_Stop(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := service.New(service.WithWorkerCount(1))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := svc.Start(ctx)
		So(err, ShouldBeNil)

		Convey("When stopping the service", func() {
			svc.Stop()
			svc.Stop()

			Convey("Then it should be marked as stopped", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, false)
			})

			Convey("And session calls are refused", func() {
				_, err := svc.CreateSession(ctx, service.NewSessionRequest{Device: phone})
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
				_, err = svc.GetSession(ctx, "x")
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
				So(errors.Is(svc.EndSession(ctx, "x"), service.ErrNotStarted), ShouldBeTrue)
			})
		})
	})
}

func TestService_Sessions(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := service.New(service.WithWorkerCount(1))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When a phone in portrait opens a session", func() {
			v, err := svc.CreateSession(ctx, service.NewSessionRequest{Device: phone, Width: 390, Height: 844})

			Convey("Then it is idle with a full clock", func() {
				So(err, ShouldBeNil)
				So(v.ID, ShouldNotBeEmpty)
				So(v.State, ShouldEqual, "idle")
				So(v.Capable, ShouldBeTrue)
				So(v.RemainingMS, ShouldEqual, 5000.0)
				So(v.Clock, ShouldEqual, "05 : 00")
				So(v.Score, ShouldBeNil)
				So(v.Path, ShouldBeEmpty)
			})

			Convey("And it can be fetched and ended", func() {
				got, err := svc.GetSession(ctx, v.ID)
				So(err, ShouldBeNil)
				So(got.ID, ShouldEqual, v.ID)

				So(svc.EndSession(ctx, v.ID), ShouldBeNil)
				_, err = svc.GetSession(ctx, v.ID)
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When a desktop opens a session", func() {
			v, err := svc.CreateSession(ctx, service.NewSessionRequest{Device: desktop})
			So(err, ShouldBeNil)

			Convey("Then it is unsupported and cannot start", func() {
				So(v.State, ShouldEqual, "unsupported")
				_, err := svc.StartGame(ctx, v.ID)
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When a phone in landscape opens a session", func() {
			v, err := svc.CreateSession(ctx, service.NewSessionRequest{Device: phone, Width: 844, Height: 390})
			So(err, ShouldBeNil)
			So(v.State, ShouldEqual, "reoriented")

			Convey("Then turning it upright unblocks it", func() {
				v, err := svc.Orient(ctx, v.ID, 390, 844)
				So(err, ShouldBeNil)
				So(v.State, ShouldEqual, "idle")
			})
		})

		Convey("When an unknown draw phase arrives", func() {
			v, _ := svc.CreateSession(ctx, service.NewSessionRequest{Device: phone})
			_, err := svc.Draw(ctx, v.ID, "hover", touchAt(1, 1), rawSurface)

			Convey("Then it is refused", func() {
				So(errors.Is(err, service.ErrUnknownPhase), ShouldBeTrue)
			})
		})

		Convey("When the reference is requested", func() {
			ref := svc.Reference()

			Convey("Then the tree outline comes back", func() {
				So(ref.ViewBox, ShouldEqual, "0 0 256 291")
				So(len(ref.Points), ShouldBeGreaterThan, 0)
			})
		})
	})
}

func TestService_GetStats(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New()

		Convey("When getting stats before starting", func() {
			stats := svc.GetStats()

			Convey("Then it should return basic stats", func() {
				So(stats, ShouldNotBeNil)
				So(stats["started"], ShouldEqual, false)
				So(stats, ShouldNotContainKey, "sessions")
			})
		})
	})
}
