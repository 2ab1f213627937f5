package recorder_test

import (
	"testing"

	"github.com/okian/drawtree/internal/domain/model"
	"github.com/okian/drawtree/internal/domain/recorder"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRecorder_Extend(t *testing.T) {
	Convey("Given a recorder with default thresholds", t, func() {
		r := recorder.New()

		Convey("When Extend is called before Begin", func() {
			ok := r.Extend(model.Point{X: 10, Y: 10})

			Convey("Then the sample is rejected", func() {
				So(ok, ShouldBeFalse)
				So(r.Len(), ShouldEqual, 0)
			})
		})

		Convey("When a path is begun", func() {
			r.Begin(model.Point{X: 0, Y: 0})

			Convey("Then it holds the first point", func() {
				So(r.Finish(), ShouldResemble, model.Path{{X: 0, Y: 0}})
			})

			Convey("And samples within the noise threshold arrive", func() {
				So(r.Extend(model.Point{X: 1, Y: 0}), ShouldBeFalse)
				So(r.Extend(model.Point{X: 0, Y: 1}), ShouldBeFalse)
				So(r.Extend(model.Point{X: 2, Y: 0}), ShouldBeFalse)
				So(r.Extend(model.Point{X: -1.2, Y: 1.2}), ShouldBeFalse)

				Convey("Then the path never grows", func() {
					So(r.Len(), ShouldEqual, 1)
				})
			})

			Convey("And a genuine movement arrives", func() {
				ok := r.Extend(model.Point{X: 3, Y: 0})

				Convey("Then it is appended and becomes the anchor", func() {
					So(ok, ShouldBeTrue)
					So(r.Len(), ShouldEqual, 2)
					So(r.Extend(model.Point{X: 4, Y: 0}), ShouldBeFalse)
					So(r.Extend(model.Point{X: 5.5, Y: 0}), ShouldBeTrue)
				})
			})

			Convey("And the same point is repeated", func() {
				So(r.Extend(model.Point{X: 10, Y: 0}), ShouldBeTrue)
				So(r.Extend(model.Point{X: 10, Y: 0}), ShouldBeFalse)
				So(r.Extend(model.Point{X: 10, Y: 0}), ShouldBeFalse)

				Convey("Then only the first is accepted", func() {
					So(r.Len(), ShouldEqual, 2)
				})
			})

			Convey("And a teleporting sample arrives", func() {
				So(r.Extend(model.Point{X: 100, Y: 0}), ShouldBeFalse)
				So(r.Extend(model.Point{X: 99.9, Y: 0}), ShouldBeTrue)

				Convey("Then only the in-range one is appended", func() {
					So(r.Finish(), ShouldResemble, model.Path{{X: 0, Y: 0}, {X: 99.9, Y: 0}})
				})
			})
		})
	})

	Convey("Given a recorder with the upper bound disabled", t, func() {
		r := recorder.New(recorder.WithTeleportThreshold(0))
		r.Begin(model.Point{})

		Convey("When a long jump arrives", func() {
			Convey("Then it is accepted", func() {
				So(r.Extend(model.Point{X: 500, Y: 500}), ShouldBeTrue)
			})
		})
	})

	Convey("Given a recorder with a custom noise threshold", t, func() {
		r := recorder.New(recorder.WithNoiseThreshold(5))
		r.Begin(model.Point{})

		Convey("Then movements up to it are rejected", func() {
			So(r.Extend(model.Point{X: 5}), ShouldBeFalse)
			So(r.Extend(model.Point{X: 5.01}), ShouldBeTrue)
		})
	})
}

func TestRecorder_BeginFinish(t *testing.T) {
	Convey("Given a recorder with a path", t, func() {
		r := recorder.New()
		r.Begin(model.Point{X: 1, Y: 1})
		r.Extend(model.Point{X: 10, Y: 1})

		Convey("When Finish is called twice", func() {
			a := r.Finish()
			b := r.Finish()

			Convey("Then the snapshots are equal", func() {
				So(a, ShouldResemble, b)
			})

			Convey("And mutating a snapshot does not affect the recorder", func() {
				a[0] = model.Point{X: -1, Y: -1}
				So(r.Finish()[0], ShouldResemble, model.Point{X: 1, Y: 1})
			})
		})

		Convey("When Begin is called again", func() {
			r.Begin(model.Point{X: 50, Y: 50})

			Convey("Then the old path is cleared", func() {
				So(r.Finish(), ShouldResemble, model.Path{{X: 50, Y: 50}})
			})
		})

		Convey("When Reset is called", func() {
			r.Reset()

			Convey("Then the path is empty and Extend is rejected", func() {
				So(r.Len(), ShouldEqual, 0)
				So(r.Extend(model.Point{X: 40, Y: 40}), ShouldBeFalse)
				So(r.Finish(), ShouldResemble, model.Path{})
			})
		})
	})
}
