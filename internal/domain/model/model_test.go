package model_test

import (
	"testing"

	model "github.com/okian/drawtree/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestPoint(t *testing.T) {
	convey.Convey("Given two points", t, func() {
		a := model.Point{X: 0, Y: 0}
		b := model.Point{X: 3, Y: 4}

		convey.Convey("Then the distance is Euclidean and symmetric", func() {
			convey.So(a.Dist(b), convey.ShouldEqual, 5.0)
			convey.So(b.Dist(a), convey.ShouldEqual, 5.0)
			convey.So(a.Dist(a), convey.ShouldEqual, 0.0)
		})
	})
}

func TestPathClone(t *testing.T) {
	convey.Convey("Given a path", t, func() {
		p := model.Path{{X: 1, Y: 1}, {X: 2, Y: 2}}

		convey.Convey("When it is cloned and the clone mutated", func() {
			c := p.Clone()
			c[0] = model.Point{X: 99, Y: 99}

			convey.Convey("Then the original is untouched", func() {
				convey.So(p[0], convey.ShouldResemble, model.Point{X: 1, Y: 1})
				convey.So(c.Len(), convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When a nil path is cloned", func() {
			var empty model.Path
			c := empty.Clone()

			convey.Convey("Then it is empty but not nil", func() {
				convey.So(c, convey.ShouldNotBeNil)
				convey.So(c.Len(), convey.ShouldEqual, 0)
			})
		})
	})
}

func TestTreeOutline(t *testing.T) {
	convey.Convey("Given the tree outline", t, func() {
		outline := model.TreeOutline()

		convey.Convey("Then it is a closed 60 point shape", func() {
			convey.So(outline.Len(), convey.ShouldEqual, 60)
			convey.So(outline.At(0), convey.ShouldResemble, outline.At(outline.Len()-1))
		})

		convey.Convey("When the returned points are mutated", func() {
			pts := outline.Points()
			pts[0] = model.Point{X: -1, Y: -1}

			convey.Convey("Then the outline is unchanged", func() {
				convey.So(model.TreeOutline().At(0), convey.ShouldResemble, model.Point{X: 130, Y: 0})
			})
		})
	})

	convey.Convey("Given an empty custom outline", t, func() {
		_, err := model.NewReferenceOutline(nil)

		convey.Convey("Then construction fails", func() {
			convey.So(err, convey.ShouldEqual, model.ErrEmptyOutline)
		})
	})
}

func TestFormatTime(t *testing.T) {
	convey.Convey("Given remaining times in milliseconds", t, func() {
		convey.So(model.FormatTime(5000), convey.ShouldEqual, "05 : 00")
		convey.So(model.FormatTime(4350), convey.ShouldEqual, "04 : 35")
		convey.So(model.FormatTime(0), convey.ShouldEqual, "00 : 00")
		convey.So(model.FormatTime(-20), convey.ShouldEqual, "00 : 00")
		convey.So(model.FormatTime(999.9), convey.ShouldEqual, "00 : 99")
	})
}

func TestEarnsStar(t *testing.T) {
	convey.Convey("Given scores around the star threshold", t, func() {
		convey.So(model.EarnsStar(69), convey.ShouldBeFalse)
		convey.So(model.EarnsStar(70), convey.ShouldBeTrue)
		convey.So(model.EarnsStar(100), convey.ShouldBeTrue)
	})
}

func TestShareKey(t *testing.T) {
	convey.Convey("Given share jobs for a session", t, func() {
		a := model.ShareJob{SessionID: "s1", Epoch: 1}
		b := model.ShareJob{SessionID: "s1", Epoch: 2}

		convey.Convey("Then the key combines session and epoch", func() {
			convey.So(a.Key(), convey.ShouldEqual, "s1#1")
			convey.So(a.Key(), convey.ShouldEqual, model.ShareKey("s1", 1))
			convey.So(b.Key(), convey.ShouldNotEqual, a.Key())
		})
	})
}
