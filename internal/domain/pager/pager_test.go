package pager_test

import (
	"testing"

	"github.com/okian/fairway/internal/domain/pager"
	. "github.com/smartystreets/goconvey/convey"
)

func TestPager(t *testing.T) {
	Convey("Given a pager of size 10 over 25 items", t, func() {
		p := pager.New(10)
		p.Resize(25)

		Convey("When it ticks repeatedly", func() {
			starts := []int{p.Start()}
			wraps := 0
			for i := 0; i < 6; i++ {
				advanced, wrapped := p.Tick()
				So(advanced, ShouldBeTrue)
				if wrapped {
					wraps++
				}
				starts = append(starts, p.Start())
			}

			Convey("Then the start cycles 0, 10, 20 and never reaches the length", func() {
				So(starts, ShouldResemble, []int{0, 10, 20, 0, 10, 20, 0})
				So(wraps, ShouldEqual, 2)
				for _, s := range starts {
					So(s, ShouldBeLessThan, 25)
				}
			})
		})

		Convey("When reading the last page", func() {
			items := make([]int, 25)
			for i := range items {
				items[i] = i
			}
			p.Tick()
			p.Tick()

			Convey("Then the window is short", func() {
				So(pager.Window(p, items), ShouldResemble, []int{20, 21, 22, 23, 24})
				So(p.Page(), ShouldEqual, 3)
				So(p.Pages(), ShouldEqual, 3)
			})
		})

		Convey("When the list shrinks under the current start", func() {
			p.Tick()
			p.Tick()
			p.Resize(15)

			Convey("Then the pager restarts at the first page", func() {
				So(p.Start(), ShouldEqual, 0)
				advanced, wrapped := p.Tick()
				So(advanced, ShouldBeTrue)
				So(wrapped, ShouldBeFalse)
				So(p.Start(), ShouldEqual, 10)
			})
		})

		Convey("When the list grows", func() {
			p.Tick()
			p.Resize(40)

			Convey("Then the position is kept", func() {
				So(p.Start(), ShouldEqual, 10)
			})
		})
	})

	Convey("Given a list that fits on one page", t, func() {
		p := pager.New(10)
		p.Resize(10)

		Convey("Then the pager is inert", func() {
			So(p.Inert(), ShouldBeTrue)
			advanced, wrapped := p.Tick()
			So(advanced, ShouldBeFalse)
			So(wrapped, ShouldBeFalse)
			So(p.Start(), ShouldEqual, 0)
			So(p.Pages(), ShouldEqual, 1)
		})
	})

	Convey("Given a non-positive page size", t, func() {
		p := pager.New(0)

		Convey("Then the default is used", func() {
			So(p.Size(), ShouldEqual, pager.DefaultPageSize)
		})
	})

	Convey("Given an empty list", t, func() {
		p := pager.New(5)
		p.Resize(0)

		Convey("Then the window is empty", func() {
			So(pager.Window(p, []string{}), ShouldBeEmpty)
			So(p.Pages(), ShouldEqual, 1)
		})
	})
}
