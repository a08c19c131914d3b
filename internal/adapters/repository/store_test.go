package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/okian/fairway/internal/domain/board"
	"github.com/okian/fairway/internal/domain/model"
	"github.com/okian/fairway/internal/domain/ranking"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSnapshotStore(t *testing.T) {
	ctx := context.Background()

	Convey("Given a fresh store", t, func() {
		s := NewSnapshotStore()

		Convey("Then it serves an empty board", func() {
			So(s.Current(ctx), ShouldNotBeNil)
			So(s.Count(ctx, ranking.ViewLive), ShouldEqual, 0)
			_, err := s.Rank(ctx, ranking.ViewLive, "p1")
			So(err, ShouldEqual, ErrNotFound)
		})

		Convey("When a snapshot is published", func() {
			s.Publish(ctx, &board.Snapshot{
				Version: 3,
				Live: []model.RankEntry{
					{ParticipantID: "a", Rank: 1}, {ParticipantID: "b", Rank: 1}, {ParticipantID: "c", Rank: 3},
				},
				Final: []model.RankEntry{{ParticipantID: "c", Rank: 1}},
			})

			Convey("Then lookups follow the published order", func() {
				e, err := s.Rank(ctx, ranking.ViewLive, "b")
				So(err, ShouldBeNil)
				So(e.Rank, ShouldEqual, 1)

				e, err = s.Rank(ctx, ranking.ViewFinal, "c")
				So(err, ShouldBeNil)
				So(e.Rank, ShouldEqual, 1)

				_, err = s.Rank(ctx, ranking.ViewFinal, "a")
				So(err, ShouldEqual, ErrNotFound)

				So(s.Count(ctx, ranking.ViewLive), ShouldEqual, 3)
				So(s.Current(ctx).Version, ShouldEqual, 3)
			})

			Convey("Then TopN clamps and copies", func() {
				top, err := s.TopN(ctx, ranking.ViewLive, 10)
				So(err, ShouldBeNil)
				So(top, ShouldHaveLength, 3)
				top[0].Rank = 99
				again, _ := s.TopN(ctx, ranking.ViewLive, 1)
				So(again[0].Rank, ShouldEqual, 1)
			})

			Convey("Then a bad limit is rejected", func() {
				_, err := s.TopN(ctx, ranking.ViewLive, 0)
				So(err, ShouldEqual, ErrInvalidLimit)
			})

			Convey("And nil is published", func() {
				s.Publish(ctx, nil)

				Convey("Then the previous snapshot stays", func() {
					So(s.Current(ctx).Version, ShouldEqual, 3)
				})
			})
		})

		Convey("When readers race a writer", func() {
			var wg sync.WaitGroup
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for j := 0; j < 200; j++ {
						if s.Current(ctx) == nil {
							t.Error("nil snapshot")
						}
					}
				}()
			}
			for v := uint64(1); v <= 200; v++ {
				s.Publish(ctx, &board.Snapshot{Version: v})
			}
			wg.Wait()

			Convey("Then the last publish wins", func() {
				So(s.Current(ctx).Version, ShouldEqual, 200)
			})
		})
	})
}
