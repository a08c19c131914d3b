package ranking_test

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/okian/fairway/internal/domain/model"
	"github.com/okian/fairway/internal/domain/ranking"
	. "github.com/smartystreets/goconvey/convey"
)

func snap(id string, holes, gross int) model.ScorecardSnapshot {
	return model.ScorecardSnapshot{ParticipantID: id, HolesCompleted: holes, Gross: gross}
}

func netSnap(id string, holes, gross int, net float64) model.ScorecardSnapshot {
	s := snap(id, holes, gross)
	s.Net = &net
	return s
}

func ranksByID(entries []model.RankEntry) map[string]int {
	out := make(map[string]int, len(entries))
	for _, e := range entries {
		out[e.ParticipantID] = e.Rank
	}
	return out
}

func ids(entries []model.RankEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ParticipantID
	}
	return out
}

func TestRank(t *testing.T) {
	Convey("Given the ranking engine", t, func() {
		Convey("When the input is empty", func() {
			out := ranking.Rank(nil, model.CriterionGross)

			Convey("Then the output is empty, not nil", func() {
				So(out, ShouldNotBeNil)
				So(out, ShouldBeEmpty)
			})
		})

		Convey("When two players tie on equal completion", func() {
			out := ranking.Rank([]model.ScorecardSnapshot{
				snap("c", 18, 75), snap("a", 18, 72), snap("b", 18, 72),
			}, model.CriterionGross)

			Convey("Then ranks skip through the tie", func() {
				So(ids(out), ShouldResemble, []string{"a", "b", "c"})
				So([]int{out[0].Rank, out[1].Rank, out[2].Rank}, ShouldResemble, []int{1, 1, 3})
				So(out[0].Tied, ShouldBeTrue)
				So(out[1].Tied, ShouldBeTrue)
				So(out[2].Tied, ShouldBeFalse)
			})
		})

		Convey("When a player has no score yet", func() {
			out := ranking.Rank([]model.ScorecardSnapshot{
				snap("zero", 18, 0), snap("high", 2, 99), snap("low", 18, 65),
			}, model.CriterionGross)

			Convey("Then the unscored player ranks after every scored one", func() {
				So(out[len(out)-1].ParticipantID, ShouldEqual, "zero")
				So(out[len(out)-1].Rank, ShouldEqual, 3)
			})
		})

		Convey("When ranking the live view with uneven completion", func() {
			out := ranking.Rank([]model.ScorecardSnapshot{
				snap("front9", 9, 36), snap("done", 18, 80), snap("mid", 12, 50),
			}, model.CriterionGross)

			Convey("Then players further through the round rank ahead", func() {
				So(ids(out), ShouldResemble, []string{"done", "mid", "front9"})
				So(ranksByID(out), ShouldResemble, map[string]int{"done": 1, "mid": 2, "front9": 3})
			})
		})

		Convey("When ranking the final view", func() {
			out := ranking.Rank([]model.ScorecardSnapshot{
				snap("front9", 9, 36), snap("done", 18, 80),
			}, model.CriterionGross, ranking.Final())

			Convey("Then only the score matters", func() {
				So(ids(out), ShouldResemble, []string{"front9", "done"})
			})
		})

		Convey("When ranking by net and a net score is missing", func() {
			out := ranking.Rank([]model.ScorecardSnapshot{
				snap("nonet", 18, 70), netSnap("n1", 18, 80, 68.5), netSnap("n2", 18, 75, 69),
			}, model.CriterionNet)

			Convey("Then the missing score is treated as no score", func() {
				So(ids(out), ShouldResemble, []string{"n1", "n2", "nonet"})
				So(out[0].Score, ShouldEqual, 68.5)
				So(out[2].Score, ShouldEqual, 0)
			})
		})

		Convey("When display fields are present", func() {
			s := snap("a", 18, 70)
			s.Name, s.Country = "Ann", "SE"
			out := ranking.Rank([]model.ScorecardSnapshot{s}, model.CriterionGross)

			Convey("Then they are carried to the entry", func() {
				So(out[0].Name, ShouldEqual, "Ann")
				So(out[0].Country, ShouldEqual, "SE")
				So(out[0].HolesCompleted, ShouldEqual, 18)
			})
		})
	})
}

func TestRankOrderIndependence(t *testing.T) {
	Convey("Given a snapshot set with ties and unscored players", t, func() {
		base := []model.ScorecardSnapshot{
			snap("p1", 18, 72), snap("p2", 18, 72), snap("p3", 18, 75),
			snap("p4", 9, 40), snap("p5", 9, 40), snap("p6", 0, 0),
			snap("p7", 3, 0), snap("p8", 18, 70), snap("p9", 12, 0),
		}
		want := ranking.Rank(base, model.CriterionGross)

		Convey("When the input is shuffled many times", func() {
			rng := rand.New(rand.NewSource(7))
			for i := 0; i < 50; i++ {
				shuffled := append([]model.ScorecardSnapshot(nil), base...)
				rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
				got := ranking.Rank(shuffled, model.CriterionGross)

				if diff := cmp.Diff(want, got); diff != "" {
					t.Fatalf("permutation %d changed the board (-want +got):\n%s", i, diff)
				}
			}

			Convey("Then every permutation yields the same board", func() {
				So(ranksByID(want), ShouldResemble, map[string]int{
					"p8": 1, "p1": 2, "p2": 2, "p3": 4, "p4": 5, "p5": 5,
					"p9": 7, "p7": 8, "p6": 9,
				})
			})
		})
	})
}

func TestAssignRanks(t *testing.T) {
	Convey("Given pre-sorted keys", t, func() {
		cases := []struct {
			keys []int
			want []int
		}{
			{keys: []int{}, want: []int{}},
			{keys: []int{5}, want: []int{1}},
			{keys: []int{1, 2, 3}, want: []int{1, 2, 3}},
			{keys: []int{7, 7, 7}, want: []int{1, 1, 1}},
			{keys: []int{1, 1, 2, 3, 3, 3, 4}, want: []int{1, 1, 3, 4, 4, 4, 7}},
		}

		Convey("Then ties share a rank and the next rank skips ahead", func() {
			for _, c := range cases {
				keys := c.keys
				got := ranking.AssignRanks(len(keys), func(i, j int) bool { return keys[i] == keys[j] })
				So(got, ShouldResemble, c.want)
			}
		})
	})
}

func TestWinners(t *testing.T) {
	Convey("Given a mix of finished and unfinished players", t, func() {
		snaps := []model.ScorecardSnapshot{
			snap("a", 18, 70), snap("b", 18, 71), snap("c", 18, 71),
			snap("d", 18, 74), snap("e", 17, 60), snap("f", 18, 0),
		}

		Convey("When asking for the top two", func() {
			out := ranking.Winners(snaps, model.CriterionGross, 2, 18)

			Convey("Then the tie straddling the limit is kept whole", func() {
				So(ids(out), ShouldResemble, []string{"a", "b", "c"})
			})
		})

		Convey("When no limit is given", func() {
			out := ranking.Winners(snaps, model.CriterionGross, 0, 18)

			Convey("Then every completed, scored player is listed", func() {
				So(ids(out), ShouldResemble, []string{"a", "b", "c", "d"})
			})
		})
	})
}

func TestParse(t *testing.T) {
	Convey("Given query strings", t, func() {
		So(ranking.ParseCriterion("NET"), ShouldEqual, model.CriterionNet)
		So(ranking.ParseCriterion("whatever"), ShouldEqual, model.CriterionGross)
		So(ranking.ParseView("final"), ShouldEqual, ranking.ViewFinal)
		So(ranking.ParseView(""), ShouldEqual, ranking.ViewLive)
	})
}
