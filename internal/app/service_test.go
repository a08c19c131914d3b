package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	service "github.com/okian/fairway/internal/app"
	"github.com/okian/fairway/internal/domain/assign"
	"github.com/okian/fairway/internal/domain/board"
	"github.com/okian/fairway/internal/domain/model"
	"github.com/okian/fairway/internal/domain/ranking"
	"github.com/okian/fairway/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type fakeUpstream struct {
	mu        sync.Mutex
	cards     []model.ScorecardSnapshot
	fetchErr  error
	fetches   int
	roster    []model.Participant
	divisions []model.DivisionDefinition
	submitted []model.BulkAssignment

	// When gate is set, fetches signal entered and block until gate yields.
	gate    chan struct{}
	entered chan struct{}
}

func (f *fakeUpstream) FetchScorecards(ctx context.Context) ([]model.ScorecardSnapshot, error) {
	if f.gate != nil {
		select {
		case f.entered <- struct{}{}:
		default:
		}
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return append([]model.ScorecardSnapshot(nil), f.cards...), nil
}

func (f *fakeUpstream) FetchParticipants(context.Context) ([]model.Participant, error) {
	return f.roster, nil
}

func (f *fakeUpstream) FetchDivisions(context.Context) ([]model.DivisionDefinition, error) {
	return f.divisions, nil
}

func (f *fakeUpstream) SubmitAssignments(_ context.Context, items []model.BulkAssignment) (model.BulkResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, items...)
	return model.BulkResult{Assigned: len(items)}, nil
}

func (f *fakeUpstream) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchErr = err
}

func eventually(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func card(id string, holes, gross int) model.ScorecardSnapshot {
	return model.ScorecardSnapshot{ParticipantID: id, HolesCompleted: holes, Gross: gross}
}

func newUpstream() *fakeUpstream {
	return &fakeUpstream{cards: []model.ScorecardSnapshot{
		card("a", 18, 72),
		card("b", 18, 70),
		card("c", 9, 36),
	}}
}

func TestServiceLifecycle(t *testing.T) {
	Convey("Given a service that is not started", t, func() {
		svc := service.New(newUpstream())

		Convey("Then refresh is refused and stats report it", func() {
			_, err := svc.Refresh(context.Background())
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			So(svc.GetStats()["started"], ShouldEqual, false)
		})

		Convey("Then stopping is a no-op", func() {
			So(func() { svc.Stop() }, ShouldNotPanic)
		})
	})

	Convey("Given a started service", t, func() {
		up := newUpstream()
		svc := service.New(up, service.WithPollInterval(time.Hour))
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()

		Convey("Then the startup recompute publishes both views", func() {
			ok := eventually(func() bool { return len(svc.Current(context.Background()).Live) == 3 })
			So(ok, ShouldBeTrue)

			snap := svc.Current(context.Background())
			So(snap.Live[0].ParticipantID, ShouldEqual, "b")
			So(snap.Final[0].ParticipantID, ShouldEqual, "c")
			So(snap.Winners, ShouldHaveLength, 2)
			So(snap.Stale, ShouldBeFalse)

			entry, err := svc.Rank(context.Background(), ranking.ViewLive, "a")
			So(err, ShouldBeNil)
			So(entry.Rank, ShouldEqual, 2)
		})

		Convey("Then starting twice is harmless", func() {
			So(svc.Start(context.Background()), ShouldBeNil)
		})

		Convey("And stats include the channel and queue", func() {
			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, true)
			So(stats, ShouldContainKey, "queueLength")
			So(stats["workerRunning"], ShouldEqual, true)
			channel, ok := stats["channel"].(map[string]interface{})
			So(ok, ShouldBeTrue)
			So(channel, ShouldContainKey, "remembered")
		})

		Convey("And limited reads go through the store", func() {
			So(eventually(func() bool { return svc.Count(context.Background(), ranking.ViewLive) == 3 }), ShouldBeTrue)
			top, err := svc.TopN(context.Background(), ranking.ViewLive, 2)
			So(err, ShouldBeNil)
			So(top, ShouldHaveLength, 2)
			So(top[0].ParticipantID, ShouldEqual, "b")
		})
	})
}

func TestServiceStopDrains(t *testing.T) {
	Convey("Given a service whose first fetch is in flight", t, func() {
		up := newUpstream()
		up.gate = make(chan struct{})
		up.entered = make(chan struct{}, 1)
		svc := service.New(up, service.WithPollInterval(time.Hour), service.WithDrainTimeout(time.Second))
		So(svc.Start(context.Background()), ShouldBeNil)
		<-up.entered

		Convey("When Stop is called", func() {
			stopped := make(chan struct{})
			go func() {
				svc.Stop()
				close(stopped)
			}()

			Convey("Then it waits for the fetch and its result is published", func() {
				select {
				case <-stopped:
					t.Fatal("stop returned while a fetch was in flight")
				case <-time.After(30 * time.Millisecond):
				}
				close(up.gate)
				<-stopped
				So(svc.Current(context.Background()).Live, ShouldHaveLength, 3)
				So(svc.GetStats()["started"], ShouldEqual, false)
			})
		})
	})
}

func TestServiceStaleness(t *testing.T) {
	Convey("Given a service with a published board", t, func() {
		up := newUpstream()
		svc := service.New(up, service.WithPollInterval(time.Hour))
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()
		So(eventually(func() bool { return len(svc.Current(context.Background()).Live) == 3 }), ShouldBeTrue)

		Convey("When the next fetch fails", func() {
			up.setErr(errors.New("backend down"))
			_, err := svc.Refresh(context.Background())
			So(err, ShouldBeNil)

			Convey("Then the last standings are kept with a notice", func() {
				So(eventually(func() bool { return svc.Current(context.Background()).Stale }), ShouldBeTrue)
				snap := svc.Current(context.Background())
				So(snap.Live, ShouldHaveLength, 3)
				So(snap.Notice, ShouldEqual, board.StaleNotice)
				So(snap.LastError, ShouldContainSubstring, "backend down")
			})

			Convey("And a later success clears the notice", func() {
				So(eventually(func() bool { return svc.Current(context.Background()).Stale }), ShouldBeTrue)
				up.setErr(nil)
				_, err := svc.Refresh(context.Background())
				So(err, ShouldBeNil)
				So(eventually(func() bool { return !svc.Current(context.Background()).Stale }), ShouldBeTrue)
			})
		})
	})
}

func TestServicePager(t *testing.T) {
	Convey("Given a service paging two rows at a time", t, func() {
		svc := service.New(newUpstream(),
			service.WithPageSize(2),
			service.WithPageInterval(20*time.Millisecond),
			service.WithPollInterval(time.Hour),
		)
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()

		Convey("Then the visible window advances and wraps", func() {
			So(eventually(func() bool { return svc.Current(context.Background()).Start == 2 }), ShouldBeTrue)
			So(eventually(func() bool {
				s := svc.Current(context.Background())
				return s.Start == 0 && len(s.Visible) == 2
			}), ShouldBeTrue)
		})
	})
}

func TestServiceAssignments(t *testing.T) {
	Convey("Given a roster and divisions", t, func() {
		lo, hi := 0.0, 36.0
		hcp := 12.0
		up := newUpstream()
		up.roster = []model.Participant{{ID: "p1", Name: "Pat", Handicap: &hcp}}
		up.divisions = []model.DivisionDefinition{{ID: "open", Name: "Open", HandicapMin: &lo, HandicapMax: &hi}}
		svc := service.New(up)

		Convey("When planning", func() {
			r, err := svc.Plan(context.Background(), "")

			Convey("Then nothing is submitted", func() {
				So(err, ShouldBeNil)
				So(r.Outcome, ShouldEqual, assign.OutcomePlanned)
				So(up.submitted, ShouldBeEmpty)
			})
		})

		Convey("When applying", func() {
			r, err := svc.Apply(context.Background(), "")

			Convey("Then the plan is submitted and reconciled", func() {
				So(err, ShouldBeNil)
				So(r.Outcome, ShouldEqual, assign.OutcomeSuccess)
				So(r.Assigned, ShouldEqual, 1)
				So(up.submitted, ShouldHaveLength, 1)
				So(*up.submitted[0].DivisionID, ShouldEqual, "open")
			})
		})
	})
}
