package upstream_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/fairway/internal/adapters/upstream"
	"github.com/okian/fairway/internal/domain/model"
	logging "github.com/okian/fairway/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func newClient(t *testing.T, h http.Handler, opts ...upstream.Option) (*upstream.Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	c, err := upstream.New(srv.URL, "t1", opts...)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c, srv
}

func TestClientReads(t *testing.T) {
	_ = logging.Init()

	Convey("Given an upstream serving a tournament", t, func() {
		var auth atomic.Value
		mux := http.NewServeMux()
		mux.HandleFunc("/tournaments/t1/scorecards", func(w http.ResponseWriter, r *http.Request) {
			auth.Store(r.Header.Get("Authorization"))
			_ = json.NewEncoder(w).Encode([]model.ScorecardSnapshot{{ParticipantID: "p1", HolesCompleted: 18, Gross: 72}})
		})
		mux.HandleFunc("/tournaments/t1/participants", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`[{"id":"p1","name":"Ann","handicap":12.5,"sex":"female"}]`))
		})
		mux.HandleFunc("/tournaments/t1/divisions", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`[{"id":"d1","name":"Men A","handicap_max":12,"parent_id":"men"}]`))
		})
		c, srv := newClient(t, mux, upstream.WithToken("secret"), upstream.WithRateLimit(100, 10))
		defer srv.Close()
		ctx := context.Background()

		Convey("When fetching scorecards", func() {
			cards, err := c.FetchScorecards(ctx)

			Convey("Then the list is decoded and the token is sent", func() {
				So(err, ShouldBeNil)
				So(cards, ShouldHaveLength, 1)
				So(cards[0].Gross, ShouldEqual, 72)
				So(auth.Load(), ShouldEqual, "Bearer secret")
			})
		})

		Convey("When fetching participants and divisions", func() {
			people, err := c.FetchParticipants(ctx)
			So(err, ShouldBeNil)
			divs, err := c.FetchDivisions(ctx)
			So(err, ShouldBeNil)

			Convey("Then the optional fields are populated", func() {
				So(*people[0].Handicap, ShouldEqual, 12.5)
				So(people[0].Sex, ShouldEqual, model.SexFemale)
				So(*divs[0].HandicapMax, ShouldEqual, 12)
				So(divs[0].HandicapMin, ShouldBeNil)
				So(divs[0].IsChildOf("men"), ShouldBeTrue)
			})
		})
	})
}

func TestClientFailures(t *testing.T) {
	_ = logging.Init()

	Convey("Given an upstream that fails", t, func() {
		var calls atomic.Int32
		status := http.StatusServiceUnavailable
		h := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(status)
			_, _ = w.Write([]byte("down for maintenance"))
		})
		c, srv := newClient(t, h, upstream.WithBreaker(2, time.Minute))
		defer srv.Close()
		ctx := context.Background()

		Convey("When a read returns 5xx", func() {
			_, err := c.FetchScorecards(ctx)

			Convey("Then the error is transient", func() {
				So(errors.Is(err, upstream.ErrUnavailable), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "down for maintenance")
			})
		})

		Convey("When reads keep failing", func() {
			_, _ = c.FetchScorecards(ctx)
			_, _ = c.FetchScorecards(ctx)
			_, err := c.FetchScorecards(ctx)

			Convey("Then the circuit opens and stops calling the backend", func() {
				So(errors.Is(err, upstream.ErrUnavailable), ShouldBeTrue)
				So(calls.Load(), ShouldEqual, 2)
			})
		})

		Convey("When a read returns 4xx", func() {
			status = http.StatusNotFound
			for i := 0; i < 3; i++ {
				_, err := c.FetchDivisions(ctx)
				So(errors.Is(err, upstream.ErrRejected), ShouldBeTrue)
			}

			Convey("Then the circuit stays closed", func() {
				So(calls.Load(), ShouldEqual, 3)
			})
		})
	})

	Convey("Given an upstream returning garbage", t, func() {
		h := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("<html>"))
		})
		c, srv := newClient(t, h)
		defer srv.Close()

		Convey("Then a decode error is returned", func() {
			_, err := c.FetchParticipants(context.Background())
			So(errors.Is(err, upstream.ErrDecode), ShouldBeTrue)
		})
	})

	Convey("Given an upstream slower than the timeout", t, func() {
		h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
		})
		c, srv := newClient(t, h, upstream.WithTimeout(20*time.Millisecond))
		defer srv.Close()

		Convey("Then the read fails as unavailable", func() {
			_, err := c.FetchScorecards(context.Background())
			So(errors.Is(err, upstream.ErrUnavailable), ShouldBeTrue)
		})
	})

	Convey("Given a bad base URL", t, func() {
		_, err := upstream.New("not a url", "t1")

		Convey("Then New rejects it", func() {
			So(errors.Is(err, upstream.ErrInvalidConfig), ShouldBeTrue)
		})
	})
}

func TestSubmitAssignments(t *testing.T) {
	_ = logging.Init()

	Convey("Given an upstream accepting bulk assignments", t, func() {
		var got struct {
			Assignments []model.BulkAssignment `json:"assignments"`
		}
		h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != "/tournaments/t1/divisions/bulk-assign" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_ = json.NewDecoder(r.Body).Decode(&got)
			_, _ = w.Write([]byte(`{"assigned":1,"skipped":0,"errors":[{"participant_id":"p2","error":"division full"}]}`))
		})
		c, srv := newClient(t, h)
		defer srv.Close()

		Convey("When a plan is submitted", func() {
			d := "d1"
			res, err := c.SubmitAssignments(context.Background(), []model.BulkAssignment{
				{ParticipantID: "p1", DivisionID: &d},
				{ParticipantID: "p2", DivisionID: &d},
			})

			Convey("Then the body is sent and the per-item errors are returned", func() {
				So(err, ShouldBeNil)
				So(got.Assignments, ShouldHaveLength, 2)
				So(*got.Assignments[0].DivisionID, ShouldEqual, "d1")
				So(res.Assigned, ShouldEqual, 1)
				So(res.Errors, ShouldResemble, []model.BulkItemError{{ParticipantID: "p2", Error: "division full"}})
			})
		})
	})
}
