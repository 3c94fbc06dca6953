package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/okian/sportsintel/internal/domain/catalog"
	"github.com/okian/sportsintel/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestHTTPProviders(t *testing.T) {
	Convey("Given a provider API", t, func() {
		var calls int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			n := atomic.AddInt32(&calls, 1)
			w.Header().Set("Content-Type", "application/json")
			switch r.URL.Path {
			case "/projections":
				if r.Header.Get("Authorization") != "Bearer secret" {
					w.WriteHeader(http.StatusUnauthorized)
					return
				}
				if r.URL.Query().Get("position") == "K" && n == 1 {
					w.WriteHeader(http.StatusServiceUnavailable)
					return
				}
				if r.URL.Query().Get("position") == "DEF" {
					w.WriteHeader(http.StatusNotFound)
					_, _ = w.Write([]byte("no such position"))
					return
				}
				_, _ = w.Write([]byte(`{"players":[{"name":"Alex Doe","team":"KC","projected_points":21.5,"status":"Active"}]}`))
			case "/search":
				if r.URL.Query().Get("category") != "rosters" || len(r.URL.Query()["site"]) != 4 {
					w.WriteHeader(http.StatusBadRequest)
					return
				}
				_, _ = w.Write([]byte(`{"results":[{"title":"t","source":"espn","confidence":0.9,"data":{"name":"alex doe"}}]}`))
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		}))
		defer srv.Close()

		client := NewClient(ClientConfig{BaseURL: srv.URL, APIKey: "secret", RateLimit: 1000, RateBurst: 100})
		ref := NewHTTPReference(client)

		Convey("When fetching projections", func() {
			players, err := ref.Projections(context.Background(), model.SportNFL, "QB")

			Convey("Then players are decoded", func() {
				So(err, ShouldBeNil)
				So(len(players), ShouldEqual, 1)
				So(players[0].Name, ShouldEqual, "Alex Doe")
				So(players[0].ProjectedPoints, ShouldEqual, 21.5)
			})
		})

		Convey("When the first attempt gets a 503", func() {
			players, err := ref.Projections(context.Background(), model.SportNFL, "K")

			Convey("Then the client retries and succeeds", func() {
				So(err, ShouldBeNil)
				So(len(players), ShouldEqual, 1)
				So(atomic.LoadInt32(&calls), ShouldEqual, 2)
			})
		})

		Convey("When the API answers 404", func() {
			_, err := ref.Projections(context.Background(), model.SportNFL, "DEF")

			Convey("Then the status error is returned without retry", func() {
				So(errors.Is(err, ErrProviderStatus), ShouldBeTrue)
				var se *StatusError
				So(errors.As(err, &se), ShouldBeTrue)
				So(se.StatusCode, ShouldEqual, http.StatusNotFound)
				So(se.Message, ShouldEqual, "no such position")
				So(atomic.LoadInt32(&calls), ShouldEqual, 1)
			})
		})

		Convey("When searching", func() {
			q := catalog.Queries(model.SportNFL, fixedNow)[0]
			res, err := NewHTTPSearch(client).Search(context.Background(), model.SportNFL, q)

			Convey("Then results are decoded and the source directory is sent", func() {
				So(err, ShouldBeNil)
				So(len(res), ShouldEqual, 1)
				So(res[0].Data.Name, ShouldEqual, "alex doe")
			})
		})

		Convey("When the key is missing", func() {
			_, err := NewHTTPReference(NewClient(ClientConfig{BaseURL: srv.URL, MaxRetries: -1})).
				Projections(context.Background(), model.SportNFL, "QB")

			Convey("Then the call fails", func() {
				So(errors.Is(err, ErrProviderStatus), ShouldBeTrue)
			})
		})
	})
}
