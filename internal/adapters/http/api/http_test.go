package api_test

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/futurepaul/popow/internal/adapters/http/api"
	"github.com/futurepaul/popow/internal/adapters/repository"
	"github.com/futurepaul/popow/internal/domain/model"
	"github.com/futurepaul/popow/internal/domain/types"
)

type mockDeps struct {
	mu         sync.Mutex
	view       model.View
	restartErr error
	restarts   int
	updates    chan model.View
}

func newMockDeps() *mockDeps {
	ranked := []model.ScoredEvent{
		{Event: model.EventRecord{ID: "00000002cc", PubKey: "p1", CreatedAt: 100, Content: "a"}, Difficulty: 30, Tier: model.TierHigh},
		{Event: model.EventRecord{ID: "0000004bbb", PubKey: "p2", CreatedAt: 90, Tags: [][]string{{"nonce", "1", "24"}}}, Difficulty: 25, Tier: model.TierHigh},
		{Event: model.EventRecord{ID: "000faaaa", PubKey: "p3", CreatedAt: 80}, Difficulty: 12, Tier: model.TierMedium},
	}
	return &mockDeps{
		view: model.View{
			State:     model.StateConnected,
			Ranked:    ranked,
			Stats:     model.Statistics{TotalSeen: 4, QualifyingCount: 3, SumDifficulty: 67, MaxDifficulty: 30},
			Session:   "session-1",
			UpdatedAt: time.Unix(1_700_000_000, 0),
		},
		updates: make(chan model.View, 1),
	}
}

func (m *mockDeps) View(context.Context) model.View {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view
}

func (m *mockDeps) Watch(context.Context) <-chan model.View {
	m.updates <- m.View(context.Background())
	return m.updates
}

func (m *mockDeps) State() model.State { return m.View(context.Background()).State }

func (m *mockDeps) Stats() model.Statistics { return m.View(context.Background()).Stats }

func (m *mockDeps) TopN(_ context.Context, n int) ([]model.ScoredEvent, error) {
	v := m.View(context.Background())
	if n > len(v.Ranked) {
		n = len(v.Ranked)
	}
	return v.Ranked[:n], nil
}

func (m *mockDeps) Rank(_ context.Context, id string) (int, model.ScoredEvent, error) {
	for i, ev := range m.View(context.Background()).Ranked {
		if ev.Event.ID == id {
			return i + 1, ev, nil
		}
	}
	return 0, model.ScoredEvent{}, repository.ErrNotFound
}

func (m *mockDeps) Restart(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.restarts++
	if m.restartErr != nil {
		m.view.State = model.StateDisconnected
		m.view.LastError = m.restartErr.Error()
	}
	return m.restartErr
}

func (m *mockDeps) setState(s model.State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.view.State = s
}

func serve(mux *http.ServeMux, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, http.NoBody)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestServer(t *testing.T) {
	Convey("Given an API server over a connected coordinator", t, func() {
		deps := newMockDeps()
		mux := http.NewServeMux()
		api.NewServer(deps, api.WithMaxLimit(10)).Register(context.Background(), mux)

		Convey("When requesting /healthz while connected", func() {
			w := serve(mux, http.MethodGet, "/healthz")

			Convey("Then it reports ok", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"state":"connected"`)
			})
		})

		Convey("When requesting /healthz while disconnected", func() {
			deps.setState(model.StateDisconnected)
			w := serve(mux, http.MethodGet, "/healthz")

			Convey("Then it reports unavailable", func() {
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			})
		})

		Convey("When requesting /view", func() {
			w := serve(mux, http.MethodGet, "/view")
			var v types.View
			So(json.Unmarshal(w.Body.Bytes(), &v), ShouldBeNil)

			Convey("Then the whole view is rendered", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(v.State, ShouldEqual, "connected")
				So(v.Session, ShouldEqual, "session-1")
				So(v.Ranked, ShouldHaveLength, 3)
				So(v.Ranked[0].Rank, ShouldEqual, 1)
				So(v.Ranked[0].Difficulty, ShouldEqual, 30)
				So(v.Ranked[0].Tier, ShouldEqual, "high")
				So(v.Ranked[2].Tier, ShouldEqual, "medium")
				So(v.Ranked[2].Tags, ShouldNotBeNil)
				So(v.Stats.QualifyingCount, ShouldEqual, 3)
				So(v.Stats.MaxDifficulty, ShouldEqual, 30)
				So(v.Stats.AverageDifficulty, ShouldAlmostEqual, 67.0/3, 0.0001)
				So(v.UpdatedAt, ShouldEqual, "2023-11-14T22:13:20Z")
			})
		})

		Convey("When requesting /view with a limit", func() {
			w := serve(mux, http.MethodGet, "/view?limit=1")
			var v types.View
			So(json.Unmarshal(w.Body.Bytes(), &v), ShouldBeNil)

			Convey("Then ranked rows are truncated but stats are not", func() {
				So(v.Ranked, ShouldHaveLength, 1)
				So(v.Stats.QualifyingCount, ShouldEqual, 3)
			})
		})

		Convey("When requesting /ranked?limit=2", func() {
			w := serve(mux, http.MethodGet, "/ranked?limit=2")
			var entries []types.Entry
			So(json.Unmarshal(w.Body.Bytes(), &entries), ShouldBeNil)

			Convey("Then the top two entries are returned in order", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(entries, ShouldHaveLength, 2)
				So(entries[0].EventID, ShouldEqual, "00000002cc")
				So(entries[1].Rank, ShouldEqual, 2)
			})
		})

		Convey("When the limit is invalid or too large", func() {
			Convey("Then the request is rejected", func() {
				So(serve(mux, http.MethodGet, "/ranked?limit=0").Code, ShouldEqual, http.StatusBadRequest)
				So(serve(mux, http.MethodGet, "/ranked?limit=abc").Code, ShouldEqual, http.StatusBadRequest)
				w := serve(mux, http.MethodGet, "/ranked?limit=11")
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(w.Body.String(), ShouldContainSubstring, "limit exceeded")
			})
		})

		Convey("When requesting the rank of a known event", func() {
			w := serve(mux, http.MethodGet, "/rank/0000004bbb")
			var e types.Entry
			So(json.Unmarshal(w.Body.Bytes(), &e), ShouldBeNil)

			Convey("Then its position is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(e.Rank, ShouldEqual, 2)
				So(e.Difficulty, ShouldEqual, 25)
				So(e.Tags, ShouldResemble, [][]string{{"nonce", "1", "24"}})
			})
		})

		Convey("When requesting the rank of an unknown event", func() {
			Convey("Then it is not found", func() {
				So(serve(mux, http.MethodGet, "/rank/ffff").Code, ShouldEqual, http.StatusNotFound)
				So(serve(mux, http.MethodGet, "/rank/").Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When requesting /stats", func() {
			w := serve(mux, http.MethodGet, "/stats")
			var body map[string]any
			So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)

			Convey("Then counters and state are flattened into one object", func() {
				So(body["state"], ShouldEqual, "connected")
				So(body["total_seen"], ShouldEqual, float64(4))
				So(body["max_difficulty"], ShouldEqual, float64(30))
			})
		})

		Convey("When posting /reconnect", func() {
			w := serve(mux, http.MethodPost, "/reconnect")

			Convey("Then ingestion restarts", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.restarts, ShouldEqual, 1)
			})
		})

		Convey("When /reconnect fails", func() {
			deps.restartErr = errors.New("relay connect failed: boom")
			w := serve(mux, http.MethodPost, "/reconnect")
			var v types.View
			So(json.Unmarshal(w.Body.Bytes(), &v), ShouldBeNil)

			Convey("Then the failure is surfaced with the view", func() {
				So(w.Code, ShouldEqual, http.StatusBadGateway)
				So(v.State, ShouldEqual, "disconnected")
				So(v.LastError, ShouldContainSubstring, "boom")
			})
		})

		Convey("When using the wrong method", func() {
			Convey("Then it is rejected", func() {
				So(serve(mux, http.MethodGet, "/reconnect").Code, ShouldEqual, http.StatusMethodNotAllowed)
				So(serve(mux, http.MethodPost, "/view").Code, ShouldEqual, http.StatusMethodNotAllowed)
			})
		})

		Convey("When requesting /metrics", func() {
			_ = serve(mux, http.MethodGet, "/view")
			w := serve(mux, http.MethodGet, "/metrics")

			Convey("Then the Prometheus exposition includes HTTP counters", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "http_requests_total")
			})
		})
	})
}

func TestStream(t *testing.T) {
	Convey("Given a running API server", t, func() {
		deps := newMockDeps()
		mux := http.NewServeMux()
		api.NewServer(deps, api.WithHeartbeat(time.Hour)).Register(context.Background(), mux)
		srv := httptest.NewServer(mux)
		defer srv.Close()

		Convey("When a client subscribes to /stream", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/stream?limit=2", http.NoBody)
			So(err, ShouldBeNil)
			resp, err := http.DefaultClient.Do(req)
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then it receives the current view as an SSE event", func() {
				So(resp.Header.Get("Content-Type"), ShouldEqual, "text/event-stream")
				reader := bufio.NewReader(resp.Body)
				event, err := reader.ReadString('\n')
				So(err, ShouldBeNil)
				So(event, ShouldEqual, "event: view\n")
				data, err := reader.ReadString('\n')
				So(err, ShouldBeNil)
				So(strings.HasPrefix(data, "data: "), ShouldBeTrue)

				var v types.View
				So(json.Unmarshal([]byte(strings.TrimPrefix(data, "data: ")), &v), ShouldBeNil)
				So(v.Ranked, ShouldHaveLength, 2)
				So(v.Stats.TotalSeen, ShouldEqual, 4)
			})
		})
	})
}
