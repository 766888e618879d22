package web

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xhedwig/ofdp-sdg/pkg/game"
	"github.com/xhedwig/ofdp-sdg/pkg/metrics"
	"github.com/xhedwig/ofdp-sdg/pkg/pubsub"
	"github.com/xhedwig/ofdp-sdg/pkg/scheduler"
	"github.com/xhedwig/ofdp-sdg/pkg/topology"
)

type fakeSchedule struct {
	summary  *scheduler.RoundSummary
	triggers atomic.Int32
}

func (f *fakeSchedule) LastRound() (scheduler.RoundSummary, bool) {
	if f.summary == nil {
		return scheduler.RoundSummary{}, false
	}
	return *f.summary, true
}

func (f *fakeSchedule) Trigger() { f.triggers.Add(1) }

type fixture struct {
	graph    *topology.Graph
	schedule *fakeSchedule
	pub      *pubsub.SSEPublisher
	reg      *metrics.Registry
	handler  http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	g, err := topology.Linear(3)
	require.NoError(t, err)

	pub := pubsub.NewSSEPublisher()
	pubsub.ConfigureDefaultTopics(pub)
	t.Cleanup(func() { pub.Close() })

	f := &fixture{
		graph:    g,
		schedule: &fakeSchedule{},
		pub:      pub,
		reg:      metrics.NewRegistry(),
	}
	f.handler = NewServer(g, f.schedule, WithPublisher(pub), WithMetrics(f.reg)).Handler()
	return f
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestGetTopology(t *testing.T) {
	f := newFixture(t)

	rec := f.do("GET", "/api/topology", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var view TopologyView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, 3, view.Switches)
	assert.Equal(t, 2, view.LinkCount)
	assert.Equal(t, []topology.NodeID{1, 2, 3}, view.Nodes)
	assert.Equal(t, []topology.Link{{A: 1, B: 2}, {A: 2, B: 3}}, view.Links)
	assert.Len(t, view.Components, 1)
	assert.Equal(t, f.graph.Snapshot().Hash(), view.Hash)
}

func TestGetSchedule(t *testing.T) {
	f := newFixture(t)

	rec := f.do("GET", "/api/schedule", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	f.schedule.summary = &scheduler.RoundSummary{
		ID:         "r1",
		Mode:       scheduler.ModeSolved,
		Assignment: game.Assignment{1: game.Defense, 2: game.Help, 3: game.Defense},
		Active:     []topology.NodeID{2},
	}
	rec = f.do("GET", "/api/schedule", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "r1", got["id"])
	assert.Equal(t, "solved", got["mode"])
	assert.Equal(t, map[string]any{"1": "defense", "2": "help", "3": "defense"}, got["assignment"])
}

func TestTrigger(t *testing.T) {
	f := newFixture(t)

	rec := f.do("POST", "/api/trigger", "")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, int32(1), f.schedule.triggers.Load())

	rec = f.do("GET", "/api/trigger", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestAddNode(t *testing.T) {
	f := newFixture(t)

	rec := f.do("POST", "/api/nodes", `{"id": 4}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, f.graph.HasNode(4))

	rec = f.do("POST", "/api/nodes", `{"id": 4}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"changed": false}`, rec.Body.String())

	for _, body := range []string{``, `{}`, `{"id": "x"}`, `{"id": 1, "extra": true}`} {
		rec = f.do("POST", "/api/nodes", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %q", body)
	}
}

func TestRemoveNode(t *testing.T) {
	f := newFixture(t)

	rec := f.do("DELETE", "/api/nodes/2", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, f.graph.HasNode(2))
	assert.Equal(t, 0, f.graph.LinkCount())

	rec = f.do("DELETE", "/api/nodes/2", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do("DELETE", "/api/nodes/abc", "")
	assert.Equal(t, http.StatusNotFound, rec.Code, "non-numeric ids do not match the route")
}

func TestAddLink(t *testing.T) {
	f := newFixture(t)

	rec := f.do("POST", "/api/links", `{"a": 3, "b": 1}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 3, f.graph.LinkCount())

	rec = f.do("POST", "/api/links", `{"a": 1, "b": 3}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do("POST", "/api/links", `{"a": 1, "b": 99}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "99")

	rec = f.do("POST", "/api/links", `{"a": 2, "b": 2}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do("POST", "/api/links", `{"a": 2}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do("POST", "/api/links", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, 3, f.graph.LinkCount())
}

func TestRemoveLink(t *testing.T) {
	f := newFixture(t)

	rec := f.do("DELETE", "/api/links/3/2", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 1, f.graph.LinkCount())

	rec = f.do("DELETE", "/api/links/2/3", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTopologyEditsArePublished(t *testing.T) {
	f := newFixture(t)

	f.do("POST", "/api/nodes", `{"id": 4}`)
	f.do("POST", "/api/links", `{"a": 3, "b": 4}`)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub, err := f.pub.Subscribe(ctx, pubsub.TopicTopology)
	require.NoError(t, err)
	defer sub.Close()

	var diffs []topology.Diff
	for i := 0; i < 2; i++ {
		select {
		case ev := <-sub.Events():
			assert.Equal(t, pubsub.EventTopologyChanged, ev.Type)
			var data pubsub.TopologyData
			require.NoError(t, json.Unmarshal(ev.Data, &data))
			assert.Equal(t, "api", data.Source)
			diffs = append(diffs, data.Diff)
		case <-time.After(time.Second):
			t.Fatal("missing topology event")
		}
	}
	assert.Equal(t, []topology.NodeID{4}, diffs[0].AddedNodes)
	assert.Equal(t, []topology.Link{{A: 3, B: 4}}, diffs[1].AddedLinks)
}

func TestRequestMetrics(t *testing.T) {
	f := newFixture(t)

	f.do("DELETE", "/api/nodes/3", "")
	f.do("DELETE", "/api/nodes/3", "")

	assert.Equal(t, 1.0, testutil.ToFloat64(
		f.reg.HTTPRequestsTotal.WithLabelValues("DELETE", "/api/nodes/{id:[0-9]+}", "204")))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		f.reg.HTTPRequestsTotal.WithLabelValues("DELETE", "/api/nodes/{id:[0-9]+}", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		f.reg.TopologyChanges.WithLabelValues("switch", "remove")))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		f.reg.TopologyChanges.WithLabelValues("link", "remove")))

	rec := f.do("GET", "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ofdp_sdg_http_requests_total")
}

func TestSubscribeUnknownTopic(t *testing.T) {
	f := newFixture(t)
	rec := f.do("GET", "/api/subscribe/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubscribeStreamsEvents(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(f.handler)
	defer srv.Close()

	// Replayed to the subscriber below
	f.do("POST", "/api/links", `{"a": 1, "b": 3}`)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, "GET", srv.URL+"/api/subscribe/topology", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case line, ok := <-lines:
			require.True(t, ok, "stream ended early")
			if line == "event: "+pubsub.EventTopologyChanged {
				return
			}
		case <-deadline:
			t.Fatal("no topology event on the stream")
		}
	}
}

func TestServeShutsDownOnCancel(t *testing.T) {
	f := newFixture(t)
	s := NewServer(f.graph, f.schedule)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, lis) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + lis.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(6 * time.Second):
		t.Fatal("Serve did not return")
	}
}
