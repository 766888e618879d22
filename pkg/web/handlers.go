package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/xhedwig/ofdp-sdg/pkg/logging"
	"github.com/xhedwig/ofdp-sdg/pkg/pubsub"
	"github.com/xhedwig/ofdp-sdg/pkg/topology"
)

// TopologyView is the JSON form of a topology snapshot
type TopologyView struct {
	Hash       string              `json:"hash"`
	Switches   int                 `json:"switches"`
	LinkCount  int                 `json:"linkCount"`
	Nodes      []topology.NodeID   `json:"nodes"`
	Links      []topology.Link     `json:"links"`
	Components [][]topology.NodeID `json:"components"`
}

// NodeRequest is the body of POST /api/nodes
type NodeRequest struct {
	ID *topology.NodeID `json:"id"`
}

// LinkRequest is the body of POST /api/links
type LinkRequest struct {
	A *topology.NodeID `json:"a"`
	B *topology.NodeID `json:"b"`
}

// ChangeResponse reports whether a request changed the topology
type ChangeResponse struct {
	Changed bool `json:"changed"`
}

var subscribableTopics = map[string]bool{
	pubsub.TopicSchedule: true,
	pubsub.TopicTopology: true,
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("failed to encode response", "error", err)
	}
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTopology(w http.ResponseWriter, r *http.Request) {
	snap := s.graph.Snapshot()
	writeJSON(w, http.StatusOK, TopologyView{
		Hash:       snap.Hash(),
		Switches:   snap.NodeCount(),
		LinkCount:  snap.LinkCount(),
		Nodes:      snap.Nodes(),
		Links:      snap.Links(),
		Components: s.graph.Components(),
	})
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	summary, ok := s.schedule.LastRound()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	s.schedule.Trigger()
	logging.InfoContext(r.Context(), "probing round requested")
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleAddNode(w http.ResponseWriter, r *http.Request) {
	var req NodeRequest
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.ID == nil {
		http.Error(w, "id required", http.StatusBadRequest)
		return
	}

	id := *req.ID
	if !s.graph.AddNode(id) {
		writeJSON(w, http.StatusOK, ChangeResponse{Changed: false})
		return
	}

	logging.InfoContext(r.Context(), "registered switch", "switch", id)
	s.announce(r, topology.Diff{AddedNodes: []topology.NodeID{id}})
	writeJSON(w, http.StatusCreated, ChangeResponse{Changed: true})
}

func (s *Server) handleRemoveNode(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Capture the links that go with the switch for the announcement
	var removed []topology.Link
	for _, n := range s.graph.Snapshot().Neighbors(id) {
		removed = append(removed, topology.NewLink(id, n))
	}

	if !s.graph.RemoveNode(id) {
		http.Error(w, fmt.Sprintf("switch %d not found", id), http.StatusNotFound)
		return
	}

	logging.InfoContext(r.Context(), "removed switch", "switch", id, "links", len(removed))
	s.announce(r, topology.Diff{RemovedNodes: []topology.NodeID{id}, RemovedLinks: removed})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddLink(w http.ResponseWriter, r *http.Request) {
	var req LinkRequest
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.A == nil || req.B == nil {
		http.Error(w, "a and b required", http.StatusBadRequest)
		return
	}
	if *req.A == *req.B {
		http.Error(w, "self links are not allowed", http.StatusBadRequest)
		return
	}

	added, err := s.graph.AddLink(*req.A, *req.B)
	if err != nil {
		if errors.Is(err, topology.ErrUnknownNode) {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !added {
		writeJSON(w, http.StatusOK, ChangeResponse{Changed: false})
		return
	}

	link := topology.NewLink(*req.A, *req.B)
	logging.InfoContext(r.Context(), "registered link", "link", link.String())
	s.announce(r, topology.Diff{AddedLinks: []topology.Link{link}})
	writeJSON(w, http.StatusCreated, ChangeResponse{Changed: true})
}

func (s *Server) handleRemoveLink(w http.ResponseWriter, r *http.Request) {
	a, err := pathID(r, "a")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	b, err := pathID(r, "b")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if !s.graph.RemoveLink(a, b) {
		http.Error(w, fmt.Sprintf("link %d-%d not found", a, b), http.StatusNotFound)
		return
	}

	link := topology.NewLink(a, b)
	logging.InfoContext(r.Context(), "removed link", "link", link.String())
	s.announce(r, topology.Diff{RemovedLinks: []topology.Link{link}})
	w.WriteHeader(http.StatusNoContent)
}

// announce publishes and counts a topology edit made through the API
func (s *Server) announce(r *http.Request, diff topology.Diff) {
	if s.metrics != nil {
		s.metrics.RecordTopologyChange("switch", "add", len(diff.AddedNodes))
		s.metrics.RecordTopologyChange("switch", "remove", len(diff.RemovedNodes))
		s.metrics.RecordTopologyChange("link", "add", len(diff.AddedLinks))
		s.metrics.RecordTopologyChange("link", "remove", len(diff.RemovedLinks))
	}
	if s.publisher == nil {
		return
	}
	data := pubsub.NewTopologyData(s.graph.Snapshot(), diff, "api")
	if err := s.publisher.Publish(pubsub.TopicTopology, pubsub.EventTopologyChanged, data); err != nil {
		logging.WarnContext(r.Context(), "failed to publish topology change", "error", err)
	}
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	topic := mux.Vars(r)["topic"]
	if s.publisher == nil || !subscribableTopics[topic] {
		http.Error(w, fmt.Sprintf("unknown topic %q", topic), http.StatusNotFound)
		return
	}

	sub, err := s.publisher.Subscribe(r.Context(), topic)
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	defer sub.Close()

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	// Send initial comment to establish connection (Safari compatibility)
	fmt.Fprintf(w, ": connected\n\n")
	flusher, _ := w.(http.Flusher)
	if flusher != nil {
		flusher.Flush()
	}

	// Closing a subscription leaves its channel open, so watch the request too
	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := pubsub.WriteSSE(w, event); err != nil {
				logging.DebugContext(r.Context(), "SSE client gone", "topic", topic, "error", err)
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}

func pathID(r *http.Request, name string) (topology.NodeID, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid switch id %q", raw)
	}
	return topology.NodeID(id), nil
}
