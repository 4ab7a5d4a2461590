package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ssargent/famblob/pkg/device"
)

// maxRequestBody bounds JSON request bodies
const maxRequestBody = 4 << 20

// Server holds the API server state
type Server struct {
	service *SnapshotService
	config  ServerConfig
	metrics *Metrics
}

// NewServer creates a new API server
func NewServer(service *SnapshotService, config ServerConfig, metrics *Metrics) *Server {
	return &Server{
		service: service,
		config:  config,
		metrics: metrics,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.metrics.RecordHealthCheck(true)
	sendSuccess(w, map[string]string{"status": "healthy"})
}

// handleCreateSnapshot stores the VcpuStateDoc in the body. ?version=N picks
// the app version the snapshot is written at.
func (s *Server) handleCreateSnapshot(w http.ResponseWriter, r *http.Request) {
	doc, version, ok := s.readSnapshotRequest(w, r)
	if !ok {
		return
	}

	info, err := s.service.Put(r.Context(), doc, version)
	if err != nil {
		s.sendServiceError(w, err)
		return
	}
	sendJSON(w, http.StatusCreated, info)
}

func (s *Server) handleReplaceSnapshot(w http.ResponseWriter, r *http.Request) {
	doc, version, ok := s.readSnapshotRequest(w, r)
	if !ok {
		return
	}

	info, err := s.service.Replace(r.Context(), chi.URLParam(r, "id"), doc, version)
	if err != nil {
		s.sendServiceError(w, err)
		return
	}
	sendSuccess(w, info)
}

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	ids, err := s.service.List(r.Context())
	if err != nil {
		s.sendServiceError(w, err)
		return
	}
	sendSuccess(w, map[string]interface{}{"ids": ids, "count": len(ids)})
}

// handleGetSnapshot returns the decoded snapshot, or the raw frame with ?raw=1
func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if raw, _ := strconv.ParseBool(r.URL.Query().Get("raw")); raw {
		frame, err := s.service.GetRaw(r.Context(), id)
		if err != nil {
			s.sendServiceError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Length", strconv.Itoa(len(frame)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(frame)
		return
	}

	snap, err := s.service.Get(r.Context(), id)
	if err != nil {
		s.sendServiceError(w, err)
		return
	}
	sendSuccess(w, snap)
}

func (s *Server) handleDeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.service.Delete(r.Context(), id); err != nil {
		s.sendServiceError(w, err)
		return
	}
	sendSuccess(w, map[string]string{"status": "deleted", "id": id})
}

func (s *Server) readSnapshotRequest(w http.ResponseWriter, r *http.Request) (device.VcpuStateDoc, uint16, bool) {
	var doc device.VcpuStateDoc

	var version uint16
	if v := r.URL.Query().Get("version"); v != "" {
		n, err := strconv.ParseUint(v, 10, 16)
		if err != nil || n == 0 {
			sendError(w, fmt.Sprintf("Invalid version %q", v), http.StatusBadRequest)
			return doc, 0, false
		}
		version = uint16(n)
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		sendError(w, fmt.Sprintf("Invalid JSON in request body: %v", err), http.StatusBadRequest)
		return doc, 0, false
	}
	return doc, version, true
}

func (s *Server) sendServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidID), errors.Is(err, ErrInvalidRequest):
		sendError(w, err.Error(), http.StatusBadRequest)
	case isNotFound(err):
		sendError(w, err.Error(), http.StatusNotFound)
	default:
		sendError(w, err.Error(), http.StatusInternalServerError)
	}
}
