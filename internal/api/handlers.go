package api

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/vegarringdal/web-ifc/core/catalog"
	"github.com/vegarringdal/web-ifc/core/dump"
	"github.com/vegarringdal/web-ifc/core/errors"
	"github.com/vegarringdal/web-ifc/core/loader"
	"github.com/vegarringdal/web-ifc/core/schema"
	"github.com/vegarringdal/web-ifc/internal/logging"
	"github.com/vegarringdal/web-ifc/internal/query"
	"github.com/vegarringdal/web-ifc/internal/validation"
)

// Server holds the API state: loaded models, jobs, the progress hub, and
// the optional catalog.
type Server struct {
	cfg     Config
	models  *ModelStore
	jobs    *JobStore
	hub     *Hub
	catalog *catalog.Catalog
}

// NewServer creates a server with empty stores. If the configuration
// names a catalog path it is opened (and created) eagerly.
func NewServer(cfg Config) (*Server, error) {
	if cfg.MaxUploadBytes == 0 {
		cfg.MaxUploadBytes = DefaultConfig().MaxUploadBytes
	}
	s := &Server{
		cfg:    cfg,
		models: NewModelStore(),
		jobs:   NewJobStore(),
		hub:    NewHub(),
	}
	if cfg.CatalogPath != "" {
		c, err := catalog.Open(cfg.CatalogPath)
		if err != nil {
			return nil, err
		}
		s.catalog = c
	}
	return s, nil
}

// Hub exposes the progress hub, mainly for wiring and tests.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Routes builds the HTTP mux.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("POST /api/models", s.handleCreateModel)
	mux.HandleFunc("GET /api/models", s.handleListModels)
	mux.HandleFunc("GET /api/models/{id}", s.handleGetModel)
	mux.HandleFunc("DELETE /api/models/{id}", s.handleDeleteModel)
	mux.HandleFunc("GET /api/models/{id}/entities", s.handleListEntities)
	mux.HandleFunc("GET /api/models/{id}/entities/{eid}", s.handleGetEntity)
	mux.HandleFunc("GET /api/models/{id}/export", s.handleExport)
	mux.HandleFunc("GET /api/models/{id}/relations/{kind}", s.handleRelations)
	mux.HandleFunc("POST /api/jobs", s.handleCreateJob)
	mux.HandleFunc("GET /api/jobs", s.handleListJobs)
	mux.HandleFunc("GET /api/jobs/{id}", s.handleGetJob)
	mux.HandleFunc("GET /api/catalog", s.handleCatalog)
	mux.HandleFunc("GET /ws", s.hub.HandleWebSocket)

	return s.logRequests(mux)
}

// logRequests wraps the mux with request logging.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		logging.HTTPRequest(r.Method, r.URL.Path, r.RemoteAddr, recorder.status, time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"models":  len(s.models.List()),
		"clients": s.hub.ClientCount(),
	})
}

// handleCreateModel loads a model synchronously from the file named by
// ?path= when that parameter is given, otherwise from the request body.
func (s *Server) handleCreateModel(w http.ResponseWriter, r *http.Request) {
	var content []byte
	name := r.URL.Query().Get("name")

	if path := r.URL.Query().Get("path"); path != "" {
		if err := validation.ValidateModelFile(path); err != nil {
			writeError(w, errors.NewValidation("path", err.Error()))
			return
		}
		data, err := os.ReadFile(path)
		if err != nil {
			writeError(w, errors.NewIO("read", path, err))
			return
		}
		content = data
		if name == "" {
			name = filepath.Base(path)
		}
	} else {
		data, err := io.ReadAll(io.LimitReader(r.Body, s.cfg.MaxUploadBytes))
		if err != nil {
			writeError(w, errors.NewIO("read", "request body", err))
			return
		}
		content = data
		if name == "" {
			name = "upload.ifc"
		}
	}

	if len(content) == 0 {
		writeError(w, errors.NewValidation("body", "no model content provided"))
		return
	}

	model, err := s.loadModel(name, content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, model)
}

// loadModel runs the loader over content and registers the result.
func (s *Server) loadModel(name string, content []byte) (*Model, error) {
	start := time.Now()
	l := loader.NewLoader(loader.DefaultSettings())
	if err := l.LoadFile(content); err != nil {
		return nil, err
	}
	sha, b3 := dump.HashContent(content)
	model := s.models.Add(name, sha, l)
	logging.LoadEvent("loaded", name, "lines", l.GetNumLines(), "duration_ms", time.Since(start).Milliseconds())

	if s.catalog != nil {
		if _, err := s.catalog.Add(&catalog.Entry{
			Path:                name,
			SHA256:              sha,
			BLAKE3:              b3,
			NumLines:            l.GetNumLines(),
			LinearScalingFactor: l.GetLinearScalingFactor(),
			LoadMillis:          time.Since(start).Milliseconds(),
		}); err != nil {
			logging.Warn("failed to record model in catalog", "error", err)
		}
	}
	return model, nil
}

func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.models.List())
}

func (s *Server) handleGetModel(w http.ResponseWriter, r *http.Request) {
	model, err := s.models.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model)
}

func (s *Server) handleDeleteModel(w http.ResponseWriter, r *http.Request) {
	if err := s.models.Remove(r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListEntities returns expressIDs, selected by ?type= and/or a
// ?filter= expression.
func (s *Server) handleListEntities(w http.ResponseWriter, r *http.Request) {
	model, err := s.models.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	typeName := r.URL.Query().Get("type")
	filterExpr := r.URL.Query().Get("filter")

	var filter *query.Filter
	if filterExpr != "" {
		filter, err = query.Compile(filterExpr)
		if err != nil {
			writeError(w, err)
			return
		}
	}

	var ids []uint32
	err = model.WithLoader(func(l *loader.Loader) error {
		switch {
		case filter != nil:
			ids = filter.Apply(l)
			if typeName != "" {
				code := schema.CodeOf(typeName)
				kept := ids[:0]
				for _, id := range ids {
					if lineID, ok := l.ExpressIDToLineID(id); ok {
						if line, err := l.GetLine(lineID); err == nil && line.IfcType == code {
							kept = append(kept, id)
						}
					}
				}
				ids = kept
			}
		case typeName != "":
			ids = l.GetExpressIDsWithType(schema.CodeOf(typeName))
		default:
			for _, line := range l.GetMetaData().Lines {
				ids = append(ids, line.ExpressID)
			}
		}
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"express_ids": ids})
}

// handleGetEntity returns one entity's index record and its STEP text.
func (s *Server) handleGetEntity(w http.ResponseWriter, r *http.Request) {
	model, err := s.models.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	eid, err := strconv.ParseUint(r.PathValue("eid"), 10, 32)
	if err != nil {
		writeError(w, errors.NewValidation("eid", "must be a numeric expressID"))
		return
	}

	var payload map[string]any
	err = model.WithLoader(func(l *loader.Loader) error {
		lineID, ok := l.ExpressIDToLineID(uint32(eid))
		if !ok {
			return errors.NewNotFound("entity", "#"+r.PathValue("eid"))
		}
		line, err := l.GetLine(lineID)
		if err != nil {
			return err
		}
		text, err := l.ExportLine(uint32(eid))
		if err != nil {
			return err
		}
		payload = map[string]any{
			"express_id": line.ExpressID,
			"line_index": line.LineIndex,
			"type":       schema.NameOf(line.IfcType),
			"step":       string(text),
		}
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

// handleExport streams the reverse-serialized model.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	model, err := s.models.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	var out []byte
	err = model.WithLoader(func(l *loader.Loader) error {
		data, err := l.DumpAsIFC()
		out = data
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/x-step")
	w.Header().Set("Content-Disposition", `attachment; filename="export.ifc"`)
	w.WriteHeader(http.StatusOK)
	w.Write(out)
}

// handleRelations returns one of the populated relation maps.
func (s *Server) handleRelations(w http.ResponseWriter, r *http.Request) {
	model, err := s.models.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	var payload any
	err = model.WithLoader(func(l *loader.Loader) error {
		switch kind := r.PathValue("kind"); kind {
		case "voids":
			payload = l.GetRelVoids()
		case "aggregates":
			payload = l.GetRelAggregates()
		case "styled-items":
			payload = l.GetStyledItems()
		case "materials":
			payload = l.GetRelMaterials()
		case "material-definitions":
			payload = l.GetMaterialDefinitions()
		default:
			return errors.NewNotFound("relation map", kind)
		}
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

// handleCreateJob starts an asynchronous load of a file path.
func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Path string `json:"path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		writeError(w, errors.NewValidation("path", "request body must carry a file path"))
		return
	}

	job := s.jobs.Create(req.Path)
	go s.runLoadJob(job.ID, req.Path)
	writeJSON(w, http.StatusAccepted, job)
}

// runLoadJob executes one load job, reporting progress to the hub.
func (s *Server) runLoadJob(jobID, path string) {
	progress := func(status JobStatus, pct int, msg string) {
		s.jobs.Update(jobID, func(j *Job) {
			j.Status = status
			j.Progress = pct
		})
		s.hub.Broadcast(ProgressMessage{
			Type:      "progress",
			Operation: "load",
			JobID:     jobID,
			Progress:  pct,
			Message:   msg,
		})
	}

	progress(JobStatusRunning, 10, "reading file")
	if err := validation.ValidateModelFile(path); err != nil {
		s.failJob(jobID, errors.NewValidation("path", err.Error()))
		return
	}
	content, err := os.ReadFile(path)
	if err != nil {
		s.failJob(jobID, errors.NewIO("read", path, err))
		return
	}

	progress(JobStatusRunning, 40, "parsing")
	model, err := s.loadModel(filepath.Base(path), content)
	if err != nil {
		s.failJob(jobID, err)
		return
	}

	s.jobs.Update(jobID, func(j *Job) {
		j.Status = JobStatusCompleted
		j.Progress = 100
		j.ModelID = model.ID
		j.CompletedAt = time.Now().UTC()
	})
	s.hub.Broadcast(ProgressMessage{
		Type:      "complete",
		Operation: "load",
		JobID:     jobID,
		Progress:  100,
		Message:   "model loaded",
	})
}

func (s *Server) failJob(jobID string, err error) {
	logging.LoadError(jobID, err)
	s.jobs.Update(jobID, func(j *Job) {
		j.Status = JobStatusFailed
		j.Error = err.Error()
		j.CompletedAt = time.Now().UTC()
	})
	s.hub.Broadcast(ProgressMessage{
		Type:      "error",
		Operation: "load",
		JobID:     jobID,
		Message:   err.Error(),
	})
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.jobs.List())
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.jobs.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	if s.catalog == nil {
		writeError(w, errors.NewUnsupported("catalog", "no catalog path configured"))
		return
	}
	entries, err := s.catalog.List()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Error("failed to encode response", "error", err)
	}
}

// writeError maps core error types to HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errors.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, errors.ErrInvalidInput), errors.Is(err, errors.ErrTypeMismatch):
		status = http.StatusBadRequest
	case errors.Is(err, errors.ErrUnsupported):
		status = http.StatusNotImplemented
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
