package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/ragcheck/internal/storage"
	"github.com/hyperjump/ragcheck/internal/verify"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type verifyRequest struct {
	Response string         `json:"response"`
	Context  verify.Context `json:"context"`
	CaseName string         `json:"case_name,omitempty"`
}

type verifyResponse struct {
	ID     string        `json:"id,omitempty"`
	Result verify.Result `json:"result"`
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("verify request",
		zap.String("case", req.CaseName),
		zap.Int("documents", len(req.Context.RetrievedDocs)),
		zap.Bool("expected_response", req.Context.ExpectedResponse != nil),
	)

	res, err := s.verifier.Verify(r.Context(), req.Response, req.Context)
	if errors.Is(err, verify.ErrInvalidContext) {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.logger.Error("verification failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := verifyResponse{Result: res}
	if s.store != nil && s.config.Verify.RecordHistoryOrDefault() {
		rec := &storage.Record{
			CaseName: req.CaseName,
			Source:   storage.SourceAPI,
			Response: req.Response,
			Context:  req.Context,
			Result:   res,
		}
		if err := s.store.SaveRecord(r.Context(), rec); err != nil {
			s.logger.Warn("failed to record verification", zap.Error(err))
		} else {
			out.ID = rec.ID
		}
	}
	s.respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleListVerifications(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.respondError(w, http.StatusNotImplemented, "history not enabled")
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		s.respondError(w, http.StatusBadRequest, "invalid offset")
		return
	}
	limit, err := queryInt(r, "limit", defaultListLimit)
	if err != nil || limit <= 0 {
		s.respondError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	ctx := r.Context()
	records, err := s.store.ListRecords(ctx, offset, limit)
	if err != nil {
		s.logger.Error("list verifications failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	total, err := s.store.CountRecords(ctx)
	if err != nil {
		s.logger.Error("count verifications failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if records == nil {
		records = []*storage.Record{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"verifications": records,
		"total":         total,
		"offset":        offset,
		"limit":         limit,
	})
}

func (s *Server) handleGetVerification(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.respondError(w, http.StatusNotImplemented, "history not enabled")
		return
	}
	id := chi.URLParam(r, "id")
	rec, err := s.store.GetRecord(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "verification not found")
		return
	}
	if err != nil {
		s.logger.Error("get verification failed", zap.String("id", id), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteVerification(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.respondError(w, http.StatusNotImplemented, "history not enabled")
		return
	}
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete verification request", zap.String("id", id))
	err := s.store.DeleteRecord(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "verification not found")
		return
	}
	if err != nil {
		s.logger.Error("deletion failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	vc := s.verifier.Config()
	resp := map[string]interface{}{
		"history_enabled": s.store != nil && s.config.Verify.RecordHistoryOrDefault(),
	}

	if s.store != nil {
		count, err := s.store.CountRecords(r.Context())
		if err != nil {
			s.logger.Error("status: count verifications failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp["verifications"] = count
		if diskBytes, err := storage.DatabaseSizeBytes(s.config.Storage.DatabasePath); err == nil {
			resp["disk_usage_bytes"] = diskBytes
		}
	}

	resp["config"] = map[string]interface{}{
		"embedding_provider":   s.config.Embedding.Provider,
		"embedding_dimensions": s.config.Embedding.Dimensions,
		"index_type":           vc.IndexType,
		"hnsw":                 vc.HNSW,
		"relevance_mode":       vc.RelevanceMode,
		"keyword_scorer":       s.config.Keyword.Scorer,
		"thresholds": map[string]float64{
			"accuracy":            vc.Thresholds.Accuracy,
			"consistency":         vc.Thresholds.Consistency,
			"relevance":           vc.Thresholds.Relevance,
			"semantic_similarity": vc.Thresholds.SemanticSimilarity,
		},
		"database_path": s.config.Storage.DatabasePath,
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
