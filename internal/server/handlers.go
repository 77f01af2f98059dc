package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kreuzlingo/kreuzsuche/internal/models"
)

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var query models.SearchQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("search request", zap.String("query", query.Query), zap.Int("top_k", query.TopK))
	response, err := s.engine.Search(r.Context(), &query)
	if err != nil {
		if errors.Is(err, models.ErrEmptyQuery) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pairCount, err := s.storage.CountPairs(ctx)
	if err != nil {
		s.logger.Error("status: count pairs failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	embeddingCount, err := s.storage.CountEmbeddings(ctx)
	if err != nil {
		s.logger.Error("status: count embeddings failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := map[string]interface{}{
		"sentence_pairs": pairCount,
		"embeddings":     embeddingCount,
		"index_size":     s.engine.IndexSize(),
		"config": map[string]interface{}{
			"index_type":           s.engine.IndexType(),
			"embedding_dimensions": s.engine.Dimensions(),
			"default_top_k":        s.config.Search.DefaultTopK,
			"max_top_k":            s.config.Search.MaxTopK,
			"database_path":        s.config.Storage.DatabasePath,
			"vector_index_path":    s.config.Storage.VectorIndexPath,
		},
	}

	if info, err := s.storage.CorpusInfo(ctx); err == nil && info != nil {
		resp["corpus"] = map[string]interface{}{
			"run_id":     info.RunID,
			"source_url": info.SourceURL,
			"requested":  info.Requested,
			"loaded":     info.Loaded,
			"dropped":    info.Dropped,
			"fetched_at": info.FetchedAt,
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
