package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ziadkadry99/coderag/internal/indexer"
	"github.com/ziadkadry99/coderag/internal/vectordb"
)

const maxTopK = 50

type queryRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k,omitempty"`
}

type sourceJSON struct {
	Label      string  `json:"label"`
	Path       string  `json:"path"`
	Filename   string  `json:"filename"`
	Page       string  `json:"page,omitempty"`
	LineStart  int     `json:"line_start,omitempty"`
	LineEnd    int     `json:"line_end,omitempty"`
	Similarity float32 `json:"similarity"`
	Text       string  `json:"text,omitempty"`
}

type queryResponse struct {
	Answer  string       `json:"answer"`
	Sources []sourceJSON `json:"sources"`
}

type searchResponse struct {
	Results []sourceJSON `json:"results"`
}

type statsResponse struct {
	Collection string `json:"collection"`
	Files      int    `json:"files"`
	Chunks     int    `json:"manifest_chunks"`
	Stored     int    `json:"stored_chunks"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeQuery(w, r)
	if !ok {
		return
	}

	ans, err := s.answerer.Answer(r.Context(), req.Question, s.topK(req.TopK))
	if err != nil {
		s.logger.Warn("query failed", "error", err)
		writeError(w, http.StatusBadGateway, "query failed: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, queryResponse{
		Answer:  ans.Text,
		Sources: toSources(ans.Hits, false),
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeQuery(w, r)
	if !ok {
		return
	}

	hits, err := s.answerer.Retrieve(r.Context(), req.Question, s.topK(req.TopK))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, vectordb.ErrTextQueryUnsupported) {
			status = http.StatusServiceUnavailable
		}
		writeError(w, status, "search failed: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{Results: toSources(hits, true)})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	resp := statsResponse{Collection: s.cfg.Collection}

	if s.cfg.ManifestPath != "" {
		m, err := indexer.LoadManifest(s.cfg.ManifestPath)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "loading manifest: "+err.Error())
			return
		}
		resp.Files = len(m.Files)
		resp.Chunks = m.TotalChunks()
	}

	n, err := s.store.Count(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "counting vectors: "+err.Error())
		return
	}
	resp.Stored = n

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) decodeQuery(w http.ResponseWriter, r *http.Request) (queryRequest, bool) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return req, false
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return req, false
	}
	return req, true
}

func (s *Server) topK(k int) int {
	if k <= 0 {
		return s.cfg.TopK
	}
	if k > maxTopK {
		return maxTopK
	}
	return k
}

func toSources(hits []vectordb.Hit, withText bool) []sourceJSON {
	out := make([]sourceJSON, len(hits))
	for i, h := range hits {
		out[i] = sourceJSON{
			Label:      vectordb.FormatSource(i+1, h.Metadata),
			Path:       h.Metadata.SourcePath,
			Filename:   h.Metadata.Filename,
			Page:       h.Metadata.Page(),
			LineStart:  h.Metadata.LineStart,
			LineEnd:    h.Metadata.LineEnd,
			Similarity: h.Similarity,
		}
		if withText {
			out[i].Text = h.Text
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
