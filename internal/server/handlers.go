package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/ppiankov/verisense/internal/cache"
	"github.com/ppiankov/verisense/internal/model"
)

// DefaultReasoningLines replace an empty explanation from the reasoning endpoint
var DefaultReasoningLines = []string{
	"Analysis complete based on gathered evidence.",
	"Confidence score calculated from source authority.",
	"Verdict determined by cross-referencing multiple points.",
}

type extractRequest struct {
	Text string `json:"text" validate:"max=100000"`
}

type extractResponse struct {
	Claims []string `json:"claims"`
}

type verifyRequest struct {
	Claim string `json:"claim" validate:"required"`
}

type verifyResponse struct {
	Status string                      `json:"status"`
	Data   []model.VerifiedClaimRecord `json:"data"`
}

type reasonRequest struct {
	Claim    string   `json:"claim" validate:"required"`
	Evidence []string `json:"evidence" validate:"omitempty,max=200"`
}

type newsResponse struct {
	Articles []model.Article `json:"articles"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": WelcomeMessage})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"features": map[string]bool{
			"news":   s.deps.News != nil,
			"social": s.deps.Social != nil,
			"voice":  s.deps.Voice != nil,
		},
	})
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	if s.deps.Extractor == nil {
		writeDetail(w, http.StatusServiceUnavailable, "Claim extraction is not configured")
		return
	}

	var req extractRequest
	if !s.decode(w, r, &req, "Invalid request body") {
		return
	}

	claims, err := s.deps.Extractor.Extract(r.Context(), req.Text)
	if err != nil {
		s.logger.Error("claim extraction failed", "error", err)
		writeDetail(w, http.StatusInternalServerError, fmt.Sprintf("Claim extraction failed: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, extractResponse{Claims: model.ClaimTexts(claims)})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	if s.deps.Verifier == nil {
		writeDetail(w, http.StatusServiceUnavailable, "Verification is not configured")
		return
	}

	var req verifyRequest
	if !s.decode(w, r, &req, "No claim text provided") {
		return
	}

	records, err := s.verify(r, req.Claim)
	if err != nil {
		s.logger.Error("verification failed", "error", err)
		writeDetail(w, http.StatusInternalServerError, fmt.Sprintf("Verification failed: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, verifyResponse{Status: "success", Data: records})
}

// verify converts a panic escaping the verifier into an error
func (s *Server) verify(r *http.Request, claim string) (records []model.VerifiedClaimRecord, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%v", p)
		}
	}()
	outcome := s.deps.Verifier.Process(r.Context(), claim)
	if outcome.Failed() {
		s.logger.Warn("pipeline degraded to error record", "error", outcome.Err)
	}
	return outcome.Records, nil
}

func (s *Server) handleReason(w http.ResponseWriter, r *http.Request) {
	if s.deps.Reasoner == nil {
		writeError(w, http.StatusServiceUnavailable, "reasoner is not configured")
		return
	}

	var req reasonRequest
	if !s.decode(w, r, &req, "No claim text provided") {
		return
	}
	if req.Evidence == nil {
		req.Evidence = []string{}
	}

	result, err := s.deps.Reasoner.Reason(r.Context(), req.Claim, req.Evidence)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(result.Reasoning) == 0 {
		result.Reasoning = append([]string(nil), DefaultReasoningLines...)
	}
	writeJSON(w, http.StatusOK, result.Normalize())
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	if s.deps.News == nil {
		writeJSON(w, http.StatusOK, newsResponse{Articles: []model.Article{}})
		return
	}
	writeJSON(w, http.StatusOK, newsResponse{Articles: s.deps.News.Articles(r.Context())})
}

func (s *Server) handleSocial(w http.ResponseWriter, r *http.Request) {
	if s.deps.Social == nil {
		writeJSON(w, http.StatusOK, model.SocialFeed{Reddit: []model.RedditPost{}, Twitter: []model.Tweet{}})
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Social.Feed(r.Context()))
}

func (s *Server) handleProcessAudio(w http.ResponseWriter, r *http.Request) {
	if s.deps.Voice == nil {
		writeDetail(w, http.StatusServiceUnavailable, "Voice processing is not configured")
		return
	}

	if r.ContentLength > s.maxUpload {
		writeDetail(w, http.StatusRequestEntityTooLarge, "Audio file too large")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeDetail(w, http.StatusRequestEntityTooLarge, "Audio file too large")
			return
		}
		writeDetail(w, http.StatusBadRequest, "No audio file provided")
		return
	}
	defer func() { _ = file.Close() }()

	result, err := s.deps.Voice.Process(r.Context(), file, header.Filename)
	if err != nil {
		s.logger.Error("audio processing failed", "file", header.Filename, "error", err)
		writeDetail(w, http.StatusInternalServerError, fmt.Sprintf("Audio processing failed: %v", err))
		return
	}
	if result.Results == nil {
		result.Results = []model.VerifiedClaimRecord{}
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSpeech(w http.ResponseWriter, r *http.Request) {
	if s.deps.Speech == nil {
		writeDetail(w, http.StatusNotFound, "Speech file not found")
		return
	}

	name := mux.Vars(r)["filename"]
	if name != filepath.Base(name) {
		writeDetail(w, http.StatusNotFound, "Speech file not found")
		return
	}

	f, err := s.deps.Speech.Open(name)
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			s.logger.Warn("open speech file", "name", name, "error", err)
		}
		writeDetail(w, http.StatusNotFound, "Speech file not found")
		return
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Speech file unreadable")
		return
	}
	w.Header().Set("Content-Type", "audio/mpeg")
	http.ServeContent(w, r, name, info.ModTime(), f)
}

// decode reads a JSON body into dst and validates it. On failure it writes a
// 400 with detail and returns false.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any, detail string) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			s.logger.Debug("request validation failed", "error", verrs.Error())
		}
		writeDetail(w, http.StatusBadRequest, detail)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(body)
}

func writeDetail(w http.ResponseWriter, code int, detail string) {
	writeJSON(w, code, map[string]string{"detail": detail})
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"error": message})
}
