package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"caption-plan-go/internal/annotator"
	"caption-plan-go/internal/editor"
	"caption-plan-go/internal/logger"
	"caption-plan-go/internal/processor"
	"caption-plan-go/internal/project"
)

const maxUploadBytes = 2 << 30

type server struct {
	proc           *processor.Processor
	uploadDir      string
	processTimeout time.Duration
	editTimeout    time.Duration
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()

	// health
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		logger.New().WithRequest(r).Debug("health check")
		fmt.Fprint(w, "ok")
	})

	mux.HandleFunc("POST /api/process-video", s.handleProcess)
	mux.HandleFunc("POST /api/edit-video", s.handleEdit)
	mux.HandleFunc("GET /api/project", s.handleProject)
	mux.HandleFunc("GET /api/history", s.handleHistory)
	return mux
}

func (s *server) handleProcess(w http.ResponseWriter, r *http.Request) {
	reqLog := logger.New().WithRequest(r).WithField("handler", "process-video")
	reqLog.Info("process request received")

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("video")
	if err != nil {
		reqLog.WithField("error", err.Error()).Warn("missing video upload")
		writeError(w, http.StatusBadRequest, "No video uploaded", err)
		return
	}
	defer file.Close()

	videoPath, err := s.saveUpload(file, header.Filename)
	if err != nil {
		reqLog.WithField("error", err.Error()).Error("upload save failed")
		writeError(w, http.StatusInternalServerError, "Processing failed", err)
		return
	}
	reqLog = reqLog.WithField("video", videoPath)

	ctx, cancel := context.WithTimeout(r.Context(), s.processTimeout)
	defer cancel()
	res, err := s.proc.ProcessVideo(ctx, videoPath)
	if err != nil {
		reqLog.WithField("error", err.Error()).Error("process failed")
		writeError(w, statusFor(err), "Processing failed", err)
		return
	}

	reqLog.WithField("segments", res.Segments).WithField("duration_ms", res.DurationMs).Info("processor finished")
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"message":   "Video processed and ready for render",
		"segments":  res.Segments,
		"historyId": res.HistoryID,
		"summary":   res.Summary,
	})
}

type editRequest struct {
	Prompt string `json:"prompt"`
}

func (s *server) handleEdit(w http.ResponseWriter, r *http.Request) {
	reqLog := logger.New().WithRequest(r).WithField("handler", "edit-video")

	var req editRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeError(w, http.StatusBadRequest, "prompt is required", nil)
		return
	}
	reqLog = reqLog.WithField("prompt", req.Prompt)
	reqLog.Info("edit request received")

	ctx, cancel := context.WithTimeout(r.Context(), s.editTimeout)
	defer cancel()
	res, err := s.proc.ApplyEdit(ctx, req.Prompt)
	if err != nil {
		reqLog.WithField("error", err.Error()).Warn("edit failed")
		writeError(w, statusFor(err), "Edit failed", err)
		return
	}

	reqLog.WithField("segments", res.Segments).Info("edit applied")
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"message":   "Edit applied",
		"data":      res.Project,
		"historyId": res.HistoryID,
		"summary":   res.Summary,
	})
}

func (s *server) handleProject(w http.ResponseWriter, r *http.Request) {
	p, err := s.proc.Project()
	if err != nil {
		writeError(w, statusFor(err), "Project unavailable", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer", err)
			return
		}
		limit = n
	}
	entries, err := s.proc.History(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "History unavailable", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (s *server) saveUpload(src io.Reader, originalName string) (string, error) {
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	name := strconv.FormatInt(time.Now().UnixMilli(), 10) + strings.ToLower(filepath.Ext(originalName))
	path := filepath.Join(s.uploadDir, name)
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("close upload: %w", err)
	}
	return path, nil
}

// statusFor maps pipeline errors to HTTP status codes.
func statusFor(err error) int {
	var (
		decisionErr *annotator.DecisionServiceError
		editErr     *editor.EditApplyError
	)
	switch {
	case errors.Is(err, project.ErrNoProject):
		return http.StatusNotFound
	case errors.Is(err, project.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &decisionErr), errors.As(err, &editErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, msg string, err error) {
	body := map[string]string{"error": msg}
	if err != nil {
		body["details"] = err.Error()
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		logger.New().WithError(err).Error("failed to write response")
	}
}
