package server

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"go.uber.org/zap"

	"weekly_report_bot/scheduler"
	"weekly_report_bot/workflow"
)

//go:embed web/dist web/dist/*
var embeddedStatic embed.FS

type Server struct {
	machine  *workflow.Machine
	poller   *scheduler.Poller
	logger   *zap.Logger
	staticFS http.Handler
}

func New(machine *workflow.Machine, poller *scheduler.Poller, logger *zap.Logger) (*Server, error) {
	if machine == nil {
		return nil, errors.New("workflow machine required")
	}
	if poller == nil {
		return nil, errors.New("scheduler poller required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	sub, err := fs.Sub(embeddedStatic, "web/dist")
	if err != nil {
		return nil, err
	}

	return &Server{
		machine:  machine,
		poller:   poller,
		logger:   logger,
		staticFS: http.FileServer(http.FS(sub)),
	}, nil
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/run", s.handleRun)
	mux.HandleFunc("/api/approve", s.handleApprove)
	mux.HandleFunc("/api/settings", s.handleSettings)
	mux.HandleFunc("/api/preview", s.handlePreview)
	mux.Handle("/", s.staticHandler())
	return s.logMiddleware(mux)
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("elapsed", time.Since(start)))
	})
}

func (s *Server) staticHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// fall back to index.html for SPA-ish behavior
		upath := r.URL.Path
		if upath == "/" || !strings.HasPrefix(upath, "/api/") {
			p := upath
			if p == "/" {
				p = "/index.html"
			}
			r.URL.Path = p
			s.staticFS.ServeHTTP(w, r)
			return
		}
		http.NotFound(w, r)
	})
}

// --- Handlers ---

type statusResp struct {
	Status          workflow.Status     `json:"status"`
	Countdown       string              `json:"countdown"`
	Content         string              `json:"content,omitempty"`
	Logs            []workflow.LogEntry `json:"logs"`
	AutoTrigger     bool                `json:"auto_trigger"`
	RequireApproval bool                `json:"require_approval"`
}

type settingsReq struct {
	AutoTrigger     *bool `json:"auto_trigger,omitempty"`
	RequireApproval *bool `json:"require_approval,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, statusResp{
		Status:          s.machine.Status(),
		Countdown:       s.poller.Countdown(),
		Content:         s.machine.Content(),
		Logs:            s.machine.Logs(),
		AutoTrigger:     s.poller.AutoTrigger(),
		RequireApproval: s.machine.RequireApproval(),
	})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.machine.Start()
	writeJSON(w, map[string]string{"status": string(s.machine.Status())})
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.machine.Approve()
	writeJSON(w, map[string]string{"status": string(s.machine.Status())})
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req settingsReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.AutoTrigger != nil {
		s.poller.SetAutoTrigger(*req.AutoTrigger)
	}
	if req.RequireApproval != nil {
		s.machine.SetRequireApproval(*req.RequireApproval)
	}
	writeJSON(w, map[string]bool{
		"auto_trigger":     s.poller.AutoTrigger(),
		"require_approval": s.machine.RequireApproval(),
	})
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	md := s.machine.Content()
	if md == "" {
		http.Error(w, "no draft available", http.StatusNotFound)
		return
	}
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
