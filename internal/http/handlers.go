package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"

	"mfdash/internal/loader"
	"mfdash/internal/log"
	"mfdash/internal/middleware/trace"
)

type indexPage struct {
	Error          string
	DefaultSession string
	HasSources     bool
	MaxUploadMB    int64
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	requests := s.tracer.GetMetrics()
	detection := s.detector.GetMetrics()
	NewResponse().JSON(map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
		"requests": map[string]interface{}{
			"total":           requests.TotalRequests,
			"server_errors":   requests.ServerErrors,
			"avg_response_ms": requests.AverageResponseTime.Milliseconds(),
		},
		"security": map[string]interface{}{
			"suspicious_requests": detection.SuspiciousRequests,
			"rejected_filenames":  detection.RejectedFilenames,
		},
	}).Write(w)
}

// handleReady reports whether the server can render pages.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status, code := "ready", http.StatusOK
	checks := map[string]string{"templates": "ok", "default_session": "none"}
	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status, code = "not_ready", http.StatusServiceUnavailable
	}
	if id := s.DefaultSession(); id != "" {
		if _, err := s.datasets.Get(id); err == nil {
			checks["default_session"] = "ok"
		} else {
			checks["default_session"] = "expired"
		}
	}
	NewResponse().Status(code).JSON(map[string]interface{}{
		"status": status,
		"checks": checks,
	}).Write(w)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	msg := ""
	if r.URL.Query().Get("expired") != "" {
		msg = "Your session has expired. Upload the files again."
	}
	s.renderIndex(w, r, http.StatusOK, msg)
}

func (s *Server) renderIndex(w http.ResponseWriter, r *http.Request, status int, msg string) {
	s.render(w, r, status, "index.html", indexPage{
		Error:          msg,
		DefaultSession: s.DefaultSession(),
		HasSources:     len(s.sources) > 0,
		MaxUploadMB:    s.opts.MaxUploadBytes >> 20,
	})
}

// handleUpload parses the submitted exports into a new session. A file that
// fails to parse rejects the whole upload with 422.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	logger := log.FromContext(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil {
		status, msg := statusFor(err)
		if status == http.StatusInternalServerError {
			status, msg = http.StatusBadRequest, "invalid upload"
		}
		logger.WarnContext(r.Context(), "Upload rejected", log.FieldError, err)
		s.renderIndex(w, r, status, msg)
		return
	}
	defer r.MultipartForm.RemoveAll()

	inputs, err := s.readUploads(r)
	if err != nil {
		logger.WarnContext(r.Context(), "Upload rejected", log.FieldError, err)
		s.renderIndex(w, r, http.StatusBadRequest, err.Error())
		return
	}

	d, err := s.datasets.Load(r.Context(), inputs)
	if err != nil {
		status, msg := statusFor(err)
		logger.WarnContext(r.Context(), "Upload failed to load", log.FieldError, err, log.FieldFiles, len(inputs))
		s.renderIndex(w, r, status, msg)
		return
	}
	http.Redirect(w, r, "/dashboard?"+url.Values{paramSession: {d.ID}}.Encode(), http.StatusSeeOther)
}

var errNoFiles = errors.New("select at least one CSV file")

func (s *Server) readUploads(r *http.Request) ([]loader.Input, error) {
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		return nil, errNoFiles
	}
	inputs := make([]loader.Input, 0, len(headers))
	for _, fh := range headers {
		name, err := s.detector.CleanFilename(fh.Filename)
		if err != nil {
			return nil, err
		}
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		_, err = io.Copy(&buf, f)
		f.Close()
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, loader.Input{Name: name, Data: buf.Bytes()})
	}
	return inputs, nil
}

// handleReload loads the configured sources into a new default session.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	id, err := s.Reload(ctx)
	if err != nil {
		status, msg := statusFor(err)
		log.FromContext(ctx).ErrorContext(ctx, "Reload failed", log.FieldError, err)
		s.renderIndex(w, r, status, msg)
		return
	}
	http.Redirect(w, r, "/dashboard?"+url.Values{paramSession: {id}}.Encode(), http.StatusSeeOther)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data interface{}) {
	if s.templates == nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Templates not loaded", log.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed", log.FieldError, err, "template", name)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	s.render(w, r, status, "error.html", struct {
		Status    int
		Message   string
		RequestID string
	}{status, msg, trace.GetRequestID(r.Context())})
}

