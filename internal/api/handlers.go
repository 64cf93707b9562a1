package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/overhuman/overlay/internal/catalog"
	"github.com/overhuman/overlay/internal/classifier"
	"github.com/overhuman/overlay/internal/ingest"
	"github.com/overhuman/overlay/internal/render"
	"github.com/overhuman/overlay/internal/storage"
	"github.com/overhuman/overlay/internal/validator"
)

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

// classifyRequest is the body of POST /classify. Content may be any JSON
// value; only strings are classified.
type classifyRequest struct {
	Content  any                 `json:"content"`
	Template string              `json:"template,omitempty"`
	Context  *classifier.Context `json:"context,omitempty"`
}

// validateRequest is the body of POST /validate and POST /report.
type validateRequest struct {
	Template    string                `json:"template"`
	Adjustments validator.Adjustments `json:"adjustments"`
	// Content, when set, enables the required-element rules.
	Content string `json:"content,omitempty"`
	Canvas  *struct {
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	} `json:"canvas,omitempty"`
}

type reportResponse struct {
	Result   validator.Result `json:"result"`
	Report   validator.Report `json:"report"`
	Markdown string           `json:"markdown"`
}

// renderRequest is the body of POST /render.
type renderRequest struct {
	Content     any                    `json:"content"`
	Format      ingest.Format          `json:"format,omitempty"` // text, html or article
	URL         string                 `json:"url,omitempty"`
	Template    string                 `json:"template,omitempty"`
	Context     *classifier.Context    `json:"context,omitempty"`
	Adjustments *validator.Adjustments `json:"adjustments,omitempty"`
}

type renderResponse struct {
	Result *render.RenderResult `json:"result"`
	SVG    string               `json:"svg,omitempty"`
}

type historySummary struct {
	Count      int            `json:"count"`
	ByTemplate map[string]int `json:"by_template"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status: "ok",
		Uptime: time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Catalog.Configs())
}

// lookup resolves a template name, writing a 400 on failure.
func (s *Server) lookup(w http.ResponseWriter, name string) (catalog.TemplateType, bool) {
	t, ok := s.deps.Catalog.Lookup(name)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown template "+strconv.Quote(name))
	}
	return t, ok
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if !decode(w, r, &req) {
		return
	}
	content := classifier.ContentFrom(req.Content)
	if strings.TrimSpace(content) == "" {
		writeError(w, http.StatusBadRequest, "content required")
		return
	}

	if req.Template == "" {
		writeJSON(w, http.StatusOK, s.deps.Classifier.Classify(content, req.Context))
		return
	}
	t, ok := s.lookup(w, req.Template)
	if !ok {
		return
	}
	res, ok := s.deps.Classifier.ClassifyAs(t, content, req.Context)
	if !ok {
		writeError(w, http.StatusBadRequest, "template "+t.String()+" is not in the catalog")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// validate runs the validator for a decoded request.
func (s *Server) validate(w http.ResponseWriter, req validateRequest) (catalog.TemplateType, validator.Result, bool) {
	t, ok := s.lookup(w, req.Template)
	if !ok {
		return t, validator.Result{}, false
	}
	var vctx *validator.Context
	if req.Content != "" || req.Canvas != nil {
		vctx = &validator.Context{}
		if req.Content != "" {
			if res, ok := s.deps.Classifier.ClassifyAs(t, req.Content, nil); ok {
				vctx.Content = res.Content.Content
			}
		}
		if req.Canvas != nil {
			vctx.CanvasWidth, vctx.CanvasHeight = req.Canvas.Width, req.Canvas.Height
		}
	}
	return t, s.deps.Validator.Validate(req.Adjustments, t, vctx), true
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if !decode(w, r, &req) {
		return
	}
	if _, res, ok := s.validate(w, req); ok {
		writeJSON(w, http.StatusOK, res)
	}
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if !decode(w, r, &req) {
		return
	}
	t, res, ok := s.validate(w, req)
	if !ok {
		return
	}
	rep := validator.GenerateComplianceReport(req.Adjustments, t, res)
	if strings.Contains(r.Header.Get("Accept"), "text/markdown") {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.Write([]byte(rep.Markdown()))
		return
	}
	writeJSON(w, http.StatusOK, reportResponse{Result: res, Report: rep, Markdown: rep.Markdown()})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if !decode(w, r, &req) {
		return
	}

	content := classifier.ContentFrom(req.Content)
	if req.Format != ingest.FormatAuto && req.Format != ingest.FormatText {
		doc, err := ingest.Read(strings.NewReader(content), ingest.Options{Format: req.Format, URL: req.URL})
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		content = doc.Text
	}

	opts := &render.Options{Context: req.Context, Adjustments: req.Adjustments}
	if req.Template != "" {
		t, ok := s.lookup(w, req.Template)
		if !ok {
			return
		}
		opts.Template = &t
	}

	s.renderMu.Lock()
	res := s.deps.Engine.RenderTemplate(r.Context(), content, opts)
	var svg string
	if res.Success && s.deps.SVG != nil {
		svg = s.deps.SVG.String()
	}
	s.renderMu.Unlock()

	s.remember(content, res)

	status := http.StatusOK
	if !res.Success {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, renderResponse{Result: res, SVG: svg})
}

// remember records a render in the history store, if there is one.
// History failures are logged and never fail the request.
func (s *Server) remember(content string, res *render.RenderResult) {
	if s.deps.History == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := s.deps.History.Save(ctx, storage.EntryFrom(content, "http", res)); err != nil {
		s.deps.Logger.Warn("history save failed", "id", res.ID, "error", err)
	}
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Engine.Stats())
}

func (s *Server) history(w http.ResponseWriter) bool {
	if s.deps.History == nil {
		writeError(w, http.StatusNotFound, "history disabled")
		return false
	}
	return true
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if !s.history(w) {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	var (
		entries []storage.Entry
		err     error
	)
	if q := r.URL.Query().Get("q"); q != "" {
		entries, err = s.deps.History.Search(r.Context(), q, limit)
	} else {
		entries, err = s.deps.History.Recent(r.Context(), limit)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entries == nil {
		entries = []storage.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleHistorySummary(w http.ResponseWriter, r *http.Request) {
	if !s.history(w) {
		return
	}
	n, err := s.deps.History.Count(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	by, err := s.deps.History.CountByTemplate(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, historySummary{Count: n, ByTemplate: by})
}

func (s *Server) handleHistoryEntry(w http.ResponseWriter, r *http.Request) {
	if !s.history(w) {
		return
	}
	e, err := s.deps.History.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if e == nil {
		writeError(w, http.StatusNotFound, "no such render")
		return
	}
	writeJSON(w, http.StatusOK, e)
}
