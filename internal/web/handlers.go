package web

import (
	"errors"
	"io"
	"math"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/csvdash/internal/chart"
	"github.com/JonMunkholm/csvdash/internal/dashboard"
	"github.com/JonMunkholm/csvdash/internal/export"
	"github.com/JonMunkholm/csvdash/internal/logging"
	"github.com/JonMunkholm/csvdash/internal/web/templates"
)

// multipartMemory is how much of an upload is buffered in memory before
// spilling to temporary files.
const multipartMemory = 32 << 20

// handlePage runs the pipeline and renders the dashboard. When a step
// fails the page is drawn up to that step with the error in its place.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	view, err := s.service.Run(r.Context(), sessionID(r), parseInputs(q))

	data := templates.PageData{View: view, Query: q}
	status := http.StatusOK
	if err != nil {
		status = statusFor(err)
		msg := dashboard.MapError(err)
		logError(r, err, status, msg)
		data.Error = &msg
	}

	renderHTML(w, r, status, "page", templates.Page(data))
}

// handleUpload stores an uploaded file as the session's current file.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartMemory)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		s.respondError(w, r, dashboard.ErrNoFile, http.StatusBadRequest)
		return
	}
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	if _, err := s.service.Upload(r.Context(), sessionID(r), header.Filename, data); err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	http.Redirect(w, r, returnURL(r), http.StatusSeeOther)
}

// handleColumns stores the submitted column selection. Submitting no
// columns selects none.
func (s *Server) handleColumns(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	selected, err := s.service.SelectColumns(r.Context(), sessionID(r), r.PostForm["columns"])
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, map[string]any{"columns": selected})
		return
	}
	http.Redirect(w, r, returnURL(r), http.StatusSeeOther)
}

// handleReset forgets the session.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Reset(r.Context(), sessionID(r)); err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleExport downloads the filtered table.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, ok := export.Lookup(chi.URLParam(r, "format"))
	if !ok {
		http.NotFound(w, r)
		return
	}

	t, err := s.service.Filtered(r.Context(), sessionID(r))
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	w.Header().Set("Content-Type", format.MIME)
	w.Header().Set("Content-Disposition", `attachment; filename="`+format.FileName+`"`)
	if err := format.Write(w, t); err != nil {
		logging.FromContext(r.Context()).Error("export failed", "format", format.Key, "error", err)
	}
}

// handleChart renders one chart as a standalone HTML document for the
// page's chart frames.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	fig, err := s.service.Figure(r.Context(), sessionID(r), parseChartParams(r.URL.Query()))
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	if fig.Kind == chart.KindNone {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if fig.Kind == chart.KindGrid {
		renderHTML(w, r, http.StatusOK, "grid", templates.Grid(fig.Table, nil))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := fig.Render(w); err != nil {
		logging.FromContext(r.Context()).Error("render chart", "kind", fig.Kind, "error", err)
	}
}

// MetricsResponse is the JSON form of the metrics snapshot. Means of
// columns without values are null.
type MetricsResponse struct {
	RowCount int                 `json:"row_count"`
	Columns  []string            `json:"columns"`
	Mean     map[string]*float64 `json:"mean"`
	Sum      map[string]float64  `json:"sum"`
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	m, err := s.service.Metrics(r.Context(), sessionID(r))
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	resp := MetricsResponse{
		RowCount: m.RowCount,
		Columns:  m.Columns,
		Mean:     make(map[string]*float64, len(m.Mean)),
		Sum:      m.Sum,
	}
	if resp.Columns == nil {
		resp.Columns = []string{}
	}
	for col, v := range m.Mean {
		if math.IsNaN(v) {
			resp.Mean[col] = nil
			continue
		}
		resp.Mean[col] = &v
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleListColumns returns the filtered table's columns and their types.
func (s *Server) handleListColumns(w http.ResponseWriter, r *http.Request) {
	t, err := s.service.Filtered(r.Context(), sessionID(r))
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	type column struct {
		Name    string `json:"name"`
		Type    string `json:"type"`
		Numeric bool   `json:"numeric"`
	}
	cols := make([]column, 0, t.Width())
	for _, name := range t.Columns() {
		typ, _ := t.ColumnType(name)
		cols = append(cols, column{Name: name, Type: string(typ), Numeric: t.IsNumeric(name)})
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": t.Rows(), "columns": cols})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": s.service.Status(),
	})
}
