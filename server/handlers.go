package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/zalepa/cocstats/dataset"
	"github.com/zalepa/cocstats/report"
	"github.com/zalepa/cocstats/view"
)

type handler struct {
	store    *dataset.Store
	sessions *sessionTable
	renderer report.Renderer
	pageSize int
}

type metadataResponse struct {
	States            []string            `json:"states"`
	CoCNumbers        []string            `json:"cocNumbers"`
	CoCNumbersByState map[string][]string `json:"cocNumbersByState"`
	Measures          []string            `json:"measures"`
	Years             []int               `json:"years"`
	PageSize          int                 `json:"pageSize"`
	Records           int                 `json:"records"`
}

type rowResponse struct {
	view.Row
	Description string     `json:"description"`
	Values      []*float64 `json:"values"`
	Total       float64    `json:"total"`
	Selected    bool       `json:"selected"`
}

type viewResponse struct {
	Outcome     string        `json:"outcome,omitempty"`
	Mode        string        `json:"mode"`
	Rows        []rowResponse `json:"rows"`
	Page        int           `json:"page"`
	TotalPages  int           `json:"totalPages"`
	PageNumbers []int         `json:"pageNumbers"`
	PageSize    int           `json:"pageSize"`
	From        int           `json:"from"`
	To          int           `json:"to"`
	Total       int           `json:"total"`
	Selected    []int64       `json:"selected"`
	NoData      bool          `json:"noData"`
}

func (h *handler) buildView(s *view.Session, outcome string) viewResponse {
	page := s.PageRows()
	from, to := view.PageRange(s.Page(), s.PageSize(), s.Len())
	resp := viewResponse{
		Outcome:     outcome,
		Mode:        s.Mode().String(),
		Rows:        make([]rowResponse, 0, len(page)),
		Page:        s.Page(),
		TotalPages:  s.TotalPages(),
		PageNumbers: view.PageNumbers(s.Page(), s.TotalPages()),
		PageSize:    s.PageSize(),
		From:        from,
		To:          to,
		Total:       s.Len(),
		Selected:    s.SelectedIDs(),
		NoData:      h.store.Len() == 0,
	}
	chart := view.Project(page, false)
	for i, r := range page {
		resp.Rows = append(resp.Rows, rowResponse{
			Row:         r,
			Description: r.Description(),
			Values:      chart.Series[i].Values,
			Total:       r.Values.Total(),
			Selected:    s.IsSelected(r.ID),
		})
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	zerolog.Ctx(r.Context()).Warn().Err(err).Int("status", status).Msg("request failed")
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func (h *handler) Index(w http.ResponseWriter, r *http.Request) {
	data, err := webContent.ReadFile("web.html")
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}

func (h *handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "records": h.store.Len()})
}

func (h *handler) Metadata(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, metadataResponse{
		States:            h.store.States(),
		CoCNumbers:        h.store.CoCNumbers(),
		CoCNumbersByState: h.store.CoCNumbersByState(),
		Measures:          h.store.Measures(),
		Years:             dataset.Years(),
		PageSize:          h.pageSize,
		Records:           h.store.Len(),
	})
}

func (h *handler) View(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.acquire(w, r)
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, h.buildView(s.view, ""))
}

type filterRequest struct {
	State     []string `json:"state"`
	CoCNumber []string `json:"cocNumber"`
	Measure   []string `json:"measure"`
}

func (f filterRequest) selection() view.Selection {
	return view.NewSelection(map[view.Field][]string{
		view.FieldState:     f.State,
		view.FieldCoCNumber: f.CoCNumber,
		view.FieldMeasure:   f.Measure,
	})
}

func (h *handler) Filter(w http.ResponseWriter, r *http.Request) {
	var req filterRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	s := h.sessions.acquire(w, r)
	defer s.mu.Unlock()

	outcome, row := s.view.ApplyFilter(req.selection())
	filterOutcomesTotal.WithLabelValues(outcome.String()).Inc()
	zerolog.Ctx(r.Context()).Debug().
		Str("outcome", outcome.String()).
		Int("matched", row.Count).
		Int("rows", s.view.Len()).
		Msg("filter applied")
	writeJSON(w, http.StatusOK, h.buildView(s.view, outcome.String()))
}

func (h *handler) Reset(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.acquire(w, r)
	defer s.mu.Unlock()
	s.view.Reset()
	writeJSON(w, http.StatusOK, h.buildView(s.view, ""))
}

func (h *handler) Page(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Page int `json:"page"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	s := h.sessions.acquire(w, r)
	defer s.mu.Unlock()
	s.view.SetPage(req.Page)
	writeJSON(w, http.StatusOK, h.buildView(s.view, ""))
}

func (h *handler) Toggle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID *int64 `json:"id"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	if req.ID == nil {
		writeError(w, r, http.StatusBadRequest, errors.New("id is required"))
		return
	}
	s := h.sessions.acquire(w, r)
	defer s.mu.Unlock()
	s.view.Toggle(*req.ID)
	writeJSON(w, http.StatusOK, h.buildView(s.view, ""))
}

func (h *handler) SelectPage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Selected bool `json:"selected"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	s := h.sessions.acquire(w, r)
	defer s.mu.Unlock()
	if req.Selected {
		s.view.SelectAllOnPage()
	} else {
		s.view.DeselectAllOnPage()
	}
	writeJSON(w, http.StatusOK, h.buildView(s.view, ""))
}

func (h *handler) DeleteRows(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []int64 `json:"ids"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	s := h.sessions.acquire(w, r)
	defer s.mu.Unlock()
	if len(req.IDs) == 0 {
		s.view.DeleteSelected()
	} else {
		s.view.DeleteRows(req.IDs...)
	}
	writeJSON(w, http.StatusOK, h.buildView(s.view, ""))
}

func boolParam(r *http.Request, name string, def bool) (bool, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %q", name, v)
	}
	return b, nil
}

// Chart returns the projected series of the selected rows.
func (h *handler) Chart(w http.ResponseWriter, r *http.Request) {
	logScale, err := boolParam(r, "log", false)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	s := h.sessions.acquire(w, r)
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, view.Project(s.view.Selected(), logScale))
}

func (h *handler) ChartPNG(w http.ResponseWriter, r *http.Request) {
	logScale, err := boolParam(r, "log", false)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	s := h.sessions.acquire(w, r)
	chart := view.Project(s.view.Selected(), logScale)
	s.mu.Unlock()

	var buf bytes.Buffer
	if err := h.renderer.WritePNG(&buf, chart); err != nil {
		if errors.Is(err, report.ErrNoData) {
			writeError(w, r, http.StatusNotFound, err)
			return
		}
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(buf.Bytes())
}

// ExportPDF exports the selected rows, or the whole view when nothing is
// selected, with the chart of those rows unless chart=0. An empty view
// exports a header-only table.
func (h *handler) ExportPDF(w http.ResponseWriter, r *http.Request) {
	withChart, err := boolParam(r, "chart", true)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	logScale, err := boolParam(r, "log", false)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	s := h.sessions.acquire(w, r)
	rows := append([]view.Row(nil), s.view.ExportRows()...)
	s.mu.Unlock()

	opts := report.PDFOptions{LogScale: logScale}
	if withChart {
		opts.Chart = h.renderer
	}
	var buf bytes.Buffer
	pages, err := report.WritePDF(r.Context(), &buf, rows, opts)
	if err != nil {
		exportsTotal.WithLabelValues("error").Inc()
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	exportsTotal.WithLabelValues("ok").Inc()
	zerolog.Ctx(r.Context()).Info().Int("rows", len(rows)).Int("pages", pages).Msg("exported pdf")

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.Filename+`"`)
	w.Write(buf.Bytes())
}
