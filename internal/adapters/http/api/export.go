package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/attendance/internal/adapters/report"
	"github.com/okian/attendance/pkg/logger"
	"github.com/okian/attendance/pkg/metrics"
)

// ExportHandler renders an evaluation as a downloadable workbook.
type ExportHandler struct {
	deps    Dependencies
	decoder requestDecoder
	now     func() time.Time
}

// NewExportHandler creates a new export handler.
func NewExportHandler(deps Dependencies, decoder requestDecoder) *ExportHandler {
	return &ExportHandler{deps: deps, decoder: decoder, now: time.Now}
}

// HandleExport handles POST /api/export requests.
func (h *ExportHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	in, err := h.decoder.decode(w, r, "export")
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	ev, err := h.deps.Calculate(r.Context(), in)
	if err != nil {
		writeFailure(w, r, Wrap("export", err))
		return
	}

	var buf bytes.Buffer
	if err := report.WriteXLSX(&buf, ev); err != nil {
		writeFailure(w, r, Wrap("export", err))
		return
	}
	metrics.RecordReportExported("xlsx")
	loggerFrom(r.Context()).Debug(r.Context(), "report exported",
		logger.Int("subjects", len(ev.Subjects)),
		logger.Int("bytes", buf.Len()),
	)

	name := fmt.Sprintf("attendance-%s.xlsx", h.now().UTC().Format("20060102-150405"))
	w.Header().Set("Content-Type", report.ContentTypeXLSX)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
