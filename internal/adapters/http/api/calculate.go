package api

import (
	"net/http"
)

// CalculateHandler handles attendance evaluation requests.
type CalculateHandler struct {
	deps    Dependencies
	decoder requestDecoder
}

// NewCalculateHandler creates a new calculate handler.
func NewCalculateHandler(deps Dependencies, decoder requestDecoder) *CalculateHandler {
	return &CalculateHandler{deps: deps, decoder: decoder}
}

// HandleCalculate handles POST /api/calculate requests.
func (h *CalculateHandler) HandleCalculate(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	in, err := h.decoder.decode(w, r, "calculate")
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	ev, err := h.deps.Calculate(r.Context(), in)
	if err != nil {
		writeFailure(w, r, Wrap("calculate", err))
		return
	}

	writeJSON(w, http.StatusOK, ev)
}
