package leaderboardhandlers

import (
	"net/http"
	"strconv"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/campus-coders-club/cp-board/internal/observability/attr"
)

const defaultChartLimit = 10

// HandleChart renders the top scorers as a PNG bar chart. The ?limit query
// parameter caps the number of bars, default 10.
func (h *Handlers) HandleChart(w http.ResponseWriter, r *http.Request) {
	limit := defaultChartLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			h.respondJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	entries, err := h.service.GetLeaderboard(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	if len(entries) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}

	bars := make([]chart.Value, len(entries))
	for i, entry := range entries {
		bars[i] = chart.Value{
			Label: entry.Name,
			Value: float64(entry.TotalScore),
		}
	}

	graph := chart.BarChart{
		Title:    "Leaderboard",
		Height:   512,
		BarWidth: 48,
		Background: chart.Style{
			Padding: chart.Box{Top: 48},
		},
		Bars: bars,
	}

	w.Header().Set("Content-Type", "image/png")
	if err := graph.Render(chart.PNG, w); err != nil {
		h.logger.Warn("failed to render chart", attr.Error(err))
	}
}
