package leaderboardhandlers

import (
	"fmt"
	"net/http"

	"github.com/xuri/excelize/v2"

	"github.com/campus-coders-club/cp-board/app/shared/sharedtypes"
	"github.com/campus-coders-club/cp-board/internal/observability/attr"
)

const exportSheet = "Leaderboard"

// HandleExport streams the current leaderboard as an xlsx workbook, one row
// per user with per-platform score columns.
func (h *Handlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.GetLeaderboard(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			h.logger.Warn("failed to close workbook", attr.Error(err))
		}
	}()

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		h.respondError(w, err)
		return
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		h.logger.Warn("failed to drop default sheet", attr.Error(err))
	}

	header := []any{"Rank", "Name", "Email", "Roll No", "Department", "Section"}
	for _, platform := range sharedtypes.Platforms {
		header = append(header, platform.String())
	}
	header = append(header, "Total Score")
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		h.respondError(w, err)
		return
	}

	for i, entry := range entries {
		row := []any{entry.Rank, entry.Name, entry.Email, entry.RollNo, entry.Department, entry.Section}
		for _, platform := range sharedtypes.Platforms {
			row = append(row, entry.Platforms.Entry(platform).Score)
		}
		row = append(row, entry.TotalScore)

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			h.respondError(w, err)
			return
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			h.respondError(w, err)
			return
		}
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "leaderboard.xlsx"))
	if err := f.Write(w); err != nil {
		h.logger.Warn("failed to stream workbook", attr.Error(err))
	}
}
