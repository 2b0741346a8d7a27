package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/quantprep/challenge-service/internal/repositories"
	"github.com/quantprep/challenge-service/internal/services"
	"github.com/quantprep/challenge-service/internal/utils"
)

type AdminHandler struct {
	BaseHandler
	exportService services.ExportService
}

func NewAdminHandler(exportService services.ExportService, logger utils.Logger) *AdminHandler {
	return &AdminHandler{
		BaseHandler:   NewBaseHandler(logger),
		exportService: exportService,
	}
}

// ExportChallengeResults streams challenge completions as xlsx or csv
// @Summary Export challenge results
// @Tags admin
// @Produce application/octet-stream
// @Param format query string false "xlsx or csv"
// @Param firm query string false "Firm filter"
// @Success 200 {file} binary
// @Router /admin/export/challenges [get]
func (h *AdminHandler) ExportChallengeResults(c *gin.Context) {
	h.LogRequest(c, "Exporting challenge results")

	filters := repositories.ChallengeFilters{
		Limit:   ParseIntQuery(c, "limit", 0),
		SortBy:  "created_at",
		SortOrd: "desc",
	}
	if firm := c.Query("firm"); firm != "" {
		filters.Firm = &firm
	}

	format := c.DefaultQuery("format", "xlsx")
	stamp := time.Now().UTC().Format("20060102-150405")

	switch format {
	case "xlsx":
		data, err := h.exportService.ExportChallengeResultsToExcel(c.Request.Context(), filters)
		if err != nil {
			handleServiceError(c, err)
			return
		}
		name := fmt.Sprintf("challenge-results-%s.xlsx", stamp)
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
	case "csv":
		data, err := h.exportService.ExportChallengeResultsToCSV(c.Request.Context(), filters)
		if err != nil {
			handleServiceError(c, err)
			return
		}
		name := fmt.Sprintf("challenge-results-%s.csv", stamp)
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		c.Data(http.StatusOK, "text/csv", data)
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Unsupported export format",
			Details: format,
		})
	}
}
