package handlers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ticket-validator/backend/internal/export"
	"github.com/ticket-validator/backend/internal/metrics"
	"github.com/ticket-validator/backend/internal/pipeline"
	"github.com/ticket-validator/backend/internal/storage/models"
	"github.com/ticket-validator/backend/internal/storage/sqlite"
	"github.com/ticket-validator/backend/pkg/logger"
)

type RunsHandler struct {
	processor  *pipeline.Processor
	runs       *sqlite.Client
	historyMax int
}

func NewRunsHandler(processor *pipeline.Processor, runs *sqlite.Client, historyMax int) *RunsHandler {
	return &RunsHandler{
		processor:  processor,
		runs:       runs,
		historyMax: historyMax,
	}
}

// ListRuns returns the run history, most recent first.
func (h *RunsHandler) ListRuns(c *fiber.Ctx) error {
	runs, err := h.runs.ListRuns(c.QueryInt("limit", h.historyMax))
	if err != nil {
		logger.Error("Failed to list runs", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list runs",
		})
	}
	if runs == nil {
		runs = []*models.PipelineRun{}
	}
	return c.JSON(fiber.Map{"runs": runs})
}

// GetRun returns the full classified table for a run, read back from the
// result cache. An evicted result is 410: the history row survives but the
// table must be regenerated from a fresh upload.
func (h *RunsHandler) GetRun(c *fiber.Ctx) error {
	result, status, err := h.loadResult(c)
	if err != nil {
		return respondRunError(c, status, err)
	}

	return c.JSON(fiber.Map{
		"run_id":     result.RunID,
		"daily_file": result.DailyFile,
		"alarm_file": result.AlarmFile,
		"row_count":  len(result.Tickets),
		"counts":     result.Counts,
		"tickets":    result.Tickets,
		"created_at": result.CreatedAt,
	})
}

// GetSummary returns the per-site rollup with the search/sort surface:
// ?search= filters by site-code or count substring, ?sort_by= and ?order=
// reorder the rows. The default order is count descending.
func (h *RunsHandler) GetSummary(c *fiber.Ctx) error {
	result, status, err := h.loadResult(c)
	if err != nil {
		return respondRunError(c, status, err)
	}

	rows := pipeline.Summarize(result.Tickets)
	rows = pipeline.FilterSummary(rows, c.Query("search"))
	if sortBy := c.Query("sort_by"); sortBy != "" {
		rows = pipeline.SortSummary(rows, sortBy, c.Query("order", "asc"))
	}
	if rows == nil {
		rows = []pipeline.SiteSummaryRow{}
	}

	return c.JSON(fiber.Map{
		"run_id":  result.RunID,
		"summary": rows,
	})
}

// GetChart returns per-outcome counts in the fixed category order, zero
// filled. Served from the run record, so it survives cache eviction.
func (h *RunsHandler) GetChart(c *fiber.Ctx) error {
	run, err := h.runs.GetRun(c.Params("id"))
	if err != nil {
		if errors.Is(err, sqlite.ErrRunNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Run not found",
			})
		}
		logger.Error("Failed to load run", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load run",
		})
	}

	counts := []pipeline.CategoryCount{
		{Validation: pipeline.ValidationValid, Count: run.ValidCount},
		{Validation: pipeline.ValidationInvalid, Count: run.InvalidCount},
		{Validation: pipeline.ValidationNotInNMS, Count: run.NotInNMSCount},
	}

	return c.JSON(fiber.Map{
		"run_id": run.ID,
		"counts": counts,
	})
}

// ExportRun streams the classified table as xlsx (default) or csv.
func (h *RunsHandler) ExportRun(c *fiber.Ctx) error {
	result, status, err := h.loadResult(c)
	if err != nil {
		return respondRunError(c, status, err)
	}

	format := c.Query("format", "xlsx")
	switch format {
	case "xlsx":
		data, err := export.ToXLSX(result.Tickets)
		if err != nil {
			logger.Error("Failed to build xlsx export", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to build export",
			})
		}
		metrics.ExportsTotal.WithLabelValues("xlsx").Inc()
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="validated_tickets.xlsx"`)
		return c.Send(data)
	case "csv":
		data, err := export.ToCSV(result.Tickets)
		if err != nil {
			logger.Error("Failed to build csv export", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to build export",
			})
		}
		metrics.ExportsTotal.WithLabelValues("csv").Inc()
		c.Set(fiber.HeaderContentType, "text/csv")
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="validated_tickets.csv"`)
		return c.Send(data)
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("unsupported export format %q", format),
		})
	}
}

// DeleteRun invalidates the memoized result and removes the history row.
func (h *RunsHandler) DeleteRun(c *fiber.Ctx) error {
	run, err := h.runs.GetRun(c.Params("id"))
	if err != nil {
		if errors.Is(err, sqlite.ErrRunNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Run not found",
			})
		}
		logger.Error("Failed to load run", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load run",
		})
	}

	if err := h.processor.Invalidate(c.Context(), run.ContentHash); err != nil {
		logger.Warn("Failed to invalidate cached result", zap.Error(err))
	}
	if err := h.runs.DeleteRun(run.ID); err != nil {
		logger.Error("Failed to delete run", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete run",
		})
	}

	return c.JSON(fiber.Map{"deleted": run.ID})
}

func (h *RunsHandler) loadResult(c *fiber.Ctx) (*pipeline.Result, int, error) {
	run, err := h.runs.GetRun(c.Params("id"))
	if err != nil {
		if errors.Is(err, sqlite.ErrRunNotFound) {
			return nil, fiber.StatusNotFound, fmt.Errorf("run not found")
		}
		logger.Error("Failed to load run", zap.Error(err))
		return nil, fiber.StatusInternalServerError, fmt.Errorf("failed to load run")
	}

	result, ok, err := h.processor.ResultByHash(c.Context(), run.ContentHash)
	if err != nil {
		logger.Error("Failed to read result cache", zap.Error(err))
		return nil, fiber.StatusInternalServerError, fmt.Errorf("failed to load result")
	}
	if !ok {
		return nil, fiber.StatusGone, fmt.Errorf("result expired; upload the files again")
	}

	return result, fiber.StatusOK, nil
}

func respondRunError(c *fiber.Ctx, status int, err error) error {
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
