package handlers

import (
	"errors"
	"io"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ticket-validator/backend/internal/pipeline"
	"github.com/ticket-validator/backend/pkg/logger"
)

type ValidateHandler struct {
	processor   *pipeline.Processor
	previewRows int
}

func NewValidateHandler(processor *pipeline.Processor, previewRows int) *ValidateHandler {
	if previewRows <= 0 {
		previewRows = 20
	}
	return &ValidateHandler{
		processor:   processor,
		previewRows: previewRows,
	}
}

// HandleValidate accepts the two multipart uploads, runs the pipeline and
// returns the run id, the per-outcome counts and a bounded preview of the
// classified table. Pipeline rejections surface their message verbatim.
func (h *ValidateHandler) HandleValidate(c *fiber.Ctx) error {
	dailyName, dailyData, err := readUpload(c, "daily_tickets")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "daily_tickets file is required",
		})
	}
	alarmName, alarmData, err := readUpload(c, "alarm_tickets")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "alarm_tickets file is required",
		})
	}

	result, cached, err := h.processor.Run(c.Context(), dailyName, dailyData, alarmName, alarmData)
	if err != nil {
		status := pipelineErrorStatus(err)
		if status == fiber.StatusInternalServerError {
			logger.Error("Pipeline run failed", zap.Error(err))
			return c.Status(status).JSON(fiber.Map{
				"error": "Failed to process uploads",
			})
		}
		return c.Status(status).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	preview := result.Tickets
	if len(preview) > h.previewRows {
		preview = preview[:h.previewRows]
	}

	return c.JSON(fiber.Map{
		"run_id":       result.RunID,
		"content_hash": result.ContentHash,
		"cached":       cached,
		"row_count":    len(result.Tickets),
		"counts":       result.Counts,
		"preview":      preview,
		"latency_ms":   result.LatencyMS,
	})
}

func readUpload(c *fiber.Ctx, field string) (string, []byte, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return "", nil, err
	}

	file, err := header.Open()
	if err != nil {
		return "", nil, err
	}
	defer closeUpload(file)

	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, err
	}
	return header.Filename, data, nil
}

func closeUpload(f multipart.File) {
	if err := f.Close(); err != nil {
		logger.Warn("Failed to close upload", zap.Error(err))
	}
}

// pipelineErrorStatus maps pipeline error kinds to HTTP statuses: format
// and schema violations are client errors, unparseable timestamps are
// unprocessable content.
func pipelineErrorStatus(err error) int {
	var formatErr *pipeline.FormatError
	var schemaErr *pipeline.SchemaError
	var parseErr *pipeline.ParseError

	switch {
	case errors.As(err, &formatErr), errors.As(err, &schemaErr):
		return fiber.StatusBadRequest
	case errors.As(err, &parseErr):
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}
