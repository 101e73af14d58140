package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/soundscape-lab/annotator/internal/annotation"
	"github.com/soundscape-lab/annotator/internal/errors"
)

// ImportRequest is the body of a bulk import.
type ImportRequest struct {
	Rows              []annotation.ImportRow `json:"rows" validate:"required,min=1"`
	ForceDatetime     bool                   `json:"force_datetime"`
	ForceMaxFrequency bool                   `json:"force_max_frequency"`
}

// ImportResponse lists the created results and the outcome of every row.
type ImportResponse struct {
	Results  []annotation.ResultView `json:"results"`
	Outcomes []annotation.RowOutcome `json:"outcomes"`
	Created  int                     `json:"created"`
	Skipped  int                     `json:"skipped"`
}

// ResultRequest is the body of a manual create or update.
type ResultRequest struct {
	Label               string                            `json:"label" validate:"required"`
	ConfidenceIndicator *annotation.ConfidenceInput       `json:"confidence_indicator"`
	Annotator           *uint                             `json:"annotator"`
	DatasetFile         uint                              `json:"dataset_file" validate:"required"`
	Detector            *annotation.DetectorInput         `json:"detector_configuration"`
	StartTime           *float64                          `json:"start_time" validate:"omitnil,gte=0"`
	EndTime             *float64                          `json:"end_time" validate:"omitnil,gte=0"`
	StartFrequency      *float64                          `json:"start_frequency" validate:"omitnil,gte=0"`
	EndFrequency        *float64                          `json:"end_frequency" validate:"omitnil,gte=0"`
	Comments            []annotation.CommentInput         `json:"comments" validate:"dive"`
	Validations         []annotation.ValidationInput      `json:"validations" validate:"dive"`
	AcousticFeatures    *annotation.AcousticFeaturesInput `json:"acoustic_features"`
	IsUpdateOf          *uint                             `json:"is_update_of"`
}

// ResultUpdateRequest adds the owning phase to a manual update, which is
// addressed by result ID only.
type ResultUpdateRequest struct {
	ResultRequest
	Phase uint `json:"annotation_campaign_phase" validate:"required"`
}

func (r *ResultRequest) toInput(phaseID uint) annotation.UpsertInput {
	return annotation.UpsertInput{
		PhaseID:          phaseID,
		Label:            r.Label,
		Confidence:       r.ConfidenceIndicator,
		AnnotatorID:      r.Annotator,
		DatasetFileID:    r.DatasetFile,
		Detector:         r.Detector,
		StartTime:        r.StartTime,
		EndTime:          r.EndTime,
		StartFrequency:   r.StartFrequency,
		EndFrequency:     r.EndFrequency,
		Comments:         r.Comments,
		Validations:      r.Validations,
		AcousticFeatures: r.AcousticFeatures,
		IsUpdateOf:       r.IsUpdateOf,
	}
}

// ImportResults handles POST /api/v2/phases/:phaseId/results/import
func (c *Controller) ImportResults(ctx echo.Context) error {
	phaseID, err := parseID(ctx, "phaseId")
	if err != nil {
		return c.HandleError(ctx, err, "Invalid phase ID")
	}

	var req ImportRequest
	if err := c.bind(ctx, &req); err != nil {
		return c.HandleError(ctx, err, "Invalid import request")
	}

	report, err := c.service.Import(ctx.Request().Context(), annotation.ImportContext{
		PhaseID:           phaseID,
		ForceDatetime:     req.ForceDatetime,
		ForceMaxFrequency: req.ForceMaxFrequency,
	}, req.Rows)
	if err != nil {
		return c.HandleError(ctx, err, "Import failed")
	}

	resp := ImportResponse{
		Results:  make([]annotation.ResultView, 0, len(report.Results)),
		Outcomes: report.Outcomes,
		Created:  len(report.Results),
		Skipped:  report.SkippedCount(),
	}
	for _, r := range report.Results {
		resp.Results = append(resp.Results, annotation.NewResultView(r))
	}
	return ctx.JSON(http.StatusOK, resp)
}

// CreateResult handles POST /api/v2/phases/:phaseId/results
func (c *Controller) CreateResult(ctx echo.Context) error {
	phaseID, err := parseID(ctx, "phaseId")
	if err != nil {
		return c.HandleError(ctx, err, "Invalid phase ID")
	}

	var req ResultRequest
	if err := c.bind(ctx, &req); err != nil {
		return c.HandleError(ctx, err, "Invalid result")
	}

	view, err := c.service.Upsert(ctx.Request().Context(), req.toInput(phaseID))
	if err != nil {
		return c.HandleError(ctx, err, "Failed to create result")
	}
	return ctx.JSON(http.StatusCreated, view)
}

// UpdateResult handles PUT /api/v2/results/:id
func (c *Controller) UpdateResult(ctx echo.Context) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return c.HandleError(ctx, err, "Invalid result ID")
	}

	var req ResultUpdateRequest
	if err := c.bind(ctx, &req); err != nil {
		return c.HandleError(ctx, err, "Invalid result")
	}

	in := req.toInput(req.Phase)
	in.ID = &id
	view, err := c.service.Upsert(ctx.Request().Context(), in)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to update result")
	}
	return ctx.JSON(http.StatusOK, view)
}

// GetResult handles GET /api/v2/results/:id
func (c *Controller) GetResult(ctx echo.Context) error {
	id, err := parseID(ctx, "id")
	if err != nil {
		return c.HandleError(ctx, err, "Invalid result ID")
	}

	view, err := c.service.Get(ctx.Request().Context(), id)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to get result")
	}
	return ctx.JSON(http.StatusOK, view)
}

// bind decodes and validates the request body.
func (c *Controller) bind(ctx echo.Context, dst any) error {
	if err := ctx.Bind(dst); err != nil {
		return errors.New(err).
			Component("api").
			Category(errors.CategoryValidation).
			Context(errors.ContextField, "body").
			Build()
	}
	return ctx.Validate(dst)
}

func parseID(ctx echo.Context, param string) (uint, error) {
	raw := ctx.Param(param)
	id, err := strconv.ParseUint(raw, 10, 0)
	if err != nil || id == 0 {
		return 0, errors.ValidationError(param, param+" must be a positive integer, got "+strconv.Quote(raw))
	}
	return uint(id), nil
}
