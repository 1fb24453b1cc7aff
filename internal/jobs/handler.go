package jobs

import (
	"encoding/json"
	"errors"
	"time"

	"wms-backend/internal/clock"
	"wms-backend/internal/database"
	"wms-backend/internal/httpx"
	"wms-backend/internal/i18n"
	"wms-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TriggerRequest struct {
	JobName string `json:"job_name" validate:"required"`
}

type TriggerResponse struct {
	JobName string `json:"job_name"`
	TaskID  string `json:"task_id"`
	Message string `json:"message"`
}

type StatusResponse struct {
	TaskID string          `json:"task_id"`
	Status string          `json:"status"`
	Result json.RawMessage `json:"result"`
	Error  *string         `json:"error"`
}

type ExecutionResponse struct {
	ID             uuid.UUID        `json:"id"`
	JobName        string           `json:"job_name"`
	TaskID         string           `json:"task_id"`
	Status         models.JobStatus `json:"status"`
	StartedAt      string           `json:"started_at"`
	FinishedAt     *string          `json:"finished_at"`
	DurationSecs   *float64         `json:"duration_seconds"`
	Result         json.RawMessage  `json:"result"`
	ErrorMessage   *string          `json:"error_message"`
	ItemsProcessed *int             `json:"items_processed"`
	ItemsAffected  *int             `json:"items_affected"`
}

func rawResult(s string) json.RawMessage {
	if s == "" || !json.Valid([]byte(s)) {
		return json.RawMessage("{}")
	}
	return json.RawMessage(s)
}

func ToExecutionResponse(e *models.JobExecution) ExecutionResponse {
	r := ExecutionResponse{
		ID:             e.ID,
		JobName:        e.JobName,
		TaskID:         e.TaskID,
		Status:         e.Status,
		StartedAt:      e.StartedAt.Format(time.RFC3339),
		FinishedAt:     clock.FormatTimePtr(e.FinishedAt),
		Result:         rawResult(e.Result),
		ErrorMessage:   e.ErrorMessage,
		ItemsProcessed: e.ItemsProcessed,
		ItemsAffected:  e.ItemsAffected,
	}
	if e.FinishedAt != nil {
		d := e.FinishedAt.Sub(e.StartedAt).Seconds()
		r.DurationSecs = &d
	}
	return r
}

// taskStatus maps an execution to the task states clients poll for.
func taskStatus(s models.JobStatus) string {
	switch s {
	case models.JobRunning:
		return "STARTED"
	case models.JobSuccess:
		return "SUCCESS"
	case models.JobFailed:
		return "FAILURE"
	}
	return "PENDING"
}

// POST /api/v1/jobs/trigger
func TriggerHandler(s *Scheduler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req TriggerRequest
		if err := httpx.ParseBody(c, &req); err != nil {
			return err
		}
		taskID, err := s.Trigger(req.JobName)
		if errors.Is(err, ErrUnknownJob) {
			return fiber.NewError(fiber.StatusBadRequest, i18n.T("job_not_found"))
		}
		if errors.Is(err, ErrSchedulerStopping) {
			return fiber.NewError(fiber.StatusServiceUnavailable, i18n.T("job_scheduler_stopping"))
		}
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusAccepted).JSON(TriggerResponse{
			JobName: req.JobName,
			TaskID:  taskID,
			Message: i18n.T("job_trigger_success"),
		})
	}
}

// GET /api/v1/jobs/status/:task_id
func StatusHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		taskID := c.Params("task_id")
		var e models.JobExecution
		err := database.DB.Where("task_id = ?", taskID).Order("started_at DESC").First(&e).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(StatusResponse{TaskID: taskID, Status: "PENDING"})
		}
		if err != nil {
			return err
		}

		res := StatusResponse{TaskID: taskID, Status: taskStatus(e.Status)}
		switch e.Status {
		case models.JobSuccess:
			res.Result = rawResult(e.Result)
		case models.JobFailed:
			res.Error = e.ErrorMessage
		}
		return c.JSON(res)
	}
}

// GET /api/v1/jobs/executions
func ListExecutionsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := httpx.Pagination(c, 50, 100)
		if err != nil {
			return err
		}
		q := database.DB.Model(&models.JobExecution{})
		if name := c.Query("job_name"); name != "" {
			q = q.Where("job_name = ?", name)
		}
		if status := c.Query("status"); status != "" {
			q = q.Where("status = ?", status)
		}

		var total int64
		if err := q.Count(&total).Error; err != nil {
			return err
		}
		var list []models.JobExecution
		if err := q.Order("started_at DESC").Offset(p.Offset()).Limit(p.PageSize).Find(&list).Error; err != nil {
			return err
		}
		items := make([]ExecutionResponse, 0, len(list))
		for i := range list {
			items = append(items, ToExecutionResponse(&list[i]))
		}
		return c.JSON(httpx.NewPage(items, total, p))
	}
}

// GET /api/v1/jobs/executions/:id
func GetExecutionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamUUID(c, "id")
		if err != nil {
			return err
		}
		var e models.JobExecution
		if err := database.DB.First(&e, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, i18n.T("job_not_found"))
		}
		return c.JSON(ToExecutionResponse(&e))
	}
}
