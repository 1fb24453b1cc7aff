package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type JobStatus string

const (
	JobRunning JobStatus = "running"
	JobSuccess JobStatus = "success"
	JobFailed  JobStatus = "failed"
)

type JobExecution struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	JobName        string    `gorm:"size:100;not null;index"`
	TaskID         string    `gorm:"size:64;index"`
	Status         JobStatus `gorm:"size:20;not null;default:running;index"`
	StartedAt      time.Time `gorm:"not null;index"`
	FinishedAt     *time.Time
	Result         string `gorm:"type:jsonb"`
	ErrorMessage   *string `gorm:"type:text"`
	ItemsProcessed *int
	ItemsAffected  *int
}

func (j *JobExecution) BeforeCreate(tx *gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	return nil
}
