package models

import (
	"time"

	"gorm.io/datatypes"
)

// Experiment is one recorded training/evaluation run.
type Experiment struct {
	ID                   uint           `gorm:"primaryKey" json:"id"`
	ExperimentID         string         `gorm:"uniqueIndex;size:64;not null" json:"experiment_id"`
	Name                 string         `gorm:"size:200" json:"name"`
	Algorithm            string         `gorm:"size:200" json:"algorithm"`
	Platform             string         `gorm:"size:50" json:"platform"`
	ProjectID            uint           `gorm:"index;not null" json:"project_id"`
	UserID               uint           `gorm:"index;not null" json:"user_id"`
	ModelParameters      datatypes.JSON `json:"model_parameters"`
	EvaluationParameters datatypes.JSON `json:"evaluation_parameters"`
	CreatedAt            time.Time      `gorm:"index" json:"date_created"`

	User    User    `gorm:"foreignKey:UserID" json:"-"`
	Project Project `gorm:"foreignKey:ProjectID" json:"-"`
}
