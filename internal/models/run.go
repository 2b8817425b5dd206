package models

import "time"

// Run is one persisted pipeline step execution.
type Run struct {
	ID         string    `gorm:"column:id;primaryKey" json:"id"`
	Step       string    `gorm:"column:step" json:"step"`
	Period     string    `gorm:"column:period" json:"period"`
	Status     string    `gorm:"column:status" json:"status"`
	Message    string    `gorm:"column:message" json:"message"`
	Files      int       `gorm:"column:files;type:Int32" json:"files"`
	StartedAt  time.Time `gorm:"column:started_at;type:DateTime('America/Bogota')" json:"started_at"`
	FinishedAt time.Time `gorm:"column:finished_at;type:DateTime('America/Bogota')" json:"finished_at"`
}

func (Run) TableName() string {
	return "pipeline_runs"
}

func (Run) TableOptions() string {
	return "ENGINE = ReplacingMergeTree() ORDER BY (started_at, id)"
}
