package domain

import (
	"github.com/fundwit/go-commons/types"
)

type TaskKind string

const (
	TaskKindMy        TaskKind = "My"
	TaskKindInitiated TaskKind = "Initiated"
	TaskKindPooled    TaskKind = "Pooled"
	TaskKindFinished  TaskKind = "Finished"
)

const (
	TaskStatusPending   = "pending"
	TaskStatusApproved  = "approved"
	TaskStatusRejected  = "rejected"
	TaskStatusCompleted = "completed"
)

// Task is a per-user inbox entry pointing at a workflow. Only pending "My"
// entries are persisted; the initiated and finished views are projections
// recomputed from the workflow set. The (UserID, Kind) pair is the inbox key.
type Task struct {
	ID         types.ID `json:"id" gorm:"primary_key" sql:"type:BIGINT UNSIGNED NOT NULL"`
	WorkflowID types.ID `json:"workflowId" gorm:"index:idx_inbox_workflow"`

	UserID types.ID `json:"userId" gorm:"index:idx_inbox"`
	Kind   TaskKind `json:"taskType" gorm:"index:idx_inbox"`

	Title         string `json:"title"`
	InitiatorName string `json:"initiatorName"`
	Status        string `json:"status"`

	Progress     int    `json:"progress,omitempty" gorm:"-"`
	CurrentStage string `json:"currentStage,omitempty" gorm:"-"`

	DueTime    types.Timestamp `json:"dueTime" sql:"type:DATETIME(6)"`
	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
}

func (r *Task) TableName() string {
	return "tasks"
}
