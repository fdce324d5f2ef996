package domain

import (
	"github.com/fundwit/go-commons/types"
)

type WorkflowStatus string

const (
	StatusInProgress WorkflowStatus = "in-progress"
	StatusApproved   WorkflowStatus = "approved"
	StatusRejected   WorkflowStatus = "rejected"
	// reserved, not produced by any transition yet
	StatusFinished WorkflowStatus = "finished"
)

func (s WorkflowStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusFinished
}

type Workflow struct {
	ID    types.ID `json:"id" gorm:"primary_key" sql:"type:BIGINT UNSIGNED NOT NULL"`
	Title string   `json:"title"`

	InitiatorID   types.ID `json:"initiatorId"`
	InitiatorName string   `json:"initiatorName"`
	Department    string   `json:"department"`

	Status      WorkflowStatus `json:"status"`
	CurrentStep int            `json:"currentStep"`

	NoteSheet string `json:"noteSheet" sql:"type:TEXT"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
	UpdateTime types.Timestamp `json:"updateTime" sql:"type:DATETIME(6) NOT NULL"`
}

type WorkflowDetail struct {
	Workflow

	Approvers   []Approver   `json:"approvers"`
	Attachments []Attachment `json:"attachments"`
	History     []AuditEvent `json:"history"`
}

const (
	ApproverTypeUser = "user"
	ApproverTypeRole = "role"
)

// Approver is a denormalized snapshot taken at workflow creation.
// Later renames in the user directory do not touch historical workflows.
type Approver struct {
	WorkflowID types.ID `json:"workflowId" gorm:"primary_key" sql:"type:BIGINT UNSIGNED NOT NULL"`
	Ord        int      `json:"ord" gorm:"primary_key;auto_increment:false"`

	UserID   types.ID `json:"userId"`
	UserName string   `json:"userName"`
	Type     string   `json:"type"`
}

func (r *Approver) TableName() string {
	return "workflow_approvers"
}

// AuditEvent is append-only, never updated or deleted.
type AuditEvent struct {
	ID         types.ID `json:"id" gorm:"primary_key" sql:"type:BIGINT UNSIGNED NOT NULL"`
	WorkflowID types.ID `json:"workflowId" gorm:"index:idx_workflow"`

	UserID   types.ID `json:"userId"`
	UserName string   `json:"userName"`

	Action  string `json:"action"`
	Comment string `json:"comment" sql:"type:TEXT"`

	Timestamp types.Timestamp `json:"timestamp" sql:"type:DATETIME(6) NOT NULL"`
}

func (r *AuditEvent) TableName() string {
	return "workflow_history"
}

type Attachment struct {
	ID         types.ID `json:"id" gorm:"primary_key" sql:"type:BIGINT UNSIGNED NOT NULL"`
	WorkflowID types.ID `json:"workflowId" gorm:"index:idx_workflow"`

	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType"`
	ObjectKey   string `json:"-"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6) NOT NULL"`
}

func (r *Attachment) TableName() string {
	return "workflow_attachments"
}

type WorkflowQuery struct {
	Title      string         `form:"title"`
	Department string         `form:"department"`
	Status     WorkflowStatus `form:"status"`
}
