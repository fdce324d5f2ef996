package flow

import (
	"github.com/fundwit/go-commons/types"
)

type WorkflowCreation struct {
	Title      string `json:"title"      binding:"required,lte=128"`
	Department string `json:"department" binding:"required,lte=64"`
	NoteSheet  string `json:"noteSheet"  binding:"omitempty"`

	ApproverIDs []types.ID `json:"approverIds" binding:"required,min=1"`
}

const (
	ActionApprove = "approve"
	ActionReject  = "reject"

	ActionInitiated = "Initiated"
)

type WorkflowActionRequest struct {
	Action  string `json:"action" binding:"required,oneof=approve reject"`
	Comment string `json:"comment" binding:"omitempty,lte=2048"`
}
