package flow

import (
	"errors"
	"strconv"
	"time"

	"greenlight/account"
	"greenlight/bizerror"
	"greenlight/domain"
	"greenlight/domain/chain"
	"greenlight/event"
	"greenlight/idgen"
	"greenlight/persistence"
	"greenlight/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

// TaskDueWindow is advisory metadata on approver tasks, not an enforced deadline.
const TaskDueWindow = 7 * 24 * time.Hour

var (
	idWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	CreateWorkflowFunc = CreateWorkflow
	DetailWorkflowFunc = DetailWorkflow
	QueryWorkflowsFunc = QueryWorkflows
	PerformActionFunc  = PerformAction
	LoadWorkflowsFunc  = LoadWorkflows
)

func CreateWorkflow(c *WorkflowCreation, sec *session.Context) (*domain.WorkflowDetail, error) {
	if len(c.ApproverIDs) == 0 {
		return nil, bizerror.ErrEmptyApproverChain
	}

	names, err := account.QueryAccountNames(c.ApproverIDs)
	if err != nil {
		return nil, err
	}

	now := types.CurrentTimestamp()
	detail := &domain.WorkflowDetail{
		Workflow: domain.Workflow{
			ID:    idgen.NextID(idWorker),
			Title: c.Title,

			InitiatorID:   sec.Identity.ID,
			InitiatorName: sec.Identity.Name,
			Department:    c.Department,

			Status:      domain.StatusInProgress,
			CurrentStep: 0,
			NoteSheet:   c.NoteSheet,

			CreateTime: now,
			UpdateTime: now,
		},
	}

	for idx, userId := range c.ApproverIDs {
		name, found := names[userId]
		if !found {
			return nil, domain.ErrNotFound
		}
		detail.Approvers = append(detail.Approvers, domain.Approver{
			WorkflowID: detail.ID, Ord: idx, UserID: userId, UserName: name, Type: domain.ApproverTypeUser,
		})
	}

	var ev *event.EventRecord
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	err1 := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&detail.Workflow).Error; err != nil {
			return err
		}
		for i := range detail.Approvers {
			if err := tx.Create(&detail.Approvers[i]).Error; err != nil {
				return err
			}
		}

		initEvent := domain.AuditEvent{
			ID: idgen.NextID(idWorker), WorkflowID: detail.ID,
			UserID: sec.Identity.ID, UserName: sec.Identity.Name,
			Action: ActionInitiated, Timestamp: now,
		}
		if err := tx.Create(&initEvent).Error; err != nil {
			return err
		}
		detail.History = append(detail.History, initEvent)

		first := detail.Approvers[0]
		pendingTask := domain.Task{
			ID: idgen.NextID(idWorker), WorkflowID: detail.ID,
			UserID: first.UserID, Kind: domain.TaskKindMy,
			Title: detail.Title, InitiatorName: detail.InitiatorName,
			Status:  domain.TaskStatusPending,
			DueTime: types.Timestamp(now.Time().Add(TaskDueWindow)), CreateTime: now,
		}
		if err := tx.Create(&pendingTask).Error; err != nil {
			return err
		}

		var err error
		ev, err = CreateWorkflowCreatedEvent(&detail.Workflow, &sec.Identity, now, tx)
		return err
	})
	if err1 != nil {
		return nil, err1
	}

	if event.InvokeHandlersFunc != nil {
		event.InvokeHandlersFunc(ev)
	}

	return detail, nil
}

func DetailWorkflow(id types.ID, sec *session.Context) (*domain.WorkflowDetail, error) {
	detail := domain.WorkflowDetail{}
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(&domain.Workflow{ID: id}).First(&detail.Workflow).Error; err != nil {
			return err
		}
		if err := tx.Where(domain.Approver{WorkflowID: id}).Order("ord ASC").Find(&detail.Approvers).Error; err != nil {
			return err
		}
		if err := tx.Where(domain.Attachment{WorkflowID: id}).Order("create_time ASC").Find(&detail.Attachments).Error; err != nil {
			return err
		}
		return tx.Where(domain.AuditEvent{WorkflowID: id}).Order("timestamp ASC, id ASC").Find(&detail.History).Error
	})
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

func QueryWorkflows(query *domain.WorkflowQuery, sec *session.Context) (*[]domain.Workflow, error) {
	var workflows []domain.Workflow
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)

	q := db.Model(&domain.Workflow{})
	if query.Title != "" {
		q = q.Where("title like ?", "%"+query.Title+"%")
	}
	if query.Department != "" {
		q = q.Where("department = ?", query.Department)
	}
	if query.Status != "" {
		q = q.Where("status = ?", query.Status)
	}
	if !sec.Perms.HasRole(account.SystemAdminPermission.ID) {
		q = q.Where("initiator_id = ? OR id IN (SELECT workflow_id FROM workflow_approvers WHERE user_id = ?)",
			sec.Identity.ID, sec.Identity.ID)
	}
	if err := q.Order("create_time DESC").Find(&workflows).Error; err != nil {
		return nil, err
	}
	return &workflows, nil
}

// PerformAction drives the workflow state machine. The workflow row, the acting
// user's inbox and the next approver's inbox mutate in one transaction; the
// current_step guard on the UPDATE turns concurrent double-advances into
// ErrStaleWorkflow instead of lost updates.
func PerformAction(id types.ID, actionReq *WorkflowActionRequest, sec *session.Context) (*domain.WorkflowDetail, error) {
	if actionReq.Action != ActionApprove && actionReq.Action != ActionReject {
		return nil, bizerror.ErrUnknownAction
	}

	var ev *event.EventRecord
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	err1 := db.Transaction(func(tx *gorm.DB) error {
		workflow := domain.Workflow{}
		if err := tx.Where(&domain.Workflow{ID: id}).First(&workflow).Error; err != nil {
			return err
		}
		if workflow.Status != domain.StatusInProgress {
			return bizerror.ErrWorkflowEnded
		}

		var approvers []domain.Approver
		if err := tx.Where(domain.Approver{WorkflowID: id}).Order("ord ASC").Find(&approvers).Error; err != nil {
			return err
		}
		current, ok := chain.CurrentApprover(approvers, workflow.CurrentStep)
		if !ok {
			return bizerror.ErrWorkflowEnded
		}
		if current.UserID != sec.Identity.ID {
			return bizerror.ErrNotCurrentApprover
		}

		now := types.CurrentTimestamp()
		auditEvent := domain.AuditEvent{
			ID: idgen.NextID(idWorker), WorkflowID: id,
			UserID: sec.Identity.ID, UserName: sec.Identity.Name,
			Action: actionReq.Action, Comment: actionReq.Comment, Timestamp: now,
		}
		if err := tx.Create(&auditEvent).Error; err != nil {
			return err
		}

		oldStep := workflow.CurrentStep
		changes := map[string]interface{}{"update_time": now}
		if actionReq.Action == ActionReject {
			changes["status"] = domain.StatusRejected
		} else {
			changes["current_step"] = oldStep + 1
			if chain.IsFinalStep(approvers, oldStep) {
				changes["status"] = domain.StatusApproved
			}
		}

		// optimistic guard: a concurrent transition moved the step already
		q := tx.Model(&domain.Workflow{}).
			Where("id = ? AND current_step = ? AND status = ?", id, oldStep, domain.StatusInProgress).
			Update(changes)
		if err := q.Error; err != nil {
			return err
		}
		if q.RowsAffected != 1 {
			return bizerror.ErrStaleWorkflow
		}

		if err := tx.Where("workflow_id = ? AND user_id = ? AND kind = ?", id, current.UserID, domain.TaskKindMy).
			Delete(domain.Task{}).Error; err != nil {
			return err
		}

		if actionReq.Action == ActionApprove && !chain.IsFinalStep(approvers, oldStep) {
			next := approvers[oldStep+1]
			nextTask := domain.Task{
				ID: idgen.NextID(idWorker), WorkflowID: id,
				UserID: next.UserID, Kind: domain.TaskKindMy,
				Title: workflow.Title, InitiatorName: workflow.InitiatorName,
				Status:  domain.TaskStatusPending,
				DueTime: types.Timestamp(now.Time().Add(TaskDueWindow)), CreateTime: now,
			}
			if err := tx.Create(&nextTask).Error; err != nil {
				return err
			}
		}

		newStatus := workflow.Status
		if s, found := changes["status"]; found {
			newStatus = s.(domain.WorkflowStatus)
		}
		var err error
		ev, err = CreateWorkflowTransitionEvent(&workflow, []event.UpdatedProperty{
			{
				PropertyName: "Status", PropertyDesc: "Status",
				OldValue: string(workflow.Status), OldValueDesc: string(workflow.Status),
				NewValue: string(newStatus), NewValueDesc: string(newStatus),
			},
			{
				PropertyName: "CurrentStep", PropertyDesc: "CurrentStep",
				OldValue: strconv.Itoa(oldStep), OldValueDesc: strconv.Itoa(oldStep),
				NewValue: strconv.Itoa(stepAfter(actionReq.Action, oldStep)), NewValueDesc: strconv.Itoa(stepAfter(actionReq.Action, oldStep)),
			},
		}, &sec.Identity, now, tx)
		return err
	})
	if err1 != nil {
		return nil, err1
	}

	if event.InvokeHandlersFunc != nil {
		event.InvokeHandlersFunc(ev)
	}

	return DetailWorkflowFunc(id, sec)
}

func stepAfter(action string, oldStep int) int {
	if action == ActionReject {
		return oldStep
	}
	return oldStep + 1
}

// LoadWorkflows pages over all workflow records, used by the index synchronizer.
func LoadWorkflows(page, size int) ([]domain.Workflow, error) {
	workflows := []domain.Workflow{}
	db := persistence.ActiveDataSourceManager.GormDB(nil)
	offset := (page - 1) * size
	if offset < 0 {
		offset = 0
	}
	if err := db.Order("ID ASC").Offset(offset).Limit(size).Find(&workflows).Error; err != nil {
		return nil, err
	}
	return workflows, nil
}

// IsRetriableConflict tells callers whether reloading and retrying may succeed.
func IsRetriableConflict(err error) bool {
	return errors.Is(err, bizerror.ErrStaleWorkflow)
}
