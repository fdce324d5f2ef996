package task

import (
	"greenlight/domain"
	"greenlight/domain/chain"
	"greenlight/persistence"
	"greenlight/session"

	"github.com/fundwit/go-commons/types"
)

var (
	ListMyTasksFunc        = ListMyTasks
	ListInitiatedTasksFunc = ListInitiatedTasks
	ListFinishedTasksFunc  = ListFinishedTasks
)

// ListMyTasks returns the pending inbox of an approver, due date ascending,
// ties broken by workflow creation order.
func ListMyTasks(sec *session.Context) ([]domain.Task, error) {
	tasks := []domain.Task{}
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	err := db.Where(domain.Task{UserID: sec.Identity.ID, Kind: domain.TaskKindMy}).
		Order("due_time ASC, workflow_id ASC").Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListInitiatedTasks projects the user's own workflows into inbox entries.
// The projection is derived and recomputable; it is never written back.
func ListInitiatedTasks(sec *session.Context) ([]domain.Task, error) {
	workflows := []domain.Workflow{}
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	if err := db.Where(domain.Workflow{InitiatorID: sec.Identity.ID}).
		Order("create_time DESC").Find(&workflows).Error; err != nil {
		return nil, err
	}

	chains, err := loadApproverChains(sec, workflows)
	if err != nil {
		return nil, err
	}

	tasks := make([]domain.Task, 0, len(workflows))
	for _, w := range workflows {
		tasks = append(tasks, projectInitiated(w, chains[w.ID]))
	}
	return tasks, nil
}

// ListFinishedTasks lists the user's workflows that reached a terminal state.
func ListFinishedTasks(sec *session.Context) ([]domain.Task, error) {
	workflows := []domain.Workflow{}
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	if err := db.Where(domain.Workflow{InitiatorID: sec.Identity.ID}).
		Where("status IN (?)", []domain.WorkflowStatus{domain.StatusApproved, domain.StatusRejected, domain.StatusFinished}).
		Order("update_time DESC").Find(&workflows).Error; err != nil {
		return nil, err
	}

	tasks := make([]domain.Task, 0, len(workflows))
	for _, w := range workflows {
		t := projectInitiated(w, nil)
		t.Kind = domain.TaskKindFinished
		t.Status = domain.TaskStatusCompleted
		t.Progress = 100
		t.CurrentStage = "Finished"
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func projectInitiated(w domain.Workflow, approvers []domain.Approver) domain.Task {
	t := domain.Task{
		ID: w.ID, WorkflowID: w.ID,
		UserID: w.InitiatorID, Kind: domain.TaskKindInitiated,
		Title: w.Title, InitiatorName: w.InitiatorName,
		Status:     string(w.Status),
		CreateTime: w.CreateTime,
	}
	if len(approvers) > 0 {
		t.Progress = w.CurrentStep * 100 / len(approvers)
		if current, ok := chain.CurrentApprover(approvers, w.CurrentStep); ok {
			t.CurrentStage = current.UserName
		} else {
			t.CurrentStage = "Finished"
		}
	}
	if w.Status.IsTerminal() {
		t.Progress = 100
		t.CurrentStage = "Finished"
	}
	return t
}

func loadApproverChains(sec *session.Context, workflows []domain.Workflow) (map[types.ID][]domain.Approver, error) {
	result := map[types.ID][]domain.Approver{}
	if len(workflows) == 0 {
		return result, nil
	}
	ids := make([]types.ID, 0, len(workflows))
	for _, w := range workflows {
		ids = append(ids, w.ID)
	}

	approvers := []domain.Approver{}
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	if err := db.Where("workflow_id IN (?)", ids).Order("workflow_id ASC, ord ASC").Find(&approvers).Error; err != nil {
		return nil, err
	}
	for _, a := range approvers {
		result[a.WorkflowID] = append(result[a.WorkflowID], a)
	}
	return result, nil
}
