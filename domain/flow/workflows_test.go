package flow_test

import (
	"context"
	"testing"

	"greenlight/account"
	"greenlight/bizerror"
	"greenlight/domain"
	"greenlight/domain/flow"
	"greenlight/event"
	"greenlight/persistence"
	"greenlight/testinfra"

	"github.com/fundwit/go-commons/types"
	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/assert"
)

func setup(t *testing.T, testDatabase **testinfra.TestDatabase) {
	db := testinfra.StartMysqlTestDatabase("greenlight")
	assert.Nil(t, db.DS.GormDB(context.Background()).AutoMigrate(
		&domain.Workflow{}, &domain.Approver{}, &domain.AuditEvent{}, &domain.Attachment{}, &domain.Task{},
		&account.User{}, &event.EventRecord{}).Error)
	persistence.ActiveDataSourceManager = db.DS
	*testDatabase = db

	assert.Nil(t, db.DS.GormDB(context.Background()).Create(
		&account.User{ID: 10, Name: "ann", Nickname: "Ann", Department: "finance"}).Error)
	assert.Nil(t, db.DS.GormDB(context.Background()).Create(
		&account.User{ID: 20, Name: "ben", Nickname: "Ben", Department: "finance"}).Error)
	assert.Nil(t, db.DS.GormDB(context.Background()).Create(
		&account.User{ID: 30, Name: "cid", Nickname: "", Department: "audit"}).Error)
}

func teardown(t *testing.T, testDatabase *testinfra.TestDatabase) {
	if testDatabase != nil {
		testinfra.StopMysqlTestDatabase(testDatabase)
	}
}

var creationDemo = &flow.WorkflowCreation{Title: "office chairs", Department: "finance",
	NoteSheet: "ten chairs for the finance floor", ApproverIDs: []types.ID{10, 20, 30}}

func TestCreateWorkflow(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should reject an empty approver chain", func(t *testing.T) {
		detail, err := flow.CreateWorkflow(
			&flow.WorkflowCreation{Title: "office chairs", Department: "finance"}, testinfra.BuildSecCtx(100))
		Expect(detail).To(BeNil())
		Expect(err).To(Equal(bizerror.ErrEmptyApproverChain))
	})

	t.Run("should reject unknown approvers", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		detail, err := flow.CreateWorkflow(
			&flow.WorkflowCreation{Title: "office chairs", Department: "finance", ApproverIDs: []types.ID{10, 404}},
			testinfra.BuildSecCtx(100))
		Expect(detail).To(BeNil())
		Expect(err).To(Equal(domain.ErrNotFound))
	})

	t.Run("should persist workflow, approver chain, history and first pending task atomically", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		detail, err := flow.CreateWorkflow(creationDemo, testinfra.BuildSecCtx(100))
		Expect(err).To(BeNil())
		Expect(detail.ID).ToNot(BeZero())
		Expect(detail.Title).To(Equal("office chairs"))
		Expect(detail.InitiatorID).To(Equal(types.ID(100)))
		Expect(detail.Status).To(Equal(domain.StatusInProgress))
		Expect(detail.CurrentStep).To(Equal(0))
		Expect(detail.CreateTime).ToNot(BeZero())

		// names are snapshotted from the directory at creation time
		Expect(len(detail.Approvers)).To(Equal(3))
		Expect(detail.Approvers[0]).To(Equal(domain.Approver{WorkflowID: detail.ID, Ord: 0,
			UserID: 10, UserName: "Ann", Type: domain.ApproverTypeUser}))
		Expect(detail.Approvers[1].UserName).To(Equal("Ben"))
		Expect(detail.Approvers[2].UserName).To(Equal("cid"))

		Expect(len(detail.History)).To(Equal(1))
		Expect(detail.History[0].Action).To(Equal(flow.ActionInitiated))
		Expect(detail.History[0].UserID).To(Equal(types.ID(100)))

		db := testDatabase.DS.GormDB(context.Background())
		var tasks []domain.Task
		Expect(db.Where(domain.Task{WorkflowID: detail.ID}).Find(&tasks).Error).To(BeNil())
		Expect(len(tasks)).To(Equal(1))
		Expect(tasks[0].UserID).To(Equal(types.ID(10)))
		Expect(tasks[0].Kind).To(Equal(domain.TaskKindMy))
		Expect(tasks[0].Status).To(Equal(domain.TaskStatusPending))
		Expect(tasks[0].DueTime.Time().Sub(tasks[0].CreateTime.Time())).To(Equal(flow.TaskDueWindow))

		var events []event.EventRecord
		Expect(db.Find(&events).Error).To(BeNil())
		Expect(len(events)).To(Equal(1))
		Expect(events[0].SourceType).To(Equal(flow.EventSourceTypeWorkflow))
		Expect(events[0].SourceId).To(Equal(detail.ID))
		Expect(string(events[0].EventCategory)).To(Equal(event.EventCategoryCreated))
	})
}

func TestDetailWorkflow(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should round trip a created workflow", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		created, err := flow.CreateWorkflow(creationDemo, testinfra.BuildSecCtx(100))
		Expect(err).To(BeNil())

		detail, err := flow.DetailWorkflow(created.ID, testinfra.BuildSecCtx(100))
		Expect(err).To(BeNil())
		Expect(detail.Workflow).To(Equal(created.Workflow))
		Expect(detail.Approvers).To(Equal(created.Approvers))
		Expect(len(detail.History)).To(Equal(1))
		Expect(detail.Attachments).To(BeEmpty())
	})

	t.Run("should propagate record not found", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		detail, err := flow.DetailWorkflow(404, testinfra.BuildSecCtx(100))
		Expect(detail).To(BeNil())
		Expect(err).ToNot(BeNil())
	})
}

func TestQueryWorkflows(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should limit visibility to initiators, approvers and admins", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		w1, err := flow.CreateWorkflow(
			&flow.WorkflowCreation{Title: "chairs", Department: "finance", ApproverIDs: []types.ID{10, 20}},
			testinfra.BuildSecCtx(100))
		Expect(err).To(BeNil())
		_, err = flow.CreateWorkflow(
			&flow.WorkflowCreation{Title: "laptops", Department: "audit", ApproverIDs: []types.ID{30}},
			testinfra.BuildSecCtx(200))
		Expect(err).To(BeNil())

		// initiator sees own workflow only
		flows, err := flow.QueryWorkflows(&domain.WorkflowQuery{}, testinfra.BuildSecCtx(100))
		Expect(err).To(BeNil())
		Expect(len(*flows)).To(Equal(1))
		Expect((*flows)[0].ID).To(Equal(w1.ID))

		// approver sees workflows waiting on any step of theirs
		flows, err = flow.QueryWorkflows(&domain.WorkflowQuery{}, testinfra.BuildSecCtx(20))
		Expect(err).To(BeNil())
		Expect(len(*flows)).To(Equal(1))
		Expect((*flows)[0].ID).To(Equal(w1.ID))

		// a stranger sees nothing
		flows, err = flow.QueryWorkflows(&domain.WorkflowQuery{}, testinfra.BuildSecCtx(999))
		Expect(err).To(BeNil())
		Expect(len(*flows)).To(Equal(0))

		// admin sees everything
		flows, err = flow.QueryWorkflows(&domain.WorkflowQuery{}, testinfra.BuildSecCtx(1, account.SystemAdminPermission.ID))
		Expect(err).To(BeNil())
		Expect(len(*flows)).To(Equal(2))
	})

	t.Run("should filter by title, department and status", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		_, err := flow.CreateWorkflow(
			&flow.WorkflowCreation{Title: "office chairs", Department: "finance", ApproverIDs: []types.ID{10}},
			testinfra.BuildSecCtx(100))
		Expect(err).To(BeNil())
		_, err = flow.CreateWorkflow(
			&flow.WorkflowCreation{Title: "office laptops", Department: "audit", ApproverIDs: []types.ID{10}},
			testinfra.BuildSecCtx(100))
		Expect(err).To(BeNil())

		flows, err := flow.QueryWorkflows(&domain.WorkflowQuery{Title: "chairs"}, testinfra.BuildSecCtx(100))
		Expect(err).To(BeNil())
		Expect(len(*flows)).To(Equal(1))
		Expect((*flows)[0].Title).To(Equal("office chairs"))

		flows, err = flow.QueryWorkflows(&domain.WorkflowQuery{Department: "audit"}, testinfra.BuildSecCtx(100))
		Expect(err).To(BeNil())
		Expect(len(*flows)).To(Equal(1))
		Expect((*flows)[0].Department).To(Equal("audit"))

		flows, err = flow.QueryWorkflows(&domain.WorkflowQuery{Status: domain.StatusApproved}, testinfra.BuildSecCtx(100))
		Expect(err).To(BeNil())
		Expect(len(*flows)).To(Equal(0))

		flows, err = flow.QueryWorkflows(&domain.WorkflowQuery{Status: domain.StatusInProgress}, testinfra.BuildSecCtx(100))
		Expect(err).To(BeNil())
		Expect(len(*flows)).To(Equal(2))
	})
}

func TestPerformAction(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should refuse unknown actions", func(t *testing.T) {
		detail, err := flow.PerformAction(1, &flow.WorkflowActionRequest{Action: "escalate"}, testinfra.BuildSecCtx(10))
		Expect(detail).To(BeNil())
		Expect(err).To(Equal(bizerror.ErrUnknownAction))
	})

	t.Run("should refuse actions from anyone but the current approver", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		created, err := flow.CreateWorkflow(creationDemo, testinfra.BuildSecCtx(100))
		Expect(err).To(BeNil())

		// the second approver is not up yet
		_, err = flow.PerformAction(created.ID, &flow.WorkflowActionRequest{Action: flow.ActionApprove}, testinfra.BuildSecCtx(20))
		Expect(err).To(Equal(bizerror.ErrNotCurrentApprover))

		// neither is the initiator
		_, err = flow.PerformAction(created.ID, &flow.WorkflowActionRequest{Action: flow.ActionApprove}, testinfra.BuildSecCtx(100))
		Expect(err).To(Equal(bizerror.ErrNotCurrentApprover))
	})

	t.Run("should advance the chain and move the pending task on intermediate approval", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		created, err := flow.CreateWorkflow(creationDemo, testinfra.BuildSecCtx(100))
		Expect(err).To(BeNil())

		detail, err := flow.PerformAction(created.ID,
			&flow.WorkflowActionRequest{Action: flow.ActionApprove, Comment: "looks fine"}, testinfra.BuildSecCtx(10))
		Expect(err).To(BeNil())
		Expect(detail.Status).To(Equal(domain.StatusInProgress))
		Expect(detail.CurrentStep).To(Equal(1))

		Expect(len(detail.History)).To(Equal(2))
		Expect(detail.History[1].Action).To(Equal(flow.ActionApprove))
		Expect(detail.History[1].Comment).To(Equal("looks fine"))
		Expect(detail.History[1].UserID).To(Equal(types.ID(10)))

		db := testDatabase.DS.GormDB(context.Background())
		var tasks []domain.Task
		Expect(db.Where(domain.Task{WorkflowID: created.ID, Kind: domain.TaskKindMy}).Find(&tasks).Error).To(BeNil())
		Expect(len(tasks)).To(Equal(1))
		Expect(tasks[0].UserID).To(Equal(types.ID(20)))
	})

	t.Run("should approve the workflow when the last approver approves", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		created, err := flow.CreateWorkflow(
			&flow.WorkflowCreation{Title: "one step", Department: "finance", ApproverIDs: []types.ID{10}},
			testinfra.BuildSecCtx(100))
		Expect(err).To(BeNil())

		detail, err := flow.PerformAction(created.ID,
			&flow.WorkflowActionRequest{Action: flow.ActionApprove}, testinfra.BuildSecCtx(10))
		Expect(err).To(BeNil())
		Expect(detail.Status).To(Equal(domain.StatusApproved))
		Expect(detail.CurrentStep).To(Equal(len(detail.Approvers)))

		// no pending inbox entry survives the final decision
		db := testDatabase.DS.GormDB(context.Background())
		var tasks []domain.Task
		Expect(db.Where(domain.Task{WorkflowID: created.ID, Kind: domain.TaskKindMy}).Find(&tasks).Error).To(BeNil())
		Expect(len(tasks)).To(Equal(0))
	})

	t.Run("should terminate the workflow on rejection and never reach later approvers", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		created, err := flow.CreateWorkflow(creationDemo, testinfra.BuildSecCtx(100))
		Expect(err).To(BeNil())

		detail, err := flow.PerformAction(created.ID,
			&flow.WorkflowActionRequest{Action: flow.ActionReject, Comment: "over budget"}, testinfra.BuildSecCtx(10))
		Expect(err).To(BeNil())
		Expect(detail.Status).To(Equal(domain.StatusRejected))
		Expect(detail.CurrentStep).To(Equal(0))

		db := testDatabase.DS.GormDB(context.Background())
		var tasks []domain.Task
		Expect(db.Where(domain.Task{WorkflowID: created.ID, Kind: domain.TaskKindMy}).Find(&tasks).Error).To(BeNil())
		Expect(len(tasks)).To(Equal(0))

		// terminal workflows accept no further actions
		_, err = flow.PerformAction(created.ID,
			&flow.WorkflowActionRequest{Action: flow.ActionApprove}, testinfra.BuildSecCtx(20))
		Expect(err).To(Equal(bizerror.ErrWorkflowEnded))

		// and the rejection left exactly one decision in the history
		reloaded, err := flow.DetailWorkflow(created.ID, testinfra.BuildSecCtx(100))
		Expect(err).To(BeNil())
		Expect(len(reloaded.History)).To(Equal(2))
	})

	t.Run("should record history append-only across a full approval run", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		created, err := flow.CreateWorkflow(
			&flow.WorkflowCreation{Title: "two steps", Department: "finance", ApproverIDs: []types.ID{10, 20}},
			testinfra.BuildSecCtx(100))
		Expect(err).To(BeNil())

		_, err = flow.PerformAction(created.ID, &flow.WorkflowActionRequest{Action: flow.ActionApprove}, testinfra.BuildSecCtx(10))
		Expect(err).To(BeNil())
		detail, err := flow.PerformAction(created.ID, &flow.WorkflowActionRequest{Action: flow.ActionApprove}, testinfra.BuildSecCtx(20))
		Expect(err).To(BeNil())

		Expect(detail.Status).To(Equal(domain.StatusApproved))
		Expect(len(detail.History)).To(Equal(3))
		Expect(detail.History[0].Action).To(Equal(flow.ActionInitiated))
		Expect(detail.History[1].UserName).To(Equal("user_10"))
		Expect(detail.History[2].UserName).To(Equal("user_20"))
	})
}

func TestLoadWorkflows(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should page over all workflows in id order", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		for i := 0; i < 3; i++ {
			_, err := flow.CreateWorkflow(
				&flow.WorkflowCreation{Title: "batch", Department: "finance", ApproverIDs: []types.ID{10}},
				testinfra.BuildSecCtx(100))
			Expect(err).To(BeNil())
		}

		page1, err := flow.LoadWorkflows(1, 2)
		Expect(err).To(BeNil())
		Expect(len(page1)).To(Equal(2))

		page2, err := flow.LoadWorkflows(2, 2)
		Expect(err).To(BeNil())
		Expect(len(page2)).To(Equal(1))
		Expect(page2[0].ID > page1[1].ID).To(BeTrue())
	})
}

func TestIsRetriableConflict(t *testing.T) {
	RegisterTestingT(t)

	Expect(flow.IsRetriableConflict(bizerror.ErrStaleWorkflow)).To(BeTrue())
	Expect(flow.IsRetriableConflict(bizerror.ErrWorkflowEnded)).To(BeFalse())
	Expect(flow.IsRetriableConflict(nil)).To(BeFalse())
}
