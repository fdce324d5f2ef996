package indices

import (
	"context"
	"fmt"
	"sync"

	"greenlight/account"
	"greenlight/authority"
	"greenlight/bizerror"
	"greenlight/domain"
	"greenlight/domain/flow"
	"greenlight/event"
	"greenlight/idgen"
	"greenlight/indices/indexlog"
	"greenlight/persistence"
	"greenlight/session"

	"github.com/fundwit/go-commons/types"
	"github.com/sirupsen/logrus"
	"github.com/sony/sonyflake"
)

var (
	WorkflowIndexEventHandlerName = "workflowIndexer"

	indexRobot = &session.Context{
		Context:  context.Background(),
		Identity: session.Identity{ID: 10, Name: "index-robot"},
		Perms:    authority.Permissions{account.SystemAdminPermission.ID},
	}

	indexLogIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	lock    sync.Mutex
	running bool

	IndicesFullSyncFunc    = IndicesFullSync
	ScheduleNewSyncRunFunc = ScheduleNewSyncRun
)

// HandleWorkflowEvent records an index log for every workflow event, then
// tries to index directly. Failed attempts are retried by the recovery loop.
func HandleWorkflowEvent(record *event.EventRecord) *event.EventHandleResult {
	if record == nil || record.SourceType != flow.EventSourceTypeWorkflow {
		return nil
	}

	logRecord, err := indexlog.CreateIndexLogFunc(idgen.NextID(indexLogIdWorker), record.SourceType,
		record.SourceId, record.SourceDesc, record.Timestamp,
		persistence.ActiveDataSourceManager.GormDB(context.Background()))
	if err != nil {
		return &event.EventHandleResult{Success: false, Message: err.Error(), HandlerIdentifier: WorkflowIndexEventHandlerName}
	}

	if err := indexWorkflow(record.SourceId); err != nil {
		return &event.EventHandleResult{Success: false, Message: err.Error(), HandlerIdentifier: WorkflowIndexEventHandlerName}
	}

	if err := indexlog.FinishIndexLogFunc(logRecord.ID); err != nil {
		return &event.EventHandleResult{Success: false, Message: err.Error(), HandlerIdentifier: WorkflowIndexEventHandlerName}
	}
	return &event.EventHandleResult{Success: true, HandlerIdentifier: WorkflowIndexEventHandlerName}
}

func indexWorkflow(id types.ID) error {
	workflow := domain.Workflow{}
	db := persistence.ActiveDataSourceManager.GormDB(context.Background())
	if err := db.Where(&domain.Workflow{ID: id}).First(&workflow).Error; err != nil {
		return err
	}
	return IndexWorkflowsFunc([]domain.Workflow{workflow})
}

func ScheduleNewSyncRun(sec *session.Context) (bool, error) {
	if !sec.Perms.HasRole(account.SystemAdminPermission.ID) {
		return false, bizerror.ErrForbidden
	}

	lock.Lock()
	if running {
		lock.Unlock()
		return false, nil
	}
	running = true
	lock.Unlock()

	waitRunning := sync.WaitGroup{}
	waitRunning.Add(1)
	go func() {
		waitRunning.Done()
		defer func() {
			lock.Lock()
			running = false
			lock.Unlock()
		}()
		IndicesFullSyncFunc()
	}()
	waitRunning.Wait()
	return true, nil
}

var (
	SyncBatchSize = 500
)

func IndicesFullSync() (err error) {
	defer func() {
		if ret := recover(); ret != nil {
			e, ok := ret.(error)
			if ok {
				err = e
			} else {
				err = fmt.Errorf("error on indices full sync: %v", ret)
			}
		}
	}()

	page := 1
	for {
		workflows, err := flow.LoadWorkflowsFunc(page, SyncBatchSize)
		if err != nil {
			logrus.Warnf("indices fully sync: error on retrieve workflows(page = %d, pageSize = %d): %v", page, SyncBatchSize, err)
			return err
		}
		if len(workflows) == 0 {
			logrus.Infof("indices fully sync: there are no more workflows to index")
			return nil
		}

		if err := IndexWorkflowsFunc(workflows); err != nil {
			logrus.Warnf("indices fully sync: %v", err)
		}
		page++
	}
}
