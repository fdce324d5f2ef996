package flow

import (
	"greenlight/domain"
	"greenlight/event"
	"greenlight/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

const EventSourceTypeWorkflow = "WORKFLOW"

func CreateWorkflowCreatedEvent(w *domain.Workflow, identity *session.Identity, timestamp types.Timestamp, db *gorm.DB) (*event.EventRecord, error) {
	return event.CreateEvent(EventSourceTypeWorkflow, w.ID, w.Title, event.EventCategoryCreated, nil, identity, timestamp, db)
}

func CreateWorkflowTransitionEvent(w *domain.Workflow, updates []event.UpdatedProperty, identity *session.Identity, timestamp types.Timestamp, db *gorm.DB) (*event.EventRecord, error) {
	return event.CreateEvent(EventSourceTypeWorkflow, w.ID, w.Title, event.EventCategoryPropertyUpdated, updates, identity, timestamp, db)
}
