package event_test

import (
	"testing"
	"time"

	"greenlight/event"

	"github.com/fundwit/go-commons/types"
	. "github.com/onsi/gomega"
)

func TestInvokeHandlers(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should invoke every registered handler and collect results", func(t *testing.T) {
		defer func() { event.EventHandlers = nil }()

		var seen []string
		event.EventHandlers = []event.EventHandler{
			func(e *event.EventRecord) *event.EventHandleResult {
				seen = append(seen, "first")
				return &event.EventHandleResult{Success: true, HandlerIdentifier: "first"}
			},
			func(e *event.EventRecord) *event.EventHandleResult {
				seen = append(seen, "skipped")
				return nil
			},
			func(e *event.EventRecord) *event.EventHandleResult {
				seen = append(seen, "second")
				return &event.EventHandleResult{Success: false, Message: "boom", HandlerIdentifier: "second"}
			},
		}

		record := &event.EventRecord{
			Event: event.Event{SourceType: "WORKFLOW", SourceId: types.ID(10),
				EventCategory: event.EventCategoryCreated},
			Timestamp: types.TimestampOfDate(2021, 1, 1, 12, 12, 12, 0, time.Local),
		}
		results := event.InvokeHandlersFunc(record)

		Expect(seen).To(Equal([]string{"first", "skipped", "second"}))
		Expect(results).To(Equal([]event.EventHandleResult{
			{Success: true, HandlerIdentifier: "first"},
			{Success: false, Message: "boom", HandlerIdentifier: "second"},
		}))
	})

	t.Run("should return empty result set without handlers", func(t *testing.T) {
		event.EventHandlers = nil
		results := event.InvokeHandlersFunc(&event.EventRecord{})
		Expect(results).To(Equal([]event.EventHandleResult{}))
	})
}
