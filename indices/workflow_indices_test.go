package indices_test

import (
	"errors"
	"testing"

	"greenlight/client/es"
	"greenlight/domain"
	"greenlight/indices"
	"greenlight/session"

	"github.com/fundwit/go-commons/types"
	. "github.com/onsi/gomega"
)

func TestIndexWorkflows(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should index every workflow as a document", func(t *testing.T) {
		indexedIds := []types.ID{}
		es.IndexFunc = func(index string, id types.ID, doc interface{}, s *session.Context) error {
			Expect(index).To(Equal(indices.WorkflowIndexName))
			indexedIds = append(indexedIds, id)
			return nil
		}

		err := indices.IndexWorkflows([]domain.Workflow{{ID: 10, Title: "chairs"}, {ID: 20, Title: "laptops"}})
		Expect(err).To(BeNil())
		Expect(indexedIds).To(Equal([]types.ID{10, 20}))
	})

	t.Run("should collect per-document failures", func(t *testing.T) {
		es.IndexFunc = func(index string, id types.ID, doc interface{}, s *session.Context) error {
			if id == 20 {
				return errors.New("a mocked error")
			}
			return nil
		}

		err := indices.IndexWorkflows([]domain.Workflow{{ID: 10}, {ID: 20}, {ID: 30}})
		Expect(err).ToNot(BeNil())

		batchErr, ok := err.(indices.BatchActionError)
		Expect(ok).To(BeTrue())
		Expect(len(batchErr)).To(Equal(1))
		Expect(batchErr[20].Error()).To(Equal("a mocked error"))
	})
}
