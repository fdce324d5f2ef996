package servehttp_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"greenlight/bizerror"
	"greenlight/domain"
	"greenlight/indices"
	"greenlight/indices/search"
	"greenlight/servehttp"
	"greenlight/session"
	"greenlight/testinfra"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	. "github.com/onsi/gomega"
)

func TestSearchWorkflowsRestAPI(t *testing.T) {
	RegisterTestingT(t)

	router := gin.Default()
	router.Use(bizerror.ErrorHandling())
	servehttp.RegisterSearchHandler(router)

	t.Run("should return matched workflow documents", func(t *testing.T) {
		var received domain.WorkflowQuery
		search.SearchWorkflowsFunc = func(q domain.WorkflowQuery, s *session.Context) ([]indices.WorkflowDocument, error) {
			received = q
			return []indices.WorkflowDocument{{Workflow: domain.Workflow{ID: types.ID(10), Title: "office chairs",
				Department: "finance", Status: domain.StatusInProgress}}}, nil
		}

		req := httptest.NewRequest(http.MethodGet, "/v1/workflow-search?title=chairs&department=finance", nil)
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusOK))
		Expect(received.Title).To(Equal("chairs"))
		Expect(received.Department).To(Equal("finance"))
		Expect(body).To(ContainSubstring(`"title":"office chairs"`))
	})

	t.Run("should be able to handle errors", func(t *testing.T) {
		search.SearchWorkflowsFunc = func(q domain.WorkflowQuery, s *session.Context) ([]indices.WorkflowDocument, error) {
			return nil, errors.New("a mocked error")
		}
		req := httptest.NewRequest(http.MethodGet, "/v1/workflow-search", nil)
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusInternalServerError))
		Expect(body).To(MatchJSON(`{"code":"common.internal_server_error","message":"a mocked error","data":null}`))
	})
}
