package servehttp

import (
	"net/http"

	"greenlight/domain"
	"greenlight/indices/search"
	"greenlight/session"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

func RegisterSearchHandler(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group("/v1/workflow-search", middleWares...)
	g.GET("", handleSearchWorkflows)
}

func handleSearchWorkflows(c *gin.Context) {
	query := domain.WorkflowQuery{}
	_ = c.MustBindWith(&query, binding.Query)

	docs, err := search.SearchWorkflowsFunc(query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, docs)
}
