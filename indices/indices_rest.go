package indices

import (
	"net/http"

	"greenlight/client/es"
	"greenlight/session"

	"github.com/gin-gonic/gin"
)

var (
	PathIndexRequests = "/v1/index-requests"
)

func RegisterIndicesRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathIndexRequests, middleWares...)
	g.POST("", handleIndexRequest)
}

func handleIndexRequest(c *gin.Context) {
	sec := session.ExtractSessionFromGinContext(c)

	if c.Query("rebuild") == "true" {
		if err := es.DropIndexFunc(WorkflowIndexName, sec); err != nil {
			panic(err)
		}
	}

	success, err := ScheduleNewSyncRunFunc(sec)
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, gin.H{"result": success})
}
