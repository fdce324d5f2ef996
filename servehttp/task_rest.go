package servehttp

import (
	"net/http"

	"greenlight/domain/task"
	"greenlight/session"

	"github.com/gin-gonic/gin"
)

func RegisterTaskHandler(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group("/v1", middleWares...)

	g.GET("my-tasks", handleListMyTasks)
	g.GET("initiated-tasks", handleListInitiatedTasks)
	g.GET("finished-tasks", handleListFinishedTasks)
}

func handleListMyTasks(c *gin.Context) {
	tasks, err := task.ListMyTasksFunc(session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, tasks)
}

func handleListInitiatedTasks(c *gin.Context) {
	tasks, err := task.ListInitiatedTasksFunc(session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, tasks)
}

func handleListFinishedTasks(c *gin.Context) {
	tasks, err := task.ListFinishedTasksFunc(session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, tasks)
}
