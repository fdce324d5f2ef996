package attachment

import (
	"net/http"

	"greenlight/misc"
	"greenlight/session"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
)

func RegisterAttachmentsRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group("/v1", middleWares...)
	g.POST("workflows/:id/attachments", handleCreateAttachment)
	g.GET("attachments/:id", handleDetailAttachment)
}

func handleCreateAttachment(c *gin.Context) {
	workflowId, err := types.ParseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, &misc.ErrorBody{Code: "common.bad_param", Message: "invalid id '" + c.Param("id") + "'"})
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		panic(err)
	}
	src, err := file.Open()
	if err != nil {
		panic(err)
	}
	defer src.Close()

	record, err := CreateAttachmentFunc(workflowId, file.Filename, file.Header.Get("Content-Type"), file.Size,
		src, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, record)
}

func handleDetailAttachment(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, &misc.ErrorBody{Code: "common.bad_param", Message: "invalid id '" + c.Param("id") + "'"})
		return
	}

	record, content, err := DetailAttachmentFunc(id, session.ExtractSessionFromGinContext(c))
	if err != nil {
		panic(err)
	}

	c.Header("Content-Disposition", `attachment; filename="`+record.Name+`"`)
	c.Data(http.StatusOK, record.ContentType, content)
}
