package attachment

import (
	"io"
	"io/ioutil"

	"greenlight/bizerror"
	"greenlight/client/s3"
	"greenlight/domain"
	"greenlight/idgen"
	"greenlight/persistence"
	"greenlight/session"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sirupsen/logrus"
	"github.com/sony/sonyflake"
)

var (
	idWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	CreateAttachmentFunc = CreateAttachment
	DetailAttachmentFunc = DetailAttachment
)

func objectKey(id types.ID) string {
	return "attachments/" + id.String()
}

// CreateAttachment stores the content in the object bucket and the metadata
// row in the same workflow scope. Only the initiator of a running workflow
// may attach files.
func CreateAttachment(workflowId types.ID, name, contentType string, size int64, r io.Reader, sec *session.Context) (*domain.Attachment, error) {
	record := domain.Attachment{
		ID: idgen.NextID(idWorker), WorkflowID: workflowId,
		Name: name, Size: size, ContentType: contentType,
		CreateTime: types.CurrentTimestamp(),
	}
	record.ObjectKey = objectKey(record.ID)

	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	err := db.Transaction(func(tx *gorm.DB) error {
		workflow := domain.Workflow{}
		if err := tx.Where(&domain.Workflow{ID: workflowId}).First(&workflow).Error; err != nil {
			return err
		}
		if workflow.InitiatorID != sec.Identity.ID {
			return bizerror.ErrForbidden
		}
		if workflow.Status != domain.StatusInProgress {
			return bizerror.ErrWorkflowEnded
		}
		return tx.Create(&record).Error
	})
	if err != nil {
		return nil, err
	}

	if err := s3.PutObjectFunc(record.ObjectKey, r, sec); err != nil {
		// the metadata row must not outlive a failed upload
		if delErr := db.Delete(&domain.Attachment{ID: record.ID}).Error; delErr != nil {
			logrus.Warnf("failed to clean up attachment record %s: %v\n", record.ID, delErr)
		}
		return nil, err
	}
	return &record, nil
}

func DetailAttachment(id types.ID, sec *session.Context) (*domain.Attachment, []byte, error) {
	record := domain.Attachment{}
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	if err := db.Where(&domain.Attachment{ID: id}).First(&record).Error; err != nil {
		return nil, nil, err
	}

	r, err := s3.GetObjectFunc(objectKey(record.ID), sec)
	if err != nil {
		if serErr, ok := err.(oss.ServiceError); ok && serErr.Code == "NoSuchKey" {
			return nil, nil, domain.ErrNotFound
		}
		return nil, nil, err
	}
	defer r.Close()

	content, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, nil, err
	}
	return &record, content, nil
}
