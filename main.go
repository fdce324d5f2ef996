package main

import (
	"context"
	"log"
	"net/http"

	"greenlight/account"
	"greenlight/attachment"
	"greenlight/bizerror"
	"greenlight/client/es"
	"greenlight/client/s3"
	"greenlight/domain"
	"greenlight/event"
	"greenlight/indices"
	"greenlight/indices/indexlog"
	"greenlight/infra/tracing"
	"greenlight/persistence"
	"greenlight/servehttp"
	"greenlight/session"
	"greenlight/sessions"

	"github.com/gin-gonic/gin"
)

func main() {
	log.Println("service start")

	tracingCloser := tracing.Bootstrap()
	if tracingCloser != nil {
		defer tracingCloser.Close()
	}

	dbConfig, err := persistence.ParseDatabaseConfigFromEnv()
	if err != nil {
		log.Fatalf("parse database config failed %v\n", err)
	}

	// create database (no conflict)
	if dbConfig.DriverType == "mysql" {
		if err := persistence.PrepareMysqlDatabase(dbConfig.DriverArgs); err != nil {
			log.Fatalf("failed to prepare database %v\n", err)
		}
	}

	// connect database
	ds := &persistence.DataSourceManager{DatabaseConfig: dbConfig}
	if err := ds.Start(); err != nil {
		log.Fatalf("database connection failed %v\n", err)
	}
	defer ds.Stop()
	persistence.ActiveDataSourceManager = ds

	// database migration (race condition)
	err = ds.GormDB(context.Background()).AutoMigrate(
		&domain.Workflow{}, &domain.Approver{}, &domain.AuditEvent{}, &domain.Attachment{}, &domain.Task{},
		&account.User{}, &account.Role{}, &account.Permission{},
		&account.RolePermissionBinding{}, &account.UserRoleBinding{},
		&event.EventRecord{}, &indexlog.IndexLogRecord{}).Error
	if err != nil {
		log.Fatalf("database migration failed %v\n", err)
	}

	if err := account.DefaultSecurityConfiguration(); err != nil {
		log.Fatalf("security configuration failed %v\n", err)
	}

	es.CreateClientFromEnv()
	s3.Bootstrap()

	event.EventHandlers = append(event.EventHandlers, indices.HandleWorkflowEvent)
	indices.StartCron()
	indices.StartIndexLogRecovery(context.Background())

	engine := gin.Default()
	engine.Use(bizerror.ErrorHandling(), tracing.TracingIngress())
	engine.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "greenlight")
	})

	sessions.RegisterSessionsHandler(engine)
	engine.GET("/v1/session-users/me", session.SimpleAuthFilter(), account.UserInfoQueryHandler)
	account.RegisterUsersHandler(engine, session.SimpleAuthFilter())
	servehttp.RegisterWorkflowHandler(engine, session.SimpleAuthFilter())
	servehttp.RegisterTaskHandler(engine, session.SimpleAuthFilter())
	servehttp.RegisterSearchHandler(engine, session.SimpleAuthFilter())
	attachment.RegisterAttachmentsRestAPI(engine, session.SimpleAuthFilter())
	indices.RegisterIndicesRestAPI(engine, session.SimpleAuthFilter())

	err = engine.Run(":80")
	if err != nil {
		panic(err)
	}
}
