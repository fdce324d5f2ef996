package persistence_test

import (
	"os"
	"testing"

	"greenlight/persistence"

	. "github.com/onsi/gomega"
)

func TestParseDatabaseConfigFromEnv(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should fail without DATABASE_ARGS", func(t *testing.T) {
		os.Unsetenv("DATABASE_ARGS")
		os.Unsetenv("DATABASE_DRIVER")
		config, err := persistence.ParseDatabaseConfigFromEnv()
		Expect(config).To(BeNil())
		Expect(err).ToNot(BeNil())
	})

	t.Run("should default to the mysql driver", func(t *testing.T) {
		os.Setenv("DATABASE_ARGS", "root:root@(127.0.0.1:3306)/greenlight?charset=utf8mb4")
		os.Unsetenv("DATABASE_DRIVER")
		defer os.Unsetenv("DATABASE_ARGS")

		config, err := persistence.ParseDatabaseConfigFromEnv()
		Expect(err).To(BeNil())
		Expect(config.DriverType).To(Equal("mysql"))
		Expect(config.DriverArgs).To(Equal("root:root@(127.0.0.1:3306)/greenlight?charset=utf8mb4"))
	})

	t.Run("should expand environment variables inside DATABASE_ARGS", func(t *testing.T) {
		os.Setenv("MYSQL_HOST", "db.example.test")
		os.Setenv("DATABASE_ARGS", "root:root@(${MYSQL_HOST}:3306)/greenlight")
		defer os.Unsetenv("DATABASE_ARGS")
		defer os.Unsetenv("MYSQL_HOST")

		config, err := persistence.ParseDatabaseConfigFromEnv()
		Expect(err).To(BeNil())
		Expect(config.DriverArgs).To(Equal("root:root@(db.example.test:3306)/greenlight"))
	})
}

func TestPrepareMysqlDatabase(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should reject driver args without a database name", func(t *testing.T) {
		Expect(persistence.PrepareMysqlDatabase("root:root@tcp")).ToNot(BeNil())
		Expect(persistence.PrepareMysqlDatabase("root:root@(127.0.0.1:3306)/")).ToNot(BeNil())
		Expect(persistence.PrepareMysqlDatabase("root:root@(127.0.0.1:3306)/?charset=utf8mb4")).ToNot(BeNil())
	})
}
