package db

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"marketly.com/app/internal/config"
)

func TestMySQLDSN(t *testing.T) {
	assert.Equal(t,
		"u:p@tcp(h:3306)/m?parseTime=true&multiStatements=true",
		mysqlDSN("u:p@tcp(h:3306)/m"))
	assert.Equal(t,
		"u:p@tcp(h:3306)/m?parseTime=true&loc=UTC&multiStatements=true",
		mysqlDSN("u:p@tcp(h:3306)/m?parseTime=true&loc=UTC"))
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "oracle", DSN: "x"}, nil)
	assert.ErrorContains(t, err, "unsupported")
}

func TestEmbeddedMigrationsPresent(t *testing.T) {
	for _, driver := range []string{"postgres", "mysql"} {
		entries, err := migrationsFS.ReadDir("migrations/" + driver)
		assert.NoError(t, err)
		assert.NotEmpty(t, entries, driver)
	}
}
