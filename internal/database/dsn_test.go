package database

import (
	"testing"

	"github.com/axellelanca/portfolio/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "a.db?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)",
		sqliteDSN(config.DatabaseConfig{Name: "a.db"}))
	assert.Equal(t, "file:a.db?mode=rwc&_pragma=busy_timeout(100)&_pragma=foreign_keys(1)",
		sqliteDSN(config.DatabaseConfig{Name: "file:a.db?mode=rwc", BusyTimeoutMS: 100}))
}
