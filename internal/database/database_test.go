package database

import (
	"bytes"
	"log"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	ID   string `gorm:"primaryKey"`
	Name string
}

func TestLogger_SkipsRecordNotFound(t *testing.T) {
	var buf bytes.Buffer
	db, err := open(DriverSQLite, "file:"+uuid.New().String()+"?mode=memory&cache=shared", newLogger(log.New(&buf, "", 0)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })
	require.NoError(t, db.AutoMigrate(&widget{}))
	buf.Reset()

	var w widget
	err = db.First(&w, "id = ?", "missing").Error
	assert.Error(t, err)
	assert.NotContains(t, buf.String(), "record not found")

	err = db.Table("no_such_table").First(&w).Error
	assert.Error(t, err)
	assert.Contains(t, buf.String(), "no_such_table")
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open("mysql", "dsn")
	assert.Error(t, err)
}
