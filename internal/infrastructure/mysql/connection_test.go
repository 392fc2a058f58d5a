package mysql

import (
	"errors"
	"fmt"
	"testing"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
)

func TestIsDuplicateKey(t *testing.T) {
	dup := &gomysql.MySQLError{Number: 1062, Message: "Duplicate entry"}
	deadlock := &gomysql.MySQLError{Number: 1213, Message: "Deadlock found"}

	assert.True(t, IsDuplicateKey(dup))
	assert.True(t, IsDuplicateKey(fmt.Errorf("inserting payment: %w", dup)))
	assert.False(t, IsDuplicateKey(deadlock))
	assert.False(t, IsDuplicateKey(errors.New("boom")))
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(&gomysql.MySQLError{Number: 1213}))
	assert.True(t, IsTransient(fmt.Errorf("inserting order: %w", &gomysql.MySQLError{Number: 1205})))
	assert.False(t, IsTransient(&gomysql.MySQLError{Number: 1062}))
	assert.False(t, IsTransient(errors.New("boom")))
}
