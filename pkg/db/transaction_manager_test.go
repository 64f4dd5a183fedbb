// pkg/db/transaction_manager_test.go
package db

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockTxController struct {
	mock.Mock
}

func (m *MockTxController) Commit() error {
	return m.Called().Error(0)
}

func (m *MockTxController) Rollback() error {
	return m.Called().Error(0)
}

func TestCommitTx(t *testing.T) {
	tx := new(MockTxController)
	tx.On("Commit").Return(errors.New("commit failed")).Once()

	assert.EqualError(t, CommitTx(tx), "commit failed")
	tx.AssertExpectations(t)
}

func TestRollbackTx_IgnoresTxDone(t *testing.T) {
	tx := new(MockTxController)
	tx.On("Rollback").Return(sql.ErrTxDone).Once()

	assert.NotPanics(t, func() { RollbackTx(tx) })
	tx.AssertExpectations(t)
}
