package driver

import (
	"database/sql/driver"
	"fmt"

	"github.com/google/uuid"
)

// Tx implements database/sql/driver.Tx for a connection.
type Tx struct {
	conn     *Conn
	readOnly bool
	closed   bool
}

// Commit commits the transaction.
func (tx *Tx) Commit() error {
	if tx.closed {
		return driver.ErrBadConn
	}

	tx.conn.mu.Lock()
	defer tx.conn.mu.Unlock()

	if !tx.conn.inTx {
		return fmt.Errorf("no transaction in progress")
	}

	// For read-only transactions, just end the read transaction
	if tx.readOnly {
		if err := tx.conn.pager.EndRead(); err != nil {
			return fmt.Errorf("failed to end read transaction: %w", err)
		}
	} else {
		// For write transactions, commit the pager transaction
		if err := tx.conn.pager.Commit(); err != nil {
			return fmt.Errorf("commit failed: %w", err)
		}
	}

	tx.conn.inTx = false
	tx.closed = true

	return nil
}

// Rollback rolls back the transaction.
func (tx *Tx) Rollback() error {
	if tx.closed {
		return nil // Already rolled back or committed
	}

	tx.conn.mu.Lock()
	defer tx.conn.mu.Unlock()

	if !tx.conn.inTx {
		return fmt.Errorf("no transaction in progress")
	}

	// For read-only transactions, just end the read transaction
	if tx.readOnly {
		if err := tx.conn.pager.EndRead(); err != nil {
			return fmt.Errorf("failed to end read transaction: %w", err)
		}
	} else {
		// For write transactions, rollback the pager transaction
		if err := tx.conn.pager.Rollback(); err != nil {
			return fmt.Errorf("rollback failed: %w", err)
		}
	}

	tx.conn.inTx = false
	tx.closed = true

	return nil
}

// IsReadOnly returns true if this is a read-only transaction.
func (tx *Tx) IsReadOnly() bool {
	return tx.readOnly
}

// IsClosed returns true if the transaction has been committed or rolled back.
func (tx *Tx) IsClosed() bool {
	return tx.closed
}

// Savepoint creates a named savepoint within the transaction.
// This is not part of the standard driver.Tx interface, but can be
// used through direct calls or SQL statements.
func (tx *Tx) Savepoint(name string) error {
	if tx.closed {
		return driver.ErrBadConn
	}

	if tx.readOnly {
		return fmt.Errorf("cannot create savepoint in read-only transaction")
	}

	tx.conn.mu.Lock()
	defer tx.conn.mu.Unlock()

	if !tx.conn.inTx {
		return fmt.Errorf("no transaction in progress")
	}

	return tx.conn.pager.Savepoint(name)
}

// AnonymousSavepoint creates a savepoint with a generated name and returns
// it, for callers that need a rollback point but don't have a natural
// name to give it (nested-transaction emulation, a multi-statement batch
// wrapping each statement for partial rollback). The name is prefixed so
// it can't collide with a savepoint a user created by hand.
func (tx *Tx) AnonymousSavepoint() (string, error) {
	name := "sp_" + uuid.NewString()
	if err := tx.Savepoint(name); err != nil {
		return "", err
	}
	return name, nil
}

// ReleaseSavepoint releases a savepoint and all savepoints created after it.
func (tx *Tx) ReleaseSavepoint(name string) error {
	if tx.closed {
		return driver.ErrBadConn
	}

	if tx.readOnly {
		return fmt.Errorf("cannot release savepoint in read-only transaction")
	}

	tx.conn.mu.Lock()
	defer tx.conn.mu.Unlock()

	if !tx.conn.inTx {
		return fmt.Errorf("no transaction in progress")
	}

	return tx.conn.pager.Release(name)
}

// RollbackToSavepoint rolls back to a savepoint.
func (tx *Tx) RollbackToSavepoint(name string) error {
	if tx.closed {
		return driver.ErrBadConn
	}

	if tx.readOnly {
		return fmt.Errorf("cannot rollback to savepoint in read-only transaction")
	}

	tx.conn.mu.Lock()
	defer tx.conn.mu.Unlock()

	if !tx.conn.inTx {
		return fmt.Errorf("no transaction in progress")
	}

	return tx.conn.pager.RollbackTo(name)
}
