// Package status defines the engine's result-code vocabulary and a typed
// error that carries one, the way a database/sql driver reports a
// provider-specific error code alongside its message. mattn/go-sqlite3 and
// modernc.org/sqlite (both vendored as reference oracles for the
// differential tests in this module) take the same shape: a small integer
// code plus a string, wrapped in a dedicated Error type rather than
// sentinel errors per condition.
package status

import "fmt"

// Code is one of the engine's fixed result codes.
type Code int

const (
	OK Code = iota
	ErrorGeneric
	Internal
	Perm
	Abort
	Busy
	Locked
	NoMem
	ReadOnly
	Interrupted
	IOErr
	NotFound
	Full
	CantOpen
	Protocol
	Empty
	Schema
	Constraint
	Mismatch
	Misuse
	Auth
	Format
	Range
	Corrupt
	RunRecovery
	InvalidName
	Row
	Done
)

var names = map[Code]string{
	OK:          "OK",
	ErrorGeneric: "ERROR",
	Internal:    "INTERNAL",
	Perm:        "PERM",
	Abort:       "ABORT",
	Busy:        "BUSY",
	Locked:      "LOCKED",
	NoMem:       "NOMEM",
	ReadOnly:    "READONLY",
	Interrupted: "INTERRUPTED",
	IOErr:       "IOERR",
	NotFound:    "NOTFOUND",
	Full:        "FULL",
	CantOpen:    "CANTOPEN",
	Protocol:    "PROTOCOL",
	Empty:       "EMPTY",
	Schema:      "SCHEMA",
	Constraint:  "CONSTRAINT",
	Mismatch:    "MISMATCH",
	Misuse:      "MISUSE",
	Auth:        "AUTH",
	Format:      "FORMAT",
	Range:       "RANGE",
	Corrupt:     "CORRUPT",
	RunRecovery: "RUNRECOVERY",
	InvalidName: "INVALID_NAME",
	Row:         "ROW",
	Done:        "DONE",
}

func (c Code) String() string {
	if n, ok := names[c]; ok {
		return n
	}
	return fmt.Sprintf("Code(%d)", int(c))
}

// Error pairs a Code with the owned message describing it. Callers that
// need to branch on the kind of failure (a busy handler deciding whether
// to retry, a caller distinguishing CONSTRAINT from MISUSE) type-assert
// for *Error; everything else can treat it as a plain error.
type Error struct {
	Code Code
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Code.String()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

// New builds an *Error for the given code and message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// Of returns the Code carried by err, or ErrorGeneric if err is not (or
// does not wrap) a *status.Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	var se *Error
	if asError(err, &se) {
		return se.Code
	}
	return ErrorGeneric
}

// asError is a tiny errors.As that avoids importing errors just for this
// one call site in callers that don't otherwise need it.
func asError(err error, target **Error) bool {
	for err != nil {
		if se, ok := err.(*Error); ok {
			*target = se
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
