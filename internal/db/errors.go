package db

import "errors"

// ErrKeyNotFound reports a GET on an absent key. Callers that treat
// absence as a normal outcome (cache miss, unknown report id) match it
// with errors.Is.
var ErrKeyNotFound = errors.New("db: key not found")

// Operation names carried inside Error, matching the underlying
// Valkey/Redis commands.
const (
	OpGet     = "GET"
	OpMGet    = "MGET"
	OpSet     = "SET"
	OpIncr    = "INCR"
	OpIncrBy  = "INCRBY"
	OpExpire  = "EXPIRE"
	OpDel     = "DEL"
	OpScan    = "SCAN"
	OpHSet    = "HSET"
	OpHGetAll = "HGETALL"
)

// Error tags a store failure with the command that produced it, so logs
// and wrapped errors name the operation without parsing driver output.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }
