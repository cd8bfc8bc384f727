package status

import (
	"errors"
	"sync/atomic"
)

//nolint:recvcheck // String() uses value receiver (called on State values), Get/Set use pointer receivers (atomic ops)
type State int32

var (
	// ErrSourceQuery means the source database could not be read.
	ErrSourceQuery = errors.New("source query failed")
	// ErrTargetSchema means DDL or schema lookups on the target failed.
	ErrTargetSchema = errors.New("target schema change failed")
	// ErrTargetWrite means the target rejected a write or transaction op.
	ErrTargetWrite = errors.New("target write failed")
	// ErrConfiguration means options or connection parameters are unusable.
	ErrConfiguration = errors.New("invalid configuration")
)

const (
	Initial State = iota
	Introspecting
	SchemaCreating
	DataTransferring
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Initial:
		return "initial"
	case Introspecting:
		return "introspecting"
	case SchemaCreating:
		return "schemaCreating"
	case DataTransferring:
		return "dataTransferring"
	case Done:
		return "done"
	case Failed:
		return "failed"
	}
	return "unknown"
}

func (s *State) Get() State {
	return State(atomic.LoadInt32((*int32)(s)))
}

func (s *State) Set(newState State) {
	atomic.StoreInt32((*int32)(s), int32(newState))
}
