package domain

import (
	"errors"
	"fmt"
)

// StoreSignal 存储层失败类型，与具体数据库的错误码无关
type StoreSignal int

const (
	SignalNotFound StoreSignal = iota + 1
	SignalUniqueViolation
	SignalDependencyViolation
)

func (s StoreSignal) String() string {
	switch s {
	case SignalNotFound:
		return "not_found"
	case SignalUniqueViolation:
		return "unique_violation"
	case SignalDependencyViolation:
		return "dependency_violation"
	default:
		return fmt.Sprintf("signal(%d)", int(s))
	}
}

type StoreError struct {
	Signal StoreSignal
	Op     string
	Err    error
}

func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Signal, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Signal)
}

func (e *StoreError) Unwrap() error { return e.Err }

func NewStoreError(op string, sig StoreSignal, err error) error {
	return &StoreError{Signal: sig, Op: op, Err: err}
}

// SignalOf 返回 err 携带的存储信号；非 StoreError 返回 false
func SignalOf(err error) (StoreSignal, bool) {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Signal, true
	}
	return 0, false
}
