package apperr

import "errors"

// Kind 面向调用方的错误分类
type Kind string

const (
	KindInvalidArgument Kind = "invalid_argument"
	KindConflict        Kind = "conflict"
	KindNotFound        Kind = "not_found"
	KindForbidden       Kind = "forbidden"
	KindInternal        Kind = "internal"
)

// Error 统一错误对象；Err 仅用于日志，不对外暴露
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func InvalidArgument(msg string) error { return &Error{Kind: KindInvalidArgument, Msg: msg} }
func Conflict(msg string) error        { return &Error{Kind: KindConflict, Msg: msg} }
func NotFound(msg string) error        { return &Error{Kind: KindNotFound, Msg: msg} }
func Forbidden(msg string) error       { return &Error{Kind: KindForbidden, Msg: msg} }
func Internal(msg string, err error) error {
	return &Error{Kind: KindInternal, Msg: msg, Err: err}
}

// Wrap 带上底层原因构造指定分类的错误
func Wrap(kind Kind, msg string, err error) error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf 未分类的错误一律视为 Internal
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// Is 判断 err 是否属于指定分类
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
