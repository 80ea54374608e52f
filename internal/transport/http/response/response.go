package response

import (
	"errors"

	"go-gin-gorm-users/internal/apperr"
)

type Resp struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg"`
	Data interface{} `json:"data"`
}

// kindCodes 错误分类 → 业务码
var kindCodes = map[apperr.Kind]int{
	apperr.KindInvalidArgument: CodeBadRequest,
	apperr.KindNotFound:        CodeNotFound,
	apperr.KindConflict:        CodeConflict,
	apperr.KindForbidden:       CodeForbidden,
	apperr.KindInternal:        CodeServerError,
}

// New 构造函数（保证 data 不为 null）
func New(code int, msg string, data interface{}) Resp {
	if data == nil {
		data = struct{}{}
	}
	return Resp{Code: code, Msg: msg, Data: data}
}

func OK(data interface{}) Resp {
	return New(CodeOK, CodeMsgMap[CodeOK], data)
}

// Error 失败响应（可以传自定义 msg 覆盖默认）
func Error(code int, customMsg string) Resp {
	msg := CodeMsgMap[code]
	if customMsg != "" {
		msg = customMsg
	}
	return New(code, msg, struct{}{})
}

// FromError Internal 不透出原始错误信息
func FromError(err error) Resp {
	kind := apperr.KindOf(err)
	code, ok := kindCodes[kind]
	if !ok || kind == apperr.KindInternal {
		return Error(CodeServerError, "")
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return Error(code, ae.Msg)
	}
	return Error(code, "")
}

// Status 该响应对应的 HTTP 状态码
func (r Resp) Status() int { return HTTPStatus(r.Code) }
