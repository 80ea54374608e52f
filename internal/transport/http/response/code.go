package response

import "net/http"

// 业务码直接沿用 HTTP 语义；0 表示成功
const (
	CodeOK              = 0
	CodeBadRequest      = 400
	CodeUnauthorized    = 401
	CodeForbidden       = 403
	CodeNotFound        = 404
	CodeConflict        = 409
	CodeBodyTooLarge    = 413
	CodeTooManyRequests = 429
	CodeServerError     = 500
	CodeServerBusy      = 503
	CodeTimeout         = 504
)

// CodeMsgMap 用于集中管理 code - msg
var CodeMsgMap = map[int]string{
	CodeOK:              "OK",
	CodeBadRequest:      "Bad Request",
	CodeUnauthorized:    "Unauthorized",
	CodeForbidden:       "Forbidden",
	CodeNotFound:        "Not Found",
	CodeConflict:        "Conflict",
	CodeBodyTooLarge:    "Request Entity Too Large",
	CodeTooManyRequests: "Too Many Requests",
	CodeServerError:     "Internal Server Error",
	CodeServerBusy:      "Service Unavailable",
	CodeTimeout:         "Gateway Timeout",
}

// HTTPStatus 错误码即 HTTP 状态码；成功统一 200
func HTTPStatus(code int) int {
	if code == CodeOK {
		return http.StatusOK
	}
	if http.StatusText(code) == "" {
		return http.StatusInternalServerError
	}
	return code
}
