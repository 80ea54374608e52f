package utils

import (
	"strings"

	"github.com/google/uuid"
)

// NewID 32 位小写 hex（uuid v4 去掉连字符）
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
