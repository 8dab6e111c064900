package persistence

import (
	"errors"
	"strings"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// pqUniqueViolation PostgreSQL unique_violation SQLSTATE
const pqUniqueViolation = "23505"

// IsUniqueConstraintError 判斷是否為唯一約束錯誤
//
// 支持：
// - gorm.ErrDuplicatedKey（開啟 TranslateError 時）
// - PostgreSQL（lib/pq）：*pq.Error code 23505
// - SQLite: "UNIQUE constraint failed"
// - MySQL: "Duplicate entry"
func IsUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pqUniqueViolation
	}

	errMsg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errMsg, "duplicate key value violates unique constraint"):
		return true
	case strings.Contains(errMsg, "unique constraint failed"):
		return true
	case strings.Contains(errMsg, "duplicate entry"):
		return true
	}
	return false
}

// IsNotFound 判斷是否為查無資料
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
