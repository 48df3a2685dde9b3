package offers

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotExist 由持久層在查無資料時回傳
// adapters/postgres 會將 gorm.ErrRecordNotFound 轉換成這個錯誤
var ErrNotExist = errors.New("record does not exist")

// NotFoundError 代表請求的實體不存在
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Entity)
}

// ForbiddenError 代表呼叫者與實體之間缺少必要的關係
// 例如不是採購需求的擁有者、不是報價的賣家、或沒有企業帳戶的存取權
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string {
	return e.Reason
}

// ConflictError 代表狀態前置條件不成立
// 例如重複的活躍報價、或對非 PENDING 的報價做狀態轉移
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string {
	return e.Reason
}

// ValidationError 彙整驗證引擎回報的所有違規項目
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "invalid offer: " + strings.Join(e.Violations, "; ")
}

// IsNotFound 檢查錯誤是否代表實體不存在
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsForbidden 檢查錯誤是否代表權限不足
func IsForbidden(err error) bool {
	var target *ForbiddenError
	return errors.As(err, &target)
}

// IsConflict 檢查錯誤是否代表狀態衝突
func IsConflict(err error) bool {
	var target *ConflictError
	return errors.As(err, &target)
}

// IsValidation 檢查錯誤是否為驗證失敗
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}
