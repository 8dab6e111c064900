package user

import (
	"context"

	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/shared"
	"github.com/jackyeh168/loyalty_rewards/src/internal/domain/user"
)

// ===========================
// RegisterUser Use Case
// ===========================

// RegisterUserCommand 註冊使用者指令（Input DTO）
type RegisterUserCommand struct {
	Name  string
	Email string
}

// RegisterUserResult 註冊使用者結果（Output DTO）
type RegisterUserResult struct {
	UserID string
	Email  string
}

// RegisterUserUseCase 註冊使用者
//
// 業務規則：
// 1. 電子郵件不能重複（包含已停用的使用者）
// 2. 名稱不能為空
type RegisterUserUseCase interface {
	Execute(ctx context.Context, cmd RegisterUserCommand) (*RegisterUserResult, error)
}

// RegisterUserUseCaseImpl 註冊使用者 Use Case 實作
type RegisterUserUseCaseImpl struct {
	userRepo  user.UserRepository
	txManager shared.TransactionManager
}

// NewRegisterUserUseCase 創建 RegisterUserUseCase 實例
func NewRegisterUserUseCase(
	userRepo user.UserRepository,
	txManager shared.TransactionManager,
) RegisterUserUseCase {
	return &RegisterUserUseCaseImpl{
		userRepo:  userRepo,
		txManager: txManager,
	}
}

// Execute 執行註冊
//
// 流程：驗證輸入 → 事務內檢查電子郵件 → 建立 User 聚合 → 保存。
// 並發註冊同一電子郵件時由唯一索引兜底（ErrUserAlreadyExists）。
func (uc *RegisterUserUseCaseImpl) Execute(ctx context.Context, cmd RegisterUserCommand) (*RegisterUserResult, error) {
	email, err := user.NewEmail(cmd.Email)
	if err != nil {
		return nil, err
	}

	newUser, err := user.NewUser(cmd.Name, email)
	if err != nil {
		return nil, err
	}

	err = uc.txManager.InTransaction(ctx, func(tx shared.TransactionContext) error {
		exists, err := uc.userRepo.ExistsByEmail(tx, email)
		if err != nil {
			return err
		}
		if exists {
			return user.ErrUserAlreadyExists.WithContext("email", email.String())
		}
		return uc.userRepo.Save(tx, newUser)
	})
	if err != nil {
		return nil, err
	}

	return &RegisterUserResult{
		UserID: newUser.UserID().String(),
		Email:  newUser.Email().String(),
	}, nil
}

// ===========================
// GetUser Query
// ===========================

// GetUserResult 使用者資料（Output DTO）
type GetUserResult struct {
	UserID string
	Name   string
	Email  string
}

// GetUserUseCase 查詢使用者
type GetUserUseCase struct {
	userRepo user.UserRepository
}

// NewGetUserUseCase 創建 GetUserUseCase
func NewGetUserUseCase(userRepo user.UserRepository) *GetUserUseCase {
	return &GetUserUseCase{userRepo: userRepo}
}

// Execute 依 ID 查詢；找不到返回 user.ErrUserNotFound
func (uc *GetUserUseCase) Execute(userID string) (*GetUserResult, error) {
	id, err := user.UserIDFromString(userID)
	if err != nil {
		return nil, err
	}
	u, err := uc.userRepo.FindByID(nil, id)
	if err != nil {
		return nil, err
	}
	return &GetUserResult{
		UserID: u.UserID().String(),
		Name:   u.Name(),
		Email:  u.Email().String(),
	}, nil
}
