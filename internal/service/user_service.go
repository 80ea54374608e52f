package service

import (
	"context"
	"fmt"
	"regexp"

	"go.uber.org/zap"

	"go-gin-gorm-users/internal/apperr"
	"go-gin-gorm-users/internal/domain"
)

// idPattern 存储层 ID 的形状：字母数字和连字符，最长 36（兼容带横线的 uuid）
var idPattern = regexp.MustCompile(`^[A-Za-z0-9-]{1,36}$`)

// storeSignalKinds 存储信号 → 对外错误分类；表外的失败一律 Internal
var storeSignalKinds = map[domain.StoreSignal]apperr.Kind{
	domain.SignalNotFound:            apperr.KindNotFound,
	domain.SignalUniqueViolation:     apperr.KindConflict,
	domain.SignalDependencyViolation: apperr.KindForbidden,
}

var kindMessages = map[apperr.Kind]string{
	apperr.KindNotFound:  "user not found",
	apperr.KindConflict:  "email already exists",
	apperr.KindForbidden: "user is still referenced and cannot be deleted",
}

type CreateUserInput struct {
	Email    string
	Password string
	Role     domain.Role // 为空时默认 USER
}

type UpdateUserInput struct {
	Email    *string
	Password *string
}

type UserService struct {
	store  domain.UserStore
	hasher domain.Hasher
	log    *zap.Logger
}

func NewUserService(store domain.UserStore, hasher domain.Hasher, l *zap.Logger) *UserService {
	if l == nil {
		l = zap.NewNop()
	}
	return &UserService{store: store, hasher: hasher, log: l}
}

// Create 唯一性交给存储层的唯一约束，冲突时返回 Conflict
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*domain.User, error) {
	role := in.Role
	if role == "" {
		role = domain.RoleUser
	}
	// role 只来自内部调用（管理员初始化），非法值属于程序错误
	if !role.Valid() {
		return nil, s.internal("create", "internal error", fmt.Errorf("unknown role %q", role))
	}

	hashed, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		return nil, s.internal("create", "hash password failed", err)
	}

	u := &domain.User{Email: in.Email, Password: hashed, Role: role}
	if err := s.store.Create(ctx, u); err != nil {
		return nil, s.translate("create", err)
	}
	s.log.Info("user created", zap.String("id", u.ID), zap.String("role", string(u.Role)))
	return u, nil
}

func (s *UserService) FindAll(ctx context.Context) ([]domain.User, error) {
	us, err := s.store.FindAll(ctx)
	if err != nil {
		return nil, s.translate("find_all", err)
	}
	if us == nil {
		us = []domain.User{}
	}
	return us, nil
}

func (s *UserService) FindOne(ctx context.Context, id string) (*domain.User, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	u, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, s.translate("find_one", err)
	}
	return u, nil
}

// Update 只改 patch 中出现的字段；密码重新哈希，email 冲突由唯一约束判定
func (s *UserService) Update(ctx context.Context, id string, in UpdateUserInput) (*domain.User, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	patch := domain.UserPatch{Email: in.Email}
	if in.Password != nil {
		hashed, err := s.hasher.Hash(ctx, *in.Password)
		if err != nil {
			return nil, s.internal("update", "hash password failed", err)
		}
		patch.Password = &hashed
	}

	u, err := s.store.UpdateByID(ctx, id, patch)
	if err != nil {
		return nil, s.translate("update", err)
	}
	s.log.Info("user updated", zap.String("id", u.ID),
		zap.Bool("email_changed", in.Email != nil),
		zap.Bool("password_changed", in.Password != nil),
	)
	return u, nil
}

// Remove 返回删除前的记录
func (s *UserService) Remove(ctx context.Context, id string) (*domain.User, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	u, err := s.store.DeleteByID(ctx, id)
	if err != nil {
		return nil, s.translate("remove", err)
	}
	s.log.Info("user removed", zap.String("id", u.ID))
	return u, nil
}

func validateID(id string) error {
	if !idPattern.MatchString(id) {
		return apperr.InvalidArgument("invalid user id")
	}
	return nil
}

func (s *UserService) translate(op string, err error) error {
	if sig, ok := domain.SignalOf(err); ok {
		if kind, known := storeSignalKinds[sig]; known {
			return apperr.Wrap(kind, kindMessages[kind], err)
		}
	}
	return s.internal(op, "internal error", err)
}

func (s *UserService) internal(op, msg string, err error) error {
	s.log.Error("user "+op+" failed", zap.Error(err))
	return apperr.Internal(msg, err)
}
