package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"go-gin-gorm-users/internal/domain"
	"go-gin-gorm-users/internal/feature/user"
)

type UserRepo struct{ db *gorm.DB }

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{db: db} }

var _ domain.UserStore = (*UserRepo)(nil)

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	m := user.FromDomain(u)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return storeErr("user.create", err)
	}
	*u = m.ToDomain()
	return nil
}

func (r *UserRepo) FindAll(ctx context.Context) ([]domain.User, error) {
	var ms []user.UserModel
	if err := r.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&ms).Error; err != nil {
		return nil, storeErr("user.find_all", err)
	}
	out := make([]domain.User, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.ToDomain())
	}
	return out, nil
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	var m user.UserModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, storeErr("user.find_by_id", err)
	}
	u := m.ToDomain()
	return &u, nil
}

func (r *UserRepo) UpdateByID(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error) {
	var m user.UserModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&m, "id = ?", id).Error; err != nil {
			return err
		}
		if patch.Empty() {
			return nil
		}
		changes := map[string]any{}
		if patch.Email != nil {
			changes["email"] = *patch.Email
		}
		if patch.Password != nil {
			changes["password"] = *patch.Password
		}
		if err := tx.Model(&user.UserModel{}).Where("id = ?", id).Updates(changes).Error; err != nil {
			return err
		}
		// 重新读取，拿到存储层更新后的 updated_at
		return tx.First(&m, "id = ?", id).Error
	})
	if err != nil {
		return nil, storeErr("user.update", err)
	}
	u := m.ToDomain()
	return &u, nil
}

// DeleteByID 返回删除前的记录；仍被外键引用时返回 SignalDependencyViolation
func (r *UserRepo) DeleteByID(ctx context.Context, id string) (*domain.User, error) {
	var m user.UserModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&m, "id = ?", id).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&user.UserModel{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return nil, storeErr("user.delete", err)
	}
	u := m.ToDomain()
	return &u, nil
}

// Truncate 清空 users 表（测试库重置用）
func (r *UserRepo) Truncate(ctx context.Context) error {
	db := r.db.WithContext(ctx)
	var err error
	switch db.Dialector.Name() {
	case "postgres":
		err = db.Exec(`TRUNCATE TABLE users RESTART IDENTITY CASCADE`).Error
	case "mysql":
		err = db.Exec(`TRUNCATE TABLE users`).Error
	default: // sqlite 没有 TRUNCATE
		err = db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&user.UserModel{}).Error
	}
	if err != nil {
		return storeErr("user.truncate", err)
	}
	return nil
}

func storeErr(op string, err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.NewStoreError(op, domain.SignalNotFound, err)
	case errors.Is(err, gorm.ErrDuplicatedKey) || isDupKey(err):
		return domain.NewStoreError(op, domain.SignalUniqueViolation, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated) || isFKViolation(err):
		return domain.NewStoreError(op, domain.SignalDependencyViolation, err)
	default:
		return err
	}
}

// 未开启 TranslateError 或驱动不支持翻译时的兜底
func isDupKey(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation")
}

func isFKViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "foreign key constraint") ||
		strings.Contains(msg, "violates foreign key")
}
