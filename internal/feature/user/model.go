package user

import (
	"time"

	"gorm.io/gorm"

	"go-gin-gorm-users/internal/domain"
	"go-gin-gorm-users/pkg/utils"
)

// UserModel users 表；email 唯一索引是唯一性的最终保证
type UserModel struct {
	ID       string `gorm:"primaryKey;type:varchar(32)"`
	Email    string `gorm:"uniqueIndex;size:255;not null"`
	Password string `gorm:"size:100;not null"`
	Role     string `gorm:"size:16;not null;default:USER"`

	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (UserModel) TableName() string { return "users" }

// BeforeCreate ID 由存储层分配
func (m *UserModel) BeforeCreate(*gorm.DB) error {
	if m.ID == "" {
		m.ID = utils.NewID()
	}
	if m.Role == "" {
		m.Role = string(domain.RoleUser)
	}
	return nil
}

func FromDomain(u *domain.User) UserModel {
	return UserModel{
		ID:       u.ID,
		Email:    u.Email,
		Password: u.Password,
		Role:     string(u.Role),
	}
}

func (m UserModel) ToDomain() domain.User {
	return domain.User{
		ID:        m.ID,
		Email:     m.Email,
		Password:  m.Password,
		Role:      domain.Role(m.Role),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
