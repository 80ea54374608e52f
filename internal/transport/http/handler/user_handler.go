package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-gin-gorm-users/internal/domain"
	"go-gin-gorm-users/internal/service"
	httpez "go-gin-gorm-users/internal/transport/http/ez"
)

// UserService handler 依赖的用例集合
type UserService interface {
	Create(ctx context.Context, in service.CreateUserInput) (*domain.User, error)
	FindAll(ctx context.Context) ([]domain.User, error)
	FindOne(ctx context.Context, id string) (*domain.User, error)
	Update(ctx context.Context, id string, in service.UpdateUserInput) (*domain.User, error)
	Remove(ctx context.Context, id string) (*domain.User, error)
}

type UserHandler struct {
	svc UserService
	log *zap.Logger
}

func NewUserHandler(svc UserService, l *zap.Logger) *UserHandler {
	if l == nil {
		l = zap.NewNop()
	}
	return &UserHandler{svc: svc, log: l}
}

type createUserReq struct {
	Email    string `json:"email"    binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

// updateUserReq 字段缺省即不修改；出现则按同样规则校验
type updateUserReq struct {
	Email    *string `json:"email"    binding:"omitnil,email,max=255"`
	Password *string `json:"password" binding:"omitnil,min=8,max=72"`
}

// userView 对外视图，不含密码哈希
type userView struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toView(u *domain.User) userView {
	return userView{
		ID:        u.ID,
		Email:     u.Email,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// MountAPI 挂载 /users 资源
func (h *UserHandler) MountAPI(api *gin.RouterGroup) {
	ez := httpez.New(api, h.log)

	// --- POST /users  创建 ---
	httpez.RegisterAction[createUserReq, userView](ez, httpez.Action[createUserReq, userView]{
		Method: http.MethodPost,
		Path:   "/users",
		Binder: httpez.BindJSON,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, in *createUserReq) (userView, error) {
			u, err := h.svc.Create(c.Request.Context(), service.CreateUserInput{
				Email:    in.Email,
				Password: in.Password,
			})
			if err != nil {
				return userView{}, err
			}
			return toView(u), nil
		},
	})

	// --- GET /users  列表 ---
	httpez.RegisterAction[struct{}, []userView](ez, httpez.Action[struct{}, []userView]{
		Method: http.MethodGet,
		Path:   "/users",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) ([]userView, error) {
			us, err := h.svc.FindAll(c.Request.Context())
			if err != nil {
				return nil, err
			}
			out := make([]userView, 0, len(us))
			for i := range us {
				out = append(out, toView(&us[i]))
			}
			return out, nil
		},
	})

	// --- GET /users/:id ---
	httpez.RegisterAction[struct{}, userView](ez, httpez.Action[struct{}, userView]{
		Method: http.MethodGet,
		Path:   "/users/:id",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (userView, error) {
			u, err := h.svc.FindOne(c.Request.Context(), c.Param("id"))
			if err != nil {
				return userView{}, err
			}
			return toView(u), nil
		},
	})

	// --- PATCH /users/:id  局部更新 ---
	httpez.RegisterAction[updateUserReq, userView](ez, httpez.Action[updateUserReq, userView]{
		Method:         http.MethodPatch,
		Path:           "/users/:id",
		Binder:         httpez.BindJSON,
		AllowEmptyBody: true,
		Handler: func(c *gin.Context, in *updateUserReq) (userView, error) {
			u, err := h.svc.Update(c.Request.Context(), c.Param("id"), service.UpdateUserInput{
				Email:    in.Email,
				Password: in.Password,
			})
			if err != nil {
				return userView{}, err
			}
			return toView(u), nil
		},
	})

	// --- DELETE /users/:id  返回删除前的记录 ---
	httpez.RegisterAction[struct{}, userView](ez, httpez.Action[struct{}, userView]{
		Method: http.MethodDelete,
		Path:   "/users/:id",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (userView, error) {
			u, err := h.svc.Remove(c.Request.Context(), c.Param("id"))
			if err != nil {
				return userView{}, err
			}
			return toView(u), nil
		},
	})
}
