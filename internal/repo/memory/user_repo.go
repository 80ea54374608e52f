package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go-gin-gorm-users/internal/domain"
	"go-gin-gorm-users/pkg/utils"
)

var (
	errNotFound   = errors.New("record not found")
	errEmailTaken = errors.New("unique constraint users.email")
	errReferenced = errors.New("record is still referenced")
)

// UserRepo 内存实现：email 唯一性在同一把锁内检查并写入
type UserRepo struct {
	mu      sync.RWMutex
	byID    map[string]domain.User
	byEmail map[string]string
	refs    map[string]int
	seq     int64
	order   map[string]int64
	now     func() time.Time
}

func NewUserRepo() *UserRepo {
	return &UserRepo{
		byID:    map[string]domain.User{},
		byEmail: map[string]string{},
		refs:    map[string]int{},
		order:   map[string]int64{},
		now:     time.Now,
	}
}

var _ domain.UserStore = (*UserRepo)(nil)

func (r *UserRepo) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[u.Email]; taken {
		return domain.NewStoreError("user.create", domain.SignalUniqueViolation, errEmailTaken)
	}
	rec := *u
	if rec.ID == "" {
		rec.ID = utils.NewID()
	}
	if _, exists := r.byID[rec.ID]; exists {
		return domain.NewStoreError("user.create", domain.SignalUniqueViolation, errors.New("duplicate primary key"))
	}
	if rec.Role == "" {
		rec.Role = domain.RoleUser
	}
	now := r.now()
	rec.CreatedAt, rec.UpdatedAt = now, now

	r.seq++
	r.order[rec.ID] = r.seq
	r.byID[rec.ID] = rec
	r.byEmail[rec.Email] = rec.ID
	*u = rec
	return nil
}

func (r *UserRepo) FindAll(context.Context) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.User, 0, len(r.byID))
	for _, u := range r.byID {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return r.order[out[i].ID] < r.order[out[j].ID] })
	return out, nil
}

func (r *UserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, domain.NewStoreError("user.find_by_id", domain.SignalNotFound, errNotFound)
	}
	return &u, nil
}

func (r *UserRepo) UpdateByID(_ context.Context, id string, patch domain.UserPatch) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, domain.NewStoreError("user.update", domain.SignalNotFound, errNotFound)
	}
	if patch.Empty() {
		return &u, nil
	}
	if patch.Email != nil && *patch.Email != u.Email {
		if owner, taken := r.byEmail[*patch.Email]; taken && owner != id {
			return nil, domain.NewStoreError("user.update", domain.SignalUniqueViolation, errEmailTaken)
		}
		delete(r.byEmail, u.Email)
		u.Email = *patch.Email
		r.byEmail[u.Email] = id
	}
	if patch.Password != nil {
		u.Password = *patch.Password
	}
	u.UpdatedAt = r.now()
	r.byID[id] = u
	return &u, nil
}

func (r *UserRepo) DeleteByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, domain.NewStoreError("user.delete", domain.SignalNotFound, errNotFound)
	}
	if r.refs[id] > 0 {
		return nil, domain.NewStoreError("user.delete", domain.SignalDependencyViolation, errReferenced)
	}
	delete(r.byID, id)
	delete(r.byEmail, u.Email)
	delete(r.order, id)
	return &u, nil
}

// Reference 标记某条记录被其他数据引用（模拟外键）
func (r *UserRepo) Reference(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refs[id]++
}

// Release 撤销一次 Reference
func (r *UserRepo) Release(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.refs[id] > 1 {
		r.refs[id]--
		return
	}
	delete(r.refs, id)
}

// Truncate 清空所有数据
func (r *UserRepo) Truncate(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID = map[string]domain.User{}
	r.byEmail = map[string]string{}
	r.refs = map[string]int{}
	r.order = map[string]int64{}
	r.seq = 0
	return nil
}
