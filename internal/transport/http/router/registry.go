package router

import (
	"sort"
	"sync"

	"github.com/gin-gonic/gin"
)

// APIModule 业务模块挂载到 /api/v1
type APIModule interface{ MountAPI(*gin.RouterGroup) }

// 可选：实现该接口可控制挂载顺序（数值越小越先挂）
// 不实现则默认 100
type prioritizer interface{ Priority() int }

// Registry 收集要挂载的模块；由 main 显式组装，不用包级全局变量
type Registry struct {
	mu   sync.RWMutex
	mods []APIModule
}

func NewRegistry(mods ...APIModule) *Registry {
	r := &Registry{}
	r.Register(mods...)
	return r
}

func (r *Registry) Register(mods ...APIModule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mods = append(r.mods, mods...)
}

// MountAPI 按优先级在 api 分组上挂载所有模块
func (r *Registry) MountAPI(api *gin.RouterGroup) {
	r.mu.RLock()
	mods := append([]APIModule(nil), r.mods...)
	r.mu.RUnlock()

	sort.SliceStable(mods, func(i, j int) bool {
		return priorityOf(mods[i]) < priorityOf(mods[j])
	})
	for _, m := range mods {
		m.MountAPI(api)
	}
}

func priorityOf(v any) int {
	if p, ok := v.(prioritizer); ok {
		return p.Priority()
	}
	return 100
}
