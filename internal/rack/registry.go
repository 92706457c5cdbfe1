package rack

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrEmptyStack is returned when a registry with no entries is sealed.
var ErrEmptyStack = errors.New("middleware stack is empty")

type entry struct {
	name    string
	source  string
	handler Handler
}

// EntryInfo 是 Registry 条目的只读快照，用于诊断输出。
type EntryInfo struct {
	Name        string `json:"name"`
	Source      string `json:"source,omitempty"`
	Constructed bool   `json:"constructed"`
}

// Registry 按插入顺序保存中间件条目。封存之前允许追加、插入与替换；
// 封存后所有变更都返回 false 且不改变顺序。
type Registry struct {
	mu      sync.RWMutex
	loader  Loader
	entries []*entry
	sealed  bool
}

// NewRegistry creates an empty registry. A nil loader falls back to the
// default catalog.
func NewRegistry(loader Loader) *Registry {
	if loader == nil {
		loader = defaultCatalog
	}
	return &Registry{loader: loader}
}

// Add 追加 name；prebuilt 非空时直接作为已构造的处理器使用，否则记为待构造。
// 重复的名称在原位置被覆盖。
func (r *Registry) Add(name, source string, prebuilt Handler) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}

	r.mu.Lock()
	if r.sealed {
		r.mu.Unlock()
		return false
	}
	if idx := r.indexOf(name); idx >= 0 {
		r.entries[idx] = &entry{name: name, source: source, handler: prebuilt}
	} else {
		r.entries = append(r.entries, &entry{name: name, source: source, handler: prebuilt})
	}
	r.mu.Unlock()

	r.loader.Load(source)
	return true
}

// InsertBefore splices name immediately before target.
func (r *Registry) InsertBefore(target, name, source string) bool {
	return r.splice(target, name, source, 0)
}

// InsertAfter splices name immediately after target.
func (r *Registry) InsertAfter(target, name, source string) bool {
	return r.splice(target, name, source, 1)
}

// Replace 用待构造的 name 替换 target 的位置，原条目被丢弃。
func (r *Registry) Replace(target, name, source string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}

	r.mu.Lock()
	if r.sealed || r.indexOf(target) < 0 {
		r.mu.Unlock()
		return false
	}
	if name != target {
		r.remove(name)
	}
	r.entries[r.indexOf(target)] = &entry{name: name, source: source}
	r.mu.Unlock()

	r.loader.Load(source)
	return true
}

func (r *Registry) splice(target, name, source string, offset int) bool {
	name = strings.TrimSpace(name)
	if name == "" || name == target {
		return false
	}

	r.mu.Lock()
	if r.sealed || r.indexOf(target) < 0 {
		r.mu.Unlock()
		return false
	}
	// 同名条目先移除，再按 target 的新位置插入。
	r.remove(name)
	at := r.indexOf(target) + offset
	r.entries = append(r.entries, nil)
	copy(r.entries[at+1:], r.entries[at:])
	r.entries[at] = &entry{name: name, source: source}
	r.mu.Unlock()

	r.loader.Load(source)
	return true
}

// Clear empties the registry. It fails once sealed.
func (r *Registry) Clear() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return false
	}
	r.entries = nil
	return true
}

// Seal 将 Registry 转为不可变并构造所有待构造条目：从最后一个条目向前遍历，
// 每个构造函数拿到已构造好的下一个处理器，最后一个条目的 next 为 nil。
// 重复调用无副作用；构造失败时 Registry 保持未封存状态。
func (r *Registry) Seal() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return nil
	}
	if len(r.entries) == 0 {
		return ErrEmptyStack
	}

	built := make([]Handler, len(r.entries))
	var next Handler
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		h := e.handler
		if h == nil {
			factory, ok := r.loader.Resolve(e.name)
			if !ok {
				if src, isCatalog := r.loader.(*Catalog); isCatalog {
					if installErr := src.Err(e.source); installErr != nil {
						return fmt.Errorf("middleware %s: no factory registered (source %q): %w", e.name, e.source, installErr)
					}
				}
				return fmt.Errorf("middleware %s: no factory registered (source %q)", e.name, e.source)
			}
			h = factory(next)
			if h == nil {
				return fmt.Errorf("middleware %s: factory returned nil handler", e.name)
			}
		}
		built[i] = h
		next = h
	}

	for i, e := range r.entries {
		e.handler = built[i]
	}
	r.sealed = true
	return nil
}

// Sealed reports whether the registry has been sealed.
func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

// Head returns the outermost handler, or nil before sealing.
func (r *Registry) Head() Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.sealed || len(r.entries) == 0 {
		return nil
	}
	return r.entries[0].handler
}

// Names returns entry names in chain order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.entries))
	for i, e := range r.entries {
		names[i] = e.name
	}
	return names
}

// Entries 返回条目快照，Constructed 表示处理器实例是否已存在。
func (r *Registry) Entries() []EntryInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]EntryInfo, len(r.entries))
	for i, e := range r.entries {
		out[i] = EntryInfo{Name: e.name, Source: e.source, Constructed: e.handler != nil}
	}
	return out
}

// Len returns the number of entries.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func (r *Registry) indexOf(name string) int {
	for i, e := range r.entries {
		if e.name == name {
			return i
		}
	}
	return -1
}

func (r *Registry) remove(name string) {
	if idx := r.indexOf(name); idx >= 0 {
		r.entries = append(r.entries[:idx], r.entries[idx+1:]...)
	}
}
