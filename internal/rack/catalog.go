package rack

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Loader 是 Registry 依赖的加载协作者：Load 让某个来源提供的处理器类型可用，
// Resolve 在封存时按名称取回构造函数。
type Loader interface {
	Load(source string)
	Resolve(name string) (Factory, bool)
}

// ErrDuplicateFactory indicates a handler name already has a factory.
var ErrDuplicateFactory = errors.New("factory already registered")

// InstallFunc registers the factories a source provides.
type InstallFunc func(c *Catalog) error

// Catalog 维护 名称 → Factory 以及 来源 → 安装函数 两张表。
// 每个来源最多安装一次；空来源或未知来源的加载是无操作。
type Catalog struct {
	mu        sync.RWMutex
	factories map[string]Factory
	sources   map[string]InstallFunc
	loaded    map[string]bool
	lastErr   map[string]error
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		factories: make(map[string]Factory),
		sources:   make(map[string]InstallFunc),
		loaded:    make(map[string]bool),
		lastErr:   make(map[string]error),
	}
}

var defaultCatalog = NewCatalog()

// DefaultCatalog returns the process-wide catalog that middleware packages
// populate from init().
func DefaultCatalog() *Catalog {
	return defaultCatalog
}

// Provide 在默认 Catalog 上登记来源，重复来源会 panic，适合在 init() 中调用。
func Provide(source string, install InstallFunc) {
	if err := defaultCatalog.Provide(source, install); err != nil {
		panic(err)
	}
}

// Provide registers install under source.
func (c *Catalog) Provide(source string, install InstallFunc) error {
	key := normalizeSource(source)
	if key == "" {
		return errors.New("source key required")
	}
	if install == nil {
		return fmt.Errorf("source %s: install func required", key)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.sources[key]; exists {
		return fmt.Errorf("source %s already provided", key)
	}
	c.sources[key] = install
	return nil
}

// Register 登记处理器构造函数；名称大小写敏感，与中间件名称保持一致。
func (c *Catalog) Register(name string, factory Factory) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("handler name required")
	}
	if factory == nil {
		return fmt.Errorf("handler %s: factory required", name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.factories[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateFactory, name)
	}
	c.factories[name] = factory
	return nil
}

// Load runs the install func of source once. Empty or unknown sources are
// ignored; an install error is kept for Err and the source is not retried.
func (c *Catalog) Load(source string) {
	key := normalizeSource(source)
	if key == "" {
		return
	}

	c.mu.Lock()
	install, ok := c.sources[key]
	if !ok || c.loaded[key] {
		c.mu.Unlock()
		return
	}
	c.loaded[key] = true
	c.mu.Unlock()

	// install 会回调 Register，不能持锁调用。
	if err := install(c); err != nil {
		c.mu.Lock()
		c.lastErr[key] = err
		c.mu.Unlock()
	}
}

// Err returns the install error recorded for source, if any.
func (c *Catalog) Err(source string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr[normalizeSource(source)]
}

// Loaded reports whether source has been installed.
func (c *Catalog) Loaded(source string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded[normalizeSource(source)]
}

// Resolve returns the factory registered for name.
func (c *Catalog) Resolve(name string) (Factory, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	f, ok := c.factories[name]
	return f, ok
}

// Names 返回按字典序排列的已登记处理器名称。
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.factories) == 0 {
		return nil
	}
	names := make([]string, 0, len(c.factories))
	for name := range c.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Sources returns the provided source keys in sorted order.
func (c *Catalog) Sources() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.sources) == 0 {
		return nil
	}
	keys := make([]string, 0, len(c.sources))
	for key := range c.sources {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func normalizeSource(source string) string {
	return strings.ToLower(strings.TrimSpace(source))
}
