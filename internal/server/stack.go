package server

import (
	"fmt"

	"github.com/any-hub/rackup/internal/config"
	"github.com/any-hub/rackup/internal/rack"
)

// BuildRegistry 按声明顺序把配置中的中间件放入新的 Registry。
// Before/After/Replace 指向的条目必须已经存在；Registry 此时尚未封存。
func BuildRegistry(items []config.MiddlewareConfig, loader rack.Loader) (*rack.Registry, error) {
	registry := rack.NewRegistry(loader)
	for _, item := range items {
		mode, target := item.Placement()
		var ok bool
		switch mode {
		case config.PlacementBefore:
			ok = registry.InsertBefore(target, item.Name, item.Source)
		case config.PlacementAfter:
			ok = registry.InsertAfter(target, item.Name, item.Source)
		case config.PlacementReplace:
			ok = registry.Replace(target, item.Name, item.Source)
		default:
			ok = registry.Add(item.Name, item.Source, nil)
		}
		if !ok {
			return nil, fmt.Errorf("middleware %s: %s %q failed", item.Name, mode, target)
		}
	}
	return registry, nil
}
