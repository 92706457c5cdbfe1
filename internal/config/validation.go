package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate 针对语义级别做进一步校验，防止非法配置启动服务。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	g := c.Global
	if g.ListenPort <= 0 || g.ListenPort > 65535 {
		return newFieldError("Global.ListenPort", "必须在 1-65535")
	}
	if g.LogFormat != "" && g.LogFormat != "json" && g.LogFormat != "text" {
		return newFieldError("Global.LogFormat", "仅支持 json/text")
	}
	if g.LogMaxSize < 0 {
		return newFieldError("Global.LogMaxSize", "不能为负数")
	}
	if g.LogMaxBackups < 0 {
		return newFieldError("Global.LogMaxBackups", "不能为负数")
	}
	if g.ReadTimeout.DurationValue() < 0 {
		return newFieldError("Global.ReadTimeout", "不能为负数")
	}
	if g.WriteTimeout.DurationValue() < 0 {
		return newFieldError("Global.WriteTimeout", "不能为负数")
	}

	if len(c.Middleware) == 0 {
		return errors.New("至少需要配置一个 Middleware")
	}

	// 按声明顺序模拟栈的组装，保证 Before/After/Replace 引用的是已存在的条目。
	declared := map[string]struct{}{}
	for i := range c.Middleware {
		mw := &c.Middleware[i]
		mw.Name = strings.TrimSpace(mw.Name)
		mw.Source = strings.TrimSpace(mw.Source)
		if mw.Name == "" {
			return newFieldError("Middleware[].Name", "不能为空")
		}
		if strings.ContainsAny(mw.Name, " \t/") {
			return newFieldError(middlewareField(mw.Name, "Name"), "不允许包含空白或 '/'")
		}
		if _, exists := declared[mw.Name]; exists {
			return newFieldError(middlewareField(mw.Name, "Name"), "重复")
		}
		if mw.placementCount() > 1 {
			return newFieldError(middlewareField(mw.Name, "Before/After/Replace"), "至多设置一个")
		}

		mode, target := mw.Placement()
		if mode != PlacementAppend {
			if _, ok := declared[target]; !ok {
				return newFieldError(middlewareField(mw.Name, placementField(mode)), fmt.Sprintf("引用了未声明的中间件: %s", target))
			}
		}
		if mode == PlacementReplace {
			delete(declared, target)
		}
		declared[mw.Name] = struct{}{}
	}

	return nil
}

func placementField(mode PlacementMode) string {
	switch mode {
	case PlacementBefore:
		return "Before"
	case PlacementAfter:
		return "After"
	default:
		return "Replace"
	}
}
