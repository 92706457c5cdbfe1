package middleware

import "github.com/any-hub/rackup/internal/rack"

// Source 是内置中间件在 Catalog 中的来源键。
const Source = "rack/middleware"

func init() {
	rack.Provide(Source, Install)
}

// Install 把内置中间件的构造函数登记到 c。
func Install(c *rack.Catalog) error {
	factories := []struct {
		name    string
		factory rack.Factory
	}{
		{"HeadRequest", NewHeadRequest},
		{"MethodOverride", NewMethodOverride},
		{"ContentLength", NewContentLength},
		{"CommonLogger", NewCommonLogger},
		{"Metrics", NewMetrics},
	}
	for _, f := range factories {
		if err := c.Register(f.name, f.factory); err != nil {
			return err
		}
	}
	return nil
}
