package app

import "github.com/any-hub/rackup/internal/rack"

// Source 是示例处理器在 Catalog 中的来源键。
const Source = "app"

func init() {
	rack.Provide(Source, Install)
}

// Install registers Format, Api and App on c.
func Install(c *rack.Catalog) error {
	if err := c.Register("Format", NewFormat); err != nil {
		return err
	}
	if err := c.Register("Api", NewAPI); err != nil {
		return err
	}
	return c.Register("App", NewApp)
}
