package config

import (
	"testing"
	"time"
)

func TestLoadFailsWithMissingFields(t *testing.T) {
	if _, err := Load(testConfigPath(t, "missing.toml")); err == nil {
		t.Fatalf("缺失字段的配置应返回错误")
	}
}

func TestLoadFailsWithMissingFile(t *testing.T) {
	if _, err := Load(testConfigPath(t, "does-not-exist.toml")); err == nil {
		t.Fatalf("不存在的配置文件应返回错误")
	}
}

func TestLoadRejectsInvalidDuration(t *testing.T) {
	cfg := `
LogLevel = "info"
ReadTimeout = "boom"

[[Middleware]]
Name = "App"
Source = "app"
`
	path := writeTempConfig(t, cfg)
	if _, err := Load(path); err == nil {
		t.Fatalf("无效 Duration 应失败")
	}
}

func TestLoadAcceptsNumericSeconds(t *testing.T) {
	cfg := `
ListenPort = 8080
WriteTimeout = 5
PoweredBy = "rackup"

[[Middleware]]
Name = "App"
Source = "app"
`
	loaded, err := Load(writeTempConfig(t, cfg))
	if err != nil {
		t.Fatalf("Load 返回错误: %v", err)
	}
	if loaded.Global.WriteTimeout.DurationValue() != 5*time.Second {
		t.Fatalf("纯数字应按秒解析，得到 %s", loaded.Global.WriteTimeout.DurationValue())
	}
	if loaded.Global.PoweredBy != "rackup" {
		t.Fatalf("PoweredBy 应被解析，得到 %q", loaded.Global.PoweredBy)
	}
	if loaded.Global.ListenPort != 8080 {
		t.Fatalf("ListenPort 应为 8080，得到 %d", loaded.Global.ListenPort)
	}
}
