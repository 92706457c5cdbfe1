package config

import (
	"testing"
	"time"
)

func TestLoadWithDefaults(t *testing.T) {
	cfgPath := testConfigPath(t, "valid.toml")

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load 返回错误: %v", err)
	}
	if cfg.Global.ListenPort != 9292 {
		t.Fatalf("ListenPort 应当被解析，得到 %d", cfg.Global.ListenPort)
	}
	if cfg.Global.ReadTimeout.DurationValue() != 10*time.Second {
		t.Fatalf("ReadTimeout 应为 10s，得到 %s", cfg.Global.ReadTimeout.DurationValue())
	}
	if cfg.Global.WriteTimeout.DurationValue() != 30*time.Second {
		t.Fatalf("WriteTimeout 应该自动填充默认值")
	}
	if cfg.Global.LogMaxSize != 100 {
		t.Fatalf("LogMaxSize 默认值应为 100，得到 %d", cfg.Global.LogMaxSize)
	}
	names := MiddlewareNames(cfg.Middleware)
	want := []string{"HeadRequest", "MethodOverride", "Format", "App", "Api"}
	if len(names) != len(want) {
		t.Fatalf("中间件数量不符: %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("第 %d 项应为 %s，得到 %s", i, want[i], names[i])
		}
	}
	if mode, target := cfg.Middleware[4].Placement(); mode != PlacementBefore || target != "App" {
		t.Fatalf("Api 应插入到 App 之前，得到 %s/%s", mode, target)
	}
}

func TestValidateRejectsBadMiddleware(t *testing.T) {
	cfgPath := testConfigPath(t, "missing.toml")

	if _, err := Load(cfgPath); err == nil {
		t.Fatalf("不合法的配置应返回错误")
	}
}

func TestValidateEnforcesListenPortRange(t *testing.T) {
	cfg := validConfig()
	cfg.Global.ListenPort = 70000
	if err := cfg.Validate(); err == nil {
		t.Fatalf("ListenPort 超出范围应当报错")
	}
}

func TestValidateRejectsUnknownLogFormat(t *testing.T) {
	cfg := validConfig()
	cfg.Global.LogFormat = "xml"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("未知 LogFormat 应当报错")
	}
	cfg.Global.LogFormat = "text"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("text 格式应当合法: %v", err)
	}
}

func TestValidateRequiresMiddleware(t *testing.T) {
	cfg := validConfig()
	cfg.Middleware = nil
	if err := cfg.Validate(); err == nil {
		t.Fatalf("空中间件列表应当报错")
	}
}

func TestMiddlewarePlacementValidation(t *testing.T) {
	testCases := []struct {
		name      string
		entry     MiddlewareConfig
		shouldErr bool
	}{
		{"append ok", MiddlewareConfig{Name: "Metrics"}, false},
		{"before declared", MiddlewareConfig{Name: "Api", Before: "App"}, false},
		{"after declared", MiddlewareConfig{Name: "Api", After: "HeadRequest"}, false},
		{"replace declared", MiddlewareConfig{Name: "Other", Replace: "App"}, false},
		{"unknown target", MiddlewareConfig{Name: "Api", Before: "Missing"}, true},
		{"two placements", MiddlewareConfig{Name: "Api", Before: "App", After: "App"}, true},
		{"duplicate name", MiddlewareConfig{Name: "App"}, true},
		{"empty name", MiddlewareConfig{Source: "app"}, true},
		{"name with slash", MiddlewareConfig{Name: "a/b"}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Middleware = append(cfg.Middleware, tc.entry)
			err := cfg.Validate()
			if tc.shouldErr && err == nil {
				t.Fatalf("expected error for %+v", tc.entry)
			}
			if !tc.shouldErr && err != nil {
				t.Fatalf("unexpected error for %+v: %v", tc.entry, err)
			}
		})
	}
}

func TestValidateAllowsReuseOfReplacedName(t *testing.T) {
	cfg := validConfig()
	cfg.Middleware = append(cfg.Middleware,
		MiddlewareConfig{Name: "Shim", Replace: "App"},
		MiddlewareConfig{Name: "App", After: "Shim"},
	)
	if err := cfg.Validate(); err != nil {
		t.Fatalf("被替换的名称应可再次声明: %v", err)
	}
}

func TestFieldErrorNamesMiddleware(t *testing.T) {
	cfg := validConfig()
	cfg.Middleware = append(cfg.Middleware, MiddlewareConfig{Name: "Api", After: "Nope"})
	err := cfg.Validate()
	fieldErr, ok := err.(FieldError)
	if !ok {
		t.Fatalf("应返回 FieldError，得到 %T", err)
	}
	if fieldErr.Field != "Middleware[Api].After" {
		t.Fatalf("字段路径不符: %s", fieldErr.Field)
	}
}

func validConfig() *Config {
	return &Config{
		Global: GlobalConfig{
			ListenPort:   9292,
			LogLevel:     "info",
			ReadTimeout:  Duration(time.Second),
			WriteTimeout: Duration(time.Second),
		},
		Middleware: []MiddlewareConfig{
			{Name: "HeadRequest", Source: "rack/middleware"},
			{Name: "App", Source: "app"},
		},
	}
}
