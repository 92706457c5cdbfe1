package main

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/any-hub/rackup/internal/config"
	"github.com/any-hub/rackup/internal/rack"
	"github.com/any-hub/rackup/internal/server"
)

func TestParseCLIFlagsPriority(t *testing.T) {
	t.Setenv("RACKUP_CONFIG", "/tmp/env.toml")

	opts, err := parseCLIFlags([]string{})
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if opts.configPath != "/tmp/env.toml" {
		t.Fatalf("应优先使用环境变量，得到 %s", opts.configPath)
	}
	if opts.method != "GET" {
		t.Fatalf("method 默认应为 GET，得到 %s", opts.method)
	}

	opts, err = parseCLIFlags([]string{"--config", "/tmp/flag.toml", "-request", "/widgets?page=2", "-method", "head"})
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if opts.configPath != "/tmp/flag.toml" {
		t.Fatalf("flag 应高于环境变量，得到 %s", opts.configPath)
	}
	if opts.requestURI != "/widgets?page=2" || opts.method != "head" {
		t.Fatalf("request 参数解析不符: %+v", opts)
	}
}

func TestParseCLIFlagsRejectsUnknownFlag(t *testing.T) {
	if _, err := parseCLIFlags([]string{"-nope"}); err == nil {
		t.Fatalf("未知参数应返回错误")
	}
}

func TestRunCheckConfigSuccess(t *testing.T) {
	useBufferWriters(t)
	code := run(cliOptions{configPath: configFixture(t, "valid.toml"), checkOnly: true})
	if code != 0 {
		t.Fatalf("期望退出码 0，得到 %d (stderr=%s)", code, stdErrBuffer().String())
	}
}

func TestRunCheckConfigFailure(t *testing.T) {
	useBufferWriters(t)
	code := run(cliOptions{configPath: configFixture(t, "missing.toml"), checkOnly: true})
	if code == 0 {
		t.Fatalf("无效配置应返回非零退出码")
	}
}

func TestRunCheckConfigUnknownMiddleware(t *testing.T) {
	path := writeConfigFile(t, `
ListenPort = 9292

[[Middleware]]
Name = "NoSuchThing"
Source = "rack/middleware"
`)
	useBufferWriters(t)
	code := run(cliOptions{configPath: path, checkOnly: true})
	if code == 0 {
		t.Fatalf("未登记的中间件应导致校验失败")
	}
	if !strings.Contains(stdErrBuffer().String(), "NoSuchThing") {
		t.Fatalf("错误信息应包含中间件名称: %s", stdErrBuffer().String())
	}
}

func TestRunVersionOutput(t *testing.T) {
	useBufferWriters(t)
	code := run(cliOptions{showVersion: true})
	if code != 0 {
		t.Fatalf("version 模式应成功退出，得到 %d", code)
	}
	if !strings.Contains(stdOut.(*bytes.Buffer).String(), "rackup") {
		t.Fatalf("version 输出应包含 rackup 标识")
	}
}

func TestRunSingleRequest(t *testing.T) {
	useBufferWriters(t)
	code := run(cliOptions{
		configPath: configFixture(t, "valid.toml"),
		requestURI: "/?name=Ada",
		method:     "GET",
	})
	if code != 0 {
		t.Fatalf("期望退出码 0，得到 %d (stderr=%s)", code, stdErrBuffer().String())
	}
	out := stdOutBuffer().String()
	if !strings.HasPrefix(out, "HTTP/1.1 200 OK\r\n") {
		t.Fatalf("应以状态行开头: %q", out)
	}
	if !strings.Contains(out, "X-Powered-By: Rack 1.1\r\n") {
		t.Fatalf("缺少 X-Powered-By: %q", out)
	}
	if !strings.HasSuffix(out, "\r\n\r\nHello, Ada\n") {
		t.Fatalf("body 不符: %q", out)
	}
}

func TestRunSingleHeadRequestHasNoBody(t *testing.T) {
	useBufferWriters(t)
	code := run(cliOptions{
		configPath: configFixture(t, "valid.toml"),
		requestURI: "/",
		method:     "HEAD",
	})
	if code != 0 {
		t.Fatalf("期望退出码 0，得到 %d", code)
	}
	out := stdOutBuffer().String()
	if !strings.Contains(out, "Content-Type: text/plain; charset=utf-8\r\n") {
		t.Fatalf("HEAD 应保留头部: %q", out)
	}
	if !strings.HasSuffix(out, "\r\n\r\n") {
		t.Fatalf("HEAD 响应不应包含 body: %q", out)
	}
}

func TestCLIRequestEnv(t *testing.T) {
	env := cliRequestEnv("post", "widgets?page=2", 8080)
	if env["REQUEST_METHOD"] != "POST" {
		t.Fatalf("method 应转为大写，得到 %v", env["REQUEST_METHOD"])
	}
	if env["REQUEST_URI"] != "/widgets?page=2" {
		t.Fatalf("REQUEST_URI 应补全前导斜杠，得到 %v", env["REQUEST_URI"])
	}
	if env["QUERY_STRING"] != "page=2" {
		t.Fatalf("QUERY_STRING 不符: %v", env["QUERY_STRING"])
	}
	if env["SERVER_PORT"] != "8080" {
		t.Fatalf("SERVER_PORT 不符: %v", env["SERVER_PORT"])
	}
}

func TestStartupFieldsUseChainOrder(t *testing.T) {
	cfg, err := config.Load(configFixture(t, "valid.toml"))
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}
	registry, err := server.BuildRegistry(cfg.Middleware, rack.DefaultCatalog())
	if err != nil {
		t.Fatalf("组装中间件栈失败: %v", err)
	}

	fields := startupFields("valid.toml", cfg, registry)
	want := []string{"HeadRequest", "MethodOverride", "Format", "Api", "App"}
	if got, _ := fields["middleware"].([]string); !reflect.DeepEqual(got, want) {
		t.Fatalf("启动日志应按链顺序记录中间件，得到 %v", fields["middleware"])
	}
	if fields["action"] != "startup" || fields["listen_port"] != 9292 {
		t.Fatalf("启动字段不符: %v", fields)
	}
}
