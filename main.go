package main

import (
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	_ "github.com/any-hub/rackup/internal/app"
	"github.com/any-hub/rackup/internal/config"
	"github.com/any-hub/rackup/internal/logging"
	"github.com/any-hub/rackup/internal/rack"
	_ "github.com/any-hub/rackup/internal/rack/middleware"
	"github.com/any-hub/rackup/internal/server"
	"github.com/any-hub/rackup/internal/server/routes"
	"github.com/any-hub/rackup/internal/version"
)

// cliOptions 汇总 CLI 标志解析后的结果，便于在测试中注入。
type cliOptions struct {
	configPath  string
	checkOnly   bool
	showVersion bool
	// requestURI 非空时只执行一次请求并把原始响应写到 stdout，不启动 HTTP 服务。
	requestURI string
	method     string
}

var (
	stdOut io.Writer = os.Stdout
	stdErr io.Writer = os.Stderr
)

func main() {
	opts, err := parseCLIFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(stdErr, err.Error())
		os.Exit(2)
	}
	os.Exit(run(opts))
}

// run 根据解析到的 CLI 选项执行业务流程，并返回退出码，方便测试。
func run(opts cliOptions) int {
	if opts.showVersion {
		printVersion()
		return 0
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stdErr, "加载配置失败: %v\n", err)
		return 1
	}

	logger, err := logging.InitLogger(cfg.Global)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化日志失败: %v\n", err)
		return 1
	}

	registry, err := server.BuildRegistry(cfg.Middleware, rack.DefaultCatalog())
	if err != nil {
		fmt.Fprintf(stdErr, "构建中间件栈失败: %v\n", err)
		return 1
	}

	if opts.checkOnly {
		// 校验模式同样封存一次，确保每个名称都能找到构造函数。
		if err := registry.Seal(); err != nil {
			fmt.Fprintf(stdErr, "中间件栈校验失败: %v\n", err)
			return 1
		}
		fields := logging.BaseFields("check_config", opts.configPath)
		for k, v := range logging.StackFields(registry.Names(), registry.Sealed()) {
			fields[k] = v
		}
		fields["result"] = "ok"
		logger.WithFields(fields).Info("配置校验通过")
		return 0
	}

	// HTTP 服务并发调度请求；单次请求模式串行执行。
	dispatcher, err := rack.NewDispatcher(rack.Options{
		Registry:    registry,
		Logger:      logger,
		PoweredBy:   cfg.Global.PoweredBy,
		Multithread: opts.requestURI == "",
	})
	if err != nil {
		fmt.Fprintf(stdErr, "初始化调度器失败: %v\n", err)
		return 1
	}

	if opts.requestURI != "" {
		return runOnce(dispatcher, opts, cfg.Global.ListenPort)
	}

	logger.WithFields(startupFields(opts.configPath, cfg, registry)).Info("配置加载完成")

	if err := startHTTPServer(cfg, dispatcher, logger); err != nil {
		fmt.Fprintf(stdErr, "HTTP 服务启动失败: %v\n", err)
		return 1
	}
	return 0
}

// runOnce 以 CGI 方式执行一次请求，状态行、头部与 body 原样写到 stdout。
func runOnce(dispatcher *rack.Dispatcher, opts cliOptions, port int) int {
	out := rack.NewWriterEmitter(stdOut)
	if _, err := dispatcher.Run(cliRequestEnv(opts.method, opts.requestURI, port), nil, out); err != nil {
		fmt.Fprintf(stdErr, "请求执行失败: %v\n", err)
		return 1
	}
	if err := out.Finish(); err != nil {
		fmt.Fprintf(stdErr, "输出响应失败: %v\n", err)
		return 1
	}
	return 0
}

// cliRequestEnv 为单次请求模式构造 host Env。
func cliRequestEnv(method, requestURI string, port int) rack.Env {
	if method == "" {
		method = "GET"
	}
	if !strings.HasPrefix(requestURI, "/") {
		requestURI = "/" + requestURI
	}
	query := ""
	if u, err := url.ParseRequestURI(requestURI); err == nil {
		query = u.RawQuery
	}
	return rack.Env{
		rack.KeyRequestMethod:  strings.ToUpper(method),
		rack.KeyRequestURI:     requestURI,
		rack.KeyScriptName:     "",
		rack.KeyQueryString:    query,
		rack.KeyServerName:     "localhost",
		rack.KeyServerPort:     strconv.Itoa(port),
		rack.KeyServerProtocol: "HTTP/1.1",
		rack.KeyRemoteAddr:     "127.0.0.1",
		rack.KeyHTTPHost:       "localhost:" + strconv.Itoa(port),
	}
}

// parseCLIFlags 解析 CLI 参数，并结合环境变量计算最终的配置路径。
func parseCLIFlags(args []string) (cliOptions, error) {
	fs := flag.NewFlagSet("rackup", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		configFlag string
		checkOnly  bool
		showVer    bool
		requestURI string
		method     string
	)

	fs.StringVar(&configFlag, "config", "", "配置文件路径（默认 ./config.toml，可被 RACKUP_CONFIG 覆盖）")
	fs.BoolVar(&checkOnly, "check-config", false, "仅校验配置后退出")
	fs.BoolVar(&showVer, "version", false, "显示版本信息")
	fs.StringVar(&requestURI, "request", "", "执行一次请求（如 /widgets?page=2）并把响应写到 stdout")
	fs.StringVar(&method, "method", "GET", "-request 模式使用的请求方法")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, fmt.Errorf("解析参数失败: %w", err)
	}

	path := os.Getenv("RACKUP_CONFIG")
	if configFlag != "" {
		path = configFlag
	}
	if path == "" {
		path = "config.toml"
	}

	return cliOptions{
		configPath:  path,
		checkOnly:   checkOnly,
		showVersion: showVer,
		requestURI:  strings.TrimSpace(requestURI),
		method:      strings.TrimSpace(method),
	}, nil
}

// startupFields 按链顺序（已应用 Before/After/Replace）记录中间件栈。
func startupFields(configPath string, cfg *config.Config, registry *rack.Registry) logrus.Fields {
	fields := logging.BaseFields("startup", configPath)
	for k, v := range logging.StackFields(registry.Names(), registry.Sealed()) {
		fields[k] = v
	}
	fields["listen_port"] = cfg.Global.ListenPort
	fields["version"] = version.Full()
	return fields
}

func startHTTPServer(cfg *config.Config, dispatcher *rack.Dispatcher, logger *logrus.Logger) error {
	port := cfg.Global.ListenPort
	app, err := server.NewApp(server.AppOptions{
		Logger:       logger,
		Dispatcher:   dispatcher,
		ListenPort:   port,
		ReadTimeout:  cfg.Global.ReadTimeout.DurationValue(),
		WriteTimeout: cfg.Global.WriteTimeout.DurationValue(),
	})
	if err != nil {
		return err
	}
	routes.RegisterDiagnosticsRoutes(app, dispatcher.Registry(), rack.DefaultCatalog())

	logger.WithFields(logrus.Fields{
		"action": "listen",
		"port":   port,
	}).Info("Fiber 服务启动")

	return app.Listen(fmt.Sprintf(":%d", port))
}
