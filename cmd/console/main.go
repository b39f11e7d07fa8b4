package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
	"github.com/zacharykka/support-console/internal/api"
	"github.com/zacharykka/support-console/internal/config"
	"github.com/zacharykka/support-console/internal/session"
	"github.com/zacharykka/support-console/internal/ui"
	"github.com/zacharykka/support-console/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	opts := parseFlags()

	cfg, err := config.Load(opts.ConfigDir, opts.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 日志写入文件而非标准输出，避免干扰终端渲染。
	log, err := logger.New(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := session.NewStore(ctx, cfg.Storage.DSN, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化会话存储失败: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = store.Close()
	}()

	client := api.NewClient(cfg.API.BaseURL, cfg.API.Timeout, store, log)

	program := tea.NewProgram(ui.New(ctx, client, log), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		log.Error("控制台运行异常", zap.Error(err))
		fmt.Fprintf(os.Stderr, "控制台运行异常: %v\n", err)
		os.Exit(1)
	}
}

// options 控制命令行参数。
type options struct {
	ConfigDir string
	Env       string
}

func parseFlags() options {
	var opts options
	pflag.StringVar(&opts.ConfigDir, "config-dir", "./config", "配置文件目录")
	pflag.StringVar(&opts.Env, "env", "", "强制指定运行环境，覆盖 SUPPORT_CONSOLE_ENV")
	pflag.Parse()
	return opts
}
