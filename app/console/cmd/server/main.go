package main

import (
	"flag"
	"os"

	"github.com/go-kratos/kratos/v2/config"
	"github.com/go-kratos/kratos/v2/config/file"
	"github.com/go-kratos/kratos/v2/log"

	reviewcfg "github.com/iWorld-y/annual_review/app/annual_review/pkg/config"
	"github.com/iWorld-y/annual_review/app/console/internal/conf"
)

// go build -ldflags "-X main.Version=x.y.z"
var (
	// Name 评审控制台服务名
	Name = "annual_review_console"
	// Version 构建时注入
	Version string

	flagconf string
	flagenv  string

	id, _ = os.Hostname()
)

func init() {
	flag.StringVar(&flagconf, "conf", "configs/server.yaml", "config path, eg: -conf server.yaml")
	flag.StringVar(&flagenv, "env-file", ".env", "DEEPSEEK_* 环境变量文件，已存在的变量不覆盖")
}

func main() {
	flag.Parse()
	logger := log.With(log.NewStdLogger(os.Stdout),
		"ts", log.DefaultTimestamp,
		"caller", log.DefaultCaller,
		"service.id", id,
		"service.name", Name,
		"service.version", Version,
	)

	// 评审任务在未指定 api_key 时回退到 DEEPSEEK_API_KEY
	if err := reviewcfg.LoadEnvFile(flagenv); err != nil {
		panic(err)
	}

	c := config.New(config.WithSource(file.NewSource(flagconf)))
	defer c.Close()
	if err := c.Load(); err != nil {
		panic(err)
	}

	var bc conf.Bootstrap
	if err := c.Scan(&bc); err != nil {
		panic(err)
	}
	if bc.Review == nil {
		bc.Review = &conf.Review{}
	}

	app, cleanup, err := initApp(bc.Server, bc.Data, bc.Review, logger)
	if err != nil {
		panic(err)
	}
	defer cleanup()

	if err := app.Run(); err != nil {
		panic(err)
	}
}
