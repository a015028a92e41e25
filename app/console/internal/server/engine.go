package server

import (
	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/annual_review/app/annual_review/pkg/engine"
	"github.com/iWorld-y/annual_review/app/annual_review/pkg/llm"
	drLogger "github.com/iWorld-y/annual_review/app/annual_review/pkg/logger"
	"github.com/iWorld-y/annual_review/app/annual_review/pkg/prompt"
	"github.com/iWorld-y/annual_review/app/console/internal/conf"
	"github.com/iWorld-y/annual_review/app/console/internal/usecase"
)

// NewReviewEngine 初始化评审编排器，提示词模板在启动时加载一次
func NewReviewEngine(c *conf.Review, logger log.Logger) usecase.Runner {
	dir, rpm, level := "prompts", 0, "info"
	if c != nil {
		if c.PromptsDir != "" {
			dir = c.PromptsDir
		}
		if c.Concurrency != nil {
			rpm = int(c.Concurrency.Rpm)
		}
		if c.Log != nil && c.Log.Level != "" {
			level = c.Log.Level
		}
	}

	// 全局日志只用于启动阶段，单次运行使用各自的日志实例
	if err := drLogger.InitLogger(level, ""); err != nil {
		log.NewHelper(logger).Errorf("Failed to init review logger: %v", err)
	}

	ind, agg := prompt.LoadTemplates(dir, drLogger.Log)
	prompts := prompt.New(append(ind.Options(), agg.Options()...)...)
	log.NewHelper(logger).Infof("review engine ready, prompts dir %s, rpm %d", dir, rpm)
	return engine.NewEngine(llm.NewChatModel, prompts, rpm)
}
