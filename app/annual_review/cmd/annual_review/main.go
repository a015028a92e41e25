package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/iWorld-y/annual_review/app/annual_review/pkg/config"
	"github.com/iWorld-y/annual_review/app/annual_review/pkg/engine"
	"github.com/iWorld-y/annual_review/app/annual_review/pkg/llm"
	"github.com/iWorld-y/annual_review/app/annual_review/pkg/logger"
	"github.com/iWorld-y/annual_review/app/annual_review/pkg/prompt"
)

func main() {
	os.Exit(execute(os.Args[1:], os.Stderr))
}

// execute 运行命令并返回退出码，错误写入 stderr
func execute(args []string, stderr io.Writer) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetErr(stderr)
	if err := cmd.Execute(); err != nil {
		cmd.PrintErrln("错误:", err)
		return engine.ExitCode(err)
	}
	return 0
}

func newRootCmd() *cobra.Command {
	def := config.Default()

	cmd := &cobra.Command{
		Use:           "annual_review",
		Short:         "对多个年终总结生成个人/部门/公司评价（DeepSeek 驱动）",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()
	fs.String("config", "", "YAML 配置文件路径")
	fs.String("env-file", ".env", "包含 DEEPSEEK_API_KEY 的 .env 路径")
	fs.String("input", "", "存放各部门年终总结的根目录")
	fs.String("out-dir", def.OutDir, "输出结果目录")
	fs.String("model", def.LLM.Model, "个人提炼模型")
	fs.String("aggregate-model", def.LLM.AggregateModel, "最终汇总使用的模型")
	fs.Float64("temperature", def.LLM.Temperature, "采样温度，个人提炼与最终汇总共用")
	fs.Int("max-tokens-individual", def.LLM.MaxTokensIndividual, "个人提炼阶段的 max_tokens（可在 4000-8000 调整）")
	fs.Int("max-tokens-aggregate", def.LLM.MaxTokensAggregate, "汇总阶段的 max_tokens（可在 32000-64000 调整）")
	fs.String("plan-prompt", "", "年初计划/指标等额外提示内容，追加到汇总提示中")
	fs.String("prompts-dir", def.PromptsDir, "自定义提示词模板目录")
	fs.Int("rpm", 0, "每分钟最多调用次数，0 表示不限制")
	fs.String("log-level", def.Log.Level, "日志级别")
	return cmd
}

// resolveConfig 优先级：命令行 > 环境变量 > 配置文件 > 默认值
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	fs := cmd.Flags()
	cfg := config.Default()
	if path, _ := fs.GetString("config"); path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return nil, fmt.Errorf("无法加载配置文件: %w", err)
		}
		cfg = loaded
	}

	envFile, _ := fs.GetString("env-file")
	if err := config.LoadEnvFile(envFile); err != nil {
		return nil, fmt.Errorf("无法读取 %s: %w", envFile, err)
	}
	cfg.ApplyEnv(os.LookupEnv)

	str := func(name string, dst *string) {
		if fs.Changed(name) {
			*dst, _ = fs.GetString(name)
		}
	}
	num := func(name string, dst *int) {
		if fs.Changed(name) {
			*dst, _ = fs.GetInt(name)
		}
	}
	str("input", &cfg.Input)
	str("out-dir", &cfg.OutDir)
	str("model", &cfg.LLM.Model)
	str("aggregate-model", &cfg.LLM.AggregateModel)
	str("plan-prompt", &cfg.PlanPrompt)
	str("prompts-dir", &cfg.PromptsDir)
	str("log-level", &cfg.Log.Level)
	num("max-tokens-individual", &cfg.LLM.MaxTokensIndividual)
	num("max-tokens-aggregate", &cfg.LLM.MaxTokensAggregate)
	num("rpm", &cfg.Concurrency.RPM)
	if fs.Changed("temperature") {
		cfg.LLM.Temperature, _ = fs.GetFloat64("temperature")
	}

	if cfg.Input == "" {
		return nil, errors.New("必须通过 --input 或配置文件指定输入目录")
	}
	return cfg, nil
}

func run(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := logger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		return fmt.Errorf("无法初始化日志: %w", err)
	}

	ind, agg := prompt.LoadTemplates(cfg.PromptsDir, logger.Log)
	prompts := prompt.New(append(ind.Options(), agg.Options()...)...)

	eng := engine.NewEngine(llm.NewChatModel, prompts, cfg.Concurrency.RPM)
	_, err := eng.Run(ctx, engine.Options{
		InputDir: cfg.Input,
		OutDir:   cfg.OutDir,
		Credentials: llm.Credentials{
			APIKey:  cfg.LLM.APIKey,
			BaseURL: cfg.LLM.BaseURL,
		},
		Model:               cfg.LLM.Model,
		AggregateModel:      cfg.LLM.AggregateModel,
		Temperature:         cfg.LLM.Temperature,
		MaxTokensIndividual: cfg.LLM.MaxTokensIndividual,
		MaxTokensAggregate:  cfg.LLM.MaxTokensAggregate,
		PlanPrompt:          cfg.PlanPrompt,
	})
	if err != nil {
		logger.Log.Errorf("运行失败: %v", err)
		return err
	}
	return nil
}
