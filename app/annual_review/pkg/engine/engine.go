package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iWorld-y/annual_review/app/annual_review/pkg/artifact"
	"github.com/iWorld-y/annual_review/app/annual_review/pkg/collector"
	"github.com/iWorld-y/annual_review/app/annual_review/pkg/llm"
	"github.com/iWorld-y/annual_review/app/annual_review/pkg/loader"
	"github.com/iWorld-y/annual_review/app/annual_review/pkg/logger"
	"github.com/iWorld-y/annual_review/app/annual_review/pkg/model"
	"github.com/iWorld-y/annual_review/app/annual_review/pkg/prompt"
	"github.com/iWorld-y/annual_review/app/annual_review/pkg/summarize"
)

var (
	ErrInputNotFound   = errors.New("输入目录不存在")
	ErrMissingAPIKey   = errors.New("未设置 API Key")
	ErrNoReports       = errors.New("未找到可处理的文件，请确认目录下包含 txt/md/docx 文件")
	ErrAggregateFailed = errors.New("汇总失败")
)

// Engine 批处理编排器：收集 -> 逐篇提炼 -> 汇总 -> 落盘，全程串行
type Engine struct {
	factory llm.Factory
	prompts *prompt.Prompts
	rpm     int
}

// NewEngine 创建引擎实例；factory 为空时使用 openai 兼容实现
func NewEngine(factory llm.Factory, prompts *prompt.Prompts, rpm int) *Engine {
	if factory == nil {
		factory = llm.NewChatModel
	}
	if prompts == nil {
		prompts = prompt.New()
	}
	return &Engine{factory: factory, prompts: prompts, rpm: rpm}
}

// Options 单次运行参数，凭据随运行显式传递
type Options struct {
	InputDir            string
	OutDir              string
	Credentials         llm.Credentials
	Model               string
	AggregateModel      string
	Temperature         float64
	MaxTokensIndividual int
	MaxTokensAggregate  int
	PlanPrompt          string
	Log                 logrus.FieldLogger
}

// Result 运行结果
type Result struct {
	Reports          int
	Failures         int
	IndividualPath   string
	OrganizationPath string
}

// ExitCode 进程退出码
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}

// Run 执行一次完整评审。汇总失败时仍写出报告文件，并同时返回结果与 ErrAggregateFailed。
func (e *Engine) Run(ctx context.Context, opts Options) (*Result, error) {
	log := logger.Or(opts.Log)

	if info, err := os.Stat(opts.InputDir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrInputNotFound, opts.InputDir)
	}
	if opts.Credentials.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	// 1. 收集
	reports, err := collector.New(loader.New(log), log).Collect(opts.InputDir)
	if err != nil {
		return nil, fmt.Errorf("收集报告失败: %w", err)
	}
	if len(reports) == 0 {
		return nil, ErrNoReports
	}

	chatModel, err := e.factory(ctx, opts.Credentials, opts.Model)
	if err != nil {
		return nil, err
	}
	client := llm.NewClient(chatModel, e.rpm)
	temperature := float32(opts.Temperature)
	summarizer := summarize.NewSummarizer(client, e.prompts, summarize.Settings{
		Model:       opts.Model,
		Temperature: temperature,
		MaxTokens:   opts.MaxTokensIndividual,
	})
	synthesizer := summarize.NewSynthesizer(client, e.prompts, summarize.Settings{
		Model:       opts.AggregateModel,
		Temperature: temperature,
		MaxTokens:   opts.MaxTokensAggregate,
	})

	// 2. 逐篇提炼，每篇结果立即落盘
	log.Infof("发现 %d 篇总结，开始逐篇提炼...", len(reports))
	res := &Result{Reports: len(reports)}
	people := make([]*model.Summary, 0, len(reports))
	for i := range reports {
		r := &reports[i]
		log.Infof("[%d/%d] 处理 %s ...", i+1, len(reports), r.Path)

		summary, err := summarizer.SummarizeOrFail(ctx, r)
		if err != nil {
			res.Failures++
			log.Errorf("提炼失败: %s -> %v", r.Path, err)
		}
		people = append(people, summary)

		dest, err := artifact.PerReportPath(opts.OutDir, opts.InputDir, r.Path)
		if err != nil {
			return res, err
		}
		if err := artifact.WriteJSON(dest, summary); err != nil {
			return res, fmt.Errorf("写入单篇结果失败: %w", err)
		}
	}

	// 3. 批量结果
	res.IndividualPath = filepath.Join(opts.OutDir, artifact.IndividualFile)
	if err := artifact.WriteJSON(res.IndividualPath, people); err != nil {
		return res, fmt.Errorf("写入个人提炼结果失败: %w", err)
	}
	log.Infof("已写入个人提炼结果: %s", res.IndividualPath)

	// 4. 汇总
	log.Info("开始生成部门与整体评价 ...")
	body, aggErr := synthesizer.Synthesize(ctx, people, opts.PlanPrompt)
	if aggErr != nil {
		body = "生成失败：" + aggErr.Error()
		log.Errorf("汇总失败: %v", aggErr)
	}

	res.OrganizationPath = filepath.Join(opts.OutDir, artifact.OrganizationFile)
	header := artifact.Header{
		GeneratedAt:    time.Now(),
		Model:          opts.Model,
		AggregateModel: opts.AggregateModel,
		Temperature:    opts.Temperature,
	}
	if err := artifact.WriteReview(res.OrganizationPath, header, body); err != nil {
		return res, fmt.Errorf("写入综合报告失败: %w", err)
	}
	if aggErr != nil {
		return res, fmt.Errorf("%w: %w", ErrAggregateFailed, aggErr)
	}
	log.Infof("已写入综合报告: %s", res.OrganizationPath)
	return res, nil
}
