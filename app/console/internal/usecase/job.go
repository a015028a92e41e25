package usecase

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"

	"github.com/iWorld-y/annual_review/app/annual_review/pkg/artifact"
	"github.com/iWorld-y/annual_review/app/annual_review/pkg/config"
	"github.com/iWorld-y/annual_review/app/annual_review/pkg/engine"
	"github.com/iWorld-y/annual_review/app/annual_review/pkg/llm"
	"github.com/iWorld-y/annual_review/app/annual_review/pkg/logger"
	"github.com/iWorld-y/annual_review/app/console/internal/conf"
	"github.com/iWorld-y/annual_review/app/console/internal/domain"
	"github.com/iWorld-y/annual_review/app/console/internal/repo"
)

// streamBuffer 流式事件通道容量
const streamBuffer = 64

// Runner 执行一次评审；*engine.Engine 即实现
type Runner interface {
	Run(ctx context.Context, opts engine.Options) (*engine.Result, error)
}

// JobUseCase 评审任务：每个请求独立执行一次编排器
type JobUseCase struct {
	runner Runner
	repo   repo.RunRepo
	layout *Layout
	llm    conf.LLM
	level  string
	log    *log.Helper
	now    func() time.Time
}

// NewJobUseCase 创建任务实例。模型参数优先级：配置文件 > 环境变量 > 网页端默认值，
// 环境变量只在创建时读取一次
func NewJobUseCase(runner Runner, repo repo.RunRepo, layout *Layout, c *conf.Review, logger log.Logger) *JobUseCase {
	defaults := conf.LLM{
		BaseUrl:             llm.DefaultBaseURL,
		Model:               "deepseek-chat",
		AggregateModel:      "deepseek-reasoner",
		Temperature:         1.3,
		MaxTokensIndividual: 1100,
		MaxTokensAggregate:  5000,
	}
	mergeLLM(&defaults, envLLM(os.LookupEnv))
	level := "info"
	if c != nil {
		if c.Llm != nil {
			mergeLLM(&defaults, c.Llm)
		}
		if c.Log != nil && c.Log.Level != "" {
			level = c.Log.Level
		}
	}
	return &JobUseCase{
		runner: runner,
		repo:   repo,
		layout: layout,
		llm:    defaults,
		level:  level,
		log:    log.NewHelper(logger),
		now:    time.Now,
	}
}

// envLLM 读取 DEEPSEEK_* 环境变量
func envLLM(lookup func(string) (string, bool)) *conf.LLM {
	get := func(key string) string {
		v, _ := lookup(key)
		return v
	}
	return &conf.LLM{
		ApiKey:         get(config.EnvAPIKey),
		BaseUrl:        get(config.EnvBaseURL),
		Model:          get(config.EnvModel),
		AggregateModel: get(config.EnvAggregateModel),
	}
}

func mergeLLM(dst *conf.LLM, src *conf.LLM) {
	if src.BaseUrl != "" {
		dst.BaseUrl = src.BaseUrl
	}
	if src.ApiKey != "" {
		dst.ApiKey = src.ApiKey
	}
	if src.Model != "" {
		dst.Model = src.Model
	}
	if src.AggregateModel != "" {
		dst.AggregateModel = src.AggregateModel
	}
	if src.Temperature != 0 {
		dst.Temperature = src.Temperature
	}
	if src.MaxTokensIndividual > 0 {
		dst.MaxTokensIndividual = src.MaxTokensIndividual
	}
	if src.MaxTokensAggregate > 0 {
		dst.MaxTokensAggregate = src.MaxTokensAggregate
	}
}

// Run 同步执行一次评审
func (uc *JobUseCase) Run(ctx context.Context, req *domain.RunRequest) (*domain.RunResult, error) {
	return uc.execute(ctx, req, nil)
}

// Stream 在后台执行评审，日志逐行以事件形式发出，结束后关闭通道。
// 客户端断开（ctx 结束）后事件被丢弃，任务仍会执行完毕。
func (uc *JobUseCase) Stream(ctx context.Context, req *domain.RunRequest) <-chan domain.Event {
	events := make(chan domain.Event, streamBuffer)
	send := func(ev domain.Event) {
		select {
		case events <- ev:
		case <-ctx.Done():
		}
	}

	go func() {
		defer close(events)
		progress := func(line string) {
			send(domain.Event{Type: domain.EventLog, Message: line})
		}
		res, err := uc.execute(context.WithoutCancel(ctx), req, progress)
		if err != nil {
			send(domain.Event{Type: domain.EventError, Message: err.Error()})
			return
		}
		send(domain.Event{Type: domain.EventDone, RunResult: res})
	}()
	return events
}

func (uc *JobUseCase) execute(ctx context.Context, req *domain.RunRequest, progress func(string)) (*domain.RunResult, error) {
	if req == nil {
		req = &domain.RunRequest{}
	}
	inputDir := uc.layout.UploadRoot
	if req.InputDir != "" {
		p, err := SafeJoin(uc.layout.BaseDir, req.InputDir)
		if err != nil {
			return nil, err
		}
		inputDir = p
	}

	if isEmptyDir(inputDir) {
		return &domain.RunResult{
			ExitCode: 1,
			Stderr:   fmt.Sprintf("输入目录为空: %s", inputDir),
		}, nil
	}

	started := uc.now()
	name := fmt.Sprintf("run-%s-%s", started.Format("20060102-150405"), uuid.NewString()[:8])
	outDir := filepath.Join(uc.layout.RunRoot, name)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, err
	}

	out := &lineWriter{emit: progress}
	runLog := logger.New(uc.level, out)
	out.line("[web] 开始执行分析任务...\n")

	opts := uc.options(req)
	opts.InputDir = inputDir
	opts.OutDir = outDir
	opts.Log = runLog

	res, err := uc.runner.Run(ctx, opts)
	exitCode := engine.ExitCode(err)
	if err != nil {
		out.line(err.Error() + "\n")
	}
	out.line(fmt.Sprintf("[web] 任务结束，退出码 %d\n", exitCode))

	result := &domain.RunResult{
		ExitCode: exitCode,
		Log:      out.String(),
		RunDir:   ptr(uc.layout.Rel(outDir)),
	}
	if p := filepath.Join(outDir, artifact.IndividualFile); isFile(p) {
		result.Individual = ptr(uc.layout.Rel(p))
	}
	if p := filepath.Join(outDir, artifact.OrganizationFile); isFile(p) {
		result.Organization = ptr(uc.layout.Rel(p))
	}

	record := &domain.Run{
		Name:       name,
		InputDir:   uc.layout.Rel(inputDir),
		RunDir:     uc.layout.Rel(outDir),
		ExitCode:   exitCode,
		StartedAt:  started,
		FinishedAt: uc.now(),
	}
	if res != nil {
		record.Reports = res.Reports
		record.Failures = res.Failures
	}
	if err := uc.repo.SaveRun(ctx, record); err != nil {
		uc.log.Errorf("save run %s: %v", name, err)
	}
	return result, nil
}

// options 合并请求参数与服务端默认值
func (uc *JobUseCase) options(req *domain.RunRequest) engine.Options {
	d := uc.llm
	opts := engine.Options{
		Credentials: llm.Credentials{
			APIKey:  firstNonEmpty(req.APIKey, d.ApiKey),
			BaseURL: firstNonEmpty(req.BaseURL, d.BaseUrl),
		},
		Model:               firstNonEmpty(req.Model, d.Model),
		AggregateModel:      firstNonEmpty(req.AggregateModel, d.AggregateModel),
		Temperature:         d.Temperature,
		MaxTokensIndividual: int(d.MaxTokensIndividual),
		MaxTokensAggregate:  int(d.MaxTokensAggregate),
		PlanPrompt:          req.PlanPrompt,
	}
	if req.Temperature != nil {
		opts.Temperature = *req.Temperature
	}
	if req.MaxTokensIndividual != nil {
		opts.MaxTokensIndividual = *req.MaxTokensIndividual
	}
	if req.MaxTokensAggregate != nil {
		opts.MaxTokensAggregate = *req.MaxTokensAggregate
	}
	return opts
}

// isEmptyDir 目录不存在或其下没有任何条目
func isEmptyDir(dir string) bool {
	empty := true
	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p != dir {
			empty = false
			return fs.SkipAll
		}
		return nil
	})
	return empty
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func ptr(s string) *string { return &s }

// lineWriter 收集完整日志，并把每一行交给 emit
type lineWriter struct {
	mu   sync.Mutex
	buf  bytes.Buffer
	emit func(string)
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf.Write(p)
	if w.emit != nil {
		for _, line := range strings.SplitAfter(string(p), "\n") {
			if line != "" {
				w.emit(line)
			}
		}
	}
	return len(p), nil
}

func (w *lineWriter) line(s string) {
	_, _ = w.Write([]byte(s))
}

func (w *lineWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.String()
}
