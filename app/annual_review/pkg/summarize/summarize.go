// Package summarize 实现两阶段调用：逐篇提炼结构化摘要，再汇总为组织评审报告。
package summarize

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/iWorld-y/annual_review/app/annual_review/pkg/llm"
	"github.com/iWorld-y/annual_review/app/annual_review/pkg/model"
	"github.com/iWorld-y/annual_review/app/annual_review/pkg/prompt"
)

// ErrModelOutputInvalid 去除代码块包裹后仍无法解析为 JSON
var ErrModelOutputInvalid = errors.New("无法解析模型返回的 JSON")

// ModelOutputInvalidError 携带模型原始输出，便于排查
type ModelOutputInvalidError struct {
	Raw string
	Err error
}

func (e *ModelOutputInvalidError) Error() string {
	return fmt.Sprintf("%v: %v; content=%s", ErrModelOutputInvalid, e.Err, e.Raw)
}

func (e *ModelOutputInvalidError) Unwrap() error { return e.Err }

func (e *ModelOutputInvalidError) Is(target error) bool { return target == ErrModelOutputInvalid }

// Completer 一次请求/响应式的模型调用
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (string, error)
}

// Settings 单阶段调用参数
type Settings struct {
	Model       string
	Temperature float32
	MaxTokens   int
}

func (s Settings) request(system, user string) llm.Request {
	return llm.Request{
		Model:       s.Model,
		Temperature: s.Temperature,
		MaxTokens:   s.MaxTokens,
		System:      system,
		User:        user,
	}
}

// Summarizer 单篇报告提炼器
type Summarizer struct {
	client   Completer
	prompts  *prompt.Prompts
	settings Settings
}

// NewSummarizer 创建提炼器
func NewSummarizer(client Completer, prompts *prompt.Prompts, settings Settings) *Summarizer {
	if prompts == nil {
		prompts = prompt.New()
	}
	return &Summarizer{client: client, prompts: prompts, settings: settings}
}

// Summarize 对一篇报告调用模型并修复必填字段
func (s *Summarizer) Summarize(ctx context.Context, r *model.Report) (*model.Summary, error) {
	system, user := s.prompts.Individual(r)
	content, err := s.client.Complete(ctx, s.settings.request(system, user))
	if err != nil {
		return nil, err
	}
	summary, err := ParseSummary(content)
	if err != nil {
		return nil, err
	}
	summary.Repair(r)
	return summary, nil
}

// SummarizeOrFail 失败时返回占位记录与原始错误，调用方据此记录日志后继续
func (s *Summarizer) SummarizeOrFail(ctx context.Context, r *model.Report) (*model.Summary, error) {
	summary, err := s.Summarize(ctx, r)
	if err != nil {
		return model.NewFailureRecord(r, err.Error()), err
	}
	return summary, nil
}

// ParseSummary 解析模型输出；直接解析失败时去掉 ```json 代码块包裹再试一次
func ParseSummary(content string) (*model.Summary, error) {
	var summary model.Summary
	if err := json.Unmarshal([]byte(content), &summary); err == nil {
		return &summary, nil
	}

	cleaned := strings.TrimSpace(content)
	cleaned = strings.ReplaceAll(cleaned, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	summary = model.Summary{}
	if err := json.Unmarshal([]byte(cleaned), &summary); err != nil {
		return nil, &ModelOutputInvalidError{Raw: content, Err: err}
	}
	return &summary, nil
}

// Synthesizer 汇总报告生成器
type Synthesizer struct {
	client   Completer
	prompts  *prompt.Prompts
	settings Settings
}

// NewSynthesizer 创建汇总生成器
func NewSynthesizer(client Completer, prompts *prompt.Prompts, settings Settings) *Synthesizer {
	if prompts == nil {
		prompts = prompt.New()
	}
	return &Synthesizer{client: client, prompts: prompts, settings: settings}
}

// Synthesize 将全部摘要（含失败占位）裁剪后一次性提交给模型，返回原样的 Markdown 文本
func (s *Synthesizer) Synthesize(ctx context.Context, people []*model.Summary, planPrompt string) (string, error) {
	compact := make([]model.Compact, 0, len(people))
	for _, p := range people {
		compact = append(compact, p.Compact())
	}
	system, user, err := s.prompts.Aggregate(compact, planPrompt)
	if err != nil {
		return "", err
	}
	content, err := s.client.Complete(ctx, s.settings.request(system, user))
	if err != nil {
		return "", err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return "", llm.ErrEmptyModelResponse
	}
	return content, nil
}
