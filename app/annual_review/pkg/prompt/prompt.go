// Package prompt 构造单人提炼与最终汇总两类提示词。
//
// 默认实现内置行业背景与部门评价侧重点；外部可注入 IndividualBuilder /
// AggregateBuilder 覆盖默认实现，覆盖实现出错或 panic 时回退到默认值。
package prompt

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/iWorld-y/annual_review/app/annual_review/pkg/logger"
	"github.com/iWorld-y/annual_review/app/annual_review/pkg/model"
)

// errNotProvided 覆盖实现未提供该提示词，静默回退
var errNotProvided = errors.New("prompt not provided")

// IndividualContext 单人提炼提示词上下文
type IndividualContext struct {
	IndustryContext string
	DepartmentFocus string
	Report          *model.Report
	RawContent      string
}

// AggregateContext 汇总提示词上下文
type AggregateContext struct {
	IndustryContext string
	People          []model.Compact
	PeopleJSON      string // People 的缩进 JSON 文本
	PlanPrompt      string // 年初计划等补充信息，可能为空
}

// IndividualBuilder 单人提炼提示词构造器
type IndividualBuilder interface {
	BuildSystemPrompt(ctx *IndividualContext) (string, error)
	BuildPrompt(ctx *IndividualContext) (string, error)
}

// AggregateBuilder 汇总提示词构造器
type AggregateBuilder interface {
	BuildSystemPrompt(ctx *AggregateContext) (string, error)
	BuildPrompt(ctx *AggregateContext) (string, error)
}

// Prompts 带回退逻辑的提示词构造入口
type Prompts struct {
	individual IndividualBuilder
	aggregate  AggregateBuilder
	log        logrus.FieldLogger
}

// Option Prompts 配置项
type Option func(*Prompts)

// WithIndividual 注入单人提炼覆盖实现
func WithIndividual(b IndividualBuilder) Option {
	return func(p *Prompts) { p.individual = b }
}

// WithAggregate 注入汇总覆盖实现
func WithAggregate(b AggregateBuilder) Option {
	return func(p *Prompts) { p.aggregate = b }
}

// WithLogger 设置日志
func WithLogger(l logrus.FieldLogger) Option {
	return func(p *Prompts) { p.log = l }
}

// New 创建提示词构造入口
func New(opts ...Option) *Prompts {
	p := &Prompts{}
	for _, opt := range opts {
		opt(p)
	}
	p.log = logger.Or(p.log)
	return p
}

// Individual 返回单人提炼的 system / user 提示词
func (p *Prompts) Individual(r *model.Report) (system, user string) {
	ctx := &IndividualContext{
		IndustryContext: IndustryContext,
		DepartmentFocus: DepartmentFocus(r.Department),
		Report:          r,
		RawContent:      r.Content,
	}
	system = defaultIndividualSystem(ctx)
	user = defaultIndividualUser(ctx)
	if p.individual == nil {
		return system, user
	}
	if s, ok := p.try("individual system", func() (string, error) { return p.individual.BuildSystemPrompt(ctx) }); ok {
		system = s
	}
	if s, ok := p.try("individual user", func() (string, error) { return p.individual.BuildPrompt(ctx) }); ok {
		user = s
	}
	return system, user
}

// Aggregate 返回汇总的 system / user 提示词
func (p *Prompts) Aggregate(people []model.Compact, planPrompt string) (system, user string, err error) {
	peopleJSON, err := indentJSON(people)
	if err != nil {
		return "", "", fmt.Errorf("marshal summaries: %w", err)
	}
	ctx := &AggregateContext{
		IndustryContext: IndustryContext,
		People:          people,
		PeopleJSON:      peopleJSON,
		PlanPrompt:      planPrompt,
	}
	system = defaultAggregateSystem(ctx)
	user = defaultAggregateUser(ctx)
	if p.aggregate == nil {
		return system, user, nil
	}
	if s, ok := p.try("aggregate system", func() (string, error) { return p.aggregate.BuildSystemPrompt(ctx) }); ok {
		system = s
	}
	if s, ok := p.try("aggregate user", func() (string, error) { return p.aggregate.BuildPrompt(ctx) }); ok {
		user = s
	}
	return system, user, nil
}

// try 执行覆盖实现，吞掉错误与 panic
func (p *Prompts) try(name string, fn func() (string, error)) (out string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Warnf("自定义提示词 [%s] panic，使用默认值: %v", name, r)
			out, ok = "", false
		}
	}()
	s, err := fn()
	if err != nil {
		if !errors.Is(err, errNotProvided) {
			p.log.Warnf("自定义提示词 [%s] 执行失败，使用默认值: %v", name, err)
		}
		return "", false
	}
	return s, true
}

func indentJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
