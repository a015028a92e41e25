package prompt

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/sirupsen/logrus"

	"github.com/iWorld-y/annual_review/app/annual_review/pkg/logger"
)

// 模板文件相对提示词目录的路径
const (
	IndividualSystemFile = "individual/system.tmpl"
	IndividualUserFile   = "individual/user.tmpl"
	AggregateSystemFile  = "aggregate/system.tmpl"
	AggregateUserFile    = "aggregate/user.tmpl"
)

var funcs = template.FuncMap{
	"roleLabel": RoleLabel,
	"json":      indentJSON,
	"trim":      strings.TrimSpace,
}

// IndividualTemplates 基于 text/template 的单人提炼覆盖实现
type IndividualTemplates struct {
	system *template.Template
	user   *template.Template
}

// BuildSystemPrompt 实现 IndividualBuilder
func (t *IndividualTemplates) BuildSystemPrompt(ctx *IndividualContext) (string, error) {
	return execute(t.system, ctx)
}

// BuildPrompt 实现 IndividualBuilder
func (t *IndividualTemplates) BuildPrompt(ctx *IndividualContext) (string, error) {
	return execute(t.user, ctx)
}

// AggregateTemplates 基于 text/template 的汇总覆盖实现
type AggregateTemplates struct {
	system *template.Template
	user   *template.Template
}

// BuildSystemPrompt 实现 AggregateBuilder
func (t *AggregateTemplates) BuildSystemPrompt(ctx *AggregateContext) (string, error) {
	return execute(t.system, ctx)
}

// BuildPrompt 实现 AggregateBuilder
func (t *AggregateTemplates) BuildPrompt(ctx *AggregateContext) (string, error) {
	return execute(t.user, ctx)
}

// LoadTemplates 从目录加载提示词模板。目录不存在或四个模板都缺失时返回 nil；
// 单个模板解析失败只记录警告，该提示词继续使用默认值。
func LoadTemplates(dir string, log logrus.FieldLogger) (*IndividualTemplates, *AggregateTemplates) {
	log = logger.Or(log)
	if dir == "" {
		return nil, nil
	}
	if _, err := os.Stat(dir); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warnf("无法读取提示词目录 %s: %v", dir, err)
		}
		return nil, nil
	}

	load := func(name string) *template.Template {
		path := filepath.Join(dir, filepath.FromSlash(name))
		data, err := os.ReadFile(path)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				log.Warnf("读取提示词模板失败 %s: %v", path, err)
			}
			return nil
		}
		tpl, err := template.New(name).Funcs(funcs).Option("missingkey=error").Parse(string(data))
		if err != nil {
			log.Warnf("解析提示词模板失败 %s: %v", path, err)
			return nil
		}
		log.Infof("已加载自定义提示词模板: %s", path)
		return tpl
	}

	var (
		ind *IndividualTemplates
		agg *AggregateTemplates
	)
	if sys, user := load(IndividualSystemFile), load(IndividualUserFile); sys != nil || user != nil {
		ind = &IndividualTemplates{system: sys, user: user}
	}
	if sys, user := load(AggregateSystemFile), load(AggregateUserFile); sys != nil || user != nil {
		agg = &AggregateTemplates{system: sys, user: user}
	}
	return ind, agg
}

// Options 将模板转换为 Prompts 配置项，nil 模板不产生覆盖
func (t *IndividualTemplates) Options() []Option {
	if t == nil {
		return nil
	}
	return []Option{WithIndividual(t)}
}

// Options 将模板转换为 Prompts 配置项，nil 模板不产生覆盖
func (t *AggregateTemplates) Options() []Option {
	if t == nil {
		return nil
	}
	return []Option{WithAggregate(t)}
}

func execute(tpl *template.Template, data any) (string, error) {
	if tpl == nil {
		return "", errNotProvided
	}
	var sb strings.Builder
	if err := tpl.Execute(&sb, data); err != nil {
		return "", err
	}
	return sb.String(), nil
}
