package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/iWorld-y/annual_review/app/annual_review/pkg/llm"
)

// 环境变量名
const (
	EnvAPIKey         = "DEEPSEEK_API_KEY"
	EnvBaseURL        = "DEEPSEEK_BASE_URL"
	EnvModel          = "DEEPSEEK_MODEL"
	EnvAggregateModel = "DEEPSEEK_AGG_MODEL"
)

// Config 项目配置结构体
type Config struct {
	LLM         LLMConfig         `yaml:"llm"`
	Input       string            `yaml:"input"`
	OutDir      string            `yaml:"out_dir"`
	PlanPrompt  string            `yaml:"plan_prompt"`
	PromptsDir  string            `yaml:"prompts_dir"`
	Log         LogConfig         `yaml:"log"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
}

// LLMConfig LLM 相关配置
type LLMConfig struct {
	BaseURL             string  `yaml:"base_url"`
	APIKey              string  `yaml:"api_key"`
	Model               string  `yaml:"model"`
	AggregateModel      string  `yaml:"aggregate_model"`
	Temperature         float64 `yaml:"temperature"`
	MaxTokensIndividual int     `yaml:"max_tokens_individual"`
	MaxTokensAggregate  int     `yaml:"max_tokens_aggregate"`
}

// LogConfig 日志相关配置
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// ConcurrencyConfig 调用频率控制，RPM 为 0 表示不限制
type ConcurrencyConfig struct {
	RPM int `yaml:"rpm"`
}

// Default 内置默认配置
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			BaseURL:             llm.DefaultBaseURL,
			Model:               "deepseek-chat",
			AggregateModel:      "deepseek-reasoner",
			Temperature:         1.3,
			MaxTokensIndividual: 4000,
			MaxTokensAggregate:  32000,
		},
		OutDir:     "analysis_output",
		PromptsDir: "prompts",
		Log:        LogConfig{Level: "info"},
	}
}

// LoadConfig 从指定路径加载配置，未出现的字段保留默认值
func LoadConfig(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv 用环境变量覆盖配置
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvAPIKey); ok && v != "" {
		c.LLM.APIKey = v
	}
	if v, ok := lookup(EnvBaseURL); ok && v != "" {
		c.LLM.BaseURL = v
	}
	if v, ok := lookup(EnvModel); ok && v != "" {
		c.LLM.Model = v
	}
	if v, ok := lookup(EnvAggregateModel); ok && v != "" {
		c.LLM.AggregateModel = v
	}
}

// LoadEnvFile 读取 .env 中的 KEY=VALUE 到进程环境，已存在的变量不覆盖，文件不存在时忽略
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return godotenv.Load(path)
}
