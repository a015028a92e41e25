package domain

import "time"

// Run 一次评审任务的历史记录
type Run struct {
	ID         int64
	Name       string
	InputDir   string
	RunDir     string
	ExitCode   int
	Reports    int
	Failures   int
	StartedAt  time.Time
	FinishedAt time.Time
}

// RunRequest 单次运行参数，未填写的字段使用服务端配置
type RunRequest struct {
	InputDir            string   `json:"input_dir"`
	APIKey              string   `json:"api_key"`
	BaseURL             string   `json:"base_url"`
	Model               string   `json:"model"`
	AggregateModel      string   `json:"aggregate_model"`
	Temperature         *float64 `json:"temperature"`
	MaxTokensIndividual *int     `json:"max_tokens_individual"`
	MaxTokensAggregate  *int     `json:"max_tokens_aggregate"`
	PlanPrompt          string   `json:"plan_prompt"`
}

// RunResult 运行结果，路径均相对服务根目录
type RunResult struct {
	ExitCode     int     `json:"exit_code"`
	Log          string  `json:"log"`
	Stderr       string  `json:"stderr"`
	RunDir       *string `json:"run_dir"`
	Individual   *string `json:"individual"`
	Organization *string `json:"organization"`
}

const (
	EventLog   = "log"
	EventDone  = "done"
	EventError = "error"
)

// Event 流式运行事件；done 事件携带完整结果
type Event struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
	*RunResult
}

// FileNode 上传目录树节点
type FileNode struct {
	Name     string      `json:"name"`
	Path     string      `json:"path"`
	Type     string      `json:"type"`
	Size     int64       `json:"size,omitempty"`
	Children []*FileNode `json:"children,omitempty"`
}

// UploadFile 待保存的上传文件
type UploadFile struct {
	Name    string
	Content []byte
}
