// Package llm 封装与 OpenAI 兼容接口（DeepSeek）的一次性对话请求。
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"golang.org/x/time/rate"
)

// DefaultBaseURL DeepSeek 默认接口地址
const DefaultBaseURL = "https://api.deepseek.com"

var (
	// ErrRequest 网络、鉴权、限流等调用失败
	ErrRequest = errors.New("调用模型失败")
	// ErrEmptyModelResponse 模型未返回内容
	ErrEmptyModelResponse = errors.New("模型未返回内容")
)

// Credentials 单次运行使用的接口凭据，随运行上下文显式传递
type Credentials struct {
	APIKey  string
	BaseURL string
}

// Factory 按凭据创建对话模型
type Factory func(ctx context.Context, cred Credentials, modelName string) (model.BaseChatModel, error)

// NewChatModel 默认 Factory，基于 eino-ext 的 openai 组件
func NewChatModel(ctx context.Context, cred Credentials, modelName string) (model.BaseChatModel, error) {
	baseURL := cred.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL: baseURL,
		APIKey:  cred.APIKey,
		Model:   modelName,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM 初始化失败: %w", err)
	}
	return cm, nil
}

// Request 一次对话请求
type Request struct {
	Model       string
	Temperature float32
	MaxTokens   int
	System      string
	User        string
}

// Client 带可选限流的对话客户端，不做重试
type Client struct {
	chatModel model.BaseChatModel
	limiter   *rate.Limiter
}

// NewClient 创建客户端；rpm <= 0 表示不限流
func NewClient(cm model.BaseChatModel, rpm int) *Client {
	limiter := rate.NewLimiter(rate.Inf, 0)
	if rpm > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1)
	}
	return &Client{chatModel: cm, limiter: limiter}
}

// Complete 发送 system + user 两条消息，返回模型回复文本
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: %w", ErrRequest, err)
	}

	messages := []*schema.Message{
		schema.SystemMessage(req.System),
		schema.UserMessage(req.User),
	}
	opts := []model.Option{model.WithTemperature(req.Temperature)}
	if req.Model != "" {
		opts = append(opts, model.WithModel(req.Model))
	}
	if req.MaxTokens > 0 {
		opts = append(opts, model.WithMaxTokens(req.MaxTokens))
	}

	resp, err := c.chatModel.Generate(ctx, messages, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRequest, err)
	}
	if resp == nil || resp.Content == "" {
		return "", ErrEmptyModelResponse
	}
	return resp.Content, nil
}
