package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingModel struct {
	reply    *schema.Message
	err      error
	messages []*schema.Message
	options  *model.Options
}

func (m *recordingModel) Generate(_ context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.messages = input
	m.options = model.GetCommonOptions(nil, opts...)
	return m.reply, m.err
}

func (m *recordingModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not supported")
}

func TestCompletePassesOptions(t *testing.T) {
	m := &recordingModel{reply: schema.AssistantMessage("ok", nil)}
	out, err := NewClient(m, 0).Complete(context.Background(), Request{
		Model:       "deepseek-chat",
		Temperature: 1.3,
		MaxTokens:   4000,
		System:      "sys",
		User:        "user",
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)

	require.Len(t, m.messages, 2)
	assert.Equal(t, schema.System, m.messages[0].Role)
	assert.Equal(t, "sys", m.messages[0].Content)
	assert.Equal(t, schema.User, m.messages[1].Role)
	assert.Equal(t, "user", m.messages[1].Content)

	require.NotNil(t, m.options.Model)
	assert.Equal(t, "deepseek-chat", *m.options.Model)
	require.NotNil(t, m.options.Temperature)
	assert.InDelta(t, 1.3, *m.options.Temperature, 1e-6)
	require.NotNil(t, m.options.MaxTokens)
	assert.Equal(t, 4000, *m.options.MaxTokens)
}

func TestCompleteErrors(t *testing.T) {
	tests := []struct {
		name  string
		model *recordingModel
		want  error
	}{
		{"transport", &recordingModel{err: errors.New("401 unauthorized")}, ErrRequest},
		{"nil message", &recordingModel{}, ErrEmptyModelResponse},
		{"empty content", &recordingModel{reply: schema.AssistantMessage("", nil)}, ErrEmptyModelResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(tt.model, 60).Complete(context.Background(), Request{System: "s", User: "u"})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCompleteCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := NewClient(&recordingModel{reply: schema.AssistantMessage("ok", nil)}, 1)
	// 第一个令牌立即可用，第二次需要等待约一分钟，已取消的 ctx 直接返回错误
	_, err := c.Complete(context.Background(), Request{})
	require.NoError(t, err)
	_, err = c.Complete(ctx, Request{})
	assert.ErrorIs(t, err, ErrRequest)
}

func TestNewChatModelDefaultsBaseURL(t *testing.T) {
	cm, err := NewChatModel(context.Background(), Credentials{APIKey: "sk-test"}, "deepseek-chat")
	require.NoError(t, err)
	assert.NotNil(t, cm)
}
