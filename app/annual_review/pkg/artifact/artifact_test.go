package artifact

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPerReportPath(t *testing.T) {
	got, err := PerReportPath("out", "in", filepath.Join("in", "RnD", "经理bob.md"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("out", "per_report", "RnD", "经理bob.json"), got)

	got, err = PerReportPath("out", "in", filepath.Join("in", "a.docx"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("out", "per_report", "a.json"), got)

	_, err = PerReportPath("out", "in", filepath.Join("elsewhere", "a.txt"))
	assert.Error(t, err)
}

func TestWriteJSONKeepsChinese(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "x.json")
	require.NoError(t, WriteJSON(path, map[string]string{"name": "张三 <R&D>"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"name\": \"张三 <R&D>\"\n}", string(data))
}

func TestWriteReview(t *testing.T) {
	path := filepath.Join(t.TempDir(), OrganizationFile)
	h := Header{
		GeneratedAt:    time.Date(2026, 1, 5, 9, 30, 0, 0, time.Local),
		Model:          "deepseek-chat",
		AggregateModel: "deepseek-reasoner",
		Temperature:    1.3,
	}
	require.NoError(t, WriteReview(path, h, "正文"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# 年终总结评审\n\n"+
		"生成时间：2026-01-05T09:30:00\n"+
		"使用模型：个人提炼=deepseek-chat；汇总=deepseek-reasoner\n"+
		"采样温度：1.3\n\n"+
		"正文\n", string(data))
}
