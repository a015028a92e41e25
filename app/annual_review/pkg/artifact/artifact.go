// Package artifact 负责把中间结果和最终报告写入输出目录。
package artifact

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// 输出目录下的固定文件名
const (
	PerReportDir     = "per_report"
	IndividualFile   = "individual_summaries.json"
	OrganizationFile = "organization_review.md"
)

// PerReportPath 单篇结果路径：outDir/per_report/<相对输入目录的路径>.json
func PerReportPath(outDir, inputRoot, reportPath string) (string, error) {
	rel, err := filepath.Rel(inputRoot, reportPath)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside %s", reportPath, inputRoot)
	}
	rel = strings.TrimSuffix(rel, filepath.Ext(rel)) + ".json"
	return filepath.Join(outDir, PerReportDir, rel), nil
}

// WriteJSON 以两空格缩进写入 JSON，中文不转义，自动创建父目录
func WriteJSON(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return writeFile(path, bytes.TrimRight(buf.Bytes(), "\n"))
}

// Header 综合报告头部信息
type Header struct {
	GeneratedAt    time.Time
	Model          string
	AggregateModel string
	Temperature    float64
}

// String 渲染报告头部
func (h Header) String() string {
	var sb strings.Builder
	sb.WriteString("# 年终总结评审\n\n")
	fmt.Fprintf(&sb, "生成时间：%s\n", h.GeneratedAt.Format("2006-01-02T15:04:05"))
	fmt.Fprintf(&sb, "使用模型：个人提炼=%s；汇总=%s\n", h.Model, h.AggregateModel)
	fmt.Fprintf(&sb, "采样温度：%s\n\n", strconv.FormatFloat(h.Temperature, 'f', -1, 64))
	return sb.String()
}

// WriteReview 写入带头部的综合报告
func WriteReview(path string, h Header, body string) error {
	return writeFile(path, []byte(h.String()+body+"\n"))
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
