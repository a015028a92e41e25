package loader

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-shiori/go-readability"
)

// readHTML 用 readability 提取网页正文，提取为空时退回原始文本
func (l *Loader) readHTML(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	raw := decodeText(data)

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	article, err := readability.FromReader(strings.NewReader(raw), &url.URL{Scheme: "file", Path: filepath.ToSlash(abs)})
	if err != nil {
		l.log.Warnf("%s 正文提取失败，按文本读取: %v", path, err)
		return raw, nil
	}
	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return raw, nil
	}
	return text, nil
}
