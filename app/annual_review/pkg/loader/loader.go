// Package loader 将不同格式的年终总结文件读取为归一化文本。
package loader

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/iWorld-y/annual_review/app/annual_review/pkg/logger"
)

// ErrUnsupportedFormat 未知的文件扩展名
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Extensions 支持的扩展名（小写）
var Extensions = []string{".txt", ".md", ".docx", ".html", ".htm"}

// Supported 判断扩展名是否受支持，大小写不敏感
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// Loader 文档读取器
type Loader struct {
	log logrus.FieldLogger
}

// New 创建读取器，log 为空时使用全局日志
func New(log logrus.FieldLogger) *Loader {
	return &Loader{log: logger.Or(log)}
}

// Load 按扩展名读取文件内容
func (l *Loader) Load(path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".txt", ".md":
		return readText(path)
	case ".docx":
		text, err := readDocx(path)
		if errors.Is(err, errNotZip) {
			l.log.Warnf("%s 不是有效的 docx，尝试按文本读取", path)
			return readText(path)
		}
		return text, err
	case ".html", ".htm":
		return l.readHTML(path)
	default:
		return "", fmt.Errorf("%w: %q (%s)", ErrUnsupportedFormat, ext, path)
	}
}
