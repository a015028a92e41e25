package collector

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/iWorld-y/annual_review/app/annual_review/pkg/loader"
	"github.com/iWorld-y/annual_review/app/annual_review/pkg/logger"
	"github.com/iWorld-y/annual_review/app/annual_review/pkg/model"
)

// ManagerHints 标题中出现即视为干部的关键词
var ManagerHints = []string{"干部", "领导", "经理", "主管", "总监", "部长", "书记", "主任", "处长", "科长"}

// DetectRole 标题包含任一管理关键词即为 cadre，区分大小写
func DetectRole(title string) model.Role {
	for _, h := range ManagerHints {
		if strings.Contains(title, h) {
			return model.RoleCadre
		}
	}
	return model.RoleEmployee
}

// Collector 遍历输入目录，生成报告列表
type Collector struct {
	loader *loader.Loader
	log    logrus.FieldLogger
}

// New 创建收集器
func New(l *loader.Loader, log logrus.FieldLogger) *Collector {
	if l == nil {
		l = loader.New(log)
	}
	return &Collector{loader: l, log: logger.Or(log)}
}

// Collect 按完整路径字典序返回 root 下所有受支持的文件；任一文件读取失败即返回错误
func (c *Collector) Collect(root string) ([]model.Report, error) {
	paths, err := ListFiles(root)
	if err != nil {
		return nil, err
	}

	reports := make([]model.Report, 0, len(paths))
	for _, path := range paths {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil, err
		}
		content, err := c.loader.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		reports = append(reports, model.Report{
			Path:       path,
			Department: departmentOf(rel),
			Title:      title,
			Role:       DetectRole(title),
			Content:    content,
		})
		c.log.Debugf("收集到报告: %s", rel)
	}
	return reports, nil
}

// ListFiles 递归列出 root 下受支持扩展名的普通文件，按完整路径排序
func ListFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !loader.Supported(path) {
			return nil
		}
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		if info.Mode().IsRegular() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

func departmentOf(rel string) string {
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) > 1 {
		return parts[0]
	}
	return model.Unclassified
}
