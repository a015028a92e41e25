package usecase

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/annual_review/app/console/internal/conf"
	"github.com/iWorld-y/annual_review/app/console/internal/domain"
)

var (
	ErrInvalidPath = errors.BadRequest("INVALID_PATH", "invalid path")
	ErrMissingPath = errors.BadRequest("MISSING_PATH", "missing path")
	ErrNotFound    = errors.NotFound("NOT_FOUND", "not found")
)

// Layout 服务使用的目录布局，均为绝对路径
type Layout struct {
	BaseDir    string
	UploadRoot string
	RunRoot    string
}

// NewLayout 根据配置解析目录并确保上传目录与运行目录存在
func NewLayout(c *conf.Review) (*Layout, error) {
	base, upload, run := ".", "up_load", "web_runs"
	if c != nil {
		if c.BaseDir != "" {
			base = c.BaseDir
		}
		if c.UploadRoot != "" {
			upload = c.UploadRoot
		}
		if c.RunRoot != "" {
			run = c.RunRoot
		}
	}
	base, err := filepath.Abs(base)
	if err != nil {
		return nil, err
	}
	l := &Layout{
		BaseDir:    base,
		UploadRoot: absUnder(base, upload),
		RunRoot:    absUnder(base, run),
	}
	for _, dir := range []string{l.UploadRoot, l.RunRoot} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return l, nil
}

func absUnder(base, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(base, p)
}

// Rel 返回相对 BaseDir 的 slash 路径
func (l *Layout) Rel(p string) string {
	rel, err := filepath.Rel(l.BaseDir, p)
	if err != nil {
		return filepath.ToSlash(p)
	}
	return filepath.ToSlash(rel)
}

// SafeJoin 拼接 root 与相对路径，结果必须仍位于 root 之内；
// 已存在的路径部分会先解析符号链接再判断
func SafeJoin(root, rel string) (string, error) {
	root = filepath.Clean(root)
	var full string
	if filepath.IsAbs(rel) {
		full = filepath.Clean(rel)
	} else {
		full = filepath.Join(root, filepath.FromSlash(rel))
	}
	if !within(root, full) || !within(resolveExisting(root), resolveExisting(full)) {
		return "", ErrInvalidPath
	}
	return full, nil
}

func within(root, p string) bool {
	r, err := filepath.Rel(root, p)
	return err == nil && r != ".." && !strings.HasPrefix(r, ".."+string(filepath.Separator))
}

// resolveExisting 解析 p 中最长的已存在前缀的符号链接，其余部分原样拼回
func resolveExisting(p string) string {
	rest := ""
	for {
		if r, err := filepath.EvalSymlinks(p); err == nil {
			return filepath.Join(r, rest)
		}
		parent := filepath.Dir(p)
		if parent == p {
			return filepath.Join(p, rest)
		}
		rest = filepath.Join(filepath.Base(p), rest)
		p = parent
	}
}

// SanitizeFilename 去掉目录部分和危险字符，保留中文等 unicode 字母
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune('_')
		}
	}
	return strings.Trim(b.String(), "._")
}

// FileUseCase 上传目录的文件管理
type FileUseCase struct {
	layout *Layout
	log    *log.Helper
}

// NewFileUseCase 创建文件管理实例
func NewFileUseCase(layout *Layout, logger log.Logger) *FileUseCase {
	return &FileUseCase{layout: layout, log: log.NewHelper(logger)}
}

// Upload 保存文件到 上传目录/<department>/ 下，返回相对 BaseDir 的路径
func (uc *FileUseCase) Upload(department string, files []domain.UploadFile) ([]string, error) {
	target := uc.layout.UploadRoot
	if dept := strings.TrimSpace(department); dept != "" {
		p, err := SafeJoin(uc.layout.UploadRoot, dept)
		if err != nil {
			return nil, err
		}
		target = p
	}
	if err := os.MkdirAll(target, 0o755); err != nil {
		return nil, err
	}

	saved := make([]string, 0, len(files))
	for _, f := range files {
		name := SanitizeFilename(f.Name)
		if name == "" {
			continue
		}
		dest := filepath.Join(target, name)
		if err := os.WriteFile(dest, f.Content, 0o644); err != nil {
			return saved, err
		}
		uc.log.Infof("saved upload %s", dest)
		saved = append(saved, uc.layout.Rel(dest))
	}
	return saved, nil
}

// UploadRoot 上传根目录（相对 BaseDir）
func (uc *FileUseCase) UploadRoot() string {
	return uc.layout.Rel(uc.layout.UploadRoot)
}

// Tree 返回上传目录树，目录在前，同类按名称忽略大小写排序
func (uc *FileUseCase) Tree() *domain.FileNode {
	return uc.buildTree(uc.layout.UploadRoot)
}

func (uc *FileUseCase) buildTree(dir string) *domain.FileNode {
	node := &domain.FileNode{
		Name: filepath.Base(dir),
		Path: uc.layout.Rel(dir),
		Type: "dir",
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return node
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].IsDir() != entries[j].IsDir() {
			return entries[i].IsDir()
		}
		return strings.ToLower(entries[i].Name()) < strings.ToLower(entries[j].Name())
	})
	for _, e := range entries {
		p := filepath.Join(dir, e.Name())
		if e.IsDir() {
			node.Children = append(node.Children, uc.buildTree(p))
			continue
		}
		child := &domain.FileNode{Name: e.Name(), Path: uc.layout.Rel(p), Type: "file"}
		if info, err := e.Info(); err == nil {
			child.Size = info.Size()
		}
		node.Children = append(node.Children, child)
	}
	return node
}

// Delete 删除上传目录下的文件或目录
func (uc *FileUseCase) Delete(rel string) error {
	if rel == "" {
		return ErrMissingPath
	}
	target, err := SafeJoin(uc.layout.UploadRoot, rel)
	if err != nil {
		return err
	}
	if target == uc.layout.UploadRoot {
		return ErrInvalidPath
	}
	info, err := os.Stat(target)
	if err != nil {
		return ErrNotFound
	}
	if info.IsDir() {
		return os.RemoveAll(target)
	}
	return os.Remove(target)
}

// Mkdir 在上传目录下创建目录（含父目录）
func (uc *FileUseCase) Mkdir(rel string) error {
	if rel == "" {
		return ErrMissingPath
	}
	target, err := SafeJoin(uc.layout.UploadRoot, rel)
	if err != nil {
		return err
	}
	return os.MkdirAll(target, 0o755)
}

// Resolve 解析下载路径，只允许运行目录和上传目录下的文件。
// 路径既可以相对这两个根目录，也可以是接口返回的相对 BaseDir 的路径。
func (uc *FileUseCase) Resolve(rel string) (string, error) {
	if rel == "" {
		return "", ErrMissingPath
	}
	roots := []string{uc.layout.RunRoot, uc.layout.UploadRoot}
	for _, root := range roots {
		if p, err := SafeJoin(root, rel); err == nil && isFile(p) {
			return p, nil
		}
	}
	if p, err := SafeJoin(uc.layout.BaseDir, rel); err == nil && isFile(p) {
		for _, root := range roots {
			if _, err := SafeJoin(root, p); err == nil {
				return p, nil
			}
		}
	}
	return "", ErrNotFound
}

func isFile(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}
