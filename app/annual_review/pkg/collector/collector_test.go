package collector

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/annual_review/app/annual_review/pkg/logger"
	"github.com/iWorld-y/annual_review/app/annual_review/pkg/model"
)

func layout(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func newCollector() *Collector {
	return New(nil, logger.New("info", &bytes.Buffer{}))
}

func TestCollectDepartmentsAndRoles(t *testing.T) {
	root := layout(t, map[string]string{
		"RnD/alice.txt":  "alice report",
		"RnD/经理bob.md":   "bob report",
		"RnD/notes.pdf":  "ignored",
		"顶层总结.md":        "root level",
		"质量/2024/张三.txt": "nested",
	})

	reports, err := newCollector().Collect(root)
	require.NoError(t, err)
	require.Len(t, reports, 4)

	byTitle := map[string]model.Report{}
	for _, r := range reports {
		byTitle[r.Title] = r
	}
	assert.Equal(t, "RnD", byTitle["alice"].Department)
	assert.Equal(t, model.RoleEmployee, byTitle["alice"].Role)
	assert.Equal(t, "alice report", byTitle["alice"].Content)
	assert.Equal(t, "RnD", byTitle["经理bob"].Department)
	assert.Equal(t, model.RoleCadre, byTitle["经理bob"].Role)
	assert.Equal(t, model.Unclassified, byTitle["顶层总结"].Department)
	assert.Equal(t, "质量", byTitle["张三"].Department)
}

func TestCollectOrderIsLexicographic(t *testing.T) {
	root := layout(t, map[string]string{
		"b/x.txt": "1",
		"a/y.md":  "2",
		"a.txt":   "3",
		"a/b.txt": "4",
	})

	reports, err := newCollector().Collect(root)
	require.NoError(t, err)

	var got []string
	for _, r := range reports {
		rel, err := filepath.Rel(root, r.Path)
		require.NoError(t, err)
		got = append(got, filepath.ToSlash(rel))
	}
	assert.Equal(t, []string{"a.txt", "a/b.txt", "a/y.md", "b/x.txt"}, got)

	again, err := newCollector().Collect(root)
	require.NoError(t, err)
	assert.Equal(t, reports, again)
}

func TestCollectEmpty(t *testing.T) {
	root := layout(t, map[string]string{"readme.pdf": "x"})
	reports, err := newCollector().Collect(root)
	require.NoError(t, err)
	assert.Empty(t, reports)
}

func TestCollectMissingRoot(t *testing.T) {
	_, err := newCollector().Collect(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestDetectRole(t *testing.T) {
	tests := []struct {
		title string
		want  model.Role
	}{
		{"张三", model.RoleEmployee},
		{"研发部部长-李四", model.RoleCadre},
		{"王五（主任）", model.RoleCadre},
		{"项目经理总结", model.RoleCadre},
		{"manager", model.RoleEmployee},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectRole(tt.title))
		})
	}
}
