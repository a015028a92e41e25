package loader

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"

	"github.com/iWorld-y/annual_review/app/annual_review/pkg/logger"
)

func newTestLoader(buf *bytes.Buffer) *Loader {
	return New(logger.New("debug", buf))
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func buildDocx(t *testing.T, parts map[string]string, order []string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range order {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(parts[name]))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

const docXML = `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body><w:p><w:r><w:t>年度成果</w:t></w:r><w:r><w:t xml:space="preserve">完成 APS 上线</w:t></w:r></w:p><w:p><w:r><w:t></w:t></w:r></w:p></w:body>
</w:document>`

const headerXML = `<?xml version="1.0" encoding="UTF-8"?>
<w:hdr xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:p><w:r><w:t>页眉</w:t></w:r></w:p></w:hdr>`

func TestLoadText(t *testing.T) {
	dir := t.TempDir()
	gbk, err := simplifiedchinese.GBK.NewEncoder().String("物流组年终总结")
	require.NoError(t, err)

	tests := []struct {
		name string
		file string
		data []byte
		want string
	}{
		{"utf8", "a.txt", []byte("研发年度总结"), "研发年度总结"},
		{"utf8 bom", "b.md", append([]byte{0xEF, 0xBB, 0xBF}, []byte("# 标题")...), "# 标题"},
		{"gbk", "c.txt", []byte(gbk), "物流组年终总结"},
		{"upper case extension", "d.TXT", []byte("hello"), "hello"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, tt.file, tt.data)
			got, err := newTestLoader(&bytes.Buffer{}).Load(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// latin1 返回 s 的 ISO-8859-1 编码
func latin1(t *testing.T, s string) []byte {
	t.Helper()
	out, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(s))
	require.NoError(t, err)
	return out
}

func TestDecodeStrictRejectsInvalidBytes(t *testing.T) {
	data := latin1(t, "Résumé annuel : qualité élevée, délai respecté.")

	_, ok := decodeStrict(simplifiedchinese.GBK, data)
	assert.False(t, ok)
	_, ok = decodeStrict(simplifiedchinese.GB18030, data)
	assert.False(t, ok)
	_, ok = decodeStrict(unicode.UTF8BOM, data)
	assert.False(t, ok)

	_, ok = decodeStrict(simplifiedchinese.GBK, []byte{'o', 'k', 0xFF, 0x80, 0xFF})
	assert.False(t, ok)

	// 输入中原样存在的 U+FFFD 不算解码失败
	got, ok := decodeStrict(unicode.UTF8BOM, []byte("坏字符\uFFFD保留"))
	assert.True(t, ok)
	assert.Equal(t, "坏字符\uFFFD保留", got)
}

func TestDecodeTextDetectsLatin1(t *testing.T) {
	text := "Résumé annuel de l'équipe logistique. La qualité du service a été élevée, " +
		"les délais ont été respectés et la sécurité des entrepôts a été améliorée. " +
		"L'année prochaine, l'équipe développera la coopération avec les différents départements."
	got := decodeText(latin1(t, text))
	assert.Equal(t, text, got)
}

func TestDecodeTextNeverFails(t *testing.T) {
	got := decodeText([]byte{'o', 'k', 0xFF, 0x80, 0xFF})
	assert.True(t, utf8.ValidString(got))
	assert.Contains(t, got, "ok")
}

func TestLoadDocx(t *testing.T) {
	dir := t.TempDir()
	data := buildDocx(t, map[string]string{
		"[Content_Types].xml": `<Types/>`,
		"word/header1.xml":    headerXML,
		"word/document.xml":   docXML,
		"word/styles.xml":     `<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:t>忽略</w:t></w:styles>`,
		"docProps/core.xml":   `<x><w:t xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">忽略</w:t></x>`,
	}, []string{"[Content_Types].xml", "word/header1.xml", "word/document.xml", "word/styles.xml", "docProps/core.xml"})
	path := writeFile(t, dir, "经理.docx", data)

	got, err := newTestLoader(&bytes.Buffer{}).Load(path)
	require.NoError(t, err)
	assert.Equal(t, "页眉\n年度成果\n完成 APS 上线", got)
}

func TestLoadDocxFallsBackToText(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "fake.docx", []byte("其实是纯文本"))

	var logs bytes.Buffer
	got, err := newTestLoader(&logs).Load(path)
	require.NoError(t, err)
	assert.Equal(t, "其实是纯文本", got)
	assert.Contains(t, logs.String(), "不是有效的 docx")
}

func TestLoadDocxMalformedXML(t *testing.T) {
	dir := t.TempDir()
	data := buildDocx(t, map[string]string{"word/document.xml": "<w:document"}, []string{"word/document.xml"})
	path := writeFile(t, dir, "bad.docx", data)

	_, err := newTestLoader(&bytes.Buffer{}).Load(path)
	assert.Error(t, err)
}

func TestLoadHTML(t *testing.T) {
	dir := t.TempDir()
	page := `<html><head><title>总结</title></head><body><article><h1>年度总结</h1>` +
		`<p>今年主导了质量分析平台的建设，覆盖热轧、冷轧两条产线，缺陷漏检率明显下降，并沉淀了质量设计模板。</p>` +
		`<p>同时支撑物流组完成了装车优化的数据对接工作，推动跨部门协作机制落地。</p></article></body></html>`
	path := writeFile(t, dir, "report.html", []byte(page))

	got, err := newTestLoader(&bytes.Buffer{}).Load(path)
	require.NoError(t, err)
	assert.Contains(t, got, "质量分析平台")
	assert.NotContains(t, got, "<p>")
}

func TestLoadUnsupported(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "x.pdf", []byte("%PDF"))

	_, err := newTestLoader(&bytes.Buffer{}).Load(path)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := newTestLoader(&bytes.Buffer{}).Load(filepath.Join(t.TempDir(), "missing.docx"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("a/b.TXT"))
	assert.True(t, Supported("a/b.docx"))
	assert.False(t, Supported("a/b.pdf"))
	assert.False(t, Supported("a/README"))
}
