package loader

import (
	"bytes"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/gogs/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
)

// candidates 按顺序尝试的文本编码
var candidates = []encoding.Encoding{
	unicode.UTF8BOM,
	simplifiedchinese.GBK,
	simplifiedchinese.GB18030,
}

func readText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return decodeText(data), nil
}

// decodeText 依次尝试候选编码、探测编码，最后有损解码，从不失败
func decodeText(data []byte) string {
	for _, enc := range candidates {
		if s, ok := decodeStrict(enc, data); ok {
			return s
		}
	}
	if enc := detect(data); enc != nil {
		if s, ok := decodeStrict(enc, data); ok {
			return s
		}
	}
	return strings.ToValidUTF8(string(data), string(utf8.RuneError))
}

// replacement U+FFFD 的 UTF-8 编码
var replacement = []byte(string(utf8.RuneError))

// decodeStrict x/text 的解码器遇到非法字节会输出 U+FFFD；
// 输出中的 U+FFFD 多于输入里原样出现的次数即视为解码失败
func decodeStrict(enc encoding.Encoding, data []byte) (string, bool) {
	if enc == unicode.UTF8BOM && !utf8.Valid(data) {
		return "", false
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil || !utf8.Valid(out) {
		return "", false
	}
	if bytes.Count(out, replacement) != bytes.Count(data, replacement) {
		return "", false
	}
	return string(out), true
}

func detect(data []byte) encoding.Encoding {
	res, err := chardet.NewTextDetector().DetectBest(data)
	if err != nil || res == nil {
		return nil
	}
	for _, name := range []string{res.Charset, strings.ReplaceAll(res.Charset, "-", "")} {
		if enc, err := htmlindex.Get(name); err == nil {
			return enc
		}
	}
	return nil
}
