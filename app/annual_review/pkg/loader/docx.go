package loader

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const wordNamespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

var errNotZip = errors.New("not a zip archive")

// readDocx 提取正文、页眉、页脚中所有 w:t 文本，按压缩包内顺序以换行拼接
func readDocx(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		if errors.Is(err, zip.ErrFormat) {
			return "", fmt.Errorf("%w: %v", errNotZip, err)
		}
		return "", err
	}
	defer zr.Close()

	var texts []string
	for _, f := range zr.File {
		if !isTextPart(f.Name) {
			continue
		}
		part, err := readPart(f)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", f.Name, err)
		}
		texts = append(texts, part...)
	}
	return strings.Join(texts, "\n"), nil
}

func isTextPart(name string) bool {
	if !strings.HasPrefix(name, "word/") || !strings.HasSuffix(name, ".xml") {
		return false
	}
	return strings.Contains(name, "document") || strings.Contains(name, "header") || strings.Contains(name, "footer")
}

func readPart(f *zip.File) ([]string, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var (
		texts  []string
		inText bool
		cur    strings.Builder
	)
	dec := xml.NewDecoder(rc)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return texts, nil
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space == wordNamespace && t.Name.Local == "t" {
				inText = true
				cur.Reset()
			}
		case xml.CharData:
			if inText {
				cur.Write(t)
			}
		case xml.EndElement:
			if inText && t.Name.Space == wordNamespace && t.Name.Local == "t" {
				inText = false
				if cur.Len() > 0 {
					texts = append(texts, cur.String())
				}
			}
		}
	}
}
