package extract

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Docx extracts paragraph text from Word documents. OOXML containers are
// zip archives; the body lives in word/document.xml as w:p paragraphs of
// w:t text runs.
type Docx struct{}

func (Docx) Extract(path string) (string, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	defer archive.Close()

	for _, entry := range archive.File {
		if entry.Name != "word/document.xml" {
			continue
		}
		rc, err := entry.Open()
		if err != nil {
			return "", err
		}
		defer rc.Close()
		return collectText(rc, "t", "p")
	}
	return "", fmt.Errorf("docx has no word/document.xml")
}

// Pptx extracts slide text from PowerPoint documents. Each slide is a
// ppt/slides/slideN.xml part with a:t text runs inside a:p paragraphs.
type Pptx struct{}

var slideRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

func (Pptx) Extract(path string) (string, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("open pptx: %w", err)
	}
	defer archive.Close()

	type slide struct {
		num  int
		file *zip.File
	}
	var slides []slide
	for _, entry := range archive.File {
		m := slideRe.FindStringSubmatch(entry.Name)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		slides = append(slides, slide{num: n, file: entry})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	var b strings.Builder
	for _, s := range slides {
		rc, err := s.file.Open()
		if err != nil {
			return "", err
		}
		text, err := collectText(rc, "t", "p")
		rc.Close()
		if err != nil {
			return "", err
		}
		b.WriteString(text)
		b.WriteString("\n")
	}
	return b.String(), nil
}

// collectText streams an OOXML part and concatenates the character data of
// every <textElem> element, inserting a newline after each </paraElem>.
func collectText(r io.Reader, textElem, paraElem string) (string, error) {
	dec := xml.NewDecoder(r)
	var b strings.Builder
	inText := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse document xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == textElem {
				inText = true
			}
		case xml.EndElement:
			if t.Name.Local == textElem {
				inText = false
			}
			if t.Name.Local == paraElem {
				b.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return b.String(), nil
}
