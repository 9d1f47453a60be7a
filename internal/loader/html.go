package loader

import (
	"bytes"
	"os"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"contractfill/constants"
)

var hiddenStylePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)display\s*:\s*none`),
	regexp.MustCompile(`(?i)visibility\s*:\s*hidden`),
	regexp.MustCompile(`(?i)font-size\s*:\s*0[^1-9]`),
}

// loadHTML parses the DOM and collects visible block text, skipping
// script/style/nav boilerplate and hidden elements.
func (l *Loader) loadHTML(path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{Format: constants.HTML}, err
	}

	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return Result{Format: constants.HTML}, err
	}

	var blocks []string
	collectHTMLBlocks(doc, &blocks)
	if len(blocks) == 0 {
		if text := collectHTMLText(doc); text != "" {
			blocks = append(blocks, text)
		}
	}

	return Result{
		Text:   strings.Join(blocks, "\n"),
		Pages:  1,
		Format: constants.HTML,
		Method: "html",
	}, nil
}

// collectHTMLBlocks walks the DOM and extracts headings and content blocks.
func collectHTMLBlocks(n *html.Node, blocks *[]string) {
	if n.Type == html.ElementNode {
		// Skip boilerplate.
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Noscript, atom.Nav, atom.Footer, atom.Header:
			return
		}
		if hasHiddenStyle(n) {
			return
		}

		switch n.DataAtom {
		case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
			atom.P, atom.Li, atom.Td, atom.Th:
			if text := collectHTMLText(n); text != "" {
				*blocks = append(*blocks, text)
			}
			return
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectHTMLBlocks(c, blocks)
	}
}

func collectHTMLText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
			sb.WriteByte(' ')
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return normalizeWhitespace(sb.String())
}

func hasHiddenStyle(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, a := range n.Attr {
		if a.Key == "style" {
			for _, pat := range hiddenStylePatterns {
				if pat.MatchString(a.Val) {
					return true
				}
			}
		}
	}
	return false
}

func normalizeWhitespace(text string) string {
	var sb strings.Builder
	prevSpace := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			if !prevSpace && sb.Len() > 0 {
				sb.WriteByte(' ')
				prevSpace = true
			}
		} else {
			sb.WriteRune(r)
			prevSpace = false
		}
	}
	return strings.TrimSpace(sb.String())
}
