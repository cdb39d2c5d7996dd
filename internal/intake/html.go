package intake

import (
	"strings"

	"golang.org/x/net/html"
)

// blockElements end a run of text; their content is separated by a space
var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true, "td": true, "th": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"section": true, "article": true, "header": true, "footer": true, "blockquote": true,
}

// StripHTML returns the visible text of an HTML snippet, skipping scripts and styles
func StripHTML(snippet string) (string, error) {
	doc, err := html.Parse(strings.NewReader(snippet))
	if err != nil {
		return "", err
	}
	return visibleText(doc), nil
}

func visibleText(n *html.Node) string {
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "template":
				return
			}
		}

		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}

		if n.Type == html.ElementNode && blockElements[n.Data] {
			buf.WriteString(" ")
		}
	}

	walk(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}
