package sanitizer

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func removeComments(node *html.Node) {
	var children []*html.Node
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		children = append(children, child)
	}
	for _, child := range children {
		if child.Type == html.CommentNode {
			node.RemoveChild(child)
			continue
		}
		removeComments(child)
	}
}

// removeTrailingSections drops a reference-style heading and every sibling
// up to the next heading of the same or a higher level. Current MediaWiki
// wraps headings in div.mw-heading, so the wrapper is the section anchor.
func removeTrailingSections(doc *goquery.Document) {
	doc.Find("h2, h3, h4").Each(func(_ int, heading *goquery.Selection) {
		title := strings.ToLower(strings.TrimSpace(heading.Text()))
		if !trailingSections[title] {
			return
		}
		level := headingLevel(heading.Nodes[0])

		anchor := heading
		if parent := heading.Parent(); parent.HasClass("mw-heading") {
			anchor = parent
		}

		for next := anchor.Next(); next.Length() > 0; {
			if l := sectionLevel(next.Nodes[0]); l > 0 && l <= level {
				break
			}
			following := next.Next()
			next.Remove()
			next = following
		}
		anchor.Remove()
	})
}

// sectionLevel returns the heading level a sibling opens, or 0.
func sectionLevel(n *html.Node) int {
	if l := headingLevel(n); l > 0 {
		return l
	}
	sel := goquery.NewDocumentFromNode(n).Selection
	if sel.HasClass("mw-heading") {
		if h := sel.Find("h1, h2, h3, h4, h5, h6").First(); h.Length() > 0 {
			return headingLevel(h.Nodes[0])
		}
	}
	return 0
}

func headingLevel(n *html.Node) int {
	if n.Type != html.ElementNode || len(n.Data) != 2 || n.Data[0] != 'h' {
		return 0
	}
	if l := int(n.Data[1] - '0'); l >= 1 && l <= 6 {
		return l
	}
	return 0
}

func removeMediaLinks(doc *goquery.Document) {
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := strings.ToLower(a.AttrOr("href", ""))
		for _, prefix := range mediaLinkPrefixes {
			if strings.Contains(href, prefix) {
				a.Remove()
				return
			}
		}
	})
}

// cleanAttributes keeps plain /wiki/ article links and table spans; every
// other attribute is presentation.
func cleanAttributes(node *html.Node) {
	if node.Type == html.ElementNode {
		var kept []html.Attribute
		for _, attr := range node.Attr {
			switch {
			case node.Data == "a" && attr.Key == "href" && isArticleHref(attr.Val):
				kept = append(kept, attr)
			case (node.Data == "td" || node.Data == "th") && (attr.Key == "colspan" || attr.Key == "rowspan"):
				kept = append(kept, attr)
			}
		}
		node.Attr = kept
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		cleanAttributes(child)
	}
}

func isArticleHref(href string) bool {
	title, ok := strings.CutPrefix(href, "/wiki/")
	return ok && title != "" && !strings.Contains(title, ":")
}

// removeEmptyNodesBottomUp performs a post-order traversal to remove empty nodes.
// This ensures nested empty containers are fully cleaned (innermost first).
func removeEmptyNodesBottomUp(node *html.Node) {
	if node == nil {
		return
	}

	// Removing nodes affects the linked list, so collect children first.
	var children []*html.Node
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		children = append(children, child)
	}

	for _, child := range children {
		removeEmptyNodesBottomUp(child)
	}

	if node.Type == html.ElementNode && isEmptyNode(node) && shouldRemoveEmptyElement(node.Data) {
		if node.Parent != nil {
			node.Parent.RemoveChild(node)
		}
	}
}

// shouldRemoveEmptyElement returns true if an empty element of this type should be removed.
// Some empty elements like <br>, <hr> are valid even when empty.
func shouldRemoveEmptyElement(tag string) bool {
	switch tag {
	case "area", "base", "br", "col", "embed", "hr", "img", "input",
		"link", "meta", "param", "source", "track", "wbr":
		return false
	case "html", "head", "body", "main", "td", "th":
		return false
	}
	return true
}

// isEmptyNode checks if a node has no children or only whitespace text nodes.
func isEmptyNode(node *html.Node) bool {
	if node == nil || node.Type != html.ElementNode {
		return false
	}

	for child := node.FirstChild; child != nil; child = child.NextSibling {
		switch child.Type {
		case html.ElementNode:
			return false
		case html.TextNode:
			if strings.TrimSpace(child.Data) != "" {
				return false
			}
		}
	}
	return true
}
