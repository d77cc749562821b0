package extract

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// maxColspan caps colspan attributes so a hostile page cannot blow up a row.
const maxColspan = 64

// LocateTable returns the first <table> element in document order.
// The boolean is false when the document has no table; that is a normal
// outcome for a page that publishes nothing, not an error.
func LocateTable(doc *html.Node) (*html.Node, bool) {
	if doc == nil {
		return nil, false
	}

	var found *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.Table {
			found = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return found, found != nil
}

// Grid flattens table into rows of cell text in document order.
// Rows come from <tr> elements that belong to table itself (directly or via
// thead, tbody and tfoot); rows of nested tables are ignored. Cell text has
// its whitespace collapsed, and a cell with colspan=N fills N columns.
func Grid(table *html.Node) [][]string {
	grid := make([][]string, 0)
	if table == nil {
		return grid
	}

	var walkRows func(*html.Node)
	walkRows = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.DataAtom {
			case atom.Thead, atom.Tbody, atom.Tfoot:
				walkRows(c)
			case atom.Tr:
				grid = append(grid, rowCells(c))
			}
		}
	}
	walkRows(table)

	return grid
}

func rowCells(tr *html.Node) []string {
	cells := make([]string, 0)
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || (c.DataAtom != atom.Td && c.DataAtom != atom.Th) {
			continue
		}
		text := cellText(c)
		for range colspan(c) {
			cells = append(cells, text)
		}
	}
	return cells
}

func colspan(n *html.Node) int {
	v := getAttr(n, "colspan")
	if v == "" {
		return 1
	}
	span, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || span < 1 {
		return 1
	}
	return min(span, maxColspan)
}

// cellText returns the visible text of a cell with whitespace collapsed.
// Line breaks and block elements separate words; nested tables are skipped.
func cellText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			sb.WriteString(n.Data)
		case html.ElementNode:
			switch n.DataAtom {
			case atom.Table, atom.Script, atom.Style:
				return
			case atom.Br, atom.P, atom.Div, atom.Li:
				sb.WriteByte(' ')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)

	return strings.Join(strings.Fields(sb.String()), " ")
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if strings.EqualFold(attr.Key, key) {
			return attr.Val
		}
	}
	return ""
}
