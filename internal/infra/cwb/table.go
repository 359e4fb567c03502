package cwb

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/lassnet/powerdash/internal/domain/forecast"
)

// celsiusClass marks the Celsius reading when a cell carries both units.
const celsiusClass = "tem-C"

// ParseFirstTable reads the first <table> of an HTML document into a grid.
// The first row becomes the header; rowspan and colspan are expanded so
// every row has one entry per column.
func ParseFirstTable(r io.Reader) (forecast.Grid, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return forecast.Grid{}, err
	}
	table := find(doc, func(n *html.Node) bool { return n.DataAtom == atom.Table })
	if table == nil {
		return forecast.Grid{}, errors.New("no table found")
	}

	var rows [][]string
	type span struct {
		text      string
		remaining int
	}
	pending := make(map[int]*span)
	fill := func(row []string) []string {
		for {
			p, ok := pending[len(row)]
			if !ok || p.remaining == 0 {
				return row
			}
			row = append(row, p.text)
			p.remaining--
		}
	}

	for _, tr := range collect(table, atom.Tr) {
		var row []string
		for c := tr.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode || (c.DataAtom != atom.Td && c.DataAtom != atom.Th) {
				continue
			}
			row = fill(row)
			text := cellText(c)
			colspan := intAttr(c, "colspan")
			rowspan := intAttr(c, "rowspan")
			for i := 0; i < colspan; i++ {
				if rowspan > 1 {
					pending[len(row)] = &span{text: text, remaining: rowspan - 1}
				}
				row = append(row, text)
			}
		}
		row = fill(row)
		if len(row) > 0 {
			rows = append(rows, row)
		}
	}
	if len(rows) == 0 {
		return forecast.Grid{}, errors.New("table has no rows")
	}
	return forecast.Grid{Header: rows[0], Rows: rows[1:]}, nil
}

func cellText(n *html.Node) string {
	if c := find(n, func(x *html.Node) bool { return hasClass(x, celsiusClass) }); c != nil {
		n = c
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(x *html.Node) {
		if x.Type == html.TextNode {
			b.WriteString(x.Data)
			b.WriteByte(' ')
		}
		for c := x.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

func find(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := find(c, match); found != nil {
			return found
		}
	}
	return nil
}

func collect(n *html.Node, a atom.Atom) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if c.DataAtom == a {
			out = append(out, c)
			continue
		}
		if c.DataAtom == atom.Table {
			continue
		}
		out = append(out, collect(c, a)...)
	}
	return out
}

func hasClass(n *html.Node, class string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, attr := range n.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(attr.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

func intAttr(n *html.Node, key string) int {
	for _, attr := range n.Attr {
		if attr.Key == key {
			if v, err := strconv.Atoi(strings.TrimSpace(attr.Val)); err == nil && v > 0 {
				return v
			}
		}
	}
	return 1
}
