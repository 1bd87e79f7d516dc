// Package assembly reads Ozon assembly lists: a table whose rows pair a
// shipment number with the article text printed in the "Артикул" column.
package assembly

import (
	"math"
	"sort"

	"github.com/carden-code/wb-stickers/internal/pdftext"
)

// Column names of the assembly list header.
const (
	ColNumber   = "№"
	ColShipment = "Номер отправления"
	ColPhoto    = "Фото"
	ColProduct  = "Товар"
	ColArticle  = "Артикул"
	ColQuantity = "Кол-во"
	ColLabel    = "Этикетка"
)

// canonical is the column order used to break ties between equal x values.
var canonical = []string{ColNumber, ColShipment, ColPhoto, ColProduct, ColArticle, ColQuantity, ColLabel}

// headerTokens are the single words searched for in the header. The shipment
// column header is printed as two words.
var headerTokens = map[string]bool{
	"№":           true,
	"Номер":       true,
	"отправления": true,
	"Фото":        true,
	"Товар":       true,
	"Артикул":     true,
	"Кол-во":      true,
	"Этикетка":    true,
}

// Column is a named column with its left x coordinate.
type Column struct {
	Name string
	X    float64
}

// ColumnLayout is the ordered set of table columns.
type ColumnLayout struct {
	Columns []Column // ascending X
}

// DetectColumns locates the header columns on the first page. A column whose
// header is not found gets x = 0.
func DetectColumns(page pdftext.Page) ColumnLayout {
	xs := make(map[string]float64)
	for _, w := range page.SortedWords() {
		if !headerTokens[w.Text] {
			continue
		}
		if x, ok := xs[w.Text]; !ok || w.X0 < x {
			xs[w.Text] = w.X0
		}
	}

	num, okNum := xs["Номер"]
	dep, okDep := xs["отправления"]
	if okNum && okDep {
		xs[ColShipment] = math.Min(num, dep)
	}

	layout := ColumnLayout{Columns: make([]Column, len(canonical))}
	for i, name := range canonical {
		layout.Columns[i] = Column{Name: name, X: xs[name]}
	}
	sort.SliceStable(layout.Columns, func(i, j int) bool {
		return layout.Columns[i].X < layout.Columns[j].X
	})
	return layout
}

// Bounds returns the horizontal extent of a column: from the midpoint with
// its left neighbour to the midpoint with its right neighbour. The first
// column is open on the left and the last on the right.
func (l ColumnLayout) Bounds(name string) (left, right float64, ok bool) {
	idx := -1
	for i, c := range l.Columns {
		if c.Name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return 0, 0, false
	}

	left, right = math.Inf(-1), math.Inf(1)
	if idx > 0 {
		left = (l.Columns[idx-1].X + l.Columns[idx].X) / 2
	}
	if idx < len(l.Columns)-1 {
		right = (l.Columns[idx].X + l.Columns[idx+1].X) / 2
	}
	return left, right, true
}

// Missing lists the columns whose header was not located.
func (l ColumnLayout) Missing() []string {
	var out []string
	for _, c := range l.Columns {
		if c.X == 0 {
			out = append(out, c.Name)
		}
	}
	return out
}
