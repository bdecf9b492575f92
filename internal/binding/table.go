package binding

import "strings"

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	pageWindow      = 5
)

// ExtractRows finds the row array in a provider document. A top-level array is
// used as is; otherwise the longest array-valued member wins, the first one in
// document order on ties. ok is false when the document has no tabular shape.
func ExtractRows(doc Value) (rows []Value, ok bool) {
	switch doc.kind {
	case KindArray:
		return doc.arr, true
	case KindObject:
		best := -1
		for _, k := range doc.obj.keys {
			v := doc.obj.vals[k]
			if v.kind == KindArray && len(v.arr) > best {
				best = len(v.arr)
				rows = v.arr
			}
		}
		if best >= 0 {
			if rows == nil {
				rows = []Value{}
			}
			return rows, true
		}
	}
	return nil, false
}

// InferColumns returns the first-level keys of all object rows in first-seen
// order. Rows that are not objects contribute nothing.
func InferColumns(rows []Value) []string {
	seen := make(map[string]struct{})
	cols := make([]string, 0)
	for _, row := range rows {
		if row.kind != KindObject {
			continue
		}
		for _, k := range row.obj.keys {
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			cols = append(cols, k)
		}
	}
	return cols
}

// FilterRows keeps the rows whose compact JSON contains query, ignoring case.
func FilterRows(rows []Value, query string) []Value {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return rows
	}
	out := make([]Value, 0, len(rows))
	for _, row := range rows {
		if strings.Contains(strings.ToLower(row.JSON()), query) {
			out = append(out, row)
		}
	}
	return out
}

// TableQuery describes which columns and which page of a table to build.
type TableQuery struct {
	Columns  []string
	Search   string
	Page     int
	PageSize int
}

// Table is a rendered page of a table widget. Empty is set when the document
// had no tabular shape at all, as opposed to a filter matching nothing.
type Table struct {
	Columns    []string   `json:"columns"`
	Rows       [][]string `json:"rows"`
	TotalRows  int        `json:"totalRows"`
	Page       int        `json:"page"`
	PageSize   int        `json:"pageSize"`
	TotalPages int        `json:"totalPages"`
	PageStart  int        `json:"pageStart"`
	PageEnd    int        `json:"pageEnd"`
	Empty      bool       `json:"empty"`
}

// BuildTable extracts, filters and paginates the rows of doc. Columns are paths
// resolved against each row; when q.Columns is empty they are inferred from
// all extracted rows. Non-object rows render as empty cells.
func BuildTable(doc Value, q TableQuery) Table {
	size := q.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}

	cols := q.Columns
	rows, ok := ExtractRows(doc)
	if !ok {
		if cols == nil {
			cols = []string{}
		}
		return Table{Columns: cols, Rows: [][]string{}, Page: 1, PageSize: size, Empty: true}
	}
	if len(cols) == 0 {
		cols = InferColumns(rows)
	}

	filtered := FilterRows(rows, q.Search)
	total := len(filtered)
	pages := (total + size - 1) / size

	page := q.Page
	if page < 1 {
		page = 1
	}
	if pages > 0 && page > pages {
		page = pages
	}

	start := (page - 1) * size
	end := start + size
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	out := make([][]string, 0, end-start)
	for _, row := range filtered[start:end] {
		cells := make([]string, len(cols))
		if row.kind == KindObject {
			for i, c := range cols {
				cells[i] = Text(Resolve(row, c))
			}
		}
		out = append(out, cells)
	}

	first, last := PageWindow(page, pages)
	return Table{
		Columns:    cols,
		Rows:       out,
		TotalRows:  total,
		Page:       page,
		PageSize:   size,
		TotalPages: pages,
		PageStart:  first,
		PageEnd:    last,
	}
}

// PageWindow returns the range of at most five page buttons centred on page.
func PageWindow(page, pages int) (first, last int) {
	if pages <= 0 {
		return 0, 0
	}
	if pages <= pageWindow {
		return 1, pages
	}
	first = page - pageWindow/2
	if first < 1 {
		first = 1
	}
	last = first + pageWindow - 1
	if last > pages {
		last = pages
		first = last - pageWindow + 1
	}
	return first, last
}
