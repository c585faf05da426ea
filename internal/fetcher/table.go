package fetcher

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Table is a parsed tabular file: one header row plus data rows.
type Table struct {
	Header []string
	Rows   [][]string
}

// Columns maps each requested column name to its index in the header.
// Matching ignores case and surrounding whitespace. Missing columns are
// reported together.
func (t Table) Columns(names ...string) (map[string]int, error) {
	pos := make(map[string]int, len(t.Header))
	for i, h := range t.Header {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, dup := pos[key]; !dup {
			pos[key] = i
		}
	}

	idx := make(map[string]int, len(names))
	var missing []string
	for _, n := range names {
		i, ok := pos[strings.ToLower(n)]
		if !ok {
			missing = append(missing, n)
			continue
		}
		idx[n] = i
	}
	if len(missing) > 0 {
		return nil, eris.Errorf("fetcher: missing columns: %s", strings.Join(missing, ", "))
	}
	return idx, nil
}

// Cell returns row[i] trimmed, or "" when the row is short.
func Cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func newTable(rows [][]string) (Table, error) {
	if len(rows) == 0 {
		return Table{}, eris.New("fetcher: table has no header row")
	}
	header := rows[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	var data [][]string
	for n, r := range rows[1:] {
		if blank(r) {
			continue
		}
		if len(r) > len(header) && !blank(r[len(header):]) {
			return Table{}, eris.Errorf("fetcher: row %d has %d fields, header has %d", n+2, len(r), len(header))
		}
		data = append(data, r)
	}
	return Table{Header: header, Rows: data}, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
