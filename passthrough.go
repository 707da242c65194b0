package gtfsfilter

import (
	"slices"
	"strings"
)

// copyPassthrough copies every table the cascade does not own, and every non-table
// file, from in to out unchanged. Members are visited in file name order.
func copyPassthrough(in, out *Feed, owned map[string]tableSchema, report *Report) {
	type member struct {
		file  string
		table *Table
	}
	var members []member
	for _, name := range in.TableNames() {
		if _, ok := owned[name]; ok {
			continue
		}
		t, _ := in.Table(name)
		members = append(members, member{file: t.FileName(), table: t})
	}
	for _, name := range in.FileNames() {
		members = append(members, member{file: name})
	}
	slices.SortFunc(members, func(a, b member) int {
		return strings.Compare(a.file, b.file)
	})

	for _, m := range members {
		if m.table != nil {
			out.AddTable(m.table)
		} else {
			out.AddFile(m.file, in.Files[m.file])
		}
		report.copied(m.file)
	}
}
