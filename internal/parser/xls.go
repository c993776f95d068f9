package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/extrame/xls"
)

type xlsParser struct{}

func (xlsParser) CanParse(filename string) bool {
	return hasExt(filename, ".xls")
}

// Parse renders every sheet of a legacy BIFF workbook as tab-separated rows.
func (xlsParser) Parse(content []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("open xls: %v", r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(content), "utf-8")
	if err != nil {
		return "", fmt.Errorf("open xls: %w", err)
	}
	if wb == nil {
		return "", fmt.Errorf("open xls: no workbook stream")
	}

	var b strings.Builder
	for i := 0; i < wb.NumSheets(); i++ {
		sheet := wb.GetSheet(i)
		if sheet == nil {
			continue
		}
		fmt.Fprintf(&b, "Sheet: %s\n", sheet.Name)
		for r := 0; r <= int(sheet.MaxRow); r++ {
			cells, ok := xlsRow(sheet, r)
			if !ok {
				continue
			}
			b.WriteString(strings.Join(cells, "\t"))
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}
	return strings.TrimSpace(b.String()), nil
}

// xlsRow reads one row; ok is false for rows the sheet does not store.
func xlsRow(sheet *xls.WorkSheet, i int) (cells []string, ok bool) {
	// WorkSheet.Row dereferences a nil row for gaps
	defer func() {
		if recover() != nil {
			cells, ok = nil, false
		}
	}()
	row := sheet.Row(i)
	for c := row.FirstCol(); c <= row.LastCol(); c++ {
		cells = append(cells, row.Col(c))
	}
	return cells, true
}
