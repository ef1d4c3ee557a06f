package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/ebdapp/ebd/core/class"
)

// sheetSpec is a title, a header row and the data rows of one worksheet.
type sheetSpec struct {
	title  string
	header []string
	rows   [][]string
}

// WriteWorkbook writes the attendance workbook for the given classes to w.
// One worksheet per class plus a leading summary sheet when more than one
// class is included.
func WriteWorkbook(w io.Writer, classes []class.Class) error {
	var sheets []sheetSpec
	if len(classes) > 1 {
		sheets = append(sheets, summarySheet(classes))
	}
	for _, c := range classes {
		sheets = append(sheets, classSheet(c))
	}
	dedupeTitles(sheets)

	f, err := buildWorkbook(sheets)
	if err != nil {
		return err
	}
	defer f.Close()
	return errors.Wrap(f.Write(w), "writing workbook")
}

func summarySheet(classes []class.Class) sheetSpec {
	sum := Summarize(classes)
	s := sheetSpec{
		title:  "Summary",
		header: []string{"Class", "Sector", "Teacher", "Members", "Visitors", "Avg %"},
	}
	for _, rpt := range sum.Classes {
		s.rows = append(s.rows, []string{
			rpt.ChurchName,
			rpt.Sector,
			rpt.Teacher,
			strconv.Itoa(rpt.MemberCount),
			strconv.Itoa(rpt.VisitorCount),
			strconv.Itoa(rpt.AveragePct),
		})
	}
	return s
}

func classSheet(c class.Class) sheetSpec {
	rpt := ForClass(c)
	s := sheetSpec{title: sheetTitle(c)}

	s.header = []string{"Member"}
	for week := 1; week <= class.WeeksPerQuarter; week++ {
		s.header = append(s.header, fmt.Sprintf("W%d", week))
	}
	s.header = append(s.header, "Present", "%")

	for i, m := range c.Members {
		row := []string{m.Name}
		for _, present := range m.Attendance {
			mark := ""
			if present {
				mark = "P"
			}
			row = append(row, mark)
		}
		row = append(row,
			strconv.Itoa(rpt.Members[i].PresentCount),
			strconv.Itoa(rpt.Members[i].AttendancePct),
		)
		s.rows = append(s.rows, row)
	}
	return s
}

// sheetTitle derives a worksheet name within excelize's 31-char limit.
func sheetTitle(c class.Class) string {
	title := c.ChurchName
	if c.Sector != "" {
		title += " " + c.Sector
	}
	return truncateRunes(title, 31)
}

// truncateRunes shortens s to at most n runes; church names are pt-BR and
// byte-slicing could split a rune.
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		r = r[:n]
	}
	return string(r)
}

// dedupeTitles suffixes repeated worksheet names. NewSheet reuses an
// existing sheet of the same name, which would drop a class's rows.
func dedupeTitles(sheets []sheetSpec) {
	used := make(map[string]bool, len(sheets))
	for i := range sheets {
		title := sheets[i].title
		for n := 2; used[title]; n++ {
			suffix := " " + strconv.Itoa(n)
			title = truncateRunes(sheets[i].title, 31-len(suffix)) + suffix
		}
		used[title] = true
		sheets[i].title = title
	}
}

func buildWorkbook(sheets []sheetSpec) (*excelize.File, error) {
	f := excelize.NewFile()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, errors.Wrap(err, "creating header style")
	}
	for i, s := range sheets {
		name := s.title
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return nil, errors.Wrapf(err, "renaming sheet %q", name)
			}
		} else {
			if _, err := f.NewSheet(name); err != nil {
				return nil, errors.Wrapf(err, "creating sheet %q", name)
			}
		}

		for col, h := range s.header {
			cell := colName(col+1) + "1"
			if err := f.SetCellStr(name, cell, h); err != nil {
				return nil, errors.Wrapf(err, "setting cell %s", cell)
			}
		}
		end := colName(len(s.header)) + "1"
		_ = f.SetCellStyle(name, "A1", end, bold)

		for r, row := range s.rows {
			for c, val := range row {
				cell := fmt.Sprintf("%s%d", colName(c+1), r+2)
				if err := f.SetCellStr(name, cell, val); err != nil {
					return nil, errors.Wrapf(err, "setting cell %s", cell)
				}
			}
		}

		// width from the header and the first rows, capped
		for c := 1; c <= len(s.header); c++ {
			max := len(s.header[c-1])
			for r := 0; r < len(s.rows) && r < 50; r++ {
				if l := len(s.rows[r][c-1]); l > max {
					max = l
				}
			}
			w := float64(max) * 0.9
			if w < 6 {
				w = 6
			}
			if w > 40 {
				w = 40
			}
			_ = f.SetColWidth(name, colName(c), colName(c), w)
		}
	}
	return f, nil
}

func colName(n int) string {
	s := ""
	for n > 0 {
		n--
		s = string(rune('A'+(n%26))) + s
		n /= 26
	}
	return s
}
