// Package report aggregates attendance and membership figures across
// classes. Reports are computed on demand from class data; nothing here
// is persisted.
package report

import (
	"math"
	"sort"
	"time"

	"github.com/ebdapp/ebd/core"
	"github.com/ebdapp/ebd/core/class"
)

type (
	// MemberReport is one member's attendance summary for the quarter.
	MemberReport struct {
		MemberID      string `json:"member_id"`
		Name          string `json:"name"`
		PresentCount  int    `json:"present_count"`
		AttendancePct int    `json:"attendance_pct"` // round(100 * present / weeks)
	}

	// ClassReport summarizes one class over the current quarter.
	ClassReport struct {
		ClassID      string                     `json:"class_id"`
		ChurchName   string                     `json:"church_name"`
		Sector       string                     `json:"sector"`
		Teacher      string                     `json:"teacher"`
		MemberCount  int                        `json:"member_count"`
		VisitorCount int                        `json:"visitor_count"`
		WeeklyCounts [class.WeeksPerQuarter]int `json:"weekly_counts"` // present members per week
		AveragePct   int                        `json:"average_pct"`
		Members      []MemberReport             `json:"members"`
	}

	// Birthday is one member's birthday entry within a month listing.
	Birthday struct {
		ClassID   string `json:"class_id"`
		ClassName string `json:"class_name"`
		MemberID  string `json:"member_id"`
		Name      string `json:"name"`
		Birthday  string `json:"birthday"` // DD/MM/YYYY
		Day       int    `json:"day"`
	}

	// Summary is the secretary-wide view over all classes.
	Summary struct {
		ClassCount   int           `json:"class_count"`
		MemberCount  int           `json:"member_count"`
		VisitorCount int           `json:"visitor_count"`
		Classes      []ClassReport `json:"classes"`
	}
)

// AttendancePct returns the member's quarter attendance as a whole
// percentage, rounded half away from zero.
func AttendancePct(m class.Member) int {
	return int(math.Round(100 * float64(presentCount(m)) / class.WeeksPerQuarter))
}

func presentCount(m class.Member) int {
	n := 0
	for _, present := range m.Attendance {
		if present {
			n++
		}
	}
	return n
}

// ForClass builds the attendance report for a single class.
func ForClass(c class.Class) ClassReport {
	rpt := ClassReport{
		ClassID:      c.ID,
		ChurchName:   c.ChurchName,
		Sector:       c.Sector,
		Teacher:      c.Teacher,
		MemberCount:  len(c.Members),
		VisitorCount: len(c.Visitors),
		Members:      make([]MemberReport, 0, len(c.Members)),
	}
	pctSum := 0
	for _, m := range c.Members {
		pct := AttendancePct(m)
		pctSum += pct
		rpt.Members = append(rpt.Members, MemberReport{
			MemberID:      m.ID,
			Name:          m.Name,
			PresentCount:  presentCount(m),
			AttendancePct: pct,
		})
		for week, present := range m.Attendance {
			if present {
				rpt.WeeklyCounts[week]++
			}
		}
	}
	if len(c.Members) > 0 {
		rpt.AveragePct = int(math.Round(float64(pctSum) / float64(len(c.Members))))
	}
	return rpt
}

// Summarize builds the cross-class summary used by secretaries.
func Summarize(classes []class.Class) Summary {
	sum := Summary{Classes: make([]ClassReport, 0, len(classes))}
	for _, c := range classes {
		rpt := ForClass(c)
		sum.ClassCount++
		sum.MemberCount += rpt.MemberCount
		sum.VisitorCount += rpt.VisitorCount
		sum.Classes = append(sum.Classes, rpt)
	}
	return sum
}

// BirthdaysOfMonth lists members with a birthday in the given month,
// ordered by day. Members with no or malformed birthday are skipped.
func BirthdaysOfMonth(classes []class.Class, month time.Month) []Birthday {
	bdays := []Birthday{}
	for _, c := range classes {
		for _, m := range c.Members {
			if m.Birthday == "" {
				continue
			}
			t, err := time.Parse(core.DayMonthYear, m.Birthday)
			if err != nil || t.Month() != month {
				continue
			}
			bdays = append(bdays, Birthday{
				ClassID:   c.ID,
				ClassName: c.ChurchName,
				MemberID:  m.ID,
				Name:      m.Name,
				Birthday:  m.Birthday,
				Day:       t.Day(),
			})
		}
	}
	sort.SliceStable(bdays, func(i, j int) bool { return bdays[i].Day < bdays[j].Day })
	return bdays
}
