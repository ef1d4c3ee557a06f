package class

import (
	"time"

	"github.com/google/uuid"

	"github.com/ebdapp/ebd/core"
)

// WeeksPerQuarter is the number of EBD Sundays tracked per academic quarter.
const WeeksPerQuarter = 13

type (
	// Member is a regular attendee of a Class.
	Member struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		// Attendance holds one entry per week of the quarter; true = present.
		Attendance [WeeksPerQuarter]bool `json:"attendance"`
		Birthday   string                `json:"birthday,omitempty"` // DD/MM/YYYY
	}

	// Visitor is a one-off attendee; immutable after registration except for deletion.
	Visitor struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Date string `json:"date"` // visit date, DD/MM/YYYY
	}

	Announcement struct {
		ID        string    `json:"id"`
		Text      string    `json:"text"`
		CreatedAt time.Time `json:"created_at"` // UTC; insertion order = display order
	}

	// Class is one Sunday-school group, the unit of attendance and
	// announcement tracking. All per-class operations read-modify-write the
	// whole structure.
	Class struct {
		ID            string         `json:"id"`
		ChurchName    string         `json:"church_name"`
		Sector        string         `json:"sector"`
		Teacher       string         `json:"teacher"`
		TeacherID     string         `json:"teacher_id,omitempty"`
		Members       []Member       `json:"members"`
		Visitors      []Visitor      `json:"visitors"`
		Announcements []Announcement `json:"announcements"`
	}
)

func newMember(name, birthday string) Member {
	return Member{
		ID:       uuid.NewString(),
		Name:     name,
		Birthday: birthday,
	}
}

func newVisitor(name string, now time.Time) Visitor {
	return Visitor{
		ID:   uuid.NewString(),
		Name: name,
		Date: now.Format(core.DayMonthYear),
	}
}

func newAnnouncement(text string, now time.Time) Announcement {
	return Announcement{
		ID:        uuid.NewString(),
		Text:      text,
		CreatedAt: now.UTC(),
	}
}

// NewClass contains information needed to create a new Class.
type NewClass struct {
	ChurchName string `json:"church_name" validate:"required,min=3"`
	Sector     string `json:"sector" validate:"required"`
}

func (nc *NewClass) Validate() error {
	nc.ChurchName = core.CleanString(nc.ChurchName)
	nc.Sector = core.CleanString(nc.Sector)
	return core.Validate.Struct(nc)
}

// NewMember contains information needed to add a Member to a Class.
type NewMember struct {
	Name     string `json:"name" validate:"required,min=2"`
	Birthday string `json:"birthday" validate:"omitempty,ddmmyyyy"`
}

func (nm *NewMember) Validate() error {
	nm.Name = core.CleanString(nm.Name)
	nm.Birthday = core.CleanString(nm.Birthday)
	return core.Validate.Struct(nm)
}

// AttendanceUpdate marks a member present or absent for one week.
type AttendanceUpdate struct {
	WeekIndex *int  `json:"week_index" validate:"required,min=0,max=12"`
	Present   *bool `json:"present" validate:"required"`
}

func (au *AttendanceUpdate) Validate() error { return core.Validate.Struct(au) }

// MemberBirthdayUpdate sets or corrects a member's birthday.
type MemberBirthdayUpdate struct {
	Birthday string `json:"birthday" validate:"required,ddmmyyyy"`
}

func (bu *MemberBirthdayUpdate) Validate() error {
	bu.Birthday = core.CleanString(bu.Birthday)
	return core.Validate.Struct(bu)
}

// NewVisitor contains information needed to register a Visitor.
type NewVisitor struct {
	Name string `json:"name" validate:"required,min=2"`
}

func (nv *NewVisitor) Validate() error {
	nv.Name = core.CleanString(nv.Name)
	return core.Validate.Struct(nv)
}

// NewAnnouncement contains information needed to post an announcement.
type NewAnnouncement struct {
	Text string `json:"text" validate:"required"`
}

func (na *NewAnnouncement) Validate() error {
	na.Text = core.CleanString(na.Text)
	return core.Validate.Struct(na)
}

// TeacherAssignment names the teacher responsible for a Class.
type TeacherAssignment struct {
	Teacher   string `json:"teacher" validate:"required,min=2"`
	TeacherID string `json:"teacher_id"`
}

func (ta *TeacherAssignment) Validate() error {
	ta.Teacher = core.CleanString(ta.Teacher)
	ta.TeacherID = core.CleanString(ta.TeacherID)
	return core.Validate.Struct(ta)
}
