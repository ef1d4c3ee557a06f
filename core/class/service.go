package class

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// NowFunc is mockable for tests.
	NowFunc = time.Now

	// errors
	ErrNotFound        = errors.New("class not found")
	ErrMemberNotFound  = errors.New("member not found")
	ErrVisitorNotFound = errors.New("visitor not found")
	ErrWeekIndexRange  = errors.New("week index out of range")
)

type (
	Repository interface {
		CreateClass(c Class) (Class, error)
		GetClassByID(id string) (Class, error)
		QueryAllClasses() ([]Class, error)
		// QueryClassesByID preserves the order of the given ids; unknown ids are skipped.
		QueryClassesByID(ids ...string) ([]Class, error)
		// UpdateClass replaces the stored class whose id matches, as a whole.
		UpdateClass(c Class) (Class, error)
		DeleteClassesByID(ids ...string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Pure transforms. Each returns a new Class value and never mutates its input.

func clone(c Class) Class {
	c.Members = append([]Member(nil), c.Members...)
	c.Visitors = append([]Visitor(nil), c.Visitors...)
	c.Announcements = append([]Announcement(nil), c.Announcements...)
	return c
}

func addMember(c Class, name, birthday string) Class {
	c = clone(c)
	c.Members = append(c.Members, newMember(name, birthday))
	return c
}

func removeMember(c Class, memberID string) Class {
	c = clone(c)
	members := c.Members[:0:0]
	for _, m := range c.Members {
		if m.ID != memberID {
			members = append(members, m)
		}
	}
	c.Members = members
	return c
}

func markAttendance(c Class, memberID string, weekIndex int, present bool) (Class, error) {
	if weekIndex < 0 || weekIndex >= WeeksPerQuarter {
		return c, ErrWeekIndexRange
	}
	c = clone(c)
	for i, m := range c.Members {
		if m.ID == memberID {
			m.Attendance[weekIndex] = present // Attendance is an array; m is already a copy
			c.Members[i] = m
			break
		}
	}
	return c, nil
}

func setMemberBirthday(c Class, memberID, birthday string) Class {
	c = clone(c)
	for i, m := range c.Members {
		if m.ID == memberID {
			m.Birthday = birthday
			c.Members[i] = m
			break
		}
	}
	return c
}

func addVisitor(c Class, name string) Class {
	c = clone(c)
	c.Visitors = append(c.Visitors, newVisitor(name, NowFunc()))
	return c
}

func removeVisitor(c Class, visitorID string) Class {
	c = clone(c)
	visitors := c.Visitors[:0:0]
	for _, v := range c.Visitors {
		if v.ID != visitorID {
			visitors = append(visitors, v)
		}
	}
	c.Visitors = visitors
	return c
}

func addAnnouncement(c Class, text string) Class {
	c = clone(c)
	c.Announcements = append(c.Announcements, newAnnouncement(text, NowFunc()))
	return c
}

// removeAnnouncement is a no-op when the id is unknown: announcements are
// addressed by stable id, so a delete racing another delete simply fizzles.
func removeAnnouncement(c Class, announcementID string) Class {
	c = clone(c)
	anns := c.Announcements[:0:0]
	for _, a := range c.Announcements {
		if a.ID != announcementID {
			anns = append(anns, a)
		}
	}
	c.Announcements = anns
	return c
}

func assignTeacher(c Class, name, teacherID string) Class {
	c = clone(c)
	c.Teacher = name
	c.TeacherID = teacherID
	return c
}

func (c Class) hasMember(memberID string) bool {
	for _, m := range c.Members {
		if m.ID == memberID {
			return true
		}
	}
	return false
}

func (c Class) hasVisitor(visitorID string) bool {
	for _, v := range c.Visitors {
		if v.ID == visitorID {
			return true
		}
	}
	return false
}

// Service operations. Each applies a pure transform to the stored class and
// writes the result back as a single whole-class replacement.

func (svc *Service) Create(nc NewClass) (Class, error) {
	return svc.repo.CreateClass(Class{
		ID:            uuid.NewString(),
		ChurchName:    nc.ChurchName,
		Sector:        nc.Sector,
		Members:       []Member{},
		Visitors:      []Visitor{},
		Announcements: []Announcement{},
	})
}

func (svc *Service) QueryAll() ([]Class, error) {
	return svc.repo.QueryAllClasses()
}

func (svc *Service) GetByID(id string) (Class, error) {
	return svc.repo.GetClassByID(id)
}

func (svc *Service) QueryByID(ids ...string) ([]Class, error) {
	return svc.repo.QueryClassesByID(ids...)
}

func (svc *Service) AddMember(classID string, nm NewMember) (Class, error) {
	c, err := svc.repo.GetClassByID(classID)
	if err != nil {
		return Class{}, err
	}
	return svc.repo.UpdateClass(addMember(c, nm.Name, nm.Birthday))
}

func (svc *Service) RemoveMember(classID, memberID string) (Class, error) {
	c, err := svc.repo.GetClassByID(classID)
	if err != nil {
		return Class{}, err
	}
	if !c.hasMember(memberID) {
		return Class{}, ErrMemberNotFound
	}
	return svc.repo.UpdateClass(removeMember(c, memberID))
}

func (svc *Service) MarkAttendance(classID, memberID string, au AttendanceUpdate) (Class, error) {
	c, err := svc.repo.GetClassByID(classID)
	if err != nil {
		return Class{}, err
	}
	if !c.hasMember(memberID) {
		return Class{}, ErrMemberNotFound
	}
	c, err = markAttendance(c, memberID, *au.WeekIndex, *au.Present)
	if err != nil {
		return Class{}, err
	}
	return svc.repo.UpdateClass(c)
}

func (svc *Service) SetMemberBirthday(classID, memberID string, bu MemberBirthdayUpdate) (Class, error) {
	c, err := svc.repo.GetClassByID(classID)
	if err != nil {
		return Class{}, err
	}
	if !c.hasMember(memberID) {
		return Class{}, ErrMemberNotFound
	}
	return svc.repo.UpdateClass(setMemberBirthday(c, memberID, bu.Birthday))
}

func (svc *Service) AddVisitor(classID string, nv NewVisitor) (Class, error) {
	c, err := svc.repo.GetClassByID(classID)
	if err != nil {
		return Class{}, err
	}
	return svc.repo.UpdateClass(addVisitor(c, nv.Name))
}

func (svc *Service) RemoveVisitor(classID, visitorID string) (Class, error) {
	c, err := svc.repo.GetClassByID(classID)
	if err != nil {
		return Class{}, err
	}
	if !c.hasVisitor(visitorID) {
		return Class{}, ErrVisitorNotFound
	}
	return svc.repo.UpdateClass(removeVisitor(c, visitorID))
}

func (svc *Service) AddAnnouncement(classID string, na NewAnnouncement) (Class, error) {
	c, err := svc.repo.GetClassByID(classID)
	if err != nil {
		return Class{}, err
	}
	return svc.repo.UpdateClass(addAnnouncement(c, na.Text))
}

func (svc *Service) RemoveAnnouncement(classID, announcementID string) (Class, error) {
	c, err := svc.repo.GetClassByID(classID)
	if err != nil {
		return Class{}, err
	}
	return svc.repo.UpdateClass(removeAnnouncement(c, announcementID))
}

func (svc *Service) AssignTeacher(classID string, ta TeacherAssignment) (Class, error) {
	c, err := svc.repo.GetClassByID(classID)
	if err != nil {
		return Class{}, err
	}
	return svc.repo.UpdateClass(assignTeacher(c, ta.Teacher, ta.TeacherID))
}

// ClearTeacher detaches a deleted teacher account from every class that
// still references it.
func (svc *Service) ClearTeacher(teacherID string) error {
	classes, err := svc.repo.QueryAllClasses()
	if err != nil {
		return err
	}
	for _, c := range classes {
		if c.TeacherID != teacherID {
			continue
		}
		if _, err := svc.repo.UpdateClass(assignTeacher(c, "", "")); err != nil {
			return err
		}
	}
	return nil
}

func (svc *Service) Delete(ids ...string) error {
	return svc.repo.DeleteClassesByID(ids...)
}
