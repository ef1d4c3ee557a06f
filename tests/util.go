package testutil

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ebdapp/ebd/core/class"
	"github.com/ebdapp/ebd/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	classIDs ...string,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	usr := user.User{
		ID:               uuid.NewString(),
		Name:             name,
		Username:         uname,
		Email:            email,
		Roles:            roles,
		AssignedClassIDs: classIDs,
		IsActive:         isActive,
		CreatedAt:        tstamp,
		UpdatedAt:        tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateClass(t *testing.T, repo class.Repository, churchName, sector string) class.Class {
	t.Helper()

	c, err := repo.CreateClass(class.Class{
		ID:            uuid.NewString(),
		ChurchName:    churchName,
		Sector:        sector,
		Members:       []class.Member{},
		Visitors:      []class.Visitor{},
		Announcements: []class.Announcement{},
	})
	if err != nil {
		t.Fatalf("CreateClass() failed: %v", err)
	}
	return c
}
