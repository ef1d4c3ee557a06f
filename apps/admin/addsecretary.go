package main

import (
	"time"

	"github.com/google/uuid"

	"github.com/ebdapp/ebd/core"
	"github.com/ebdapp/ebd/core/user"
)

// addSecretary creates an active secretary account, or promotes and
// reactivates an existing account matching the username or email.
func (cli *commandLine) addSecretary(uname, email, name, pwd string) error {
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)
	name = core.CleanString(name)

	usr, err := cli.usrRepo.GetUserByUsernameOrEmail(uname)
	if err == user.ErrNotFound {
		usr, err = cli.usrRepo.GetUserByUsernameOrEmail(email)
	}
	if err != nil {
		if err != user.ErrNotFound {
			return err
		}

		// brand new account
		now := time.Now().UTC()
		usr = user.User{
			ID:        uuid.NewString(),
			Name:      name,
			Username:  uname,
			Email:     email,
			IsActive:  true,
			Roles:     []string{user.RoleSecretary},
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := usr.SetPassword(pwd); err != nil {
			return err
		}
		_, err = cli.usrRepo.CreateUser(usr)
		return err
	}

	// promote the existing account
	usr.Roles = appendRole(usr.Roles, user.RoleSecretary)
	if name != "" {
		usr.Name = name
	}
	usr.UpdatedAt = time.Now().UTC()
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	isActive := true
	_, err = cli.usrRepo.UpdateUser(usr, &isActive)
	return err
}

func appendRole(roles []string, role string) []string {
	for _, r := range roles {
		if r == role {
			return roles
		}
	}
	return append(roles, role)
}
