package user

import (
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"

	"github.com/ebdapp/ebd/core"
)

var (
	// errors
	ErrNotFound       = errors.New("user not found")
	ErrEmailExists    = errors.New("a user with this email already exists")
	ErrUsernameExists = errors.New("a user with this username already exists")
)

type (
	Repository interface {
		CheckUsernameUniqueness(username, email string, excludedUsers ...User) error
		CreateUser(user User) (User, error)
		QueryAllUsers() ([]User, error)
		GetUserByID(id string) (User, error)
		GetUserByUsername(username string) (User, error)
		GetUserByEmail(email string) (User, error)
		GetUserByUsernameOrEmail(username string) (User, error)
		// FilterUsers applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of User.Name, User.Username or User.Email.
		FilterUsers(filter QueryFilter) ([]User, error)
		// UpdateUser merges the set (non-zero) fields of user into the stored row.
		UpdateUser(user User, isActive *bool) (User, error)
		// SetCurrentClass overwrites the session's class selection; empty clears it.
		SetCurrentClass(userID, classID string) (User, error)
		DeleteUsersByID(ids ...string) error
	}

	Service struct {
		repo      Repository
		mailSvc   core.EmailService
		asyncMail bool
	}
)

func NewService(repo Repository, mailSvc core.EmailService) *Service {
	return &Service{repo: repo, mailSvc: mailSvc, asyncMail: true}
}

func (svc *Service) checkUniqueness(uname, email string, exclUsers ...User) error {
	if err := svc.repo.CheckUsernameUniqueness(uname, email, exclUsers...); err != nil {
		var field string
		switch err {
		case ErrUsernameExists:
			field = "username"
		case ErrEmailExists:
			field = "email"
		default:
			return err
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
	}
	return nil
}

func (svc *Service) Create(nu NewUser) (User, error) {
	now := time.Now().UTC()
	usr := User{
		ID:               uuid.NewString(),
		Name:             nu.Name,
		Username:         nu.Username,
		Email:            nu.Email,
		IsActive:         true,
		Roles:            nu.Roles,
		AssignedClassIDs: nu.AssignedClassIDs,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}
	return svc.repo.CreateUser(usr)
}

// CreateInactive creates an account pending activation by a secretary;
// used for secretary self-registrations.
func (svc *Service) CreateInactive(nu NewUser) (User, error) {
	usr, err := svc.Create(nu)
	if err != nil {
		return User{}, err
	}
	inactive := false
	return svc.repo.UpdateUser(usr, &inactive)
}

// EnsureGeneralSecretary seeds the built-in general secretary account if it
// does not exist yet. Called once at startup.
func (svc *Service) EnsureGeneralSecretary(username, password, name string) (User, error) {
	username = core.CleanString(username, true /* lower */)
	if usr, err := svc.repo.GetUserByUsername(username); err == nil {
		return usr, nil
	} else if err != ErrNotFound {
		return User{}, err
	}
	return svc.Create(NewUser{
		Name:     name,
		Username: username,
		Password: password,
		Roles:    []string{RoleSecretaryGeneral},
	})
}

func (svc *Service) QueryAll() ([]User, error) {
	return svc.repo.QueryAllUsers()
}

func (svc *Service) GetByID(id string) (User, error) {
	return svc.repo.GetUserByID(id)
}

func (svc *Service) GetByUsername(uname string) (User, error) {
	return svc.repo.GetUserByUsername(core.CleanString(uname, true /* lower */))
}

func (svc *Service) GetByEmail(email string) (User, error) {
	return svc.repo.GetUserByEmail(core.CleanString(email, true /* lower */))
}

func (svc *Service) GetByUsernameOrEmail(uname string) (User, error) {
	return svc.repo.GetUserByUsernameOrEmail(core.CleanString(uname, true /* lower */))
}

func (svc *Service) Filter(filter QueryFilter) ([]User, error) {
	return svc.repo.FilterUsers(filter)
}

func (svc *Service) Update(id string, uu UpdateUser) (User, error) {
	usr := User{
		ID:               id,
		Name:             uu.Name,
		Username:         uu.Username,
		Email:            uu.Email,
		Roles:            uu.Roles,
		AssignedClassIDs: uu.AssignedClassIDs,
		UpdatedAt:        time.Now().UTC(),
	}
	if uu.Password != "" {
		if err := usr.SetPassword(uu.Password); err != nil {
			return User{}, err
		}
	}
	return svc.repo.UpdateUser(usr, uu.IsActive)
}

func (svc *Service) SetLastLogin(usr User) (User, error) {
	usr.LastLogin = time.Now().UTC()
	usr, err := svc.repo.UpdateUser(usr, nil)
	if err != nil {
		return User{}, err
	}
	// a teacher's session opens on their first assigned class, if any
	if usr.IsTeacher() && usr.CurrentClassID == "" && len(usr.AssignedClassIDs) > 0 {
		return svc.repo.SetCurrentClass(usr.ID, usr.AssignedClassIDs[0])
	}
	return usr, nil
}

// SetCurrentClass records the class a session is working on; an empty id
// clears the selection (logout). The classes collection itself is untouched.
func (svc *Service) SetCurrentClass(userID, classID string) (User, error) {
	return svc.repo.SetCurrentClass(userID, classID)
}

func (svc *Service) Delete(ids ...string) error {
	return svc.repo.DeleteUsersByID(ids...)
}

func (svc *Service) RequestPasswordReset(email string) error {
	usr, err := svc.GetByEmail(email)
	if err != nil {
		return err
	}
	if svc.asyncMail {
		go svc.sendPasswordResetMail(usr)
	} else {
		svc.sendPasswordResetMail(usr)
	}
	return nil
}

func (svc *Service) sendPasswordResetMail(usr User) {
	token, err := MakeToken(usr)
	if err != nil {
		return
	}
	url := fmt.Sprintf("%s/password-reset/%s/%s", core.Conf.FrontendBaseURL, EncodeUID(usr), token)
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject: "Password Reset",
		TextContent: fmt.Sprintf(
			"Hi %s,\n\nYou requested a password reset for your %s account.\n"+
				"Follow the link below to set a new password:\n\n%s\n\n"+
				"If you did not request this, you can safely ignore this email.",
			usr.Name, core.Conf.AppName, url,
		),
	})
}

func (svc *Service) ResetPassword(rp ResetUserPassword) error {
	uid, err := decodeUID(rp.UID)
	if err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "uid", Error: errInvalidToken.Error()})
	}
	usr, err := svc.GetByID(uid)
	if err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "uid", Error: errInvalidToken.Error()})
	}
	if err := verifyToken(usr, rp.Token); err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "token", Error: err.Error()})
	}
	if err := usr.SetPassword(rp.Password); err != nil {
		return err
	}
	usr.UpdatedAt = time.Now().UTC()
	_, err = svc.repo.UpdateUser(usr, nil)
	return err
}
