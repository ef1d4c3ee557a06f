package user

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ebdapp/ebd/core"
)

// Roles. An account is either secretary-tagged or teacher-tagged, never both:
// the two sessions are mutually exclusive.
const (
	// Secretary: oversight across all classes
	RoleSecretary        = "secretary:"
	RoleSecretaryGeneral = "secretary:general" // the built-in account

	// Teacher: scoped to assigned classes
	RoleTeacher = "teacher:"
)

var (
	SecretaryRoles = []string{RoleSecretary, RoleSecretaryGeneral}
	TeacherRoles   = []string{RoleTeacher}
	AllRoles       = getAllRoles()

	rolePriorities = map[string]int{
		// Secretaries: 20 - 11
		RoleSecretaryGeneral: 20,
		RoleSecretary:        11,

		// Teachers: 10 - 1
		RoleTeacher: 1,
	}

	Roles = []Role{
		{Name: "Teacher", Value: RoleTeacher},
		{Name: "Secretary", Value: RoleSecretary},
		{Name: "General Secretary", Value: RoleSecretaryGeneral},
	}
)

func getAllRoles() []string {
	all := make([]string, 0, 3)
	all = append(all, SecretaryRoles...)
	all = append(all, TeacherRoles...)
	return all
}

func RolePriority(role string) int {
	return rolePriorities[role]
}

func MaxRolePriority(roles []string) int {
	var max int
	for _, role := range roles {
		if RolePriority(role) > max {
			max = RolePriority(role)
		}
	}
	return max
}

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// User is a teacher or secretary account. The teacher↔class relation is
// owned here (AssignedClassIDs); Class.TeacherID is display-side data kept
// consistent on account deletion.
type User struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Username         string    `json:"username"`
	Email            string    `json:"email"`
	IsActive         bool      `json:"is_active"`
	Roles            []string  `json:"roles"`
	AssignedClassIDs []string  `json:"assigned_class_ids"`
	CurrentClassID   string    `json:"current_class_id,omitempty"`
	PasswordHash     []byte    `json:"-"`
	CreatedAt        time.Time `json:"created_at"` // UTC
	UpdatedAt        time.Time `json:"updated_at"` // UTC
	LastLogin        time.Time `json:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) RoleStartsWith(prefix string) bool {
	for _, role := range u.Roles {
		if strings.HasPrefix(role, prefix) {
			return true
		}
	}
	return false
}

func (u *User) IsSecretary() bool {
	return u.RoleStartsWith(RoleSecretary)
}

func (u *User) IsTeacher() bool {
	return u.RoleStartsWith(RoleTeacher)
}

func (u *User) IsAssigned(classID string) bool {
	for _, id := range u.AssignedClassIDs {
		if id == classID {
			return true
		}
	}
	return false
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name             string   `json:"name" validate:"required,min=3"`
	Username         string   `json:"username" validate:"omitempty,min=6,alphanum_"`
	Email            string   `json:"email" validate:"omitempty,email"`
	Password         string   `json:"password" validate:"required"`
	PasswordConfirm  string   `json:"password_confirm" validate:"required,eqfield=Password"`
	Roles            []string `json:"roles" validate:"omitempty,allroles"`
	AssignedClassIDs []string `json:"assigned_class_ids"`
}

func (nu *NewUser) Validate(svc *Service) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Email = core.CleanString(nu.Email, true /* lower */)

	if err := core.Validate.Struct(nu); err != nil {
		return err
	}
	return svc.checkUniqueness(nu.Username, nu.Email)
}

// UpdateUser defines what information may be provided to modify an existing User.
type UpdateUser struct {
	Name             string   `json:"name"`
	Username         string   `json:"username" validate:"omitempty,min=6,alphanum_"`
	Email            string   `json:"email" validate:"omitempty,email"`
	IsActive         *bool    `json:"is_active"`
	Roles            []string `json:"roles" validate:"omitempty,allroles"`
	AssignedClassIDs []string `json:"assigned_class_ids"`
	Password         string   `json:"password" validate:"omitempty"`
	PasswordConfirm  string   `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`
}

func (uu *UpdateUser) Validate(origUsr User, svc *Service) error {
	name := core.CleanString(uu.Name)
	if name != "" {
		uu.Name = name
	} else {
		uu.Name = origUsr.Name
	}

	uname := core.CleanString(uu.Username, true /* lower */)
	if uname != "" {
		uu.Username = uname
	} else {
		uu.Username = origUsr.Username
	}

	email := core.CleanString(uu.Email, true /* lower */)
	if email != "" {
		uu.Email = email
	} else {
		uu.Email = origUsr.Email
	}

	if err := core.Validate.Struct(uu); err != nil {
		return err
	}
	return svc.checkUniqueness(uu.Username, uu.Email, origUsr)
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetUserPassword) Validate() error { return core.Validate.Struct(rp) }

type QueryFilter struct {
	Search   string   `query:"search"`
	Roles    []string `query:"role"`
	IsActive *bool    `query:"is_active"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Roles == nil && qf.IsActive == nil
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
