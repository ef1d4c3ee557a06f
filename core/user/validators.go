package user

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/ebdapp/ebd/core"
)

var (
	allRolesTag  = "allroles"
	allRolesText = "invalid roles"

	usernameOrEmailTag  = "username_or_email"
	usernameOrEmailText = "one of username or email is required"

	// password policy
	pwdMinLen     = 6
	pwdMinLenTag  = "pwdminlen"
	pwdMinLenText = fmt.Sprintf("password must contain at least %d characters", pwdMinLen)

	pwdNoSpaceTag  = "pwdnospace"
	pwdNoSpaceText = "password must not contain whitespace"

	pwdNotAllNumTag  = "pwdnotallnum"
	pwdNotAllNumText = "password cannot be entirely numeric"

	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = "password cannot be similar to user attributes"
)

func init() {
	// register validators
	_ = core.Validate.RegisterValidation(allRolesTag, allRolesValidation)
	core.RegisterCustomTranslation(allRolesTag, allRolesText)

	core.Validate.RegisterStructValidation(userStructValidation, NewUser{})
	core.Validate.RegisterStructValidation(userStructValidation, UpdateUser{})
	core.Validate.RegisterStructValidation(userStructValidation, ResetUserPassword{})
	core.RegisterCustomTranslation(usernameOrEmailTag, usernameOrEmailText)
	core.RegisterCustomTranslation(pwdMinLenTag, pwdMinLenText)
	core.RegisterCustomTranslation(pwdNoSpaceTag, pwdNoSpaceText)
	core.RegisterCustomTranslation(pwdNotAllNumTag, pwdNotAllNumText)
	core.RegisterCustomTranslation(pwdAttrSimTag, pwdAttrSimText)
}

// allRolesValidation checks that all provided roles are known.
func allRolesValidation(fl validator.FieldLevel) bool {
	roles, ok := fl.Field().Interface().([]string)
	if !ok {
		return false
	}
	for _, role := range roles {
		var known bool
		for _, r := range AllRoles {
			if role == r {
				known = true
				break
			}
		}
		if !known {
			return false
		}
	}
	return true
}

func userStructValidation(sl validator.StructLevel) {
	switch v := sl.Current().Interface().(type) {
	case NewUser:
		if v.Username == "" && v.Email == "" {
			sl.ReportError(v.Username, "username", "Username", usernameOrEmailTag, "")
			sl.ReportError(v.Email, "email", "Email", usernameOrEmailTag, "")
		}
		validatePassword(sl, v.Password, v.Name, v.Username, v.Email)
	case UpdateUser:
		if v.Password != "" {
			validatePassword(sl, v.Password, v.Name, v.Username, v.Email)
		}
	case ResetUserPassword:
		validatePassword(sl, v.Password, "", "", "")
	}
}

func validatePassword(sl validator.StructLevel, pwd string, attrs ...string) {
	if len(pwd) < pwdMinLen {
		sl.ReportError(pwd, "password", "Password", pwdMinLenTag, "")
		return
	}
	if strings.ContainsFunc(pwd, unicode.IsSpace) {
		sl.ReportError(pwd, "password", "Password", pwdNoSpaceTag, "")
	}
	if isAllNumeric(pwd) {
		sl.ReportError(pwd, "password", "Password", pwdNotAllNumTag, "")
	}
	for _, attr := range attrs {
		if attr == "" {
			continue
		}
		if similarity(pwd, attr) > pwdMaxSim {
			sl.ReportError(pwd, "password", "Password", pwdAttrSimTag, "")
			break
		}
	}
}

func isAllNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func similarity(a, b string) float64 {
	m := difflib.NewMatcher(
		strings.Split(strings.ToLower(a), ""),
		strings.Split(strings.ToLower(b), ""),
	)
	return m.Ratio()
}
