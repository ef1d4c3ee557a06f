package tests

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/ebdapp/ebd/core/user"
	"github.com/ebdapp/ebd/tests"
)

func Test_userApi_userQuery(t *testing.T) {
	app := setup(t)

	teacher := testutil.CreateUser(t, usrRepo, "Maria Silva", "mariasilva", "maria@test.test", "",
		[]string{user.RoleTeacher}, true)
	secretary := testutil.CreateUser(t, usrRepo, "Clara Lima", "claralima", "clara@test.test", "",
		[]string{user.RoleSecretary}, true)
	inactive := testutil.CreateUser(t, usrRepo, "Naughty", "naughty1", "naughty@test.test", "",
		[]string{user.RoleTeacher}, false)

	path := func(search string, roles ...string) string {
		v := make(url.Values)
		if search != "" {
			v.Add("search", search)
		}
		for _, r := range roles {
			v.Add("role", r)
		}
		if enc := v.Encode(); enc != "" {
			return "/v1/users?" + enc
		}
		return "/v1/users"
	}

	tests := []httpTest{
		{
			name: "auth required", path: path(""),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "listing users is secretary work", path: path(""), token: getToken(t, teacher),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "all users", path: path(""), token: getToken(t, secretary),
			wantCode: http.StatusOK, wantData: marchallList(t, teacher, secretary, inactive),
		},
		{
			name: "search by name", path: path("maria"), token: getToken(t, secretary),
			wantCode: http.StatusOK, wantData: marchallList(t, teacher),
		},
		{
			name: "search matches nothing", path: path("nope"), token: getToken(t, secretary),
			wantCode: http.StatusOK, wantData: marchallList(t),
		},
		{
			name: "filter by role", path: path("", user.RoleSecretary), token: getToken(t, secretary),
			wantCode: http.StatusOK, wantData: marchallList(t, secretary),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_userRetrieve(t *testing.T) {
	app := setup(t)

	teacher := testutil.CreateUser(t, usrRepo, "Maria Silva", "mariasilva", "maria@test.test", "",
		[]string{user.RoleTeacher}, true)
	other := testutil.CreateUser(t, usrRepo, "Pedro Souza", "pedrosouza", "pedro@test.test", "",
		[]string{user.RoleTeacher}, true)
	secretary := testutil.CreateUser(t, usrRepo, "Clara Lima", "claralima", "clara@test.test", "",
		[]string{user.RoleSecretary}, true)

	tests := []httpTest{
		{
			name: "own account", path: "/v1/users/" + teacher.ID, token: getToken(t, teacher),
			wantCode: http.StatusOK, wantData: marchallObj(t, teacher),
		},
		{
			name: "someone else's account is not found", path: "/v1/users/" + other.ID, token: getToken(t, teacher),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound),
		},
		{
			name: "secretary reads any account", path: "/v1/users/" + other.ID, token: getToken(t, secretary),
			wantCode: http.StatusOK, wantData: marchallObj(t, other),
		},
		{
			name: "unknown id", path: "/v1/users/nope", token: getToken(t, secretary),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_userUpdate(t *testing.T) {
	app := setup(t)

	c := testutil.CreateClass(t, classRepo, "Central", "Leste")
	teacher := testutil.CreateUser(t, usrRepo, "Maria Silva", "mariasilva", "maria@test.test", "",
		[]string{user.RoleTeacher}, true)
	secretary := testutil.CreateUser(t, usrRepo, "Clara Lima", "claralima", "clara@test.test", "",
		[]string{user.RoleSecretary}, true)

	boolPtr := func(b bool) *bool { return &b }

	tests := []httpTest{
		{
			name: "teacher renames themselves", path: "/v1/users/" + teacher.ID, token: getToken(t, teacher),
			body: marchallObj(t, user.UpdateUser{Name: "Maria S. Silva"}), wantCode: http.StatusOK,
		},
		{
			name: "teacher cannot deactivate themselves", path: "/v1/users/" + teacher.ID, token: getToken(t, teacher),
			body:     marchallObj(t, user.UpdateUser{IsActive: boolPtr(false)}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "teacher cannot promote themselves", path: "/v1/users/" + teacher.ID, token: getToken(t, teacher),
			body:     marchallObj(t, user.UpdateUser{Roles: []string{user.RoleSecretary}}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "teacher cannot self-assign classes", path: "/v1/users/" + teacher.ID, token: getToken(t, teacher),
			body:     marchallObj(t, user.UpdateUser{AssignedClassIDs: []string{c.ID}}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "secretary assigns classes", path: "/v1/users/" + teacher.ID, token: getToken(t, secretary),
			body: marchallObj(t, user.UpdateUser{AssignedClassIDs: []string{c.ID}}), wantCode: http.StatusOK,
		},
		{
			name: "secretary cannot grant the built-in role", path: "/v1/users/" + teacher.ID, token: getToken(t, secretary),
			body:     marchallObj(t, user.UpdateUser{Roles: []string{user.RoleSecretaryGeneral}}),
			wantCode: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPut, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	stored, err := usrRepo.GetUserByID(teacher.ID)
	if err != nil {
		t.Fatalf("GetUserByID(): %v", err)
	}
	if stored.Name != "Maria S. Silva" {
		t.Errorf("name = %q", stored.Name)
	}
	if len(stored.AssignedClassIDs) != 1 || stored.AssignedClassIDs[0] != c.ID {
		t.Errorf("assigned classes = %v", stored.AssignedClassIDs)
	}
}

func Test_userApi_userCreate(t *testing.T) {
	app := setup(t)

	secretary := testutil.CreateUser(t, usrRepo, "Clara Lima", "claralima", "clara@test.test", "",
		[]string{user.RoleSecretary}, true)

	body := marchallObj(t, user.NewUser{
		Name:            "Pedro Souza",
		Username:        "pedrosouza",
		Email:           "pedro@test.test",
		Password:        "Com6lex!",
		PasswordConfirm: "Com6lex!",
		Roles:           []string{user.RoleTeacher},
	})
	req, rec := newAuthRequest(http.MethodPost, "/v1/users", getToken(t, secretary), body)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create code = %d; body = %s", rec.Code, rec.Body.String())
	}

	var usr user.User
	if err := json.Unmarshal(rec.Body.Bytes(), &usr); err != nil {
		t.Fatalf("unmarshaling User: %v", err)
	}
	if !usr.IsActive {
		t.Error("secretary-created accounts are active")
	}

	// a secretary cannot mint accounts above their own rank
	body = marchallObj(t, user.NewUser{
		Name:            "Impostor",
		Username:        "impostor1",
		Email:           "impostor@test.test",
		Password:        "Com6lex!",
		PasswordConfirm: "Com6lex!",
		Roles:           []string{user.RoleSecretaryGeneral},
	})
	req, rec = newAuthRequest(http.MethodPost, "/v1/users", getToken(t, secretary), body)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("over-ranked create code = %d", rec.Code)
	}
}

func Test_userApi_userDestroyMultiple(t *testing.T) {
	app := setup(t)

	u1 := testutil.CreateUser(t, usrRepo, "Maria Silva", "mariasilva", "maria@test.test", "",
		[]string{user.RoleTeacher}, true)
	u2 := testutil.CreateUser(t, usrRepo, "Pedro Souza", "pedrosouza", "pedro@test.test", "",
		[]string{user.RoleTeacher}, true)
	secretary := testutil.CreateUser(t, usrRepo, "Clara Lima", "claralima", "clara@test.test", "",
		[]string{user.RoleSecretary}, true)
	token := getToken(t, secretary)

	// self-deletion is rejected even in a batch
	v := make(url.Values)
	v.Add("id", u1.ID)
	v.Add("id", secretary.ID)
	req, rec := newAuthRequest(http.MethodDelete, "/v1/users?"+v.Encode(), token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("self-delete code = %d", rec.Code)
	}

	// unknown ids are skipped, known ones removed
	v = make(url.Values)
	v.Add("id", u1.ID)
	v.Add("id", u2.ID)
	v.Add("id", "nope")
	req, rec = newAuthRequest(http.MethodDelete, "/v1/users?"+v.Encode(), token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("batch delete code = %d; body = %s", rec.Code, rec.Body.String())
	}
	if _, err := usrRepo.GetUserByID(u1.ID); err != user.ErrNotFound {
		t.Errorf("GetUserByID(u1) err = %v", err)
	}
	if _, err := usrRepo.GetUserByID(u2.ID); err != user.ErrNotFound {
		t.Errorf("GetUserByID(u2) err = %v", err)
	}
	if _, err := usrRepo.GetUserByID(secretary.ID); err != nil {
		t.Errorf("secretary should survive: %v", err)
	}
}

func Test_userApi_queryRoles(t *testing.T) {
	app := setup(t)

	secretary := testutil.CreateUser(t, usrRepo, "Clara Lima", "claralima", "clara@test.test", "",
		[]string{user.RoleSecretary}, true)

	req, rec := newAuthRequest(http.MethodGet, "/v1/users/roles", getToken(t, secretary))
	app.ServeHTTP(rec, req)

	tt := httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, user.Roles)}
	checkCodeAndData(t, tt, rec)
}
