package tests

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ebdapp/ebd/core/class"
	"github.com/ebdapp/ebd/core/user"
	"github.com/ebdapp/ebd/tests"
)

func decodeClass(t *testing.T, rec *httptest.ResponseRecorder) class.Class {
	t.Helper()
	var c class.Class
	if err := json.Unmarshal(rec.Body.Bytes(), &c); err != nil {
		t.Fatalf("unmarshaling Class: %v; body = %s", err, rec.Body.String())
	}
	return c
}

func Test_classApi_query(t *testing.T) {
	app := setup(t)

	c1 := testutil.CreateClass(t, classRepo, "Central", "Leste")
	c2 := testutil.CreateClass(t, classRepo, "Norte", "Oeste")
	teacher := testutil.CreateUser(t, usrRepo, "Maria Silva", "mariasilva", "maria@test.test", "",
		[]string{user.RoleTeacher}, true, c1.ID)
	secretary := testutil.CreateUser(t, usrRepo, "Clara Lima", "claralima", "clara@test.test", "",
		[]string{user.RoleSecretary}, true)

	tests := []httpTest{
		{
			name: "auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "secretary sees all classes", token: getToken(t, secretary),
			wantCode: http.StatusOK, wantData: marchallList(t, c1, c2),
		},
		{
			name: "teacher sees only assigned classes", token: getToken(t, teacher),
			wantCode: http.StatusOK, wantData: marchallList(t, c1),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/v1/classes", tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_classApi_createDestroy(t *testing.T) {
	app := setup(t)

	teacher := testutil.CreateUser(t, usrRepo, "Maria Silva", "mariasilva", "maria@test.test", "",
		[]string{user.RoleTeacher}, true)
	secretary := testutil.CreateUser(t, usrRepo, "Clara Lima", "claralima", "clara@test.test", "",
		[]string{user.RoleSecretary}, true)

	body := marchallObj(t, class.NewClass{ChurchName: "Central", Sector: "Leste"})

	// teachers never create classes
	req, rec := newAuthRequest(http.MethodPost, "/v1/classes", getToken(t, teacher), body)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("teacher create code = %d", rec.Code)
	}

	req, rec = newAuthRequest(http.MethodPost, "/v1/classes", getToken(t, secretary), body)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("secretary create code = %d; body = %s", rec.Code, rec.Body.String())
	}
	c := decodeClass(t, rec)
	if c.ID == "" || c.ChurchName != "Central" || c.Sector != "Leste" {
		t.Errorf("created class = %+v", c)
	}
	if c.Members == nil || c.Visitors == nil || c.Announcements == nil {
		t.Error("new class collections must marshal as empty lists, not null")
	}

	// the delete route exists but stays secretary-only
	req, rec = newAuthRequest(http.MethodDelete, "/v1/classes/"+c.ID, getToken(t, teacher))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("teacher destroy code = %d", rec.Code)
	}

	req, rec = newAuthRequest(http.MethodDelete, "/v1/classes/"+c.ID, getToken(t, secretary))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("destroy code = %d", rec.Code)
	}

	req, rec = newAuthRequest(http.MethodDelete, "/v1/classes/"+c.ID, getToken(t, secretary))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("destroy unknown code = %d", rec.Code)
	}
}

func Test_classApi_accessGating(t *testing.T) {
	app := setup(t)

	mine := testutil.CreateClass(t, classRepo, "Central", "Leste")
	other := testutil.CreateClass(t, classRepo, "Norte", "Oeste")
	teacher := testutil.CreateUser(t, usrRepo, "Maria Silva", "mariasilva", "maria@test.test", "",
		[]string{user.RoleTeacher}, true, mine.ID)
	secretary := testutil.CreateUser(t, usrRepo, "Clara Lima", "claralima", "clara@test.test", "",
		[]string{user.RoleSecretary}, true)

	tests := []httpTest{
		{
			name: "teacher reads own class", path: "/v1/classes/" + mine.ID, token: getToken(t, teacher),
			wantCode: http.StatusOK, wantData: marchallObj(t, mine),
		},
		{
			name: "teacher is barred from another class", path: "/v1/classes/" + other.ID, token: getToken(t, teacher),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "secretary reads any class", path: "/v1/classes/" + other.ID, token: getToken(t, secretary),
			wantCode: http.StatusOK, wantData: marchallObj(t, other),
		},
		{
			name: "unknown class 404s for secretary", path: "/v1/classes/nope", token: getToken(t, secretary),
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

func Test_classApi_memberFlow(t *testing.T) {
	app := setup(t)

	c := testutil.CreateClass(t, classRepo, "Central", "Leste")
	teacher := testutil.CreateUser(t, usrRepo, "Maria Silva", "mariasilva", "maria@test.test", "",
		[]string{user.RoleTeacher}, true, c.ID)
	token := getToken(t, teacher)
	base := "/v1/classes/" + c.ID

	// add
	req, rec := newAuthRequest(http.MethodPost, base+"/members", token,
		marchallObj(t, class.NewMember{Name: "Ana", Birthday: "25/12/2001"}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("addMember code = %d; body = %s", rec.Code, rec.Body.String())
	}
	got := decodeClass(t, rec)
	if len(got.Members) != 1 || got.Members[0].Name != "Ana" || got.Members[0].Birthday != "25/12/2001" {
		t.Fatalf("members = %+v", got.Members)
	}
	member := got.Members[0]

	// mark present on week 0
	week, present := 0, true
	req, rec = newAuthRequest(http.MethodPut, base+"/members/"+member.ID+"/attendance", token,
		marchallObj(t, class.AttendanceUpdate{WeekIndex: &week, Present: &present}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("markAttendance code = %d; body = %s", rec.Code, rec.Body.String())
	}
	got = decodeClass(t, rec)
	if !got.Members[0].Attendance[0] {
		t.Error("week 0 not marked present")
	}

	// out-of-range week is rejected before touching the class
	week = class.WeeksPerQuarter
	req, rec = newAuthRequest(http.MethodPut, base+"/members/"+member.ID+"/attendance", token,
		marchallObj(t, class.AttendanceUpdate{WeekIndex: &week, Present: &present}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("out-of-range week code = %d", rec.Code)
	}

	// unknown member 404s
	week = 1
	req, rec = newAuthRequest(http.MethodPut, base+"/members/nope/attendance", token,
		marchallObj(t, class.AttendanceUpdate{WeekIndex: &week, Present: &present}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown member code = %d", rec.Code)
	}

	// correct the birthday
	req, rec = newAuthRequest(http.MethodPut, base+"/members/"+member.ID+"/birthday", token,
		marchallObj(t, class.MemberBirthdayUpdate{Birthday: "24/12/2001"}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("setBirthday code = %d; body = %s", rec.Code, rec.Body.String())
	}
	got = decodeClass(t, rec)
	if got.Members[0].Birthday != "24/12/2001" {
		t.Errorf("birthday = %q", got.Members[0].Birthday)
	}

	// remove keeps attendance of the others intact
	req, rec = newAuthRequest(http.MethodDelete, base+"/members/"+member.ID, token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("removeMember code = %d", rec.Code)
	}
	got = decodeClass(t, rec)
	if len(got.Members) != 0 {
		t.Errorf("members = %+v", got.Members)
	}
}

func Test_classApi_visitors(t *testing.T) {
	app := setup(t)

	c := testutil.CreateClass(t, classRepo, "Central", "Leste")
	secretary := testutil.CreateUser(t, usrRepo, "Clara Lima", "claralima", "clara@test.test", "",
		[]string{user.RoleSecretary}, true)
	token := getToken(t, secretary)
	base := "/v1/classes/" + c.ID

	req, rec := newAuthRequest(http.MethodPost, base+"/visitors", token,
		marchallObj(t, class.NewVisitor{Name: "João"}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("addVisitor code = %d; body = %s", rec.Code, rec.Body.String())
	}
	got := decodeClass(t, rec)
	if len(got.Visitors) != 1 || got.Visitors[0].Name != "João" {
		t.Fatalf("visitors = %+v", got.Visitors)
	}
	if got.Visitors[0].Date == "" {
		t.Error("visit date not stamped")
	}
	visitor := got.Visitors[0]

	req, rec = newAuthRequest(http.MethodDelete, base+"/visitors/"+visitor.ID, token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("removeVisitor code = %d", rec.Code)
	}
	if got = decodeClass(t, rec); len(got.Visitors) != 0 {
		t.Errorf("visitors = %+v", got.Visitors)
	}

	req, rec = newAuthRequest(http.MethodDelete, base+"/visitors/"+visitor.ID, token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("removeVisitor gone code = %d", rec.Code)
	}
}

func Test_classApi_announcements(t *testing.T) {
	app := setup(t)

	c := testutil.CreateClass(t, classRepo, "Central", "Leste")
	secretary := testutil.CreateUser(t, usrRepo, "Clara Lima", "claralima", "clara@test.test", "",
		[]string{user.RoleSecretary}, true)
	token := getToken(t, secretary)
	base := "/v1/classes/" + c.ID

	post := func(text string) class.Class {
		req, rec := newAuthRequest(http.MethodPost, base+"/announcements", token,
			marchallObj(t, class.NewAnnouncement{Text: text}))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("addAnnouncement code = %d; body = %s", rec.Code, rec.Body.String())
		}
		return decodeClass(t, rec)
	}

	post("Ensaio do coral sábado")
	got := post("Assembleia dia 15")
	if len(got.Announcements) != 2 {
		t.Fatalf("announcements = %+v", got.Announcements)
	}
	first, second := got.Announcements[0], got.Announcements[1]

	// deleting an id that is gone leaves the list alone
	req, rec := newAuthRequest(http.MethodDelete, base+"/announcements/nope", token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("removeAnnouncement unknown code = %d", rec.Code)
	}
	if got = decodeClass(t, rec); len(got.Announcements) != 2 {
		t.Errorf("announcements = %+v", got.Announcements)
	}

	// deleting the first entry never takes its neighbour with it
	req, rec = newAuthRequest(http.MethodDelete, base+"/announcements/"+first.ID, token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("removeAnnouncement code = %d", rec.Code)
	}
	got = decodeClass(t, rec)
	if len(got.Announcements) != 1 || got.Announcements[0].ID != second.ID {
		t.Errorf("announcements = %+v", got.Announcements)
	}
}

// A secretary's amendment must be visible to the class teacher right away.
func Test_classApi_secretaryAmendmentVisibleToTeacher(t *testing.T) {
	app := setup(t)

	c := testutil.CreateClass(t, classRepo, "Central", "Leste")
	teacher := testutil.CreateUser(t, usrRepo, "Maria Silva", "mariasilva", "maria@test.test", "",
		[]string{user.RoleTeacher}, true, c.ID)
	secretary := testutil.CreateUser(t, usrRepo, "Clara Lima", "claralima", "clara@test.test", "",
		[]string{user.RoleSecretary}, true)

	req, rec := newAuthRequest(http.MethodPost, "/v1/classes/"+c.ID+"/members", getToken(t, secretary),
		marchallObj(t, class.NewMember{Name: "Bia"}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("addMember code = %d; body = %s", rec.Code, rec.Body.String())
	}

	req, rec = newAuthRequest(http.MethodGet, "/v1/classes/"+c.ID, getToken(t, teacher))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("retrieve code = %d", rec.Code)
	}
	got := decodeClass(t, rec)
	if len(got.Members) != 1 || got.Members[0].Name != "Bia" {
		t.Errorf("members = %+v", got.Members)
	}
}

func Test_classApi_assignTeacher(t *testing.T) {
	app := setup(t)

	c := testutil.CreateClass(t, classRepo, "Central", "Leste")
	teacher := testutil.CreateUser(t, usrRepo, "Maria Silva", "mariasilva", "maria@test.test", "",
		[]string{user.RoleTeacher}, true, c.ID)
	secretary := testutil.CreateUser(t, usrRepo, "Clara Lima", "claralima", "clara@test.test", "",
		[]string{user.RoleSecretary}, true)

	body := marchallObj(t, class.TeacherAssignment{Teacher: teacher.Name, TeacherID: teacher.ID})
	req, rec := newAuthRequest(http.MethodPut, "/v1/classes/"+c.ID+"/teacher", getToken(t, secretary), body)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("assignTeacher code = %d; body = %s", rec.Code, rec.Body.String())
	}
	got := decodeClass(t, rec)
	if got.Teacher != teacher.Name || got.TeacherID != teacher.ID {
		t.Errorf("teacher = %q/%q", got.Teacher, got.TeacherID)
	}
}
