package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/ebdapp/ebd/apps/api/echo"
	"github.com/ebdapp/ebd/core"
	"github.com/ebdapp/ebd/core/class"
	"github.com/ebdapp/ebd/core/inventory"
	"github.com/ebdapp/ebd/core/user"
	emailsvc "github.com/ebdapp/ebd/services/email"
	inmemdb "github.com/ebdapp/ebd/storage/database/inmem"
)

var (
	usrRepo   user.Repository
	classRepo class.Repository
	invRepo   inventory.Repository

	classSvc *class.Service
	invSvc   *inventory.Service

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
	errNotFound     = httpErr{Error: "not found"}
)

// quietLogger satisfies core.Logger for the error handler without output.
type quietLogger struct{}

func (quietLogger) Enable(bool)                  {}
func (quietLogger) Debug(string, ...interface{}) {}
func (quietLogger) Info(string, ...interface{})  {}
func (quietLogger) Warn(string, ...interface{})  {}
func (quietLogger) Error(string, ...interface{}) {}
func (quietLogger) Fatal(string, ...interface{}) {}

func setup(t *testing.T) Server {
	t.Helper()

	core.Conf.Debug = false
	core.Conf.TestMode = true

	// set up DB & repos
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("inmemdb.Open(): %v", err)
	}
	usrRepo = inmemdb.NewUserRepository(db)
	classRepo = inmemdb.NewClassRepository(db)
	invRepo = inmemdb.NewInventoryRepository(db)

	// set up services
	mailSvc := emailsvc.NewConsoleServiceMock()
	usrSvc := user.NewServiceMock(usrRepo, mailSvc)
	classSvc = class.NewService(classRepo)
	invSvc = inventory.NewService(invRepo)

	// set up server
	return NewServer(&Options{
		DisableReqLogs: true,
		UserSvc:        usrSvc,
		ClassSvc:       classSvc,
		InventorySvc:   invSvc,
		EmailSvc:       mailSvc,
		Logger:         quietLogger{},
	})
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	claims := GetUserClaims(usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

// nolint
func marchallList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{} // handlers return [], never null
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ObjectsAreEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()

	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
