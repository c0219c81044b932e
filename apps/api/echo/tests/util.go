package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	echoapi "github.com/trezcool/darasa/apps/api/echo"
	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/notification"
	"github.com/trezcool/darasa/core/user"
	dummydb "github.com/trezcool/darasa/storage/database/dummy"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testEnv struct {
	conf      *core.Config
	app       echoapi.Server
	usrRepo   user.Repository
	asgRepo   assignment.Repository
	notifRepo notification.Repository
	notifSvc  *notification.Service
	notifier  *notification.Notifier
}

type testLogger struct {
	t *testing.T
}

func (l testLogger) Enable(bool)                        {}
func (l testLogger) Debug(msg string, _ ...interface{}) { l.t.Logf("DEBUG: %s", msg) }
func (l testLogger) Info(msg string, _ ...interface{})  { l.t.Logf("INFO: %s", msg) }
func (l testLogger) Warn(msg string, _ ...interface{})  { l.t.Logf("WARN: %s", msg) }
func (l testLogger) Error(msg string, _ ...interface{}) { l.t.Logf("ERROR: %s", msg) }
func (l testLogger) Fatal(msg string, _ ...interface{}) { l.t.Logf("FATAL: %s", msg) }

func setup(t *testing.T) *testEnv {
	conf := core.NewConfig()
	conf.Debug = false
	conf.TestMode = true

	// set up DB & repos
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	logger := testLogger{t}
	usrRepo := dummydb.NewUserRepository(db)
	asgRepo := dummydb.NewAssignmentRepository(db)
	notifRepo := dummydb.NewNotificationRepository(db)

	// set up services
	usrSvc := user.NewService(usrRepo)
	asgSvc := assignment.NewService(asgRepo)
	notifSvc := notification.NewService(notifRepo, usrRepo, nil, logger, conf)
	notifier := notification.NewNotifier(notifSvc, usrRepo, logger)

	validate := validator.New()
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	notification.InitValidators(validate, translator)

	// set up server
	app := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:           conf,
			Logger:         logger,
			UserSvc:        usrSvc,
			AssignmentSvc:  asgSvc,
			NotifSvc:       notifSvc,
			Notifier:       notifier,
			Validate:       validate,
			Translator:     translator,
			DisableReqLogs: true,
		},
	)

	return &testEnv{
		conf:      conf,
		app:       app,
		usrRepo:   usrRepo,
		asgRepo:   asgRepo,
		notifRepo: notifRepo,
		notifSvc:  notifSvc,
		notifier:  notifier,
	}
}

func (env *testEnv) createUser(t *testing.T, name, pwd string, roles []string, isActive bool) user.User {
	now := time.Now().UTC()
	usr := user.User{
		Name:      name,
		Username:  name,
		Email:     name + "@test.cd",
		Course:    "bca",
		Roles:     roles,
		IsActive:  isActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("SetPassword(): %v", err)
		}
	}
	usr, err := env.usrRepo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

func (env *testEnv) createNotification(t *testing.T, userID int, title string, kind notification.Kind) notification.Notification {
	n, err := env.notifSvc.Create(context.Background(), notification.NewNotification{
		UserID:  userID,
		Title:   title,
		Message: title + " message",
		Kind:    kind,
	})
	if err != nil {
		t.Fatalf("createNotification() failed: %v", err)
	}
	return n
}

func (env *testEnv) getToken(t *testing.T, usr user.User) string {
	claims := echoapi.GetUserClaims(env.conf, usr)
	token, err := echoapi.GenerateToken(env.conf, claims)
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
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

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList(): %v", err)
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
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
