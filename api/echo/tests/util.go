package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	. "github.com/kipiapp/kipi/api/echo"
	"github.com/kipiapp/kipi/core"
	"github.com/kipiapp/kipi/core/note"
	"github.com/kipiapp/kipi/core/session"
	"github.com/kipiapp/kipi/core/subject"
	logsvc "github.com/kipiapp/kipi/services/logger"
	notifysvc "github.com/kipiapp/kipi/services/notify"
	"github.com/kipiapp/kipi/storage/remote/inmem"
)

var (
	conf = &core.Config{TestMode: true, SecretKey: "secret"}

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
)

func setup(t *testing.T) Server {
	// set up remote store & repos
	db := inmemdb.Open()
	subjRepo := inmemdb.NewSubjectRepository(db)
	noteRepo := inmemdb.NewNoteRepository(db)

	// set up session & stores
	logger := logsvc.NewNopLogger()
	notifier := notifysvc.NewMock()
	sess := session.NewProvider(conf)
	subjStore := subject.NewStore(subjRepo, sess, logger, notifier)
	noteStore := note.NewStore(noteRepo, sess, logger, notifier)

	// set up validators
	validate := validator.New()
	translator := newTranslator(t)
	core.InitValidators(validate, translator)

	// set up server
	return NewServer(
		&Options{
			DisableReqLogs: true,
			Conf:           conf,
			Logger:         logger,
			Validate:       validate,
			Translator:     translator,
			Session:        sess,
			SubjectStore:   subjStore,
			NoteStore:      noteStore,
		},
	)
}

func newTranslator(t *testing.T) ut.Translator {
	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	translator, ok := uni.GetTranslator("en")
	if !ok {
		t.Fatal("newTranslator() failed")
	}
	return translator
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

func getToken(t *testing.T, identity string) string {
	claims := &session.Claims{
		StandardClaims: jwt.StandardClaims{
			Subject:   identity,
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(conf.SecretKey))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

// foreignToken is well-formed but signed by someone else.
func foreignToken(t *testing.T) string {
	claims := &session.Claims{
		StandardClaims: jwt.StandardClaims{
			Subject:   "student1",
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("not-the-secret"))
	if err != nil {
		t.Fatalf("foreignToken() failed: %v", err)
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
	if tt.wantData == nil {
		if rec.Body.Len() > 0 {
			t.Errorf("failed! data = %v; want empty body", rec.Body.String())
		}
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
