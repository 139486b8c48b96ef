package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"strings"
	"testing"
	"time"

	echoapi "github.com/trezcool/darasa/apps/api/echo"
	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/coursework"
	"github.com/trezcool/darasa/core/perm"
	"github.com/trezcool/darasa/core/user"
	emailsvc "github.com/trezcool/darasa/services/email"
	logsvc "github.com/trezcool/darasa/services/logger"
	inmemdb "github.com/trezcool/darasa/storage/database/inmem"
	"github.com/trezcool/darasa/storage/files"
)

var (
	app     echoapi.Server
	usrRepo user.Repository
	crsRepo course.Repository
	cwRepo  coursework.Repository
	usrSvc  user.Service
	crsSvc  course.Service
	cwSvc   coursework.Service

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
	errNotAllowed   = httpErr{Error: "You do not have permission to perform this action"}
	errNotEnrolled  = httpErr{Error: "You are not enrolled in this course"}

	testPassword = "LolC@t123"
)

func TestMain(m *testing.M) {
	if err := os.Setenv("ENV", "TEST"); err != nil {
		log.Fatal(err)
	}
	core.NewConfig()
	os.Exit(m.Run())
}

// resetApp rebuilds the repos, services and Server on a fresh in-memory DB.
func resetApp(t *testing.T) {
	t.Helper()

	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("inmemdb.Open(): %v", err)
	}
	usrRepo = inmemdb.NewUserRepository(db)
	crsRepo = inmemdb.NewCourseRepository(db)
	cwRepo = inmemdb.NewCourseworkRepository(db)

	mailSvc := emailsvc.NewConsoleServiceMock()
	usrSvc = user.NewServiceMock(nil, usrRepo, mailSvc)
	crsSvc = course.NewService(nil, crsRepo, usrRepo)
	cwSvc = coursework.NewService(nil, cwRepo, crsRepo)

	store, err := files.NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("files.NewLocalStorage(): %v", err)
	}

	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "TEST : ", log.LstdFlags), core.Conf)
	logger.Enable(false)

	app = echoapi.NewServer(&echoapi.Options{
		DisableReqLogs: true,
		Logger:         logger,
		UserSvc:        usrSvc,
		CourseSvc:      crsSvc,
		CourseworkSvc:  cwSvc,
		Checker:        perm.NewChecker(crsRepo),
		FileStorage:    store,
	})
	emailsvc.ClearSentMessages()
}

// ------------------------------------------------------------------ fixtures

func createUser(t *testing.T, name, role string, isActive bool) user.User {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	usr := user.User{
		FirstName: name,
		LastName:  "Test",
		Email:     strings.ToLower(name) + "@test.cd",
		Role:      role,
		IsActive:  isActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(testPassword); err != nil {
		t.Fatalf("SetPassword(): %v", err)
	}
	usr, err := usrRepo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser(): %v", err)
	}
	return usr
}

func createTeacher(t *testing.T, name string) user.User {
	return createUser(t, name, user.RoleTeacher, true)
}

func createStudent(t *testing.T, name string) user.User {
	return createUser(t, name, user.RoleStudent, true)
}

// createCourse goes through the service so the owner is auto-enrolled.
func createCourse(t *testing.T, owner user.User, title string) course.Course {
	t.Helper()
	crs, err := crsSvc.Create(context.Background(), owner, course.NewCourse{Title: title, Description: title + " description"})
	if err != nil {
		t.Fatalf("crsSvc.Create(): %v", err)
	}
	return crs
}

func enroll(t *testing.T, usr user.User, crs course.Course) course.Enrollment {
	t.Helper()
	enr, err := crsRepo.CreateEnrollment(context.Background(), course.Enrollment{UserID: usr.ID, CourseID: crs.ID})
	if err != nil {
		t.Fatalf("CreateEnrollment(): %v", err)
	}
	return enr
}

func createLecture(t *testing.T, crs course.Course, topic string) course.Lecture {
	t.Helper()
	lect, err := crsRepo.CreateLecture(context.Background(), course.Lecture{
		CourseID: crs.ID,
		Topic:    topic,
		File:     "lectures/" + strings.ReplaceAll(strings.ToLower(topic), " ", "-") + ".pdf",
	})
	if err != nil {
		t.Fatalf("CreateLecture(): %v", err)
	}
	return lect
}

func createAssignment(t *testing.T, lect course.Lecture, title string) coursework.Assignment {
	t.Helper()
	a, err := cwRepo.CreateAssignment(context.Background(), coursework.Assignment{
		LectureID:   lect.ID,
		Title:       title,
		Description: title + " description",
		CourseID:    lect.CourseID,
	})
	if err != nil {
		t.Fatalf("CreateAssignment(): %v", err)
	}
	return a
}

func createSubmission(t *testing.T, student user.User, a coursework.Assignment) coursework.Submission {
	t.Helper()
	s, err := cwRepo.CreateSubmission(context.Background(), coursework.Submission{
		UserID:       student.ID,
		AssignmentID: a.ID,
		File:         "submissions/answer.pdf",
		CourseID:     a.CourseID,
	})
	if err != nil {
		t.Fatalf("CreateSubmission(): %v", err)
	}
	return s
}

func createGrade(t *testing.T, teacher user.User, s coursework.Submission, score int) coursework.Grade {
	t.Helper()
	g, err := cwRepo.CreateGrade(context.Background(), coursework.Grade{
		SubmissionID: s.ID,
		TeacherID:    teacher.ID,
		Score:        score,
		CourseID:     s.CourseID,
		SubmitterID:  s.UserID,
	})
	if err != nil {
		t.Fatalf("CreateGrade(): %v", err)
	}
	return g
}

func createComment(t *testing.T, author user.User, s coursework.Submission, content string) coursework.Comment {
	t.Helper()
	c, err := cwRepo.CreateComment(context.Background(), coursework.Comment{
		SubmissionID: s.ID,
		UserID:       author.ID,
		Content:      content,
		CourseID:     s.CourseID,
	})
	if err != nil {
		t.Fatalf("CreateComment(): %v", err)
	}
	return c
}

// ------------------------------------------------------------------ requests

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

// newUploadRequest builds a multipart/form-data request; filename "" skips the
// file part.
func newUploadRequest(t *testing.T, method, path, token string, fields map[string]string, fileField, filename string) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("WriteField(): %v", err)
		}
	}
	if filename != "" {
		fw, err := w.CreateFormFile(fileField, filename)
		if err != nil {
			t.Fatalf("CreateFormFile(): %v", err)
		}
		if _, err = fw.Write([]byte("%PDF-1.4 test content")); err != nil {
			t.Fatalf("writing form file: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("multipart.Close(): %v", err)
	}

	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func getToken(t *testing.T, usr user.User) string {
	claims := echoapi.GetUserClaims(usr)
	token, err := echoapi.GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
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

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
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
	return false, nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil { // no-content responses
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func intPtr(i int) *int { return &i }
