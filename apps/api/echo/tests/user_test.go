package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"net/mail"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"

	echoapi "github.com/trezcool/darasa/apps/api/echo"
	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
	emailsvc "github.com/trezcool/darasa/services/email"
)

func Test_userAPI_register(t *testing.T) {
	resetApp(t)

	existing := createStudent(t, "Existing")

	reqMsg := "this field is required"
	tests := []httpTest{
		{
			name: "required fields", wantCode: http.StatusBadRequest,
			body: marchallObj(t, user.NewUser{Password: testPassword, PasswordConfirm: testPassword}),
			wantData: marchallObj(t, map[string]string{
				"first_name": reqMsg, "last_name": reqMsg, "email": reqMsg, "role": reqMsg,
			}),
		},
		{
			name: "invalid email", wantCode: http.StatusBadRequest,
			body: marchallObj(t, user.NewUser{
				FirstName: "Jane", LastName: "Doe", Email: "lol", Role: user.RoleStudent,
				Password: testPassword, PasswordConfirm: testPassword,
			}),
			wantData: marchallObj(t, map[string]string{"email": "email must be a valid email address"}),
		},
		{
			name: "invalid role", wantCode: http.StatusBadRequest,
			body: marchallObj(t, user.NewUser{
				FirstName: "Jane", LastName: "Doe", Email: "jane@test.cd", Role: "admin",
				Password: testPassword, PasswordConfirm: testPassword,
			}),
			wantData: marchallObj(t, map[string]string{"role": "invalid role"}),
		},
		{
			name: "all numeric password", wantCode: http.StatusBadRequest,
			body: marchallObj(t, user.NewUser{
				FirstName: "Jane", LastName: "Doe", Email: "jane@test.cd", Role: user.RoleStudent,
				Password: "12345678", PasswordConfirm: "12345678",
			}),
			wantData: marchallObj(t, map[string]string{"password": "password cannot be entirely numeric"}),
		},
		{
			name: "password complexity", wantCode: http.StatusBadRequest,
			body: marchallObj(t, user.NewUser{
				FirstName: "Jane", LastName: "Doe", Email: "jane@test.cd", Role: user.RoleStudent,
				Password: "nocomplexity1", PasswordConfirm: "nocomplexity1",
			}),
			wantData: marchallObj(t, map[string]string{
				"password": "password must contain at least 1 uppercase character, 1 lowercase character, 1 digit and 1 special character",
			}),
		},
		{
			name: "password confirm mismatch", wantCode: http.StatusBadRequest,
			body: marchallObj(t, user.NewUser{
				FirstName: "Jane", LastName: "Doe", Email: "jane@test.cd", Role: user.RoleStudent,
				Password: testPassword, PasswordConfirm: "Other@123",
			}),
			wantData: marchallObj(t, map[string]string{"password_confirm": "password_confirm must be equal to Password"}),
		},
		{
			name: "duplicate email", wantCode: http.StatusBadRequest,
			body: marchallObj(t, user.NewUser{
				FirstName: "Jane", LastName: "Doe", Email: existing.Email, Role: user.RoleStudent,
				Password: testPassword, PasswordConfirm: testPassword,
			}),
			wantData: marchallObj(t, map[string]string{"email": "a user with this email already exists"}),
		},
		{
			name: "registered", wantCode: http.StatusCreated,
			body: marchallObj(t, user.NewUser{
				FirstName: "Jane", LastName: "Doe", Email: "jane@test.cd", Role: user.RoleStudent,
				Password: testPassword, PasswordConfirm: testPassword,
			}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/register"

		t.Run(tt.name, func(t *testing.T) {
			emailsvc.ClearSentMessages()

			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusCreated {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
				}
				var usr user.User
				if err := json.Unmarshal(rec.Body.Bytes(), &usr); err != nil {
					t.Fatalf("json.Unmarshal(): %v", err)
				}
				if usr.ID == 0 {
					t.Error("failed! empty user ID")
				}
				if usr.Email != "jane@test.cd" {
					t.Errorf("failed! email = %v", usr.Email)
				}
				if !usr.IsActive {
					t.Error("failed! new user not active")
				}
				// welcome email
				if len(emailsvc.SentMessages) != 1 {
					t.Fatalf("failed! len(SentMessages) = %d; want 1", len(emailsvc.SentMessages))
				}
				msg := emailsvc.SentMessages[0]
				want := mail.Address{Name: "Jane Doe", Address: "jane@test.cd"}
				if msg.To[0] != want {
					t.Errorf("failed! To = %v; want %v", msg.To[0], want)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userAPI_login(t *testing.T) {
	resetApp(t)

	student := createStudent(t, "Hero")
	naughty := createUser(t, "Ndog", user.RoleStudent, false)

	reqMsg := "this field is required"
	tests := []httpTest{
		{
			name: "required fields", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": reqMsg, "password": reqMsg}),
		},
		{
			name: "unknown email", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, echoapi.LoginRequest{Email: "lol@test.cd", Password: testPassword}),
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "wrong password", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, echoapi.LoginRequest{Email: student.Email, Password: "WrongP@ss1"}),
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "account deactivated", wantCode: http.StatusForbidden,
			body:     marchallObj(t, echoapi.LoginRequest{Email: naughty.Email, Password: testPassword}),
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{
			name: "logged in", wantCode: http.StatusOK,
			body: marchallObj(t, echoapi.LoginRequest{Email: student.Email, Password: testPassword}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/login"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusOK {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
				}
				var respData echoapi.TokenResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Errorf("json.Unmarshal() failed! err %v", err)
				}
				if respData.Token == "" {
					t.Error("failed! empty token")
				}
				// last login is set
				usr, err := usrRepo.GetUserByID(context.Background(), student.ID)
				if err != nil {
					t.Fatalf("GetUserByID(): %v", err)
				}
				if usr.LastLogin.IsZero() {
					t.Error("failed! last login not set")
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userAPI_tokenRefresh(t *testing.T) {
	resetApp(t)

	student := createStudent(t, "Hero")
	naughty := createUser(t, "Ndog", user.RoleStudent, false)

	now := time.Now()
	unrefreshableClaims := &echoapi.Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    core.Conf.AppName,
			Subject:   strconv.Itoa(student.ID),
			ExpiresAt: now.Add(core.Conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		OrigIssuedAt: now.Add(-2 * core.Conf.Server.JWTRefreshExpirationDelta).Unix(), // older than threshold
		Email:        student.Email,
		Role:         student.Role,
		IsStudent:    student.IsStudent(),
		IsTeacher:    student.IsTeacher(),
	}
	unrefreshableToken, err := echoapi.GenerateToken(unrefreshableClaims)
	if err != nil {
		t.Fatalf("GenerateToken(): %v", err)
	}

	tests := []httpTest{
		{name: "auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "inactive user not allowed", token: getToken(t, naughty), wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"})},
		{name: "refresh period expired", token: unrefreshableToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "refresh has expired"})},
		{name: "token refreshed", token: getToken(t, student), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/token-refresh"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			// cannot guess new token.. just check that it's not empty
			if tt.wantCode == http.StatusOK {
				if rec.Code != tt.wantCode {
					t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var respData echoapi.TokenResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Errorf("json.Unmarshal() failed! err %v", err)
				}
				if respData.Token == "" {
					t.Error("failed! empty token")
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userAPI_retrieve(t *testing.T) {
	resetApp(t)

	student := createStudent(t, "Hero")
	other := createStudent(t, "Other")
	token := getToken(t, student)

	tests := []httpTest{
		{name: "auth required", path: "/v1/users/" + strconv.Itoa(student.ID), wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "own account", path: "/v1/users/" + strconv.Itoa(student.ID), token: token, wantCode: http.StatusOK, wantData: marchallObj(t, student)},
		{
			name: "other accounts read as absent", path: "/v1/users/" + strconv.Itoa(other.ID), token: token,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name: "bad id", path: "/v1/users/lol", token: token,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userAPI_queryRoles(t *testing.T) {
	resetApp(t)

	student := createStudent(t, "Hero")

	tests := []httpTest{
		{name: "auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "roles listed", token: getToken(t, student), wantCode: http.StatusOK, wantData: marchallObj(t, user.Roles)},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		tt.path = "/v1/users/roles"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userAPI_resetPassword(t *testing.T) {
	resetApp(t)

	student := createStudent(t, "Hero")
	successData := marchallObj(t, map[string]string{"message": "If the email exists, a reset link has been sent."})

	type extraTest struct {
		emailSent bool
		to        mail.Address
	}
	tests := []httpTest{
		{
			name: "required fields", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": "this field is required"}),
		},
		{
			name: "invalid email", wantCode: http.StatusBadRequest, body: marchallObj(t, echoapi.PasswordResetRequest{Email: "lol"}),
			wantData: marchallObj(t, map[string]string{"email": "email must be a valid email address"}),
		},
		{
			name: "unknown email", wantCode: http.StatusOK, body: marchallObj(t, echoapi.PasswordResetRequest{Email: "lol@test.cd"}),
			wantData: successData, extra: extraTest{emailSent: false},
		},
		{
			name: "known email", wantCode: http.StatusOK, body: marchallObj(t, echoapi.PasswordResetRequest{Email: student.Email}),
			wantData: successData, extra: extraTest{emailSent: true, to: mail.Address{Name: student.Name(), Address: student.Email}},
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/password-reset"

		t.Run(tt.name, func(t *testing.T) {
			emailsvc.ClearSentMessages()

			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if extra, ok := tt.extra.(extraTest); ok {
				if extra.emailSent {
					if len(emailsvc.SentMessages) != 1 {
						t.Fatalf("failed! len(SentMessages) = %d; want 1", len(emailsvc.SentMessages))
					}
					msg := emailsvc.SentMessages[0]
					if msg.To[0] != extra.to {
						t.Errorf("failed! To = %v; want %v", msg.To[0], extra.to)
					}
					for _, needle := range []string{extra.to.Name, "uid=", "token="} {
						if !strings.Contains(msg.TextContent, needle) {
							t.Errorf("failed! text content does not contain %q", needle)
						}
						if !strings.Contains(msg.HTMLContent, needle) {
							t.Errorf("failed! HTML content does not contain %q", needle)
						}
					}
				} else {
					if len(emailsvc.SentMessages) > 0 {
						t.Errorf("failed! len(SentMessages) = %d; want 0", len(emailsvc.SentMessages))
					}
				}
			}
		})
	}
}

func Test_userAPI_confirmPasswordReset(t *testing.T) {
	resetApp(t)

	student := createStudent(t, "Hero")
	validUID := user.EncodeUID(student)
	validToken := user.MakeResetToken(student)
	newPwd := "NewC@t456"

	reqMsg := "this field is required"
	tests := []httpTest{
		{
			name: "required fields", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"token": reqMsg, "uid": reqMsg, "password": reqMsg, "password_confirm": reqMsg}),
		},
		{
			name: "invalid uid", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "lol", UID: "???", Password: newPwd, PasswordConfirm: newPwd}),
			wantData: marchallObj(t, httpErr{Error: "invalid token"}),
		},
		{
			name: "user not found", wantCode: http.StatusNotFound,
			body:     marchallObj(t, user.ResetUserPassword{Token: "lol", UID: "OTk5", Password: newPwd, PasswordConfirm: newPwd}),
			wantData: marchallObj(t, httpErr{Error: "user not found"}),
		},
		{
			name: "invalid token", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "HE4TS-sigsig-sig", UID: validUID, Password: newPwd, PasswordConfirm: newPwd}),
			wantData: marchallObj(t, httpErr{Error: "invalid token"}),
		},
		{
			name: "password reset", wantCode: http.StatusOK,
			body:     marchallObj(t, user.ResetUserPassword{Token: validToken, UID: validUID, Password: newPwd, PasswordConfirm: newPwd}),
			wantData: marchallObj(t, map[string]string{"message": "Password has been reset."}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/password-reset-confirm"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusOK {
				refreshed, err := usrRepo.GetUserByID(context.Background(), student.ID)
				if err != nil {
					t.Fatalf("GetUserByID(): %v", err)
				}
				if err = refreshed.CheckPassword(newPwd); err != nil {
					t.Error("failed to update new password")
				}
			}
		})
	}
}
