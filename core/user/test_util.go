package user

import (
	"context"

	"github.com/trezcool/darasa/core"
)

type serviceMock struct {
	service
}

// NewServiceMock returns a Service whose emails are sent synchronously.
func NewServiceMock(db core.DB, repo Repository, mailSvc core.EmailService) Service {
	initTokenGen()
	return &serviceMock{
		service: service{
			db:      db,
			repo:    repo,
			mailSvc: mailSvc,
		},
	}
}

func (svc *serviceMock) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	// run synchronously
	svc.sendPasswordResetMail(usr)
	return nil
}

// MakeResetToken exposes password reset token generation to tests.
func MakeResetToken(usr User) string { return makeToken(usr) }
