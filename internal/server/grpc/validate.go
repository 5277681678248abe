package grpc

import (
	"net/mail"
	"unicode/utf8"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/rpc"
)

const (
	minNameLength     = 3
	minPasswordLength = 6
)

func validateRegister(req *rpc.RegisterRequest) error {
	for _, f := range []struct {
		name  string
		value string
	}{
		{"username", req.Username},
		{"firstName", req.FirstName},
		{"lastName", req.LastName},
	} {
		if utf8.RuneCountInString(f.value) < minNameLength {
			return common.NewPublicError(common.ErrorValidation, "%s must be at least %d characters", f.name, minNameLength)
		}
	}
	if req.MiddleName != "" && utf8.RuneCountInString(req.MiddleName) < minNameLength {
		return common.NewPublicError(common.ErrorValidation, "middleName must be at least %d characters", minNameLength)
	}

	if addr, err := mail.ParseAddress(req.Email); err != nil || addr.Address != req.Email {
		return common.NewPublicError(common.ErrorValidation, "email is invalid")
	}

	if utf8.RuneCountInString(req.Password) < minPasswordLength {
		return common.NewPublicError(common.ErrorValidation, "password must be at least %d characters", minPasswordLength)
	}

	if req.CompanyID <= 0 {
		return common.NewPublicError(common.ErrorValidation, "companyId is required")
	}
	if !req.IsOwner && req.RoleID <= 0 {
		return common.NewPublicError(common.ErrorValidation, "roleId is required")
	}
	return nil
}

func validateLogin(req *rpc.LoginRequest) error {
	if req.Username == "" || req.Password == "" {
		return common.NewPublicError(common.ErrorValidation, "username and password are required")
	}
	return nil
}
