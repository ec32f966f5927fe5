package domain

import "errors"

var (
	ErrRecordNotFound     = errors.New("record not found")
	ErrInvalidRecord      = errors.New("invalid record")
	ErrUnknownOwner       = errors.New("owner is not a known option")
	ErrUnknownOptionList  = errors.New("unknown option list")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidUser        = errors.New("invalid user")
	ErrMasterAdmin        = errors.New("master admin cannot be deleted")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("access forbidden")
	ErrInvalidBackup      = errors.New("invalid backup file")
	ErrRemoteUnavailable  = errors.New("remote store unavailable")
)
