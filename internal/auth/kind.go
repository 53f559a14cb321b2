// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"fmt"
	"net/http"

	"github.com/samber/oops"
)

// Kind enumerates the failure kinds an account operation can report.
// The zero value, KindNone, means the operation succeeded.
type Kind int

// Failure kinds.
const (
	KindNone Kind = iota
	KindInternal
	KindValidation
	KindInvalidCredentials
	KindTokenExpired
	KindTokenNotFound
	KindForbidden
	KindUserNotFound
	KindUserExists
	KindAccountDisabled
)

// StatusSuccess is the wire status reported for successful operations.
const StatusSuccess = 5000

type kindInfo struct {
	name   string
	code   string
	status int
	http   int
	title  string
	detail string
}

var kinds = map[Kind]kindInfo{
	KindNone: {
		name: "None", code: "", status: StatusSuccess, http: http.StatusOK,
		title: "Success", detail: "The request was successful.",
	},
	KindInternal: {
		name: "Internal", code: "AUTH_INTERNAL", status: 1000, http: http.StatusInternalServerError,
		title:  "Internal Server Error",
		detail: "An error occurred while processing your request. Please try again later.",
	},
	KindValidation: {
		name: "Validation", code: "AUTH_VALIDATION", status: 1001, http: http.StatusBadRequest,
		title:  "Bad Request",
		detail: "The request was invalid or could not be understood by the server.",
	},
	KindInvalidCredentials: {
		name: "InvalidCredentials", code: "AUTH_INVALID_CREDENTIALS", status: 2001, http: http.StatusUnauthorized,
		title:  "Invalid Credentials",
		detail: "The username or password is incorrect. Please try again.",
	},
	KindTokenExpired: {
		name: "TokenExpired", code: "AUTH_TOKEN_EXPIRED", status: 2003, http: http.StatusUnauthorized,
		title:  "Token Expired",
		detail: "Token has expired. Please authenticate again.",
	},
	KindTokenNotFound: {
		name: "TokenNotFound", code: "AUTH_TOKEN_INVALID", status: 2004, http: http.StatusUnauthorized,
		title:  "Token Not Found",
		detail: "The token is invalid. Please authenticate again.",
	},
	KindForbidden: {
		name: "Forbidden", code: "AUTH_FORBIDDEN", status: 3000, http: http.StatusForbidden,
		title:  "Forbidden",
		detail: "You are not allowed to perform this action.",
	},
	KindUserNotFound: {
		name: "UserNotFound", code: "AUTH_USER_NOT_FOUND", status: 4000, http: http.StatusNotFound,
		title:  "User Not Found",
		detail: "The user was not found.",
	},
	KindUserExists: {
		name: "UserExists", code: "AUTH_USER_EXISTS", status: 4001, http: http.StatusConflict,
		title:  "User Already Exists",
		detail: "The username already exists. Please choose a different username.",
	},
	KindAccountDisabled: {
		name: "AccountDisabled", code: "AUTH_ACCOUNT_DISABLED", status: 4002, http: http.StatusForbidden,
		title:  "User Account Disabled",
		detail: "User account is disabled. Please contact the administrator for further assistance.",
	},
}

// codeToKind is the reverse index of kinds, keyed by oops code.
var codeToKind = func() map[string]Kind {
	m := make(map[string]Kind, len(kinds))
	for k, info := range kinds {
		if info.code != "" {
			m[info.code] = k
		}
	}
	return m
}()

func (k Kind) info() kindInfo {
	if info, ok := kinds[k]; ok {
		return info
	}
	return kinds[KindInternal]
}

// String returns the kind's name.
func (k Kind) String() string {
	if info, ok := kinds[k]; ok {
		return info.name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Code returns the oops error code carried by errors of this kind.
func (k Kind) Code() string { return k.info().code }

// Status returns the numeric wire status for this kind.
func (k Kind) Status() int { return k.info().status }

// HTTPStatus returns the HTTP status code used by the transport.
func (k Kind) HTTPStatus() int { return k.info().http }

// Title returns a short human-readable summary.
func (k Kind) Title() string { return k.info().title }

// Detail returns the caller-facing description. It never includes internal detail.
func (k Kind) Detail() string { return k.info().detail }

// Errorf creates an error of this kind.
func (k Kind) Errorf(format string, args ...any) error {
	return oops.Code(k.Code()).Errorf(format, args...)
}

// KindOf reports the failure kind carried by err.
// A nil error is KindNone. Errors that carry no known code are KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return KindInternal
	}
	if k, ok := codeToKind[fmt.Sprint(oopsErr.Code())]; ok {
		return k
	}
	return KindInternal
}
