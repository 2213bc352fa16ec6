// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package service

import (
	"errors"
	"fmt"
)

// ErrorCode is the closed set of lifecycle failure reasons.
type ErrorCode string

const (
	CodeInvalidToken         ErrorCode = "invalid_token"
	CodeNotAvailable         ErrorCode = "not_available"
	CodeExpired              ErrorCode = "expired"
	CodeEmailTaken           ErrorCode = "email_taken"
	CodeDirectoryUnavailable ErrorCode = "directory_unavailable"
	CodeNotFound             ErrorCode = "not_found"
	CodeAlreadyClaimed       ErrorCode = "already_claimed"
	CodeInvalidState         ErrorCode = "invalid_state"
	CodeInvalidArgument      ErrorCode = "invalid_argument"
	CodeInternal             ErrorCode = "internal"
)

var messages = map[ErrorCode]string{
	CodeInvalidToken:         "This invite link is not valid.",
	CodeNotAvailable:         "This invite is no longer available.",
	CodeExpired:              "This invite has expired.",
	CodeEmailTaken:           "This email address is already registered.",
	CodeDirectoryUnavailable: "The account could not be created right now, please try again later.",
	CodeNotFound:             "Not found.",
	CodeAlreadyClaimed:       "The invite was already claimed or revoked.",
	CodeInvalidState:         "The operation is not allowed in the current state.",
	CodeInvalidArgument:      "Invalid request.",
	CodeInternal:             "Internal error.",
}

// Message returns the readable text for code.
func (c ErrorCode) Message() string {
	if m, ok := messages[c]; ok {
		return m
	}
	return messages[CodeInternal]
}

// Error is returned by admin operations.
type Error struct {
	Code ErrorCode
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code ErrorCode, msg string, err error) *Error {
	if msg == "" {
		msg = code.Message()
	}
	return &Error{Code: code, Msg: msg, Err: err}
}

// CodeOf extracts the code of err, CodeInternal for foreign errors.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
