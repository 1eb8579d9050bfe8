// Copyright 2021 - 2024 Matrix Origin
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

package moerr

import (
	"context"
	"fmt"
)

const (
	// 0 - 99 is OK.  They do not contain info, and are special handled
	// using a static instance, no alloc.
	Ok uint16 = 0

	OkMax uint16 = 99

	// Group 1: Internal errors
	ErrStart    uint16 = 20100
	ErrInternal uint16 = 20101
	ErrNYI      uint16 = 20102
	ErrOOM      uint16 = 20103

	// Group 3: invalid input
	ErrBadConfig    uint16 = 20300
	ErrInvalidInput uint16 = 20301

	// Group 4: unexpected state
	ErrInvalidState uint16 = 20400

	// Group End: max value of error code
	ErrEnd uint16 = 65535
)

type errorMsgItem struct {
	errorMsgOrFormat string
}

var errorMsgRefer = map[uint16]errorMsgItem{
	ErrInternal:     {"internal error: %s"},
	ErrNYI:          {"%s is not yet implemented"},
	ErrOOM:          {"out of memory"},
	ErrBadConfig:    {"invalid configuration: %s"},
	ErrInvalidInput: {"invalid input: %s"},
	ErrInvalidState: {"invalid state %s"},

	ErrEnd: {"internal error: end of errcode code"},
}

func newError(ctx context.Context, code uint16, args ...any) *Error {
	var err *Error
	item, has := errorMsgRefer[code]
	if !has {
		panic(NewInternalError(ctx, "not exist error code: %d", code))
	}
	if len(args) == 0 {
		err = &Error{
			code:    code,
			message: item.errorMsgOrFormat,
		}
	} else {
		err = &Error{
			code:    code,
			message: fmt.Sprintf(item.errorMsgOrFormat, args...),
		}
	}
	return err
}

type Error struct {
	code    uint16
	message string
}

func (e *Error) Error() string {
	return e.message
}

func (e *Error) ErrorCode() uint16 {
	return e.code
}

func (e *Error) Succeeded() bool {
	return e.code <= OkMax
}

// IsMoErrCode checks the error code of the given error.
func IsMoErrCode(e error, rc uint16) bool {
	if e == nil {
		return rc == Ok
	}
	me, ok := e.(*Error)
	if !ok {
		// This is not a moerr
		return false
	}
	return me.code == rc
}

// Context returns a context for the NoCtx constructors.  The library has
// no session or trace machinery, a background context carries enough.
func Context() context.Context {
	return context.Background()
}

func NewInternalError(ctx context.Context, msg string, args ...any) *Error {
	xmsg := fmt.Sprintf(msg, args...)
	return newError(ctx, ErrInternal, xmsg)
}

func NewInternalErrorNoCtx(msg string, args ...any) *Error {
	return NewInternalError(Context(), msg, args...)
}

func NewNYI(ctx context.Context, msg string, args ...any) *Error {
	xmsg := fmt.Sprintf(msg, args...)
	return newError(ctx, ErrNYI, xmsg)
}

func NewOOM(ctx context.Context) *Error {
	return newError(ctx, ErrOOM)
}

func NewBadConfig(ctx context.Context, msg string, args ...any) *Error {
	xmsg := fmt.Sprintf(msg, args...)
	return newError(ctx, ErrBadConfig, xmsg)
}

func NewBadConfigNoCtx(msg string, args ...any) *Error {
	return NewBadConfig(Context(), msg, args...)
}

func NewInvalidInput(ctx context.Context, msg string, args ...any) *Error {
	xmsg := fmt.Sprintf(msg, args...)
	return newError(ctx, ErrInvalidInput, xmsg)
}

func NewInvalidInputNoCtx(msg string, args ...any) *Error {
	return NewInvalidInput(Context(), msg, args...)
}

func NewInvalidState(ctx context.Context, msg string, args ...any) *Error {
	xmsg := fmt.Sprintf(msg, args...)
	return newError(ctx, ErrInvalidState, xmsg)
}

func NewInvalidStateNoCtx(msg string, args ...any) *Error {
	return NewInvalidState(Context(), msg, args...)
}
