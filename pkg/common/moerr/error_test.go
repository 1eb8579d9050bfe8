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
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewError(t *testing.T) {
	err := NewInternalError(context.TODO(), "foo %d", 42)
	require.Equal(t, "internal error: foo 42", err.Error())
	require.Equal(t, ErrInternal, err.ErrorCode())
	require.False(t, err.Succeeded())
}

func TestIsMoErrCode(t *testing.T) {
	require.True(t, IsMoErrCode(nil, Ok))
	require.False(t, IsMoErrCode(nil, ErrOOM))

	err := NewOOM(context.TODO())
	require.True(t, IsMoErrCode(err, ErrOOM))
	require.False(t, IsMoErrCode(err, ErrInternal))
	require.False(t, IsMoErrCode(errors.New("plain"), ErrOOM))
}

func TestNoCtxVariants(t *testing.T) {
	require.True(t, IsMoErrCode(NewInvalidInputNoCtx("x %s", "y"), ErrInvalidInput))
	require.True(t, IsMoErrCode(NewInvalidStateNoCtx("z"), ErrInvalidState))
	require.True(t, IsMoErrCode(NewBadConfigNoCtx("w"), ErrBadConfig))
}
