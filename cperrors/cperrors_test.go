/*
 *  MIT License
 *
 *  Copyright (c) 2024 Salim Amine BOU ARAM & Nicolas JUHEL
 *
 *  Permission is hereby granted, free of charge, to any person obtaining a copy
 *  of this software and associated documentation files (the "Software"), to deal
 *  in the Software without restriction, including without limitation the rights
 *  to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 *  copies of the Software, and to permit persons to whom the Software is
 *  furnished to do so, subject to the following conditions:
 *
 *  The above copyright notice and this permission notice shall be included in all
 *  copies or substantial portions of the Software.
 *
 *  THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 *  IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 *  FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 *  AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 *  LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 *  OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 *  SOFTWARE.
 *
 */

package cperrors_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sabouaram/cpscan/cperrors"
)

func TestNewAndIs(t *testing.T) {
	cause := errors.New("bad signature")
	err := cperrors.NewEntry(cperrors.KindStructural, "/lib/a.jar", "foo/Bar.class", 128, "invalid local header", cause)

	require.True(t, cperrors.Is(err, cperrors.KindStructural))
	require.False(t, cperrors.Is(err, cperrors.KindAccess))
	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "foo/Bar.class")
	require.Contains(t, err.Error(), "/lib/a.jar")
}

func TestIsOnPlainError(t *testing.T) {
	require.False(t, cperrors.Is(errors.New("plain"), cperrors.KindAccess))
}

func TestKindString(t *testing.T) {
	require.Equal(t, "network", cperrors.KindNetwork.String())
	require.Equal(t, "unknown", cperrors.Kind(99).String())
}
