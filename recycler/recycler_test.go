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

package recycler_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sabouaram/cpscan/recycler"
)

func TestRecycler_ReusesReturnedInstance(t *testing.T) {
	var created atomic.Int32
	r := recycler.New[int](2, func() (int, error) {
		return int(created.Add(1)), nil
	}, nil)

	h1, err := r.Acquire(context.Background())
	require.NoError(t, err)
	first := h1.Value()
	require.NoError(t, h1.Close())

	h2, err := r.Acquire(context.Background())
	require.NoError(t, err)
	require.Equal(t, first, h2.Value())
	require.Equal(t, int32(1), created.Load())
}

func TestRecycler_ResetHookRuns(t *testing.T) {
	var resets atomic.Int32
	r := recycler.New[int](1, func() (int, error) { return 1, nil }, func(int) error {
		resets.Add(1)
		return nil
	})

	h, err := r.Acquire(context.Background())
	require.NoError(t, err)
	require.NoError(t, h.Close())
	require.Equal(t, int32(1), resets.Load())
}

func TestRecycler_CloseDrainsIdle(t *testing.T) {
	r := recycler.New[int](2, func() (int, error) { return 1, nil }, nil)

	h, err := r.Acquire(context.Background())
	require.NoError(t, err)
	require.NoError(t, h.Close())

	_, idle := r.Stats()
	require.Equal(t, 1, idle)

	require.NoError(t, r.Close())
	_, idle = r.Stats()
	require.Equal(t, 0, idle)
}

func TestRecycler_DoubleCloseIsNoop(t *testing.T) {
	r := recycler.New[int](1, func() (int, error) { return 1, nil }, nil)
	h, err := r.Acquire(context.Background())
	require.NoError(t, err)
	require.NoError(t, h.Close())
	require.NoError(t, h.Close())
}

type fakeCloser struct{ closed atomic.Bool }

func (f *fakeCloser) Close() error {
	f.closed.Store(true)
	return nil
}

func TestRecycler_ForceCloseReclaimsInUseHandle(t *testing.T) {
	r := recycler.New[*fakeCloser](1, func() (*fakeCloser, error) {
		return &fakeCloser{}, nil
	}, nil)

	h, err := r.Acquire(context.Background())
	require.NoError(t, err)

	inUse, _ := r.Stats()
	require.Equal(t, 1, inUse)

	require.NoError(t, r.ForceClose())
	require.True(t, h.Value().closed.Load())

	inUse, idle := r.Stats()
	require.Equal(t, 0, inUse)
	require.Equal(t, 0, idle)

	// A Handle force-closed out from under its holder still tolerates a
	// later Close from that holder.
	require.NoError(t, h.Close())
}

func TestRecycler_ForceCloseStillDrainsIdle(t *testing.T) {
	r := recycler.New[*fakeCloser](2, func() (*fakeCloser, error) {
		return &fakeCloser{}, nil
	}, nil)

	h, err := r.Acquire(context.Background())
	require.NoError(t, err)
	idleInstance := h.Value()
	require.NoError(t, h.Close())

	require.NoError(t, r.ForceClose())
	require.True(t, idleInstance.closed.Load())
}
