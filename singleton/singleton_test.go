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

package singleton_test

import (
	"errors"
	"sync"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sabouaram/cpscan/singleton"
)

var _ = Describe("Map", func() {
	It("invokes the producer exactly once for N concurrent callers", func() {
		m := singleton.New[string, int]()

		var calls atomic.Int32
		const n = 64

		var wg sync.WaitGroup
		results := make([]int, n)
		wg.Add(n)

		for i := 0; i < n; i++ {
			go func(idx int) {
				defer wg.Done()
				v, err := m.GetOrCreate("k", func() (int, error) {
					calls.Add(1)
					return 42, nil
				})
				Expect(err).NotTo(HaveOccurred())
				results[idx] = v
			}(i)
		}
		wg.Wait()

		Expect(calls.Load()).To(BeEquivalentTo(1))
		for _, r := range results {
			Expect(r).To(Equal(42))
		}
	})

	It("releases the latch on producer error and retries later", func() {
		m := singleton.New[string, int]()

		_, err := m.GetOrCreate("k", func() (int, error) {
			return 0, errors.New("boom")
		})
		Expect(err).To(HaveOccurred())

		v, err := m.GetOrCreate("k", func() (int, error) {
			return 7, nil
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(7))
	})

	It("Load reflects published values and Delete clears them", func() {
		m := singleton.New[string, int]()
		_, _ = m.GetOrCreate("k", func() (int, error) { return 1, nil })

		v, ok := m.Load("k")
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal(1))

		m.Delete("k")
		_, ok = m.Load("k")
		Expect(ok).To(BeFalse())
	})

	It("Walk visits every published pair", func() {
		m := singleton.New[string, int]()
		_, _ = m.GetOrCreate("a", func() (int, error) { return 1, nil })
		_, _ = m.GetOrCreate("b", func() (int, error) { return 2, nil })

		seen := map[string]int{}
		m.Walk(func(key string, val int) bool {
			seen[key] = val
			return true
		})

		Expect(seen).To(Equal(map[string]int{"a": 1, "b": 2}))
	})
})
