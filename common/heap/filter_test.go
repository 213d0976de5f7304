// Copyright 2026 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package heap

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTopKFilter(t *testing.T) {
	a := NewTopKFilter[int, float64](3)
	a.Push(10, 2)
	a.Push(20, 8)
	a.Push(30, 1)
	assert.Equal(t, []int{20, 10, 30}, a.PopAllValues())

	a = NewTopKFilter[int, float64](3)
	a.Push(10, 2)
	a.Push(20, 8)
	a.Push(30, 1)
	a.Push(40, 2)
	a.Push(50, 5)
	a.Push(12, 10)
	a.Push(67, 7)
	a.Push(32, 9)
	assert.Equal(t, []Elem[int, float64]{
		{Value: 12, Weight: 10},
		{Value: 32, Weight: 9},
		{Value: 20, Weight: 8},
	}, a.PopAll())
}

func TestTopKFilterTies(t *testing.T) {
	a := NewTopKFilter[string, float64](3)
	a.Push("a", 1)
	a.Push("b", 2)
	a.Push("c", 1)
	a.Push("d", 2)
	a.Push("e", 1)
	assert.Equal(t, []string{"b", "d", "a"}, a.PopAllValues())
}

func TestTopKFilterZero(t *testing.T) {
	a := NewTopKFilter[int, float64](0)
	a.Push(1, 1)
	assert.Empty(t, a.PopAll())
}

func TestTopKFilterStableSort(t *testing.T) {
	rng := rand.New(rand.NewSource(0))
	weights := make([]float64, 1000)
	for i := range weights {
		// few distinct values to force ties
		weights[i] = float64(rng.Intn(10))
	}
	filter := NewTopKFilter[int, float64](50)
	for i, w := range weights {
		filter.Push(i, w)
	}
	expected := make([]int, len(weights))
	for i := range expected {
		expected[i] = i
	}
	sort.SliceStable(expected, func(i, j int) bool {
		return weights[expected[i]] > weights[expected[j]]
	})
	assert.Equal(t, expected[:50], filter.PopAllValues())
}
