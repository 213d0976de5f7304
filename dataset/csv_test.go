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

package dataset

import (
	"bufio"
	"strings"
	"testing"

	"github.com/gorse-io/gorse-knn/base"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
)

func splitLines(t *testing.T, text string) ([][]string, []int) {
	lines := make([][]string, 0)
	numbers := make([]int, 0)
	err := ReadLines(strings.NewReader(text), ',', func(i int, fields []string) bool {
		lines = append(lines, fields)
		numbers = append(numbers, i)
		return fields[0] != "STOP"
	})
	assert.NoError(t, err)
	return lines, numbers
}

func TestReadLines(t *testing.T) {
	lines, _ := splitLines(t, "1,2,3\r\n4,5,6\r\n")
	assert.Equal(t, [][]string{{"1", "2", "3"}, {"4", "5", "6"}}, lines)
	lines, _ = splitLines(t, "\"1,2\",\"3,4\",\"5,6\"\n\"2,3\",\"4,6\",\"6,9\"")
	assert.Equal(t, [][]string{{"1,2", "3,4", "5,6"}, {"2,3", "4,6", "6,9"}}, lines)
	lines, _ = splitLines(t, "\"\"\"1,2\"\",\"\"3,4\"\"\"\r\n")
	assert.Equal(t, [][]string{{"\"1,2\",\"3,4\""}}, lines)
	lines, _ = splitLines(t, "1,2,3\r\n4,5,6\r\nSTOP\r\n7,8,9")
	assert.Equal(t, [][]string{{"1", "2", "3"}, {"4", "5", "6"}, {"STOP"}}, lines)
}

func TestReadLinesMultiline(t *testing.T) {
	lines, numbers := splitLines(t, "a,\"1\r\n2\",b\r\nc,d,e\r\n")
	assert.Equal(t, [][]string{{"a", "1\n2", "b"}, {"c", "d", "e"}}, lines)
	assert.Equal(t, []int{0, 2}, numbers)
}

func TestReadLinesUnterminated(t *testing.T) {
	err := ReadLines(strings.NewReader("1,\"2,3\n4,5,6\n"), ',', func(int, []string) bool {
		return true
	})
	assert.True(t, errors.Is(err, base.ErrDataLoad))
}

func TestReadLinesTooLong(t *testing.T) {
	text := "1,2,3\n" + strings.Repeat("a", maxLineSize+1) + "\n"
	var count int
	err := ReadLines(strings.NewReader(text), ',', func(int, []string) bool {
		count++
		return true
	})
	assert.True(t, errors.Is(err, base.ErrDataLoad))
	assert.True(t, errors.Is(err, bufio.ErrTooLong))
	assert.Contains(t, err.Error(), "scan line 2")
	assert.Equal(t, 1, count)
}

func TestHeader(t *testing.T) {
	h := newHeader([]string{"\ufeffuserId", "movie_id", " Rating "})
	indices, err := h.require("userId", "movieId", "rating")
	assert.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, indices)
	assert.Equal(t, -1, h.optional("timestamp"))
	_, err = h.require("title")
	assert.True(t, errors.Is(err, base.ErrDataLoad))
}
