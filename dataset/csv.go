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
	"io"
	"strings"

	"github.com/gorse-io/gorse-knn/base"
)

const maxLineSize = 1 << 20

// ReadLines parses fields of each record in a csv stream. Quoted fields may contain
// separators, escaped quotes ("") and line breaks. The handler receives the line
// number where the record starts (0-based) and returns false to stop reading.
func ReadLines(r io.Reader, sep rune, handler func(int, []string) bool) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	lineCount := 0               // line number of current position
	startLine := 0               // line number where current record starts
	fields := make([]string, 0)  // fields for current record
	builder := strings.Builder{} // string builder for current field
	quoted := false              // whether current position in quote
	for sc.Scan() {
		line := []rune(strings.TrimSuffix(sc.Text(), "\r"))
		if quoted {
			builder.WriteString("\n")
		} else {
			startLine = lineCount
		}
		for i := 0; i < len(line); i++ {
			if line[i] == sep && !quoted {
				// end of field
				fields = append(fields, builder.String())
				builder.Reset()
			} else if line[i] == '"' {
				if quoted {
					if i+1 >= len(line) || line[i+1] != '"' {
						quoted = false
					} else {
						i++
						builder.WriteRune('"')
					}
				} else {
					quoted = true
				}
			} else {
				builder.WriteRune(line[i])
			}
		}
		if !quoted {
			fields = append(fields, builder.String())
			builder.Reset()
			if !handler(startLine, fields) {
				return nil
			}
			fields = []string{}
		}
		lineCount++
	}
	if err := sc.Err(); err != nil {
		return base.AnnotateDataLoad(err, "scan line %d", lineCount+1)
	}
	if quoted {
		return base.DataLoadf("unterminated quoted field starting at line %d", startLine+1)
	}
	return nil
}

// header maps normalized column names to column indices.
type header map[string]int

func newHeader(fields []string) header {
	h := make(header, len(fields))
	for i, field := range fields {
		if i == 0 {
			field = strings.TrimPrefix(field, "\ufeff")
		}
		h[normalizeColumn(field)] = i
	}
	return h
}

// normalizeColumn makes "movieId", "movie_id" and "MovieID" the same column.
func normalizeColumn(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "")
}

func (h header) require(names ...string) ([]int, error) {
	indices := make([]int, len(names))
	for i, name := range names {
		index, ok := h[normalizeColumn(name)]
		if !ok {
			return nil, base.DataLoadf("column %s is missing", name)
		}
		indices[i] = index
	}
	return indices, nil
}

func (h header) optional(name string) int {
	if index, ok := h[normalizeColumn(name)]; ok {
		return index
	}
	return -1
}
