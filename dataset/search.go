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
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// DefaultMinRatio is the minimum match ratio of title search.
const DefaultMinRatio = 60

// Match is a movie matched by title search.
type Match struct {
	Movie *Movie
	Ratio int
}

// Ratio returns the similarity of two strings in [0, 100], ignoring case.
//
//	ratio = 100 * (len(a) + len(b) - levenshtein(a, b)) / (len(a) + len(b))
func Ratio(a, b string) int {
	a, b = strings.ToLower(a), strings.ToLower(b)
	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	if total == 0 {
		return 100
	}
	distance := levenshtein.ComputeDistance(a, b)
	return int(math.Round(100 * float64(total-distance) / float64(total)))
}

// Search finds movies whose title matches the query with a ratio of at least minRatio.
// Matches are sorted by ratio in descending order, then by movie id. A non-positive
// limit returns all matches.
func (c *Catalog) Search(query string, minRatio, limit int) []Match {
	if c == nil {
		return nil
	}
	var matches []Match
	for _, movieId := range c.ids {
		movie := c.movies[movieId]
		if ratio := Ratio(query, movie.Title); ratio >= minRatio {
			matches = append(matches, Match{Movie: movie, Ratio: ratio})
		}
	}
	// ids are ascending, a stable sort keeps them ordered within a ratio
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Ratio > matches[j].Ratio
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}
