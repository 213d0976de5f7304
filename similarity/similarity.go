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

package similarity

import (
	"fmt"
	"math"
	"strings"

	"github.com/gorse-io/gorse-knn/dataset"
	"github.com/juju/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	Pearson   = "pearson"
	Cosine    = "cosine"
	Manhattan = "manhattan"
)

// Names of available metrics.
var Names = []string{Pearson, Cosine, Manhattan}

// MeanScope decides which ratings are averaged to center Pearson correlation.
type MeanScope string

const (
	// MeanScopeFull averages all ratings of a user.
	MeanScopeFull MeanScope = "full"
	// MeanScopeCommon averages ratings of common movies only.
	MeanScopeCommon MeanScope = "common"
)

// Metric computes the similarity between the rating profiles of two users. Only
// common movies are compared and no overlap yields 0.
type Metric interface {
	Name() string
	Similarity(a, b *dataset.Profile) float64
}

type options struct {
	meanScope MeanScope
}

type Option func(*options)

// WithMeanScope sets the mean scope of Pearson correlation.
func WithMeanScope(scope MeanScope) Option {
	return func(o *options) {
		o.meanScope = scope
	}
}

// New creates a metric by name.
func New(name string, opts ...Option) (Metric, error) {
	o := options{meanScope: MeanScopeFull}
	for _, opt := range opts {
		opt(&o)
	}
	switch strings.ToLower(name) {
	case Pearson:
		switch o.meanScope {
		case MeanScopeFull, MeanScopeCommon:
			return &PearsonMetric{MeanScope: o.meanScope}, nil
		default:
			return nil, errors.NewNotValid(nil, fmt.Sprintf("unknown mean scope %q", o.meanScope))
		}
	case Cosine:
		return CosineMetric{}, nil
	case Manhattan:
		return ManhattanMetric{}, nil
	}
	return nil, errors.NewNotValid(nil, fmt.Sprintf("unknown similarity metric %q", name))
}

// intersect returns the ratings of common movies in ascending order of movie ids.
func intersect(a, b *dataset.Profile) ([]float64, []float64) {
	var x, y []float64
	a.ForIntersection(b, func(_ int, ra, rb float64) {
		x = append(x, ra)
		y = append(y, rb)
	})
	return x, y
}

// PearsonMetric computes the Pearson correlation coefficient on common movies:
//
//	sum((a - mean_a) * (b - mean_b)) / (sqrt(sum((a - mean_a)^2)) * sqrt(sum((b - mean_b)^2)))
//
// With MeanScopeFull the means are taken over all ratings of each user, not only the
// common ones. Fewer than two common movies or a zero denominator yields 0.
type PearsonMetric struct {
	MeanScope MeanScope
}

func (m *PearsonMetric) Name() string {
	return Pearson
}

func (m *PearsonMetric) Similarity(a, b *dataset.Profile) float64 {
	x, y := intersect(a, b)
	// a single common movie has no correlation whatever the means are
	if len(x) < 2 {
		return 0
	}
	meanA, meanB := a.Mean(), b.Mean()
	if m.MeanScope == MeanScopeCommon {
		meanA, meanB = stat.Mean(x, nil), stat.Mean(y, nil)
	}
	numerator, sumA, sumB := .0, .0, .0
	for i := range x {
		da := x[i] - meanA
		db := y[i] - meanB
		numerator += da * db
		sumA += da * da
		sumB += db * db
	}
	denominator := math.Sqrt(sumA) * math.Sqrt(sumB)
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}

// CosineMetric computes the cosine similarity of raw ratings on common movies.
type CosineMetric struct{}

func (CosineMetric) Name() string {
	return Cosine
}

func (CosineMetric) Similarity(a, b *dataset.Profile) float64 {
	x, y := intersect(a, b)
	if len(x) == 0 {
		return 0
	}
	denominator := floats.Norm(x, 2) * floats.Norm(y, 2)
	if denominator == 0 {
		return 0
	}
	return floats.Dot(x, y) / denominator
}

// ManhattanMetric maps the city block distance on common movies to (0, 1]:
//
//	1 / (1 + sum(|a - b|))
type ManhattanMetric struct{}

func (ManhattanMetric) Name() string {
	return Manhattan
}

func (ManhattanMetric) Similarity(a, b *dataset.Profile) float64 {
	x, y := intersect(a, b)
	if len(x) == 0 {
		return 0
	}
	return 1 / (1 + floats.Distance(x, y, 1))
}
