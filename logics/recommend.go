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

package logics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/gorse-io/gorse-knn/base"
	"github.com/gorse-io/gorse-knn/base/log"
	"github.com/gorse-io/gorse-knn/common/parallel"
	"github.com/gorse-io/gorse-knn/dataset"
	"github.com/gorse-io/gorse-knn/similarity"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// Strategy decides how the ratings of neighbors become candidates.
type Strategy string

const (
	// StrategyUnion merges movies liked by any of the neighbors.
	StrategyUnion Strategy = "union"
	// StrategyBestNeighbor takes every movie rated by the most similar neighbor.
	StrategyBestNeighbor Strategy = "best-neighbor"
)

// DefaultMinRating is the minimum rating of a liked movie.
const DefaultMinRating = 4.0

// Request asks for recommendations for one user.
type Request struct {
	UserId       int
	NumNeighbors int
	NumResults   int
}

// Recommendation is a recommended movie. Movie is nil if the movie is not in the
// catalog.
type Recommendation struct {
	MovieId int
	Score   float64
	Support int
	Movie   *dataset.Movie
}

type Option func(*Recommender)

// WithStrategy sets the candidate strategy.
func WithStrategy(strategy Strategy) Option {
	return func(r *Recommender) {
		r.strategy = strategy
	}
}

// WithMinRating sets the minimum rating of a liked movie for StrategyUnion.
func WithMinRating(rating float64) Option {
	return func(r *Recommender) {
		r.minRating = rating
	}
}

// Recommender recommends movies liked by similar users. It only reads the rating store
// and the catalog, so a Recommender can serve concurrent requests.
type Recommender struct {
	store      *dataset.RatingStore
	catalog    *dataset.Catalog
	userToUser *UserToUser
	strategy   Strategy
	minRating  float64
}

func NewRecommender(store *dataset.RatingStore, catalog *dataset.Catalog, metric similarity.Metric, opts ...Option) (*Recommender, error) {
	r := &Recommender{
		store:      store,
		catalog:    catalog,
		userToUser: NewUserToUser(store, metric),
		strategy:   StrategyUnion,
		minRating:  DefaultMinRating,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.strategy != StrategyUnion && r.strategy != StrategyBestNeighbor {
		return nil, errors.NewNotValid(nil, fmt.Sprintf("unknown strategy %q", r.strategy))
	}
	return r, nil
}

// UserToUser returns the neighbor selector of the recommender.
func (r *Recommender) UserToUser() *UserToUser {
	return r.userToUser
}

// Recommend returns at most NumResults movies not rated by the user, fewer if there are
// not enough candidates. A dataset without other users yields no recommendation.
func (r *Recommender) Recommend(ctx context.Context, req Request) ([]Recommendation, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Trace(err)
	}
	if err := base.ValidatePositive("number of neighbors", req.NumNeighbors); err != nil {
		return nil, errors.Trace(err)
	}
	if err := base.ValidatePositive("number of results", req.NumResults); err != nil {
		return nil, errors.Trace(err)
	}
	start := time.Now()
	neighbors, err := r.userToUser.KNearestUsers(req.UserId, req.NumNeighbors)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if len(neighbors) == 0 {
		return []Recommendation{}, nil
	}
	target, err := r.store.Profile(req.UserId)
	if err != nil {
		return nil, errors.Trace(err)
	}

	var candidates []Recommendation
	switch r.strategy {
	case StrategyBestNeighbor:
		candidates, err = r.bestNeighbor(target, neighbors[0])
	default:
		candidates, err = r.union(target, neighbors)
	}
	if err != nil {
		return nil, errors.Trace(err)
	}
	if len(candidates) > req.NumResults {
		candidates = candidates[:req.NumResults]
	}
	for i := range candidates {
		candidates[i].Movie, _ = r.catalog.Movie(candidates[i].MovieId)
	}
	log.Logger().Debug("recommend movies",
		zap.Int("user_id", req.UserId),
		zap.Int("n_neighbors", len(neighbors)),
		zap.Int("n_recommendations", len(candidates)),
		zap.Duration("duration", time.Since(start)))
	return candidates, nil
}

// bestNeighbor ranks movies rated by the neighbor by rating, then by movie id.
func (r *Recommender) bestNeighbor(target *dataset.Profile, neighbor Neighbor) ([]Recommendation, error) {
	profile, err := r.store.Profile(neighbor.UserId)
	if err != nil {
		return nil, errors.Trace(err)
	}
	candidates := []Recommendation{}
	for i, movieId := range profile.MovieIds {
		if !target.Contains(movieId) {
			candidates = append(candidates, Recommendation{
				MovieId: movieId,
				Score:   profile.Ratings[i],
				Support: 1,
			})
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].MovieId < candidates[j].MovieId
	})
	return candidates, nil
}

// union scores each movie liked by the neighbors with the mean of their ratings and
// ranks by score, then by the number of neighbors who liked it, then by movie id.
func (r *Recommender) union(target *dataset.Profile, neighbors []Neighbor) ([]Recommendation, error) {
	type accumulator struct {
		sum   float64
		count int
	}
	accumulators := make(map[int]*accumulator)
	for _, neighbor := range neighbors {
		profile, err := r.store.Profile(neighbor.UserId)
		if err != nil {
			return nil, errors.Trace(err)
		}
		for i, movieId := range profile.MovieIds {
			if profile.Ratings[i] < r.minRating || target.Contains(movieId) {
				continue
			}
			acc, ok := accumulators[movieId]
			if !ok {
				acc = &accumulator{}
				accumulators[movieId] = acc
			}
			acc.sum += profile.Ratings[i]
			acc.count++
		}
	}
	candidates := make([]Recommendation, 0, len(accumulators))
	for movieId, acc := range accumulators {
		candidates = append(candidates, Recommendation{
			MovieId: movieId,
			Score:   acc.sum / float64(acc.count),
			Support: acc.count,
		})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		if candidates[i].Support != candidates[j].Support {
			return candidates[i].Support > candidates[j].Support
		}
		return candidates[i].MovieId < candidates[j].MovieId
	})
	return candidates, nil
}

// RecommendAll recommends movies for many users with a pool of jobs workers. Results
// are in the order of userIds. Users with insufficient data get no recommendation; any
// other error stops the batch. onProgress, if not nil, is called concurrently after each
// user.
func (r *Recommender) RecommendAll(ctx context.Context, userIds []int, numNeighbors, numResults, jobs int, onProgress func()) ([][]Recommendation, error) {
	if err := base.ValidatePositive("number of neighbors", numNeighbors); err != nil {
		return nil, errors.Trace(err)
	}
	if err := base.ValidatePositive("number of results", numResults); err != nil {
		return nil, errors.Trace(err)
	}
	runId := uuid.NewString()
	logger := log.RunLogger(runId)
	logger.Info("start batch recommendation",
		zap.Int("n_users", len(userIds)),
		zap.Int("n_jobs", jobs),
		zap.String("strategy", string(r.strategy)))
	start := time.Now()
	results := make([][]Recommendation, len(userIds))
	err := parallel.Parallel(ctx, len(userIds), jobs, func(_, jobId int) error {
		recommendations, err := r.Recommend(ctx, Request{
			UserId:       userIds[jobId],
			NumNeighbors: numNeighbors,
			NumResults:   numResults,
		})
		if errors.Is(err, base.ErrInsufficientData) {
			logger.Warn("skip user with insufficient data", zap.Int("user_id", userIds[jobId]), zap.Error(err))
			recommendations = []Recommendation{}
		} else if err != nil {
			return errors.Trace(err)
		}
		results[jobId] = recommendations
		if onProgress != nil {
			onProgress()
		}
		return nil
	})
	if err != nil {
		logger.Error("batch recommendation failed", zap.Error(err))
		return nil, errors.Trace(err)
	}
	logger.Info("complete batch recommendation", zap.Duration("duration", time.Since(start)))
	return results, nil
}
