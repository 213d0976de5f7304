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
	"math/rand"
	"sync/atomic"
	"testing"

	"github.com/gorse-io/gorse-knn/base"
	"github.com/gorse-io/gorse-knn/dataset"
	"github.com/gorse-io/gorse-knn/similarity"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"
)

type RecommenderTestSuite struct {
	suite.Suite
	store   *dataset.RatingStore
	catalog *dataset.Catalog
}

func (suite *RecommenderTestSuite) SetupSuite() {
	var err error
	suite.store, err = dataset.NewRatingStore(testRatings)
	suite.Require().NoError(err)
	suite.catalog, err = dataset.NewCatalog([]dataset.Movie{
		{MovieId: 4, Title: "Heat (1995)"},
		{MovieId: 7, Title: "Sabrina (1995)"},
	})
	suite.Require().NoError(err)
}

func (suite *RecommenderTestSuite) newRecommender(name string, opts ...Option) *Recommender {
	metric, err := similarity.New(name)
	suite.Require().NoError(err)
	r, err := NewRecommender(suite.store, suite.catalog, metric, opts...)
	suite.Require().NoError(err)
	return r
}

func movieIds(recommendations []Recommendation) []int {
	return lo.Map(recommendations, func(r Recommendation, _ int) int {
		return r.MovieId
	})
}

func (suite *RecommenderTestSuite) TestUnion() {
	r := suite.newRecommender(similarity.Pearson)
	recommendations, err := r.Recommend(context.Background(), Request{UserId: 1, NumNeighbors: 2, NumResults: 10})
	suite.NoError(err)
	// movie 6 is rated 2 by user 2, below the minimum rating
	suite.Equal([]int{4, 7, 5}, movieIds(recommendations))
	suite.Equal(4.5, recommendations[0].Score)
	suite.Equal(2, recommendations[0].Support)
	suite.Equal("Heat (1995)", recommendations[0].Movie.Title)
	suite.Equal(4.5, recommendations[1].Score)
	suite.Equal(1, recommendations[1].Support)
	suite.Equal("Sabrina (1995)", recommendations[1].Movie.Title)
	suite.Nil(recommendations[2].Movie)

	// all neighbors
	recommendations, err = r.Recommend(context.Background(), Request{UserId: 1, NumNeighbors: 4, NumResults: 3})
	suite.NoError(err)
	suite.Equal([]int{8, 9, 4}, movieIds(recommendations))

	// lower threshold
	r = suite.newRecommender(similarity.Pearson, WithMinRating(1))
	recommendations, err = r.Recommend(context.Background(), Request{UserId: 1, NumNeighbors: 2, NumResults: 10})
	suite.NoError(err)
	suite.Equal([]int{4, 7, 5, 6}, movieIds(recommendations))
}

func (suite *RecommenderTestSuite) TestBestNeighbor() {
	r := suite.newRecommender(similarity.Pearson, WithStrategy(StrategyBestNeighbor))
	recommendations, err := r.Recommend(context.Background(), Request{UserId: 1, NumNeighbors: 10, NumResults: 10})
	suite.NoError(err)
	suite.Equal([]int{7, 4}, movieIds(recommendations))
	suite.Equal(4.5, recommendations[0].Score)
	suite.Equal(1, recommendations[0].Support)

	// ratings below the threshold are kept
	store, err := dataset.NewRatingStore([]dataset.Rating{
		{UserId: 1, MovieId: 1, Rating: 5},
		{UserId: 2, MovieId: 1, Rating: 5},
		{UserId: 2, MovieId: 2, Rating: 1},
		{UserId: 2, MovieId: 3, Rating: 3},
	})
	suite.NoError(err)
	metric, _ := similarity.New(similarity.Cosine)
	r, err = NewRecommender(store, nil, metric, WithStrategy(StrategyBestNeighbor))
	suite.NoError(err)
	recommendations, err = r.Recommend(context.Background(), Request{UserId: 1, NumNeighbors: 1, NumResults: 10})
	suite.NoError(err)
	suite.Equal([]int{3, 2}, movieIds(recommendations))
	suite.Equal(1.0, recommendations[1].Score)
}

func (suite *RecommenderTestSuite) TestInvalid() {
	metric, _ := similarity.New(similarity.Cosine)
	_, err := NewRecommender(suite.store, suite.catalog, metric, WithStrategy("random"))
	suite.True(errors.Is(err, errors.NotValid))

	r := suite.newRecommender(similarity.Cosine)
	_, err = r.Recommend(context.Background(), Request{UserId: 1, NumNeighbors: 0, NumResults: 10})
	suite.True(errors.Is(err, errors.NotValid))
	_, err = r.Recommend(context.Background(), Request{UserId: 1, NumNeighbors: 10, NumResults: -1})
	suite.True(errors.Is(err, errors.NotValid))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Recommend(ctx, Request{UserId: 1, NumNeighbors: 10, NumResults: 10})
	suite.ErrorIs(err, context.Canceled)
}

func (suite *RecommenderTestSuite) TestUnknownNeighbor() {
	r := suite.newRecommender(similarity.Pearson)
	target, err := suite.store.Profile(1)
	suite.Require().NoError(err)
	// neighbors taken from another store may be missing from this one
	neighbors := []Neighbor{{UserId: 3, Similarity: 0.9}, {UserId: 999, Similarity: 0.5}}
	candidates, err := r.union(target, neighbors)
	suite.True(errors.Is(err, errors.NotFound))
	suite.Nil(candidates)
	candidates, err = r.bestNeighbor(target, neighbors[1])
	suite.True(errors.Is(err, errors.NotFound))
	suite.Nil(candidates)

	candidates, err = r.union(target, neighbors[:1])
	suite.NoError(err)
	suite.Equal([]int{7, 4}, movieIds(candidates))
	candidates, err = r.bestNeighbor(target, neighbors[0])
	suite.NoError(err)
	suite.Equal([]int{7, 4}, movieIds(candidates))
}

func (suite *RecommenderTestSuite) TestInsufficientData() {
	r := suite.newRecommender(similarity.Cosine)
	recommendations, err := r.Recommend(context.Background(), Request{UserId: 100, NumNeighbors: 3, NumResults: 3})
	suite.True(errors.Is(err, base.ErrInsufficientData))
	suite.Nil(recommendations)
	_, err = r.Recommend(context.Background(), Request{UserId: 4, NumNeighbors: 3, NumResults: 3})
	suite.True(errors.Is(err, base.ErrInsufficientData))

	// a single user has no neighbor
	store, err := dataset.NewRatingStore([]dataset.Rating{{UserId: 1, MovieId: 1, Rating: 5}})
	suite.NoError(err)
	metric, _ := similarity.New(similarity.Cosine)
	single, err := NewRecommender(store, nil, metric)
	suite.NoError(err)
	recommendations, err = single.Recommend(context.Background(), Request{UserId: 1, NumNeighbors: 3, NumResults: 3})
	suite.NoError(err)
	suite.NotNil(recommendations)
	suite.Empty(recommendations)
}

func (suite *RecommenderTestSuite) TestInvariants() {
	for _, name := range similarity.Names {
		for _, strategy := range []Strategy{StrategyUnion, StrategyBestNeighbor} {
			r := suite.newRecommender(name, WithStrategy(strategy))
			for _, userId := range []int{1, 2, 3, 5} {
				rated, err := suite.store.RatingsForUser(userId)
				suite.NoError(err)
				for k := 1; k <= 4; k++ {
					all, err := r.Recommend(context.Background(), Request{UserId: userId, NumNeighbors: k, NumResults: 1000})
					suite.NoError(err)
					for n := 1; n <= 5; n++ {
						recommendations, err := r.Recommend(context.Background(), Request{UserId: userId, NumNeighbors: k, NumResults: n})
						suite.NoError(err)
						suite.Len(recommendations, min(n, len(all)))
						suite.Equal(all[:len(recommendations)], recommendations)
						for _, recommendation := range recommendations {
							suite.NotContains(rated, recommendation.MovieId)
						}
					}
				}
			}
		}
	}
}

func (suite *RecommenderTestSuite) TestStableUnderReordering() {
	shuffled := make([]dataset.Rating, len(testRatings))
	copy(shuffled, testRatings)
	rng := rand.New(rand.NewSource(42))
	for _, name := range similarity.Names {
		for _, strategy := range []Strategy{StrategyUnion, StrategyBestNeighbor} {
			expected := suite.newRecommender(name, WithStrategy(strategy))
			for round := 0; round < 5; round++ {
				rng.Shuffle(len(shuffled), func(i, j int) {
					shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
				})
				store, err := dataset.NewRatingStore(shuffled)
				suite.NoError(err)
				metric, _ := similarity.New(name)
				actual, err := NewRecommender(store, suite.catalog, metric, WithStrategy(strategy))
				suite.NoError(err)
				for _, userId := range []int{1, 2, 3, 5} {
					req := Request{UserId: userId, NumNeighbors: 2, NumResults: 10}
					a, err := expected.Recommend(context.Background(), req)
					suite.NoError(err)
					b, err := actual.Recommend(context.Background(), req)
					suite.NoError(err)
					suite.Equal(a, b)
				}
			}
		}
	}
}

func (suite *RecommenderTestSuite) TestRecommendAll() {
	metric, _ := similarity.New(similarity.Pearson)
	r, err := NewRecommender(suite.store, suite.catalog, similarity.NewCached(metric, 100))
	suite.NoError(err)
	var progress atomic.Int32
	userIds := []int{1, 2, 3, 4, 5, 100}
	results, err := r.RecommendAll(context.Background(), userIds, 2, 3, 3, func() {
		progress.Add(1)
	})
	suite.NoError(err)
	suite.Len(results, len(userIds))
	suite.Equal(int32(len(userIds)), progress.Load())
	for i, userId := range userIds {
		if userId == 4 || userId == 100 {
			suite.Empty(results[i])
			continue
		}
		expected, err := r.Recommend(context.Background(), Request{UserId: userId, NumNeighbors: 2, NumResults: 3})
		suite.NoError(err)
		suite.Equal(expected, results[i])
	}

	_, err = r.RecommendAll(context.Background(), userIds, 0, 3, 3, nil)
	suite.True(errors.Is(err, errors.NotValid))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.RecommendAll(ctx, userIds, 2, 3, 3, nil)
	suite.ErrorIs(err, context.Canceled)
}

func TestRecommender(t *testing.T) {
	suite.Run(t, new(RecommenderTestSuite))
}
