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

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gorse-io/gorse-knn/base"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"
)

// Rating is a rating given by a user to a movie.
type Rating struct {
	UserId  int
	MovieId int
	Rating  float64
}

// Movie is a catalog entry.
type Movie struct {
	MovieId int
	Title   string
	Genres  []string
}

// Profile is the rating vector of a user. Movie ids are sorted in ascending order.
type Profile struct {
	UserId   int
	MovieIds []int
	Ratings  []float64
	mean     float64
}

func newProfile(userId int, ratings []Rating) *Profile {
	sort.Slice(ratings, func(i, j int) bool {
		return ratings[i].MovieId < ratings[j].MovieId
	})
	p := &Profile{
		UserId:   userId,
		MovieIds: make([]int, len(ratings)),
		Ratings:  make([]float64, len(ratings)),
	}
	for i, r := range ratings {
		p.MovieIds[i] = r.MovieId
		p.Ratings[i] = r.Rating
	}
	if len(p.Ratings) > 0 {
		p.mean = stat.Mean(p.Ratings, nil)
	}
	return p
}

// Len returns the number of rated movies.
func (p *Profile) Len() int {
	return len(p.MovieIds)
}

// Mean returns the mean rating over the full profile.
func (p *Profile) Mean() float64 {
	return p.mean
}

// Rating returns the rating of a movie.
func (p *Profile) Rating(movieId int) (float64, bool) {
	i := sort.SearchInts(p.MovieIds, movieId)
	if i < len(p.MovieIds) && p.MovieIds[i] == movieId {
		return p.Ratings[i], true
	}
	return 0, false
}

// Contains returns true if the movie was rated.
func (p *Profile) Contains(movieId int) bool {
	_, ok := p.Rating(movieId)
	return ok
}

// ToMap converts the profile to a movie id to rating mapping.
func (p *Profile) ToMap() map[int]float64 {
	m := make(map[int]float64, len(p.MovieIds))
	for i, movieId := range p.MovieIds {
		m[movieId] = p.Ratings[i]
	}
	return m
}

// ForIntersection iterates common movies of two profiles in ascending order of movie
// ids. Both profiles are sorted, so common movies are found in linear time.
func (p *Profile) ForIntersection(other *Profile, f func(movieId int, a, b float64)) {
	i, j := 0, 0
	for i < len(p.MovieIds) && j < len(other.MovieIds) {
		if p.MovieIds[i] == other.MovieIds[j] {
			f(p.MovieIds[i], p.Ratings[i], other.Ratings[j])
			i++
			j++
		} else if p.MovieIds[i] < other.MovieIds[j] {
			i++
		} else {
			j++
		}
	}
}

// CountIntersection returns the number of common movies.
func (p *Profile) CountIntersection(other *Profile) int {
	count := 0
	p.ForIntersection(other, func(int, float64, float64) {
		count++
	})
	return count
}

// RatingStore indexes ratings by user. It is immutable after creation and safe for
// concurrent reads.
type RatingStore struct {
	profiles    map[int]*Profile
	userIds     []int
	movieCounts map[int]int
	numRatings  int
}

// NewRatingStore groups ratings by user. Ratings must be finite and each (user, movie)
// pair must appear at most once, otherwise ErrDataLoad is returned.
func NewRatingStore(ratings []Rating) (*RatingStore, error) {
	grouped := make(map[int][]Rating)
	movieCounts := make(map[int]int)
	seen := mapset.NewThreadUnsafeSetWithSize[[2]int](len(ratings))
	for _, r := range ratings {
		if math.IsNaN(r.Rating) || math.IsInf(r.Rating, 0) {
			return nil, base.DataLoadf("rating of user %d for movie %d is not finite", r.UserId, r.MovieId)
		}
		key := [2]int{r.UserId, r.MovieId}
		if !seen.Add(key) {
			return nil, base.DataLoadf("duplicate rating of user %d for movie %d", r.UserId, r.MovieId)
		}
		grouped[r.UserId] = append(grouped[r.UserId], r)
		movieCounts[r.MovieId]++
	}
	store := &RatingStore{
		profiles:    make(map[int]*Profile, len(grouped)),
		userIds:     lo.Keys(grouped),
		movieCounts: movieCounts,
		numRatings:  len(ratings),
	}
	sort.Ints(store.userIds)
	for userId, userRatings := range grouped {
		store.profiles[userId] = newProfile(userId, userRatings)
	}
	return store, nil
}

// RatingsForUser returns the ratings of a user as a fresh mapping. Users without any
// rating are unknown to the store and fail with a NotFound error.
func (s *RatingStore) RatingsForUser(userId int) (map[int]float64, error) {
	p, err := s.Profile(userId)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return p.ToMap(), nil
}

// Profile returns the indexed ratings of a user, or a NotFound error.
func (s *RatingStore) Profile(userId int) (*Profile, error) {
	p, ok := s.profiles[userId]
	if !ok {
		return nil, errors.NotFoundf("ratings of user %d", userId)
	}
	return p, nil
}

// AllUserIds returns ids of users with at least one rating in ascending order.
func (s *RatingStore) AllUserIds() []int {
	ids := make([]int, len(s.userIds))
	copy(ids, s.userIds)
	return ids
}

// MovieIds returns ids of rated movies in ascending order.
func (s *RatingStore) MovieIds() []int {
	ids := lo.Keys(s.movieCounts)
	sort.Ints(ids)
	return ids
}

// CountMovieRatings returns the number of ratings a movie received.
func (s *RatingStore) CountMovieRatings(movieId int) int {
	return s.movieCounts[movieId]
}

func (s *RatingStore) CountUsers() int {
	return len(s.userIds)
}

func (s *RatingStore) CountMovies() int {
	return len(s.movieCounts)
}

func (s *RatingStore) CountRatings() int {
	return s.numRatings
}

// Ratings returns all ratings ordered by user id then movie id.
func (s *RatingStore) Ratings() []Rating {
	ratings := make([]Rating, 0, s.numRatings)
	for _, userId := range s.userIds {
		p := s.profiles[userId]
		for i, movieId := range p.MovieIds {
			ratings = append(ratings, Rating{UserId: userId, MovieId: movieId, Rating: p.Ratings[i]})
		}
	}
	return ratings
}

// Filter keeps ratings of movies rated at least minMovieRatings times and of users who
// rated at least minUserRatings movies. Both counts are taken before filtering.
func (s *RatingStore) Filter(minMovieRatings, minUserRatings int) (*RatingStore, error) {
	if minMovieRatings <= 1 && minUserRatings <= 1 {
		return s, nil
	}
	ratings := lo.Filter(s.Ratings(), func(r Rating, _ int) bool {
		return s.movieCounts[r.MovieId] >= minMovieRatings &&
			s.profiles[r.UserId].Len() >= minUserRatings
	})
	filtered, err := NewRatingStore(ratings)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return filtered, nil
}

// Catalog is the movie reference data.
type Catalog struct {
	movies map[int]*Movie
	ids    []int
}

// NewCatalog indexes movies by id. Duplicate ids fail with ErrDataLoad.
func NewCatalog(movies []Movie) (*Catalog, error) {
	c := &Catalog{movies: make(map[int]*Movie, len(movies))}
	for i := range movies {
		m := movies[i]
		if _, exist := c.movies[m.MovieId]; exist {
			return nil, base.DataLoadf("duplicate movie %d", m.MovieId)
		}
		c.movies[m.MovieId] = &m
		c.ids = append(c.ids, m.MovieId)
	}
	sort.Ints(c.ids)
	return c, nil
}

// Movie returns a movie by id.
func (c *Catalog) Movie(movieId int) (*Movie, bool) {
	if c == nil {
		return nil, false
	}
	m, ok := c.movies[movieId]
	return m, ok
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.ids)
}
