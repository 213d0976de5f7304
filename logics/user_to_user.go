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
	"github.com/gorse-io/gorse-knn/base"
	"github.com/gorse-io/gorse-knn/common/heap"
	"github.com/gorse-io/gorse-knn/dataset"
	"github.com/gorse-io/gorse-knn/similarity"
	"github.com/juju/errors"
	"github.com/samber/lo"
)

// Neighbor is a user similar to a target user.
type Neighbor struct {
	UserId     int
	Similarity float64
}

// UserToUser finds similar users by comparing the target user with every other user.
type UserToUser struct {
	store  *dataset.RatingStore
	metric similarity.Metric
}

func NewUserToUser(store *dataset.RatingStore, metric similarity.Metric) *UserToUser {
	return &UserToUser{store: store, metric: metric}
}

func (u *UserToUser) target(userId int) (*dataset.Profile, error) {
	target, err := u.store.Profile(userId)
	if errors.Is(err, errors.NotFound) {
		return nil, base.InsufficientDataf("user %d has no ratings", userId)
	} else if err != nil {
		return nil, errors.Trace(err)
	}
	return target, nil
}

// forEachOther calls f with the profile of every other user in ascending order of user
// ids. It returns the number of other users and whether any of them shares a movie with
// the target.
func (u *UserToUser) forEachOther(target *dataset.Profile, f func(*dataset.Profile)) (int, bool, error) {
	count, overlapped := 0, false
	for _, userId := range u.store.AllUserIds() {
		if userId == target.UserId {
			continue
		}
		other, err := u.store.Profile(userId)
		if err != nil {
			return 0, false, errors.Trace(err)
		}
		count++
		if !overlapped && target.CountIntersection(other) > 0 {
			overlapped = true
		}
		f(other)
	}
	return count, overlapped, nil
}

// KNearestUsers returns at most k users most similar to the target user, sorted by
// similarity in descending order. Equal similarities keep ascending order of user ids.
//
// It fails with ErrInsufficientData if the target user has no ratings, or if other users
// exist but none of them rated a movie the target user rated. Without other users the
// result is empty.
func (u *UserToUser) KNearestUsers(userId, k int) ([]Neighbor, error) {
	if err := base.ValidatePositive("k", k); err != nil {
		return nil, errors.Trace(err)
	}
	target, err := u.target(userId)
	if err != nil {
		return nil, errors.Trace(err)
	}
	filter := heap.NewTopKFilter[int, float64](k)
	count, overlapped, err := u.forEachOther(target, func(other *dataset.Profile) {
		filter.Push(other.UserId, u.metric.Similarity(target, other))
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	if count == 0 {
		return []Neighbor{}, nil
	}
	if !overlapped {
		return nil, base.InsufficientDataf("user %d shares no rated movie with other users", userId)
	}
	return lo.Map(filter.PopAll(), func(e heap.Elem[int, float64], _ int) Neighbor {
		return Neighbor{UserId: e.Value, Similarity: e.Weight}
	}), nil
}

// LeastSimilarUser returns the user least similar to the target user. The first user
// in ascending order of ids wins ties. It fails with NotFound if there is no other user.
func (u *UserToUser) LeastSimilarUser(userId int) (Neighbor, error) {
	target, err := u.target(userId)
	if err != nil {
		return Neighbor{}, errors.Trace(err)
	}
	var least *Neighbor
	count, _, err := u.forEachOther(target, func(other *dataset.Profile) {
		score := u.metric.Similarity(target, other)
		if least == nil || score < least.Similarity {
			least = &Neighbor{UserId: other.UserId, Similarity: score}
		}
	})
	if err != nil {
		return Neighbor{}, errors.Trace(err)
	}
	if count == 0 {
		return Neighbor{}, errors.NotFoundf("other users than %d", userId)
	}
	return *least, nil
}
