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
	"github.com/gorse-io/gorse-knn/dataset"
	"github.com/jellydator/ttlcache/v3"
)

type pair struct {
	a, b int
}

// Cached memorizes similarities of user pairs. Profiles are immutable, so entries
// never expire; an entry is evicted only when the cache is full. (a, b) and (b, a)
// share an entry, which is computed with the smaller user id first.
type Cached struct {
	Metric
	cache *ttlcache.Cache[pair, float64]
}

// NewCached wraps a metric with a cache of at most capacity pairs.
func NewCached(metric Metric, capacity uint64) *Cached {
	return &Cached{
		Metric: metric,
		cache: ttlcache.New[pair, float64](
			ttlcache.WithCapacity[pair, float64](capacity),
		),
	}
}

func (c *Cached) Similarity(a, b *dataset.Profile) float64 {
	if a.UserId > b.UserId {
		a, b = b, a
	}
	key := pair{a: a.UserId, b: b.UserId}
	if item := c.cache.Get(key); item != nil {
		return item.Value()
	}
	value := c.Metric.Similarity(a, b)
	c.cache.Set(key, value, ttlcache.NoTTL)
	return value
}

// Len returns the number of cached pairs.
func (c *Cached) Len() int {
	return c.cache.Len()
}
