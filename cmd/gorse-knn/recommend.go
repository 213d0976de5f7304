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

package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gorse-io/gorse-knn/config"
	"github.com/gorse-io/gorse-knn/dataset"
	"github.com/gorse-io/gorse-knn/logics"
	"github.com/gorse-io/gorse-knn/similarity"
	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func newRecommendCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recommend <user>",
		Short: "Recommend movies for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userId, err := parseUserId(args[0])
			if err != nil {
				return errors.Trace(err)
			}
			conf, err := loadConfig(cmd.Flags())
			if err != nil {
				return errors.Trace(err)
			}
			catalog, store, err := loadDataset(conf)
			if err != nil {
				return errors.Trace(err)
			}
			metric, err := newMetric(conf)
			if err != nil {
				return errors.Trace(err)
			}
			recommender, err := newRecommender(conf, catalog, store, metric)
			if err != nil {
				return errors.Trace(err)
			}
			recommendations, err := recommender.Recommend(cmd.Context(), logics.Request{
				UserId:       userId,
				NumNeighbors: conf.Recommend.NumNeighbors,
				NumResults:   conf.Recommend.NumResults,
			})
			if err != nil {
				return errors.Trace(err)
			}
			return printRecommendations(cmd.OutOrStdout(), userId, recommendations)
		},
	}
	addRecommendFlags(cmd)
	return cmd
}

func addRecommendFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("neighbors", "k", 0, "number of neighbors")
	cmd.Flags().Int("n", 0, "number of recommended movies")
	cmd.Flags().String("strategy", "", "candidate strategy (union or best-neighbor)")
	cmd.Flags().Float64("min-rating", 0, "minimum rating of a liked movie in the union strategy")
}

func newRecommender(conf *config.Config, catalog *dataset.Catalog, store *dataset.RatingStore, metric similarity.Metric) (*logics.Recommender, error) {
	return logics.NewRecommender(store, catalog, metric,
		logics.WithStrategy(logics.Strategy(conf.Recommend.Strategy)),
		logics.WithMinRating(conf.Recommend.MinRating))
}

func printRecommendations(w io.Writer, userId int, recommendations []logics.Recommendation) error {
	if len(recommendations) == 0 {
		_, err := fmt.Fprintf(w, "no recommendation for user %d\n", userId)
		return errors.Trace(err)
	}
	table := tablewriter.NewWriter(w)
	table.Header("Rank", "Movie ID", "Title", "Genres", "Score", "Support")
	for i, recommendation := range recommendations {
		var title, genres string
		if recommendation.Movie != nil {
			title = recommendation.Movie.Title
			genres = strings.Join(recommendation.Movie.Genres, "|")
		}
		if err := table.Append([]string{
			strconv.Itoa(i + 1),
			strconv.Itoa(recommendation.MovieId),
			title,
			genres,
			formatFloat(recommendation.Score),
			strconv.Itoa(recommendation.Support),
		}); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(table.Render())
}

func formatMovieIds(recommendations []logics.Recommendation) string {
	return strings.Join(lo.Map(recommendations, func(r logics.Recommendation, _ int) string {
		return strconv.Itoa(r.MovieId)
	}), ",")
}
