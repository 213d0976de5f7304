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
	"strconv"

	"github.com/gorse-io/gorse-knn/similarity"
	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func newBatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Recommend movies for many users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
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
			if conf.Similarity.CacheSize > 0 {
				metric = similarity.NewCached(metric, uint64(conf.Similarity.CacheSize))
			}
			recommender, err := newRecommender(conf, catalog, store, metric)
			if err != nil {
				return errors.Trace(err)
			}
			userIds := conf.Batch.Users
			if len(userIds) == 0 {
				userIds = store.AllUserIds()
			}

			bar := progressbar.NewOptions(len(userIds),
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionSetDescription("Recommending"),
				progressbar.OptionShowCount())
			results, err := recommender.RecommendAll(cmd.Context(), userIds,
				conf.Recommend.NumNeighbors, conf.Recommend.NumResults, conf.Batch.Jobs,
				func() { _ = bar.Add(1) })
			if err != nil {
				return errors.Trace(err)
			}
			_ = bar.Finish()

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header("User ID", "Movie IDs")
			for i, userId := range userIds {
				if err = table.Append([]string{strconv.Itoa(userId), formatMovieIds(results[i])}); err != nil {
					return errors.Trace(err)
				}
			}
			return errors.Trace(table.Render())
		},
	}
	addRecommendFlags(cmd)
	cmd.Flags().IntSlice("users", nil, "users to recommend for (default all users)")
	cmd.Flags().Int("jobs", 0, "number of concurrent jobs")
	return cmd
}
