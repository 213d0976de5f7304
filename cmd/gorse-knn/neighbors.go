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

	"github.com/gorse-io/gorse-knn/logics"
	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newNeighborsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "neighbors <user>",
		Short: "Find users similar to a user",
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
			_, store, err := loadDataset(conf)
			if err != nil {
				return errors.Trace(err)
			}
			metric, err := newMetric(conf)
			if err != nil {
				return errors.Trace(err)
			}
			userToUser := logics.NewUserToUser(store, metric)
			var neighbors []logics.Neighbor
			if least, _ := cmd.Flags().GetBool("least"); least {
				neighbor, err := userToUser.LeastSimilarUser(userId)
				if err != nil {
					return errors.Trace(err)
				}
				neighbors = []logics.Neighbor{neighbor}
			} else {
				neighbors, err = userToUser.KNearestUsers(userId, conf.Recommend.NumNeighbors)
				if err != nil {
					return errors.Trace(err)
				}
			}
			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header("Rank", "User ID", "Similarity")
			for i, neighbor := range neighbors {
				if err = table.Append([]string{
					strconv.Itoa(i + 1),
					strconv.Itoa(neighbor.UserId),
					formatFloat(neighbor.Similarity),
				}); err != nil {
					return errors.Trace(err)
				}
			}
			return errors.Trace(table.Render())
		},
	}
	cmd.Flags().IntP("neighbors", "k", 0, "number of neighbors")
	cmd.Flags().Bool("least", false, "show the least similar user instead")
	return cmd
}
