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
	"strconv"
	"strings"

	"github.com/gorse-io/gorse-knn/dataset"
	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newSearchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <title>",
		Short: "Search movies by fuzzy title",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := loadConfig(cmd.Flags())
			if err != nil {
				return errors.Trace(err)
			}
			catalog, _, err := loadDataset(conf)
			if err != nil {
				return errors.Trace(err)
			}
			minRatio, _ := cmd.Flags().GetInt("min-ratio")
			limit, _ := cmd.Flags().GetInt("limit")
			query := strings.Join(args, " ")
			matches := catalog.Search(query, minRatio, limit)
			if len(matches) == 0 {
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "no movie matches %q\n", query)
				return errors.Trace(err)
			}
			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header("Movie ID", "Title", "Ratio")
			for _, match := range matches {
				if err = table.Append([]string{
					strconv.Itoa(match.Movie.MovieId),
					match.Movie.Title,
					strconv.Itoa(match.Ratio),
				}); err != nil {
					return errors.Trace(err)
				}
			}
			return errors.Trace(table.Render())
		},
	}
	cmd.Flags().Int("min-ratio", dataset.DefaultMinRatio, "minimum similarity ratio between 0 and 100")
	cmd.Flags().Int("limit", 10, "maximum number of matches")
	return cmd
}
