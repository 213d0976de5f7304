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

	"github.com/gorse-io/gorse-knn/base/log"
	"github.com/gorse-io/gorse-knn/cmd/version"
	"github.com/gorse-io/gorse-knn/config"
	"github.com/gorse-io/gorse-knn/dataset"
	"github.com/gorse-io/gorse-knn/similarity"
	"github.com/juju/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "gorse-knn",
		Short:         "Movie recommendation by user-based collaborative filtering.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			debug, _ := cmd.Flags().GetBool("debug")
			log.SetLogger(cmd.Flags(), debug)
		},
	}
	log.AddFlags(root.PersistentFlags())
	root.PersistentFlags().Bool("debug", false, "use debug log mode")
	root.PersistentFlags().StringP("config", "c", "", "configuration file path")
	root.PersistentFlags().String("ratings", "", "ratings file (userId,movieId,rating)")
	root.PersistentFlags().String("movies", "", "movies file (movieId,title,genres)")
	root.PersistentFlags().String("sqlite", "", "SQLite database with movies and ratings")
	root.PersistentFlags().String("metric", "", "similarity metric (pearson, cosine or manhattan)")
	root.PersistentFlags().String("mean-scope", "", "ratings averaged by pearson correlation (full or common)")
	root.PersistentFlags().Int("min-movie-ratings", 0, "drop movies with fewer ratings")
	root.PersistentFlags().Int("min-user-ratings", 0, "drop users with fewer ratings")
	root.AddCommand(
		newRecommendCommand(),
		newNeighborsCommand(),
		newBatchCommand(),
		newSearchCommand(),
		newVersionCommand(),
	)
	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the version of gorse-knn",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprint(cmd.OutOrStdout(), version.BuildInfo())
		},
	}
}

// loadConfig loads the configuration file and applies command line flags on top of it.
func loadConfig(flags *pflag.FlagSet) (*config.Config, error) {
	configPath, _ := flags.GetString("config")
	conf, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, errors.Trace(err)
	}
	overrideString := func(name string, value *string) {
		if flags.Changed(name) {
			*value, _ = flags.GetString(name)
		}
	}
	overrideInt := func(name string, value *int) {
		if flags.Changed(name) {
			*value, _ = flags.GetInt(name)
		}
	}
	overrideString("ratings", &conf.Dataset.Ratings)
	overrideString("movies", &conf.Dataset.Movies)
	overrideString("sqlite", &conf.Dataset.SQLite)
	overrideString("metric", &conf.Similarity.Metric)
	overrideString("mean-scope", &conf.Similarity.MeanScope)
	overrideInt("min-movie-ratings", &conf.Filter.MinMovieRatings)
	overrideInt("min-user-ratings", &conf.Filter.MinUserRatings)
	overrideString("strategy", &conf.Recommend.Strategy)
	overrideInt("neighbors", &conf.Recommend.NumNeighbors)
	overrideInt("n", &conf.Recommend.NumResults)
	overrideInt("jobs", &conf.Batch.Jobs)
	if flags.Changed("min-rating") {
		conf.Recommend.MinRating, _ = flags.GetFloat64("min-rating")
	}
	if flags.Changed("users") {
		conf.Batch.Users, _ = flags.GetIntSlice("users")
	}
	if err = conf.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return conf, nil
}

// loadDataset loads movies and ratings from SQLite if configured, otherwise from CSV
// files, and drops sparse movies and users.
func loadDataset(conf *config.Config) (*dataset.Catalog, *dataset.RatingStore, error) {
	var (
		catalog *dataset.Catalog
		store   *dataset.RatingStore
		err     error
	)
	if conf.Dataset.SQLite != "" {
		log.Logger().Info("load dataset", zap.String("sqlite", conf.Dataset.SQLite))
		catalog, store, err = dataset.LoadSQLite(conf.Dataset.SQLite)
	} else {
		log.Logger().Info("load dataset",
			zap.String("ratings", conf.Dataset.Ratings),
			zap.String("movies", conf.Dataset.Movies))
		catalog, store, err = dataset.LoadCSV(conf.Dataset.Movies, conf.Dataset.Ratings)
	}
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	filtered, err := store.Filter(conf.Filter.MinMovieRatings, conf.Filter.MinUserRatings)
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	if filtered != store {
		log.Logger().Info("filter dataset",
			zap.Int("min_movie_ratings", conf.Filter.MinMovieRatings),
			zap.Int("min_user_ratings", conf.Filter.MinUserRatings),
			zap.Int("n_users", filtered.CountUsers()),
			zap.Int("n_movies", filtered.CountMovies()),
			zap.Int("n_ratings", filtered.CountRatings()))
	}
	return catalog, filtered, nil
}

func newMetric(conf *config.Config) (similarity.Metric, error) {
	metric, err := similarity.New(conf.Similarity.Metric,
		similarity.WithMeanScope(similarity.MeanScope(conf.Similarity.MeanScope)))
	if err != nil {
		return nil, errors.Trace(err)
	}
	return metric, nil
}

func parseUserId(arg string) (int, error) {
	userId, err := strconv.Atoi(arg)
	if err != nil {
		return 0, errors.NewNotValid(err, fmt.Sprintf("invalid user id %q", arg))
	}
	return userId, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 4, 64)
}

func main() {
	defer log.CloseLogger()
	if err := newRootCommand().Execute(); err != nil {
		log.Logger().Fatal("failed to execute", zap.Error(err))
	}
}
