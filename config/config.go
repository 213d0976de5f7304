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

package config

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

const envPrefix = "GORSE_KNN"

// Config is the configuration for the recommender.
type Config struct {
	Dataset    DatasetConfig    `mapstructure:"dataset"`
	Similarity SimilarityConfig `mapstructure:"similarity"`
	Recommend  RecommendConfig  `mapstructure:"recommend"`
	Filter     FilterConfig     `mapstructure:"filter"`
	Batch      BatchConfig      `mapstructure:"batch"`
}

// DatasetConfig locates the input data. SQLite takes precedence over CSV files.
type DatasetConfig struct {
	Ratings string `mapstructure:"ratings" validate:"required_without=SQLite"`
	Movies  string `mapstructure:"movies"`
	SQLite  string `mapstructure:"sqlite"`
}

type SimilarityConfig struct {
	Metric    string `mapstructure:"metric" validate:"oneof=pearson cosine manhattan"`
	MeanScope string `mapstructure:"mean_scope" validate:"oneof=full common"`
	CacheSize int    `mapstructure:"cache_size" validate:"gte=0"`
}

type RecommendConfig struct {
	Strategy     string  `mapstructure:"strategy" validate:"oneof=union best-neighbor"`
	MinRating    float64 `mapstructure:"min_rating" validate:"gte=0"`
	NumNeighbors int     `mapstructure:"num_neighbors" validate:"gt=0"`
	NumResults   int     `mapstructure:"num_results" validate:"gt=0"`
}

// FilterConfig drops sparse movies and users before recommendation. Values not greater
// than 1 keep everything.
type FilterConfig struct {
	MinMovieRatings int `mapstructure:"min_movie_ratings" validate:"gte=0"`
	MinUserRatings  int `mapstructure:"min_user_ratings" validate:"gte=0"`
}

type BatchConfig struct {
	Jobs  int   `mapstructure:"jobs" validate:"gt=0"`
	Users []int `mapstructure:"users"`
}

func GetDefaultConfig() *Config {
	return &Config{
		Dataset: DatasetConfig{
			Ratings: "ratings.csv",
			Movies:  "",
		},
		Similarity: SimilarityConfig{
			Metric:    "pearson",
			MeanScope: "full",
			CacheSize: 0,
		},
		Recommend: RecommendConfig{
			Strategy:     "union",
			MinRating:    4,
			NumNeighbors: 10,
			NumResults:   10,
		},
		Batch: BatchConfig{
			Jobs:  1,
			Users: []int{},
		},
	}
}

func setDefault(v *viper.Viper) {
	defaultConfig := GetDefaultConfig()
	// [dataset]
	v.SetDefault("dataset.ratings", defaultConfig.Dataset.Ratings)
	v.SetDefault("dataset.movies", defaultConfig.Dataset.Movies)
	v.SetDefault("dataset.sqlite", defaultConfig.Dataset.SQLite)
	// [similarity]
	v.SetDefault("similarity.metric", defaultConfig.Similarity.Metric)
	v.SetDefault("similarity.mean_scope", defaultConfig.Similarity.MeanScope)
	v.SetDefault("similarity.cache_size", defaultConfig.Similarity.CacheSize)
	// [recommend]
	v.SetDefault("recommend.strategy", defaultConfig.Recommend.Strategy)
	v.SetDefault("recommend.min_rating", defaultConfig.Recommend.MinRating)
	v.SetDefault("recommend.num_neighbors", defaultConfig.Recommend.NumNeighbors)
	v.SetDefault("recommend.num_results", defaultConfig.Recommend.NumResults)
	// [filter]
	v.SetDefault("filter.min_movie_ratings", defaultConfig.Filter.MinMovieRatings)
	v.SetDefault("filter.min_user_ratings", defaultConfig.Filter.MinUserRatings)
	// [batch]
	v.SetDefault("batch.jobs", defaultConfig.Batch.Jobs)
	v.SetDefault("batch.users", defaultConfig.Batch.Users)
}

// LoadConfig loads configuration from a TOML file. Environment variables such as
// GORSE_KNN_SIMILARITY_METRIC override values in the file. An empty path loads
// defaults and environment variables only.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefault(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Annotatef(err, "failed to read config %s", path)
		}
	}
	var config Config
	if err := v.Unmarshal(&config, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		stringToIntSliceHookFunc(","),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, errors.Trace(err)
	}
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &config, nil
}

// stringToIntSliceHookFunc splits a string such as "1,2,3" from environment variables
// into elements of an int slice.
func stringToIntSliceHookFunc(sep string) mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String || t != reflect.TypeOf([]int{}) {
			return data, nil
		}
		raw := strings.TrimSpace(data.(string))
		if raw == "" {
			return []int{}, nil
		}
		return lo.Map(strings.Split(raw, sep), func(s string, _ int) string {
			return strings.TrimSpace(s)
		}), nil
	}
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks the configuration and returns a NotValid error listing every invalid
// field.
func (config *Config) Validate() error {
	err := getValidator().Struct(config)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return errors.Trace(err)
	}
	messages := make([]string, 0, len(validationErrors))
	for _, fieldError := range validationErrors {
		messages = append(messages, fmt.Sprintf("value of `%s` in config does not satisfy `%s`, but the current value is %v",
			fieldError.Namespace(), fieldError.ActualTag(), fieldError.Value()))
	}
	return errors.NewNotValid(nil, strings.Join(messages, "; "))
}
