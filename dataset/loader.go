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
	"database/sql"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/gorse-io/gorse-knn/base"
	"github.com/gorse-io/gorse-knn/base/log"
	"github.com/juju/errors"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const noGenres = "(no genres listed)"

// LoadMovies reads a movie catalog in csv format with columns movieId, title and
// optionally genres.
func LoadMovies(r io.Reader) ([]Movie, error) {
	var (
		movies  []Movie
		columns []int
		genres  = -1
		err     error
	)
	readErr := ReadLines(r, ',', func(line int, fields []string) bool {
		if line == 0 {
			h := newHeader(fields)
			if columns, err = h.require("movieId", "title"); err != nil {
				return false
			}
			genres = h.optional("genres")
			return true
		}
		if len(fields) == 1 && strings.TrimSpace(fields[0]) == "" {
			return true
		}
		var movie Movie
		if movie, err = parseMovie(fields, columns, genres); err != nil {
			err = errors.Annotatef(err, "line %d", line+1)
			return false
		}
		movies = append(movies, movie)
		return true
	})
	if readErr != nil {
		return nil, errors.Trace(readErr)
	}
	if err != nil {
		return nil, errors.Trace(err)
	}
	if columns == nil {
		return nil, base.DataLoadf("header is missing")
	}
	return movies, nil
}

func parseMovie(fields []string, columns []int, genres int) (Movie, error) {
	if len(fields) <= max(columns[0], columns[1], genres) {
		return Movie{}, base.DataLoadf("expect at least %d fields, but got %d",
			max(columns[0], columns[1], genres)+1, len(fields))
	}
	movieId, err := strconv.Atoi(strings.TrimSpace(fields[columns[0]]))
	if err != nil {
		return Movie{}, base.AnnotateDataLoad(err, "invalid movie id")
	}
	return Movie{
		MovieId: movieId,
		Title:   strings.TrimSpace(fields[columns[1]]),
		Genres:  splitGenres(fields, genres),
	}, nil
}

func splitGenres(fields []string, genres int) []string {
	if genres < 0 {
		return nil
	}
	text := strings.TrimSpace(fields[genres])
	if text == "" || text == noGenres {
		return nil
	}
	return strings.Split(text, "|")
}

// LoadRatings reads a ratings log in csv format with columns userId, movieId, rating
// and optionally timestamp (ignored).
func LoadRatings(r io.Reader) ([]Rating, error) {
	var (
		ratings []Rating
		columns []int
		err     error
	)
	readErr := ReadLines(r, ',', func(line int, fields []string) bool {
		if line == 0 {
			if columns, err = newHeader(fields).require("userId", "movieId", "rating"); err != nil {
				return false
			}
			return true
		}
		if len(fields) == 1 && strings.TrimSpace(fields[0]) == "" {
			return true
		}
		var rating Rating
		if rating, err = parseRating(fields, columns); err != nil {
			err = errors.Annotatef(err, "line %d", line+1)
			return false
		}
		ratings = append(ratings, rating)
		return true
	})
	if readErr != nil {
		return nil, errors.Trace(readErr)
	}
	if err != nil {
		return nil, errors.Trace(err)
	}
	if columns == nil {
		return nil, base.DataLoadf("header is missing")
	}
	return ratings, nil
}

func parseRating(fields []string, columns []int) (Rating, error) {
	if len(fields) <= max(columns[0], columns[1], columns[2]) {
		return Rating{}, base.DataLoadf("expect at least %d fields, but got %d",
			max(columns[0], columns[1], columns[2])+1, len(fields))
	}
	userId, err := strconv.Atoi(strings.TrimSpace(fields[columns[0]]))
	if err != nil {
		return Rating{}, base.AnnotateDataLoad(err, "invalid user id")
	}
	movieId, err := strconv.Atoi(strings.TrimSpace(fields[columns[1]]))
	if err != nil {
		return Rating{}, base.AnnotateDataLoad(err, "invalid movie id")
	}
	rating, err := strconv.ParseFloat(strings.TrimSpace(fields[columns[2]]), 64)
	if err != nil {
		return Rating{}, base.AnnotateDataLoad(err, "invalid rating")
	}
	return Rating{UserId: userId, MovieId: movieId, Rating: rating}, nil
}

// LoadCSV loads the movie catalog and the ratings log from csv files. An empty
// moviesPath yields an empty catalog.
func LoadCSV(moviesPath, ratingsPath string) (*Catalog, *RatingStore, error) {
	var movies []Movie
	if moviesPath != "" {
		if err := readFile(moviesPath, func(r io.Reader) (err error) {
			movies, err = LoadMovies(r)
			return
		}); err != nil {
			return nil, nil, errors.Trace(err)
		}
	}
	var ratings []Rating
	if err := readFile(ratingsPath, func(r io.Reader) (err error) {
		ratings, err = LoadRatings(r)
		return
	}); err != nil {
		return nil, nil, errors.Trace(err)
	}
	return build(movies, ratings)
}

func readFile(path string, read func(io.Reader) error) error {
	file, err := os.Open(path)
	if err != nil {
		return base.AnnotateDataLoad(err, "open %s", path)
	}
	defer file.Close()
	if err = read(file); err != nil {
		return errors.Annotatef(err, "read %s", path)
	}
	return nil
}

// LoadSQLite loads the movie catalog and the ratings log from a SQLite database with
// tables movies(movie_id, title, genres) and ratings(user_id, movie_id, rating). The
// database is only read.
func LoadSQLite(path string) (*Catalog, *RatingStore, error) {
	// sql.Open creates missing databases
	if _, err := os.Stat(path); err != nil {
		return nil, nil, base.AnnotateDataLoad(err, "open %s", path)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, nil, base.AnnotateDataLoad(err, "open %s", path)
	}
	defer db.Close()
	// pragmas apply per connection
	db.SetMaxOpenConns(1)
	if _, err = db.Exec("PRAGMA query_only = ON"); err != nil {
		return nil, nil, base.AnnotateDataLoad(err, "open %s", path)
	}

	var movies []Movie
	rows, err := db.Query("SELECT movie_id, title, genres FROM movies")
	if err != nil {
		return nil, nil, base.AnnotateDataLoad(err, "query movies")
	}
	for rows.Next() {
		var (
			movie  Movie
			genres sql.NullString
		)
		if err = rows.Scan(&movie.MovieId, &movie.Title, &genres); err != nil {
			_ = rows.Close()
			return nil, nil, base.AnnotateDataLoad(err, "scan movies")
		}
		movie.Genres = splitGenres([]string{genres.String}, 0)
		movies = append(movies, movie)
	}
	if err = rows.Err(); err != nil {
		return nil, nil, base.AnnotateDataLoad(err, "scan movies")
	}
	_ = rows.Close()

	var ratings []Rating
	rows, err = db.Query("SELECT user_id, movie_id, rating FROM ratings")
	if err != nil {
		return nil, nil, base.AnnotateDataLoad(err, "query ratings")
	}
	defer rows.Close()
	for rows.Next() {
		var rating Rating
		if err = rows.Scan(&rating.UserId, &rating.MovieId, &rating.Rating); err != nil {
			return nil, nil, base.AnnotateDataLoad(err, "scan ratings")
		}
		ratings = append(ratings, rating)
	}
	if err = rows.Err(); err != nil {
		return nil, nil, base.AnnotateDataLoad(err, "scan ratings")
	}
	return build(movies, ratings)
}

func build(movies []Movie, ratings []Rating) (*Catalog, *RatingStore, error) {
	catalog, err := NewCatalog(movies)
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	store, err := NewRatingStore(ratings)
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	if catalog.Len() > 0 {
		unknown := 0
		for _, movieId := range store.MovieIds() {
			if _, ok := catalog.Movie(movieId); !ok {
				unknown++
			}
		}
		if unknown > 0 {
			log.Logger().Warn("rated movies missing from catalog", zap.Int("n_movies", unknown))
		}
	}
	log.Logger().Info("load dataset",
		zap.Int("n_users", store.CountUsers()),
		zap.Int("n_movies", catalog.Len()),
		zap.Int("n_ratings", store.CountRatings()))
	return catalog, store, nil
}
