package database

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"yamdb/internal/logging"
	"yamdb/internal/microservices/http-api/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CSV files understood by Import, in load order. Every file is optional.
const (
	CategoryFile   = "category.csv"
	GenreFile      = "genre.csv"
	TitleFile      = "titles.csv"
	GenreTitleFile = "genre_title.csv"
	UserFile       = "users.csv"
	ReviewFile     = "review.csv"
	CommentFile    = "comments.csv"
)

// Dataset is the parsed content of an import directory. Users keep their CSV
// ids as keys because reviews and comments reference authors by them.
type Dataset struct {
	Categories  []models.Category
	Genres      []models.Genre
	Titles      []models.Title
	TitleGenres []TitleGenre
	Users       map[string]models.User
	Reviews     []csvReview
	Comments    []csvComment
}

type TitleGenre struct {
	TitleID int64 `gorm:"column:title_id"`
	GenreID int64 `gorm:"column:genre_id"`
}

type csvReview struct {
	review   models.Review
	authorID string
}

type csvComment struct {
	comment  models.Comment
	authorID string
}

// ImportStats counts rows written per table.
type ImportStats struct {
	Categories  int
	Genres      int
	Titles      int
	TitleGenres int
	Users       int
	Reviews     int
	Comments    int
}

// record is one CSV row addressed by header name.
type record struct {
	file   string
	line   int
	fields map[string]string
}

func (r record) str(name string) string {
	return strings.TrimSpace(r.fields[name])
}

func (r record) num(name string) (int64, error) {
	v, err := strconv.ParseInt(r.str(name), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s:%d: column %q: %w", r.file, r.line, name, err)
	}
	return v, nil
}

func (r record) timestamp(name string) (time.Time, error) {
	s := r.str(name)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s:%d: column %q: %w", r.file, r.line, name, err)
	}
	return t, nil
}

// readCSV returns nil records when the file does not exist.
func readCSV(dir, name string, required ...string) ([]record, error) {
	f, err := os.Open(filepath.Join(dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: read header: %w", name, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}
	for _, col := range required {
		if !contains(header, col) {
			return nil, fmt.Errorf("%s: missing column %q", name, col)
		}
	}

	var out []record
	for line := 2; ; line++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		fields := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(row) {
				fields[col] = row[i]
			}
		}
		out = append(out, record{file: name, line: line, fields: fields})
	}
	return out, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// LoadDataset parses every known CSV file in dir.
func LoadDataset(dir string) (*Dataset, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	ds := &Dataset{Users: map[string]models.User{}}

	rows, err := readCSV(dir, CategoryFile, "id", "name", "slug")
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		id, err := r.num("id")
		if err != nil {
			return nil, err
		}
		ds.Categories = append(ds.Categories, models.Category{ID: id, Name: r.str("name"), Slug: r.str("slug")})
	}

	if rows, err = readCSV(dir, GenreFile, "id", "name", "slug"); err != nil {
		return nil, err
	}
	for _, r := range rows {
		id, err := r.num("id")
		if err != nil {
			return nil, err
		}
		ds.Genres = append(ds.Genres, models.Genre{ID: id, Name: r.str("name"), Slug: r.str("slug")})
	}

	if rows, err = readCSV(dir, TitleFile, "id", "name", "year"); err != nil {
		return nil, err
	}
	for _, r := range rows {
		t, err := parseTitle(r)
		if err != nil {
			return nil, err
		}
		ds.Titles = append(ds.Titles, t)
	}

	if rows, err = readCSV(dir, GenreTitleFile, "title_id", "genre_id"); err != nil {
		return nil, err
	}
	for _, r := range rows {
		titleID, err := r.num("title_id")
		if err != nil {
			return nil, err
		}
		genreID, err := r.num("genre_id")
		if err != nil {
			return nil, err
		}
		ds.TitleGenres = append(ds.TitleGenres, TitleGenre{TitleID: titleID, GenreID: genreID})
	}

	if rows, err = readCSV(dir, UserFile, "id", "username", "email"); err != nil {
		return nil, err
	}
	for _, r := range rows {
		role := models.Role(r.str("role"))
		if role == "" {
			role = models.RoleUser
		}
		if !role.Valid() {
			return nil, fmt.Errorf("%s:%d: unknown role %q", r.file, r.line, role)
		}
		ds.Users[r.str("id")] = models.User{
			Username:  r.str("username"),
			Email:     r.str("email"),
			Role:      role,
			Bio:       r.str("bio"),
			FirstName: r.str("first_name"),
			LastName:  r.str("last_name"),
		}
	}

	if rows, err = readCSV(dir, ReviewFile, "id", "title_id", "text", "author", "score"); err != nil {
		return nil, err
	}
	for _, r := range rows {
		rv, err := parseReview(r)
		if err != nil {
			return nil, err
		}
		ds.Reviews = append(ds.Reviews, rv)
	}

	if rows, err = readCSV(dir, CommentFile, "id", "review_id", "text", "author"); err != nil {
		return nil, err
	}
	for _, r := range rows {
		cm, err := parseComment(r)
		if err != nil {
			return nil, err
		}
		ds.Comments = append(ds.Comments, cm)
	}

	return ds, nil
}

func parseTitle(r record) (models.Title, error) {
	id, err := r.num("id")
	if err != nil {
		return models.Title{}, err
	}
	year, err := strconv.Atoi(r.str("year"))
	if err != nil {
		return models.Title{}, fmt.Errorf("%s:%d: column %q: %w", r.file, r.line, "year", err)
	}
	if year <= 0 || year > time.Now().Year() {
		return models.Title{}, fmt.Errorf("%s:%d: column %q: year %d is out of range", r.file, r.line, "year", year)
	}
	t := models.Title{ID: id, Name: r.str("name"), Year: year}
	if d := r.str("description"); d != "" {
		t.Description = &d
	}
	if r.str("category") != "" {
		categoryID, err := r.num("category")
		if err != nil {
			return models.Title{}, err
		}
		t.CategoryID = &categoryID
	}
	return t, nil
}

func parseReview(r record) (csvReview, error) {
	id, err := r.num("id")
	if err != nil {
		return csvReview{}, err
	}
	titleID, err := r.num("title_id")
	if err != nil {
		return csvReview{}, err
	}
	score, err := strconv.Atoi(r.str("score"))
	if err != nil {
		return csvReview{}, fmt.Errorf("%s:%d: column %q: %w", r.file, r.line, "score", err)
	}
	if score < 1 || score > 10 {
		return csvReview{}, fmt.Errorf("%s:%d: score %d out of range 1..10", r.file, r.line, score)
	}
	pub, err := r.timestamp("pub_date")
	if err != nil {
		return csvReview{}, err
	}
	return csvReview{
		review:   models.Review{ID: id, TitleID: titleID, Text: r.str("text"), Score: score, PubDate: pub},
		authorID: r.str("author"),
	}, nil
}

func parseComment(r record) (csvComment, error) {
	id, err := r.num("id")
	if err != nil {
		return csvComment{}, err
	}
	reviewID, err := r.num("review_id")
	if err != nil {
		return csvComment{}, err
	}
	pub, err := r.timestamp("pub_date")
	if err != nil {
		return csvComment{}, err
	}
	return csvComment{
		comment:  models.Comment{ID: id, ReviewID: &reviewID, Text: r.str("text"), PubDate: pub},
		authorID: r.str("author"),
	}, nil
}

// serialTables get their id sequences bumped after rows with explicit ids.
var serialTables = []string{"categories", "genres", "titles", "reviews", "comments"}

// Import writes the dataset in a single transaction. Rows are upserted by id
// so running it twice is harmless; users are matched by username.
func Import(ctx context.Context, db *gorm.DB, ds *Dataset) (ImportStats, error) {
	var stats ImportStats

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		upsert := clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, UpdateAll: true}

		if len(ds.Categories) > 0 {
			if err := tx.Clauses(upsert).Create(&ds.Categories).Error; err != nil {
				return fmt.Errorf("import categories: %w", err)
			}
			stats.Categories = len(ds.Categories)
		}
		if len(ds.Genres) > 0 {
			if err := tx.Clauses(upsert).Create(&ds.Genres).Error; err != nil {
				return fmt.Errorf("import genres: %w", err)
			}
			stats.Genres = len(ds.Genres)
		}
		if len(ds.Titles) > 0 {
			if err := tx.Omit(clause.Associations).Clauses(upsert).Create(&ds.Titles).Error; err != nil {
				return fmt.Errorf("import titles: %w", err)
			}
			stats.Titles = len(ds.Titles)
		}
		if len(ds.TitleGenres) > 0 {
			res := tx.Table("title_genres").Clauses(clause.OnConflict{DoNothing: true}).Create(&ds.TitleGenres)
			if res.Error != nil {
				return fmt.Errorf("import title genres: %w", res.Error)
			}
			stats.TitleGenres = int(res.RowsAffected)
		}

		authors, err := importUsers(tx, ds.Users)
		if err != nil {
			return err
		}
		stats.Users = len(authors)

		for _, r := range ds.Reviews {
			rv := r.review
			if rv.AuthorID, err = author(authors, r.authorID); err != nil {
				return fmt.Errorf("import review %d: %w", rv.ID, err)
			}
			res := tx.Omit(clause.Associations).Clauses(clause.OnConflict{DoNothing: true}).Create(&rv)
			if res.Error != nil {
				return fmt.Errorf("import review %d: %w", rv.ID, res.Error)
			}
			stats.Reviews += int(res.RowsAffected)
		}

		for _, c := range ds.Comments {
			cm := c.comment
			if cm.AuthorID, err = author(authors, c.authorID); err != nil {
				return fmt.Errorf("import comment %d: %w", cm.ID, err)
			}
			res := tx.Omit(clause.Associations).Clauses(clause.OnConflict{DoNothing: true}).Create(&cm)
			if res.Error != nil {
				return fmt.Errorf("import comment %d: %w", cm.ID, res.Error)
			}
			stats.Comments += int(res.RowsAffected)
		}

		for _, table := range serialTables {
			q := fmt.Sprintf(
				"SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), COALESCE((SELECT MAX(id) FROM %[1]s), 0) + 1, false)",
				table,
			)
			if err := tx.Exec(q).Error; err != nil {
				return fmt.Errorf("reset %s sequence: %w", table, err)
			}
		}
		return nil
	})
	if err != nil {
		return ImportStats{}, err
	}

	logging.Info().
		Int("categories", stats.Categories).
		Int("genres", stats.Genres).
		Int("titles", stats.Titles).
		Int("users", stats.Users).
		Int("reviews", stats.Reviews).
		Int("comments", stats.Comments).
		Msg("reference data imported")
	return stats, nil
}

// importUsers returns csv id -> user uuid. Existing usernames are reused.
func importUsers(tx *gorm.DB, users map[string]models.User) (map[string]string, error) {
	ids := make(map[string]string, len(users))
	for csvID, u := range users {
		var existing models.User
		err := tx.Where("username = ?", u.Username).First(&existing).Error
		switch {
		case err == nil:
			ids[csvID] = existing.ID
			continue
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, fmt.Errorf("import user %s: %w", u.Username, err)
		}

		u.ID = uuid.New().String()
		if err := tx.Create(&u).Error; err != nil {
			return nil, fmt.Errorf("import user %s: %w", u.Username, err)
		}
		ids[csvID] = u.ID
	}
	return ids, nil
}

func author(ids map[string]string, csvID string) (string, error) {
	id, ok := ids[csvID]
	if !ok {
		return "", fmt.Errorf("unknown author %q", csvID)
	}
	return id, nil
}
