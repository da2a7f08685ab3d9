package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"jsonblog-api/models"
)

// AUTOINCREMENT keeps ids of deleted rows from being handed out again.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS posts (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	title      TEXT NOT NULL,
	content    TEXT NOT NULL,
	author     TEXT NOT NULL DEFAULT 'Anonymous',
	likes      INTEGER NOT NULL DEFAULT 0 CHECK (likes >= 0),
	created_at DATETIME NOT NULL
);`

type SQLitePostRepo struct {
	DB *sql.DB
}

// NewSQLitePostRepo opens the database file at path and creates the schema.
func NewSQLitePostRepo(path string) (*SQLitePostRepo, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "can't open sqlite database %s", path)
	}
	// a single connection serializes writers and keeps :memory: databases shared
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "can't connect to sqlite database %s", path)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "can't create sqlite schema")
	}
	return &SQLitePostRepo{DB: db}, nil
}

func scanSQLitePost(row interface{ Scan(...any) error }) (*models.Post, error) {
	var p models.Post
	err := row.Scan(&p.ID, &p.Title, &p.Content, &p.Author, &p.Likes, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *SQLitePostRepo) Create(ctx context.Context, req models.CreatePostReq) (*models.Post, error) {
	if err := validateCreate(&req); err != nil {
		return nil, err
	}
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO posts (title, content, author, created_at) VALUES (?, ?, ?, ?)`,
		req.Title, req.Content, req.Author, time.Now().UTC())
	if err != nil {
		return nil, errors.Wrap(err, "can't insert post")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, int(id))
}

func (r *SQLitePostRepo) List(ctx context.Context) ([]models.Post, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+postColumns+` FROM posts ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := []models.Post{}
	for rows.Next() {
		p, err := scanSQLitePost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *p)
	}
	return posts, rows.Err()
}

func (r *SQLitePostRepo) GetByID(ctx context.Context, id int) (*models.Post, error) {
	return scanSQLitePost(r.DB.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE id = ?`, id))
}

// exec runs a single-row statement and turns "no rows affected" into ErrNotFound.
func (r *SQLitePostRepo) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLitePostRepo) Update(ctx context.Context, id int, req models.UpdatePostReq) (*models.Post, error) {
	if _, err := r.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if err := validateUpdate(&req); err != nil {
		return nil, err
	}

	var set []string
	var args []any
	if req.Title != nil {
		set = append(set, "title = ?")
		args = append(args, *req.Title)
	}
	if req.Content != nil {
		set = append(set, "content = ?")
		args = append(args, *req.Content)
	}
	if req.Author != nil {
		set = append(set, "author = ?")
		args = append(args, *req.Author)
	}
	args = append(args, id)

	if err := r.exec(ctx, `UPDATE posts SET `+strings.Join(set, ", ")+` WHERE id = ?`, args...); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *SQLitePostRepo) IncrementLikes(ctx context.Context, id int) (*models.Post, error) {
	if err := r.exec(ctx, `UPDATE posts SET likes = likes + 1 WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *SQLitePostRepo) Delete(ctx context.Context, id int) error {
	return r.exec(ctx, `DELETE FROM posts WHERE id = ?`, id)
}

func (r *SQLitePostRepo) Close() error {
	return r.DB.Close()
}
