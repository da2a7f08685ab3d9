package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"jsonblog-api/models"
)

const pgSchema = `
CREATE TABLE IF NOT EXISTS posts (
	id         SERIAL PRIMARY KEY,
	title      TEXT NOT NULL,
	content    TEXT NOT NULL,
	author     TEXT NOT NULL DEFAULT 'Anonymous',
	likes      INTEGER NOT NULL DEFAULT 0 CHECK (likes >= 0),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS activity_logs (
	id         SERIAL PRIMARY KEY,
	action     TEXT NOT NULL,
	post_id    INTEGER NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

const postColumns = `id,title,content,author,likes,created_at`

// PostRepo stores posts in Postgres. Every mutation is logged to activity_logs
// in the same transaction.
type PostRepo struct {
	DB *pgxpool.Pool
}

func NewPostRepo(db *pgxpool.Pool) *PostRepo { return &PostRepo{DB: db} }

func (r *PostRepo) Migrate(ctx context.Context) error {
	_, err := r.DB.Exec(ctx, pgSchema)
	return errors.Wrap(err, "can't create postgres schema")
}

// withLogTx runs fn in a transaction and records action for the post id fn returns.
func (r *PostRepo) withLogTx(ctx context.Context, action string, fn func(tx pgx.Tx) (int, error)) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }() // no-op after Commit

	id, err := fn(tx)
	if err != nil {
		return err
	}

	if _, err = tx.Exec(ctx,
		`INSERT INTO activity_logs(action, post_id) VALUES ($1,$2)`,
		action, id,
	); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func scanPost(row pgx.Row) (*models.Post, error) {
	var p models.Post
	if err := row.Scan(&p.ID, &p.Title, &p.Content, &p.Author, &p.Likes, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PostRepo) Create(ctx context.Context, req models.CreatePostReq) (*models.Post, error) {
	if err := validateCreate(&req); err != nil {
		return nil, err
	}
	var p *models.Post
	err := r.withLogTx(ctx, "new_post", func(tx pgx.Tx) (int, error) {
		var err error
		p, err = scanPost(tx.QueryRow(ctx,
			`INSERT INTO posts(title, content, author) VALUES ($1,$2,$3) RETURNING `+postColumns,
			req.Title, req.Content, req.Author,
		))
		if err != nil {
			return 0, err
		}
		return p.ID, nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PostRepo) List(ctx context.Context) ([]models.Post, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+postColumns+` FROM posts ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *PostRepo) GetByID(ctx context.Context, id int) (*models.Post, error) {
	return scanPost(r.DB.QueryRow(ctx, `SELECT `+postColumns+` FROM posts WHERE id=$1`, id))
}

func (r *PostRepo) Update(ctx context.Context, id int, req models.UpdatePostReq) (*models.Post, error) {
	var p *models.Post
	err := r.withLogTx(ctx, "update_post", func(tx pgx.Tx) (int, error) {
		// lock the row first so a missing post wins over a bad request
		var exists int
		if err := tx.QueryRow(ctx, `SELECT 1 FROM posts WHERE id=$1 FOR UPDATE`, id).Scan(&exists); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return 0, ErrNotFound
			}
			return 0, err
		}
		if err := validateUpdate(&req); err != nil {
			return 0, err
		}

		set := ""
		args := []any{}
		arg := 1
		if req.Title != nil {
			set += fmt.Sprintf("title=$%d,", arg)
			args = append(args, *req.Title)
			arg++
		}
		if req.Content != nil {
			set += fmt.Sprintf("content=$%d,", arg)
			args = append(args, *req.Content)
			arg++
		}
		if req.Author != nil {
			set += fmt.Sprintf("author=$%d,", arg)
			args = append(args, *req.Author)
			arg++
		}
		set = set[:len(set)-1]
		args = append(args, id)

		var err error
		p, err = scanPost(tx.QueryRow(ctx,
			fmt.Sprintf(`UPDATE posts SET %s WHERE id=$%d RETURNING %s`, set, arg, postColumns),
			args...,
		))
		if err != nil {
			return 0, err
		}
		return p.ID, nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PostRepo) IncrementLikes(ctx context.Context, id int) (*models.Post, error) {
	var p *models.Post
	err := r.withLogTx(ctx, "like_post", func(tx pgx.Tx) (int, error) {
		var err error
		p, err = scanPost(tx.QueryRow(ctx,
			`UPDATE posts SET likes = likes + 1 WHERE id=$1 RETURNING `+postColumns, id,
		))
		if err != nil {
			return 0, err
		}
		return p.ID, nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PostRepo) Delete(ctx context.Context, id int) error {
	return r.withLogTx(ctx, "delete_post", func(tx pgx.Tx) (int, error) {
		tag, err := tx.Exec(ctx, `DELETE FROM posts WHERE id=$1`, id)
		if err != nil {
			return 0, err
		}
		if tag.RowsAffected() == 0 {
			return 0, ErrNotFound
		}
		return id, nil
	})
}

func (r *PostRepo) Close() error {
	r.DB.Close()
	return nil
}
