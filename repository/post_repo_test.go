package repository

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"jsonblog-api/models"
)

// openPostgres connects to TEST_DATABASE_URL and empties the tables. Tests
// using it are skipped when the variable is not set.
func openPostgres(t *testing.T) PostStore {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		t.Fatalf("connect postgres: %v", err)
	}
	repo := NewPostRepo(pool)
	if err := repo.Migrate(ctx); err != nil {
		pool.Close()
		t.Fatalf("migrate: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE posts, activity_logs RESTART IDENTITY`); err != nil {
		pool.Close()
		t.Fatalf("truncate: %v", err)
	}
	return repo
}

func TestPostgresActivityLog(t *testing.T) {
	repo := openPostgres(t).(*PostRepo)
	defer repo.Close()
	ctx := context.Background()

	p := mustCreate(t, repo, "Logged", "every change", "")
	if _, err := repo.Update(ctx, p.ID, models.UpdatePostReq{Title: strPtr("Logged twice"), Author: strPtr("kim")}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if _, err := repo.IncrementLikes(ctx, p.ID); err != nil {
		t.Fatalf("IncrementLikes: %v", err)
	}
	// failed mutations roll back without a log row
	if _, err := repo.Update(ctx, p.ID, models.UpdatePostReq{}); err == nil {
		t.Error("empty update should fail")
	}
	if err := repo.Delete(ctx, p.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	rows, err := repo.DB.Query(ctx, `SELECT action, post_id FROM activity_logs ORDER BY id`)
	if err != nil {
		t.Fatalf("query activity_logs: %v", err)
	}
	defer rows.Close()

	var actions []string
	for rows.Next() {
		var action string
		var postID int
		if err := rows.Scan(&action, &postID); err != nil {
			t.Fatal(err)
		}
		if postID != p.ID {
			t.Errorf("%s logged for post %d, want %d", action, postID, p.ID)
		}
		actions = append(actions, action)
	}
	if err := rows.Err(); err != nil {
		t.Fatal(err)
	}

	want := []string{"new_post", "update_post", "like_post", "delete_post"}
	if len(actions) != len(want) {
		t.Fatalf("actions = %v, want %v", actions, want)
	}
	for i := range want {
		if actions[i] != want[i] {
			t.Errorf("actions[%d] = %q, want %q", i, actions[i], want[i])
		}
	}
}
