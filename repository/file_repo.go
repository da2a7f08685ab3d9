package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/google/renameio/v2"
	"github.com/pkg/errors"

	"jsonblog-api/models"
)

// fileDoc is the on-disk layout. NextID survives deletes so ids are never reused.
type fileDoc struct {
	NextID int           `json:"next_id"`
	Posts  []models.Post `json:"posts"`
}

// FilePostRepo keeps all posts in a single JSON file that is re-read on every
// operation and rewritten on every mutation.
type FilePostRepo struct {
	Path string

	mu  sync.Mutex
	now func() time.Time
}

func NewFilePostRepo(path string) *FilePostRepo {
	return &FilePostRepo{Path: path, now: time.Now}
}

func (r *FilePostRepo) load() (*fileDoc, error) {
	b, err := os.ReadFile(r.Path)
	if os.IsNotExist(err) {
		return &fileDoc{NextID: 1}, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "can't read %s", r.Path)
	}

	doc := &fileDoc{}
	trimmed := bytes.TrimSpace(b)
	switch {
	case len(trimmed) == 0:
	case trimmed[0] == '[':
		// plain array of posts, as written by older versions
		if err := json.Unmarshal(trimmed, &doc.Posts); err != nil {
			return nil, errors.Wrapf(err, "can't decode %s", r.Path)
		}
	default:
		if err := json.Unmarshal(trimmed, doc); err != nil {
			return nil, errors.Wrapf(err, "can't decode %s", r.Path)
		}
	}

	for _, p := range doc.Posts {
		if p.ID >= doc.NextID {
			doc.NextID = p.ID + 1
		}
	}
	if doc.NextID < 1 {
		doc.NextID = 1
	}

	// Older files numbered posts len(posts)+1, which repeats ids after a
	// delete. Later duplicates get fresh ids so every post stays reachable.
	seen := make(map[int]bool, len(doc.Posts))
	for i := range doc.Posts {
		id := doc.Posts[i].ID
		if id <= 0 || seen[id] {
			doc.Posts[i].ID = doc.NextID
			doc.NextID++
		}
		seen[doc.Posts[i].ID] = true
	}
	return doc, nil
}

func (r *FilePostRepo) save(doc *fileDoc) error {
	if doc.Posts == nil {
		doc.Posts = []models.Post{}
	}
	b, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return errors.Wrap(err, "can't encode posts")
	}
	err = renameio.WriteFile(r.Path, b, 0o644, renameio.WithExistingPermissions())
	return errors.Wrapf(err, "can't write %s", r.Path)
}

func indexOf(posts []models.Post, id int) int {
	for i := range posts {
		if posts[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *FilePostRepo) Create(ctx context.Context, req models.CreatePostReq) (*models.Post, error) {
	if err := validateCreate(&req); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return nil, err
	}
	p := models.Post{
		ID:        doc.NextID,
		Title:     req.Title,
		Content:   req.Content,
		Author:    req.Author,
		CreatedAt: r.now().UTC(),
	}
	doc.NextID++
	doc.Posts = append(doc.Posts, p)

	if err := r.save(doc); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *FilePostRepo) List(ctx context.Context) ([]models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return nil, err
	}
	if doc.Posts == nil {
		return []models.Post{}, nil
	}
	return doc.Posts, nil
}

func (r *FilePostRepo) GetByID(ctx context.Context, id int) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return nil, err
	}
	i := indexOf(doc.Posts, id)
	if i < 0 {
		return nil, ErrNotFound
	}
	p := doc.Posts[i]
	return &p, nil
}

// mutate loads the document, applies fn to the post with the given id and
// saves. Nothing is written when fn fails.
func (r *FilePostRepo) mutate(id int, fn func(p *models.Post) error) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return nil, err
	}
	i := indexOf(doc.Posts, id)
	if i < 0 {
		return nil, ErrNotFound
	}
	if err := fn(&doc.Posts[i]); err != nil {
		return nil, err
	}
	if err := r.save(doc); err != nil {
		return nil, err
	}
	p := doc.Posts[i]
	return &p, nil
}

func (r *FilePostRepo) Update(ctx context.Context, id int, req models.UpdatePostReq) (*models.Post, error) {
	return r.mutate(id, func(p *models.Post) error {
		if err := validateUpdate(&req); err != nil {
			return err
		}
		req.Apply(p)
		return nil
	})
}

func (r *FilePostRepo) IncrementLikes(ctx context.Context, id int) (*models.Post, error) {
	return r.mutate(id, func(p *models.Post) error {
		p.Likes++
		return nil
	})
}

func (r *FilePostRepo) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		return err
	}
	i := indexOf(doc.Posts, id)
	if i < 0 {
		return ErrNotFound
	}
	doc.Posts = append(doc.Posts[:i], doc.Posts[i+1:]...)
	return r.save(doc)
}

func (r *FilePostRepo) Close() error { return nil }
