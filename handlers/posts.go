package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"jsonblog-api/cache"
	"jsonblog-api/feed"
	"jsonblog-api/models"
	"jsonblog-api/repository"
)

// Cache is the subset of cache.RedisCache the handlers use.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	SetNX(ctx context.Context, key string, val string) (bool, error)
	Invalidate(ctx context.Context, key string) error
}

type PostHandler struct {
	Store repository.PostStore
	Cache Cache // optional
	Feed  *feed.Builder
	Log   *log.Logger
}

func (h *PostHandler) Register(r gin.IRouter) {
	r.GET("/posts", h.list)
	r.POST("/posts", h.create)
	r.GET("/posts/:id", h.get)
	r.PUT("/posts/:id", h.update)
	r.POST("/posts/:id/like", h.like)
	r.DELETE("/posts/:id", h.delete)

	if h.Feed != nil {
		r.GET("/feed.rss", h.rss)
		r.GET("/feed.atom", h.atom)
	}
}

func (h *PostHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		if h.Log != nil {
			h.Log.Printf("%s %s: %+v", c.Request.Method, c.Request.URL.Path, err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func postID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func (h *PostHandler) invalidate(c *gin.Context, id int) {
	if h.Cache == nil {
		return
	}
	if err := h.Cache.Invalidate(c, cache.PostKey(id)); err != nil && h.Log != nil {
		h.Log.Printf("cache invalidate post %d: %v", id, err)
	}
}

func (h *PostHandler) list(c *gin.Context) {
	posts, err := h.Store.List(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (h *PostHandler) create(c *gin.Context) {
	var req models.CreatePostReq
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	post, err := h.Store.Create(c, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

// get serves a post cache-aside when a cache is configured.
func (h *PostHandler) get(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}
	key := cache.PostKey(id)

	if h.Cache != nil {
		if val, err := h.Cache.Get(c, key); err == nil && val != "" {
			var p models.Post
			if jsonErr := json.Unmarshal([]byte(val), &p); jsonErr == nil {
				c.JSON(http.StatusOK, gin.H{"cached": true, "data": p})
				return
			}
		}
	}

	p, err := h.Store.GetByID(c, id)
	if err != nil {
		h.fail(c, err)
		return
	}

	if h.Cache != nil {
		// refused while an invalidation tombstone is live
		b, _ := json.Marshal(p)
		_, _ = h.Cache.SetNX(c, key, string(b))
	}

	c.JSON(http.StatusOK, gin.H{"cached": false, "data": p})
}

func (h *PostHandler) update(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}
	var req models.UpdatePostReq
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := h.Store.Update(c, id, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.invalidate(c, id)
	c.JSON(http.StatusOK, p)
}

func (h *PostHandler) like(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}
	p, err := h.Store.IncrementLikes(c, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.invalidate(c, id)
	c.JSON(http.StatusOK, p)
}

func (h *PostHandler) delete(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}
	if err := h.Store.Delete(c, id); err != nil {
		h.fail(c, err)
		return
	}
	h.invalidate(c, id)
	c.Status(http.StatusNoContent)
}

func (h *PostHandler) rss(c *gin.Context) {
	h.renderFeed(c, "application/rss+xml; charset=utf-8", h.Feed.RSS)
}

func (h *PostHandler) atom(c *gin.Context) {
	h.renderFeed(c, "application/atom+xml; charset=utf-8", h.Feed.Atom)
}

func (h *PostHandler) renderFeed(c *gin.Context, contentType string, render func([]models.Post) (string, error)) {
	posts, err := h.Store.List(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	out, err := render(posts)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Data(http.StatusOK, contentType, []byte(out))
}
