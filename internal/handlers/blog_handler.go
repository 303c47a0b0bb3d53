package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"storefront/internal/cache"
	"storefront/internal/models"
	"storefront/internal/repository"
	"storefront/internal/respond"
)

const blogTTL = 5 * time.Minute

type BlogHandler struct {
	repo  *repository.BlogRepository
	cache *cache.Cache
}

func NewBlogHandler(repo *repository.BlogRepository, c *cache.Cache) *BlogHandler {
	return &BlogHandler{repo: repo, cache: c}
}

// GET /api/blogs: solo publicadas
func (h *BlogHandler) ListBlogs(c *gin.Context) {
	page, pageSize := getPaginationParams(c)
	tag := strings.TrimSpace(c.Query("tag"))

	cacheKey := fmt.Sprintf("%slist:p%d_s%d_tag:%s", cache.BlogPrefix, page, pageSize, tag)
	if cached, found := h.cache.GetValue(cacheKey); found {
		c.JSON(http.StatusOK, cached)
		return
	}

	blogs, total, err := h.repo.List(c.Request.Context(), page, pageSize, false, tag)
	if err != nil {
		respond.Error(c, err)
		return
	}

	response := newListResponse(blogs, total, page, pageSize)
	h.cache.Set(cacheKey, response, blogTTL)
	c.JSON(http.StatusOK, response)
}

// GET /api/blogs/:id
func (h *BlogHandler) GetBlog(c *gin.Context) {
	blogID := c.Param("id")
	cacheKey := cache.BlogPrefix + blogID
	if cached, found := h.cache.GetValue(cacheKey); found {
		c.JSON(http.StatusOK, cached)
		return
	}

	blog, err := h.repo.FindByID(c.Request.Context(), blogID, false)
	if err != nil {
		respond.Error(c, err)
		return
	}
	h.cache.Set(cacheKey, blog, blogTTL)
	c.JSON(http.StatusOK, blog)
}

// POST /api/admin/blogs
func (h *BlogHandler) CreateBlog(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var blog models.Blog
	if err := c.ShouldBindJSON(&blog); err != nil {
		respond.BindError(c, err)
		return
	}
	blog.AuthorID = id.ObjectID()
	blog.Tags = normalizeTags(blog.Tags)

	if err := h.repo.Create(c.Request.Context(), &blog); err != nil {
		respond.Error(c, err)
		return
	}

	h.cache.DeleteByPrefix(cache.BlogPrefix)
	c.JSON(http.StatusCreated, blog)
}

// PUT /api/admin/blogs/:id
func (h *BlogHandler) UpdateBlog(c *gin.Context) {
	var in models.Blog
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.BindError(c, err)
		return
	}
	in.Tags = normalizeTags(in.Tags)

	blog, err := h.repo.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		respond.Error(c, err)
		return
	}

	h.cache.DeleteByPrefix(cache.BlogPrefix)
	c.JSON(http.StatusOK, blog)
}

// DELETE /api/admin/blogs/:id
func (h *BlogHandler) DeleteBlog(c *gin.Context) {
	if err := h.repo.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respond.Error(c, err)
		return
	}
	h.cache.DeleteByPrefix(cache.BlogPrefix)
	writeMessage(c, "blog deleted")
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
