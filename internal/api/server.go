package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ashm-dev/first-erdos-problem/internal/storage"
)

type handler struct {
	store *storage.Store
	hub   *Hub
}

// NewRouter builds the status router. store may be nil; the result
// endpoints then answer 503.
func NewRouter(store *storage.Store, hub *Hub) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	h := &handler{store: store, hub: hub}

	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", h.handleHealth)
		v1.GET("/results", h.handleResults)
		v1.GET("/results/:n", h.handleResult)
		v1.GET("/ws", hub.Subscribe)
	}
	return r
}

func (h *handler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handler) handleResults(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no store configured"})
		return
	}
	results, err := h.store.Results()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (h *handler) handleResult(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no store configured"})
		return
	}
	n, err := strconv.Atoi(c.Param("n"))
	if err != nil || n < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid n"})
		return
	}

	res, err := h.store.LoadResult(n)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if res == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no result for n"})
		return
	}

	sets, err := h.store.LoadOptimalSets(n)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": res, "optimal_sets": sets})
}
