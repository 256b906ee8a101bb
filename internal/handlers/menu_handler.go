package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/imrishuroy/restaurant-orderflow/internal/menu"
	"github.com/imrishuroy/restaurant-orderflow/internal/validation"
)

type menuHandler struct {
	cfg HandlerConfig
}

// RegisterMenuRoutes registers the catalog routes. Reads are public; writes need an operator.
func RegisterMenuRoutes(r *gin.Engine, cfg HandlerConfig) {
	h := &menuHandler{cfg: cfg.withDefaults("menu_handler")}

	r.GET("/menu", h.list)
	r.GET("/menu/:id", h.get)

	w := r.Group("/menu", RequireUser(), RequireOperator())
	w.POST("", h.create)
	w.PUT("/:id", h.update)
	w.DELETE("/:id", h.delete)
}

func (h *menuHandler) list(c *gin.Context) {
	f := menu.Filter{Category: c.Query("category")}
	if s := c.Query("available"); s != "" {
		avail, err := strconv.ParseBool(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "msg": "available must be a boolean"})
			return
		}
		f.AvailableOnly = avail
	}
	items, err := h.cfg.Menu.List(c.Request.Context(), f)
	if err != nil {
		writeError(c, h.cfg.Log, err)
		return
	}
	if items == nil {
		items = []menu.Item{}
	}
	c.JSON(http.StatusOK, items)
}

func (h *menuHandler) get(c *gin.Context) {
	it, err := h.cfg.Menu.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.cfg.Log, err)
		return
	}
	c.JSON(http.StatusOK, it)
}

func (h *menuHandler) create(c *gin.Context) {
	var req validation.MenuItemRequest
	if err := validation.BindAndValidate(c, &req, h.cfg.Validator); err != nil {
		return
	}
	it, err := h.cfg.Menu.Create(c.Request.Context(), toMenuInput(req))
	if err != nil {
		writeError(c, h.cfg.Log, err)
		return
	}
	c.Header("Location", "/menu/"+it.ItemID)
	c.JSON(http.StatusCreated, it)
}

func (h *menuHandler) update(c *gin.Context) {
	var req validation.MenuItemRequest
	if err := validation.BindAndValidate(c, &req, h.cfg.Validator); err != nil {
		return
	}
	it, err := h.cfg.Menu.Update(c.Request.Context(), c.Param("id"), toMenuInput(req))
	if err != nil {
		writeError(c, h.cfg.Log, err)
		return
	}
	c.JSON(http.StatusOK, it)
}

func (h *menuHandler) delete(c *gin.Context) {
	if err := h.cfg.Menu.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, h.cfg.Log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func toMenuInput(req validation.MenuItemRequest) menu.Input {
	return menu.Input{
		Name:            req.Name,
		Description:     req.Description,
		Price:           req.Price,
		Category:        req.Category,
		Image:           req.Image,
		Available:       req.Available,
		PreparationTime: req.PreparationTime,
	}
}
