package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/brewtab/cafe-backend/internal/apperr"
	"github.com/brewtab/cafe-backend/internal/models"
	"github.com/brewtab/cafe-backend/internal/repo"
	"github.com/brewtab/cafe-backend/internal/service/search"
	"github.com/brewtab/cafe-backend/internal/util"
	"github.com/brewtab/cafe-backend/pkg/logging"
)

type MenuHandler struct {
	Repo  *repo.GormRepo
	ES    *elasticsearch.Client
	Index string
}

type menuItemRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Price       int64  `json:"price"`
	Available   *bool  `json:"available"`
}

func (r *menuItemRequest) validate() error {
	if r.Name == "" {
		return apperr.Validation("name is required")
	}
	if r.Price < 0 {
		return apperr.Validation("price must be >= 0")
	}
	return nil
}

func (h *MenuHandler) List(c echo.Context) error {
	availableOnly := c.QueryParam("all") == ""
	items, err := h.Repo.ListMenu(c.Request().Context(), c.QueryParam("category"), availableOnly)
	if err != nil {
		return apperr.Internal(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

func (h *MenuHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return apperr.NotFound("menu item")
	}

	item, err := h.Repo.GetMenuItem(c.Request().Context(), uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("menu item")
		}
		return apperr.Internal(err)
	}
	return c.JSON(http.StatusOK, item)
}

func (h *MenuHandler) Create(c echo.Context) error {
	var req menuItemRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid body")
	}
	if err := req.validate(); err != nil {
		return err
	}

	item := models.MenuItem{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
		Available:   true,
	}
	if req.Available != nil {
		item.Available = *req.Available
	}

	if err := h.Repo.CreateMenuItem(c.Request().Context(), &item); err != nil {
		return apperr.Internal(err)
	}

	h.index(c, &item)
	return c.JSON(http.StatusCreated, item)
}

func (h *MenuHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return apperr.NotFound("menu item")
	}

	item, err := h.Repo.GetMenuItem(c.Request().Context(), uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("menu item")
		}
		return apperr.Internal(err)
	}

	var req menuItemRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid body")
	}
	if err := req.validate(); err != nil {
		return err
	}

	item.Name = req.Name
	item.Description = req.Description
	item.Category = req.Category
	item.Price = req.Price
	if req.Available != nil {
		item.Available = *req.Available
	}

	if err := h.Repo.SaveMenuItem(c.Request().Context(), item); err != nil {
		return apperr.Internal(err)
	}

	h.index(c, item)
	return c.JSON(http.StatusOK, item)
}

func (h *MenuHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return apperr.NotFound("menu item")
	}

	affected, err := h.Repo.DeleteMenuItem(c.Request().Context(), uint(id))
	if err != nil {
		return apperr.Internal(err)
	}
	if affected == 0 {
		return apperr.NotFound("menu item")
	}

	if h.ES != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := search.DeleteMenuItem(ctx, h.ES, h.Index, uint(id)); err != nil {
			logging.FromContext(c.Request().Context()).Error("es_delete_failed", "id", id, "error", err)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"deleted": true})
}

func (h *MenuHandler) Search(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return apperr.Validation("query parameter q is required")
	}
	if h.ES == nil {
		return apperr.Internal(errors.New("search backend not configured"))
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	from, limit := util.Calculate(page, size)

	total, items, err := search.Search(c.Request().Context(), h.ES, h.Index, q, from, limit)
	if err != nil {
		return apperr.Internal(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"total": total, "items": items})
}

// index mirrors a menu write into Elasticsearch; search lag is tolerable,
// a failed index write is not a failed request.
func (h *MenuHandler) index(c echo.Context, item *models.MenuItem) {
	if h.ES == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := search.IndexMenuItem(ctx, h.ES, h.Index, item); err != nil {
		logging.FromContext(c.Request().Context()).Error("es_index_failed", "id", item.ID, "error", err)
	}
}
