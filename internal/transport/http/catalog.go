package httpserver

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/cart"
	"github.com/Skotchmaster/storefront/internal/catalog"
	"github.com/Skotchmaster/storefront/internal/logging"
)

func pageParams(c echo.Context) (int, int) {
	page := catalog.ParseIntDefault(c.QueryParam("page"), 1)
	size := catalog.ParseIntDefault(c.QueryParam("size"), catalog.DefaultPageSize)
	return catalog.Normalize(page, size)
}

func (h *handler) listProducts(c echo.Context) error {
	page, size := pageParams(c)
	res, err := current(c).Catalog.List(c.Request().Context(), catalog.ListQuery{
		Page:     page,
		Size:     size,
		SortBy:   c.QueryParam("sortBy"),
		SortDir:  strings.ToLower(c.QueryParam("sortDir")),
		Category: c.QueryParam("category"),
	})
	if err != nil {
		return upstreamError(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *handler) categories(c echo.Context) error {
	cats, err := current(c).Catalog.Categories(c.Request().Context())
	if err != nil {
		return upstreamError(err)
	}
	return c.JSON(http.StatusOK, cats)
}

func (h *handler) getProduct(c echo.Context) error {
	id := cart.ProductID(c.Param("id"))
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := current(c).Catalog.Product(c.Request().Context(), id)
	if err != nil {
		return upstreamError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *handler) searchProducts(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		q = strings.TrimSpace(c.QueryParam("query"))
	}
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query parameter q is required")
	}

	ctx := c.Request().Context()
	page, size := pageParams(c)
	remote := current(c).Catalog

	if h.search != nil {
		res, err := h.search.Search(ctx, q, page, size)
		if err == nil {
			return c.JSON(http.StatusOK, res)
		}
		logging.FromContext(ctx).Warn("search_fallback", "error", err)
	}

	res, err := remote.Search(ctx, q, page, size)
	if err != nil {
		return upstreamError(err)
	}
	return c.JSON(http.StatusOK, res)
}
