package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/cart"
	"github.com/Skotchmaster/storefront/internal/checkout"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/validate"
)

type cartView struct {
	Items       []cart.LineItem `json:"items"`
	ItemCount   int             `json:"itemCount"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Totals      checkout.Totals `json:"totals"`
}

func viewOf(s *cart.Store) cartView {
	return cartView{
		Items:       s.Items(),
		ItemCount:   s.ItemCount(),
		TotalAmount: s.TotalAmount(),
		Totals:      checkout.ComputeTotals(s.TotalAmount()).Rounded(),
	}
}

type addItemRequest struct {
	ProductID cart.ProductID `json:"productId" validate:"required"`
	Quantity  int            `json:"quantity" validate:"max=999"`
}

type quantityRequest struct {
	Quantity *int `json:"quantity" validate:"required,max=999"`
}

func (h *handler) getCart(c echo.Context) error {
	return c.JSON(http.StatusOK, viewOf(current(c).Cart))
}

func (h *handler) addToCart(c echo.Context) error {
	var req addItemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := validate.Check(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	sf := current(c)

	p, err := sf.Catalog.Product(ctx, req.ProductID)
	if err != nil {
		return upstreamError(err)
	}
	if !p.Available() {
		return echo.NewHTTPError(http.StatusConflict, "product is not available")
	}

	sf.Cart.AddToCart(ctx, p.ToCart(), req.Quantity)
	if err := sf.Cart.Err(); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cart could not be saved")
	}

	h.publish(c, events.TopicCart, events.CartItemAdded, map[string]any{
		"productId": p.ID,
		"quantity":  sf.Cart.GetItemQuantity(p.ID),
	})
	return c.JSON(http.StatusOK, viewOf(sf.Cart))
}

func (h *handler) updateCartItem(c echo.Context) error {
	id := cart.ProductID(c.Param("id"))

	var req quantityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := validate.Check(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	sf := current(c)

	sf.Cart.UpdateQuantity(ctx, id, *req.Quantity)
	if err := sf.Cart.Err(); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cart could not be saved")
	}

	eventType := events.CartItemUpdated
	if *req.Quantity <= 0 {
		eventType = events.CartItemRemoved
	}
	h.publish(c, events.TopicCart, eventType, map[string]any{"productId": id, "quantity": sf.Cart.GetItemQuantity(id)})
	return c.JSON(http.StatusOK, viewOf(sf.Cart))
}

func (h *handler) removeCartItem(c echo.Context) error {
	id := cart.ProductID(c.Param("id"))
	sf := current(c)

	sf.Cart.RemoveFromCart(c.Request().Context(), id)
	if err := sf.Cart.Err(); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cart could not be saved")
	}

	h.publish(c, events.TopicCart, events.CartItemRemoved, map[string]any{"productId": id})
	return c.JSON(http.StatusOK, viewOf(sf.Cart))
}

func (h *handler) clearCart(c echo.Context) error {
	sf := current(c)

	sf.Cart.ClearCart(c.Request().Context())
	if err := sf.Cart.Err(); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cart could not be saved")
	}

	h.publish(c, events.TopicCart, events.CartCleared, nil)
	return c.JSON(http.StatusOK, viewOf(sf.Cart))
}
