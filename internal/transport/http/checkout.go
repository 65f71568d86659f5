package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/checkout"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/session"
)

const ordersPage = "/profile"

type checkoutSummary struct {
	cartView
	User           session.User    `json:"user"`
	PaymentMethods []paymentOption `json:"paymentMethods"`
}

type paymentOption struct {
	Value checkout.PaymentMethod `json:"value"`
	Label string                 `json:"label"`
}

func paymentOptions() []paymentOption {
	methods := []checkout.PaymentMethod{checkout.PaymentCard, checkout.PaymentPayPal, checkout.PaymentCashOnDelivery}
	out := make([]paymentOption, 0, len(methods))
	for _, m := range methods {
		out = append(out, paymentOption{Value: m, Label: m.Label()})
	}
	return out
}

type orderReply struct {
	Order    checkout.Order `json:"order"`
	Redirect string         `json:"redirect"`
}

// checkoutPage is the browser entry point: anonymous visitors are sent to
// login and come back here afterwards.
func (h *handler) checkoutPage(c echo.Context) error {
	sf := current(c)
	d := checkout.Gate(sf.Session)
	if !d.Proceed {
		return c.Redirect(http.StatusSeeOther, d.Redirect)
	}

	u, _ := sf.Session.CurrentUser()
	return c.JSON(http.StatusOK, checkoutSummary{
		cartView:       viewOf(sf.Cart),
		User:           u,
		PaymentMethods: paymentOptions(),
	})
}

func (h *handler) placeOrder(c echo.Context) error {
	sf := current(c)
	if d := checkout.Gate(sf.Session); !d.Proceed {
		return c.JSON(http.StatusUnauthorized, errorReply{Error: "authentication required", Redirect: d.Redirect})
	}

	var req checkout.Request
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	order, err := sf.Orders.PlaceOrder(c.Request().Context(), sf.Cart, req)
	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		return echo.NewHTTPError(http.StatusBadRequest, "cart is empty")
	case errors.Is(err, checkout.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case err != nil:
		return upstreamError(err)
	}

	h.publish(c, events.TopicOrder, events.OrderPlaced, map[string]any{
		"orderId":       order.ID,
		"paymentMethod": req.PaymentMethod,
	})
	return c.JSON(http.StatusCreated, orderReply{Order: order, Redirect: ordersPage})
}

func (h *handler) listOrders(c echo.Context) error {
	sf := current(c)
	if ok, err := requireSession(c, sf, ordersPage); !ok {
		return err
	}

	orders, err := sf.Orders.History(c.Request().Context())
	if err != nil {
		return upstreamError(err)
	}
	return c.JSON(http.StatusOK, orders)
}
