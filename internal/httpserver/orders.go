package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	ordersvc "shopverse/internal/service/order"
)

func (a *api) listOrders(c *gin.Context) {
	page, ok := a.bindPage(c)
	if !ok {
		return
	}
	in := ordersvc.ListInput{
		Status: c.Query("status"),
		Page:   page.Page,
		Limit:  page.Limit,
	}
	var err error
	if in.StartDate, err = queryTime(c, "startDate"); err != nil {
		a.fail(c, err)
		return
	}
	if in.EndDate, err = queryTime(c, "endDate"); err != nil {
		a.fail(c, err)
		return
	}
	actor, _ := currentUser(c)
	orders, p, err := a.deps.OrderSvc.List(c.Request.Context(), actor, in)
	if err != nil {
		a.fail(c, err)
		return
	}
	respondPage(c, "Orders retrieved successfully", orEmpty(orders), p)
}

func (a *api) getOrder(c *gin.Context) {
	id, ok := a.pathID(c, "id")
	if !ok {
		return
	}
	actor, _ := currentUser(c)
	order, err := a.deps.OrderSvc.Get(c.Request.Context(), actor, id)
	if err != nil {
		a.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Order retrieved successfully", gin.H{"order": order})
}

func (a *api) checkout(c *gin.Context) {
	var in ordersvc.CheckoutInput
	if !a.bindJSON(c, &in) {
		return
	}
	user, _ := currentUser(c)
	order, err := a.deps.OrderSvc.Checkout(c.Request.Context(), user.ID, in)
	if err != nil {
		a.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "Order created successfully", gin.H{"order": order})
}

func (a *api) updateOrderStatus(c *gin.Context) {
	id, ok := a.pathID(c, "id")
	if !ok {
		return
	}
	var in ordersvc.UpdateStatusInput
	if !a.bindJSON(c, &in) {
		return
	}
	actor, _ := currentUser(c)
	order, err := a.deps.OrderSvc.UpdateStatus(c.Request.Context(), actor, id, in)
	if err != nil {
		a.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Order status updated successfully", gin.H{"order": order})
}

func (a *api) updatePaymentStatus(c *gin.Context) {
	id, ok := a.pathID(c, "id")
	if !ok {
		return
	}
	var in ordersvc.UpdatePaymentStatusInput
	if !a.bindJSON(c, &in) {
		return
	}
	actor, _ := currentUser(c)
	order, err := a.deps.OrderSvc.UpdatePaymentStatus(c.Request.Context(), actor, id, in)
	if err != nil {
		a.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Payment status updated successfully", gin.H{"order": order})
}
