package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	cartsvc "shopverse/internal/service/cart"
)

func (a *api) getCart(c *gin.Context) {
	user, _ := currentUser(c)
	summary, err := a.deps.CartSvc.Get(c.Request.Context(), user.ID)
	if err != nil {
		a.fail(c, err)
		return
	}
	summary.Items = orEmpty(summary.Items)
	msg := "Cart retrieved successfully"
	if summary.Cart == nil {
		msg = "Cart is empty"
	}
	respond(c, http.StatusOK, msg, summary)
}

func (a *api) addCartItem(c *gin.Context) {
	var in cartsvc.AddItemInput
	if !a.bindJSON(c, &in) {
		return
	}
	user, _ := currentUser(c)
	item, err := a.deps.CartSvc.AddItem(c.Request.Context(), user.ID, in)
	if err != nil {
		a.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "Item added to cart successfully", gin.H{"cartItem": item})
}

func (a *api) updateCartItem(c *gin.Context) {
	id, ok := a.pathID(c, "id")
	if !ok {
		return
	}
	var in cartsvc.UpdateItemInput
	if !a.bindJSON(c, &in) {
		return
	}
	user, _ := currentUser(c)
	item, err := a.deps.CartSvc.UpdateItem(c.Request.Context(), user.ID, id, in)
	if err != nil {
		a.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Cart item updated successfully", gin.H{"cartItem": item})
}

func (a *api) removeCartItem(c *gin.Context) {
	id, ok := a.pathID(c, "id")
	if !ok {
		return
	}
	user, _ := currentUser(c)
	if err := a.deps.CartSvc.RemoveItem(c.Request.Context(), user.ID, id); err != nil {
		a.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Item removed from cart successfully", nil)
}

func (a *api) clearCart(c *gin.Context) {
	user, _ := currentUser(c)
	if err := a.deps.CartSvc.Clear(c.Request.Context(), user.ID); err != nil {
		a.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Cart cleared successfully", nil)
}
