package httpserver

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	productsvc "shopverse/internal/service/product"
)

func (a *api) listProducts(c *gin.Context) {
	page, ok := a.bindPage(c)
	if !ok {
		return
	}
	in := productsvc.ListInput{
		Search:    strings.TrimSpace(c.Query("search")),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
		Page:      page.Page,
		Limit:     page.Limit,
	}
	var err error
	if in.CategoryID, err = queryID(c, "categoryId"); err != nil {
		a.fail(c, err)
		return
	}
	if in.MinPrice, err = queryDecimal(c, "minPrice"); err != nil {
		a.fail(c, err)
		return
	}
	if in.MaxPrice, err = queryDecimal(c, "maxPrice"); err != nil {
		a.fail(c, err)
		return
	}
	if in.Featured, err = queryBool(c, "featured"); err != nil {
		a.fail(c, err)
		return
	}

	products, p, err := a.deps.ProductSvc.List(c.Request.Context(), in)
	if err != nil {
		a.fail(c, err)
		return
	}
	respondPage(c, "Products retrieved successfully", orEmpty(products), p)
}

// getProduct hides inactive products from everyone but admins.
func (a *api) getProduct(c *gin.Context) {
	id, ok := a.pathID(c, "id")
	if !ok {
		return
	}
	user, _ := currentUser(c)
	detail, err := a.deps.ProductSvc.Get(c.Request.Context(), id, user.IsAdmin())
	if err != nil {
		a.fail(c, err)
		return
	}
	detail.Comments = orEmpty(detail.Comments)
	respond(c, http.StatusOK, "Product retrieved successfully", gin.H{"product": detail})
}

func (a *api) createProduct(c *gin.Context) {
	var in productsvc.CreateInput
	if !a.bindJSON(c, &in) {
		return
	}
	product, err := a.deps.ProductSvc.Create(c.Request.Context(), in)
	if err != nil {
		a.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "Product created successfully", gin.H{"product": product})
}

func (a *api) updateProduct(c *gin.Context) {
	id, ok := a.pathID(c, "id")
	if !ok {
		return
	}
	var in productsvc.UpdateInput
	if !a.bindJSON(c, &in) {
		return
	}
	product, err := a.deps.ProductSvc.Update(c.Request.Context(), id, in)
	if err != nil {
		a.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Product updated successfully", gin.H{"product": product})
}

func (a *api) deleteProduct(c *gin.Context) {
	id, ok := a.pathID(c, "id")
	if !ok {
		return
	}
	if err := a.deps.ProductSvc.Delete(c.Request.Context(), id); err != nil {
		a.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Product deleted successfully", nil)
}
