package httpserver

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	categorysvc "shopverse/internal/service/category"
)

func (a *api) listCategories(c *gin.Context) {
	page, ok := a.bindPage(c)
	if !ok {
		return
	}
	isActive, err := queryBool(c, "isActive")
	if err != nil {
		a.fail(c, err)
		return
	}
	categories, p, err := a.deps.CategorySvc.List(c.Request.Context(), categorysvc.ListInput{
		Search:   strings.TrimSpace(c.Query("search")),
		IsActive: isActive,
		Page:     page.Page,
		Limit:    page.Limit,
	})
	if err != nil {
		a.fail(c, err)
		return
	}
	respondPage(c, "Categories retrieved successfully", orEmpty(categories), p)
}

func (a *api) getCategory(c *gin.Context) {
	id, ok := a.pathID(c, "id")
	if !ok {
		return
	}
	page, ok := a.bindPage(c)
	if !ok {
		return
	}
	detail, err := a.deps.CategorySvc.Get(c.Request.Context(), id, page.Page, page.Limit)
	if err != nil {
		a.fail(c, err)
		return
	}
	detail.Products = orEmpty(detail.Products)
	respond(c, http.StatusOK, "Category retrieved successfully", detail)
}

func (a *api) createCategory(c *gin.Context) {
	var in categorysvc.CreateInput
	if !a.bindJSON(c, &in) {
		return
	}
	category, err := a.deps.CategorySvc.Create(c.Request.Context(), in)
	if err != nil {
		a.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "Category created successfully", gin.H{"category": category})
}

func (a *api) updateCategory(c *gin.Context) {
	id, ok := a.pathID(c, "id")
	if !ok {
		return
	}
	var in categorysvc.UpdateInput
	if !a.bindJSON(c, &in) {
		return
	}
	category, err := a.deps.CategorySvc.Update(c.Request.Context(), id, in)
	if err != nil {
		a.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Category updated successfully", gin.H{"category": category})
}

func (a *api) deleteCategory(c *gin.Context) {
	id, ok := a.pathID(c, "id")
	if !ok {
		return
	}
	if err := a.deps.CategorySvc.Delete(c.Request.Context(), id); err != nil {
		a.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Category deleted successfully", nil)
}
