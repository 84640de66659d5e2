package httpserver

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	usersvc "shopverse/internal/service/user"
)

func (a *api) listUsers(c *gin.Context) {
	actor, _ := currentUser(c)
	page, ok := a.bindPage(c)
	if !ok {
		return
	}
	isActive, err := queryBool(c, "isActive")
	if err != nil {
		a.fail(c, err)
		return
	}
	users, p, err := a.deps.UserSvc.List(c.Request.Context(), actor, usersvc.ListInput{
		Search:   strings.TrimSpace(c.Query("search")),
		Role:     c.Query("role"),
		IsActive: isActive,
		Page:     page.Page,
		Limit:    page.Limit,
	})
	if err != nil {
		a.fail(c, err)
		return
	}
	respondPage(c, "Users retrieved successfully", orEmpty(users), p)
}

func (a *api) getUser(c *gin.Context) {
	id, ok := a.pathID(c, "id")
	if !ok {
		return
	}
	actor, _ := currentUser(c)
	user, err := a.deps.UserSvc.Get(c.Request.Context(), actor, id)
	if err != nil {
		a.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "User retrieved successfully", gin.H{"user": user})
}

func (a *api) updateUser(c *gin.Context) {
	id, ok := a.pathID(c, "id")
	if !ok {
		return
	}
	var in usersvc.UpdateInput
	if !a.bindJSON(c, &in) {
		return
	}
	actor, _ := currentUser(c)
	user, err := a.deps.UserSvc.Update(c.Request.Context(), actor, id, in)
	if err != nil {
		a.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "User updated successfully", gin.H{"user": user})
}

func (a *api) deleteUser(c *gin.Context) {
	id, ok := a.pathID(c, "id")
	if !ok {
		return
	}
	actor, _ := currentUser(c)
	if err := a.deps.UserSvc.Delete(c.Request.Context(), actor, id); err != nil {
		a.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "User deleted successfully", nil)
}
