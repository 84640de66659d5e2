package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	authsvc "shopverse/internal/service/auth"
)

func (a *api) register(c *gin.Context) {
	var in authsvc.RegisterInput
	if !a.bindJSON(c, &in) {
		return
	}
	session, err := a.deps.AuthSvc.Register(c.Request.Context(), in)
	if err != nil {
		a.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "User registered successfully", session)
}

func (a *api) login(c *gin.Context) {
	var in authsvc.LoginInput
	if !a.bindJSON(c, &in) {
		return
	}
	session, err := a.deps.AuthSvc.Login(c.Request.Context(), in)
	if err != nil {
		a.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Login successful", session)
}

func (a *api) me(c *gin.Context) {
	actor, _ := currentUser(c)
	user, err := a.deps.AuthSvc.Profile(c.Request.Context(), actor.ID)
	if err != nil {
		a.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Profile retrieved successfully", gin.H{"user": user})
}

// logout is an acknowledgement only; tokens are not tracked server side.
func (a *api) logout(c *gin.Context) {
	respond(c, http.StatusOK, "Logout successful", nil)
}
