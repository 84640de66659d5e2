package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	engagementsvc "shopverse/internal/service/engagement"
)

func (a *api) listLikes(c *gin.Context) {
	page, ok := a.bindPage(c)
	if !ok {
		return
	}
	user, _ := currentUser(c)
	likes, p, err := a.deps.EngagementSvc.Likes(c.Request.Context(), user.ID, page.Page, page.Limit)
	if err != nil {
		a.fail(c, err)
		return
	}
	respondPage(c, "Liked products retrieved successfully", orEmpty(likes), p)
}

func (a *api) checkLike(c *gin.Context) {
	productID, ok := a.pathID(c, "productId")
	if !ok {
		return
	}
	user, _ := currentUser(c)
	liked, err := a.deps.EngagementSvc.IsLiked(c.Request.Context(), user.ID, productID)
	if err != nil {
		a.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Like status checked successfully", gin.H{"isLiked": liked})
}

func (a *api) like(c *gin.Context) {
	productID, ok := a.pathID(c, "productId")
	if !ok {
		return
	}
	user, _ := currentUser(c)
	like, err := a.deps.EngagementSvc.Like(c.Request.Context(), user.ID, productID)
	if err != nil {
		a.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "Product liked successfully", gin.H{"like": like})
}

func (a *api) unlike(c *gin.Context) {
	productID, ok := a.pathID(c, "productId")
	if !ok {
		return
	}
	user, _ := currentUser(c)
	if err := a.deps.EngagementSvc.Unlike(c.Request.Context(), user.ID, productID); err != nil {
		a.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Product unliked successfully", nil)
}

func (a *api) productComments(c *gin.Context) {
	productID, ok := a.pathID(c, "id")
	if !ok {
		return
	}
	page, ok := a.bindPage(c)
	if !ok {
		return
	}
	comments, p, err := a.deps.EngagementSvc.ProductComments(c.Request.Context(), productID, page.Page, page.Limit)
	if err != nil {
		a.fail(c, err)
		return
	}
	respondPage(c, "Comments retrieved successfully", orEmpty(comments), p)
}

func (a *api) createComment(c *gin.Context) {
	productID, ok := a.pathID(c, "id")
	if !ok {
		return
	}
	var in engagementsvc.CreateCommentInput
	if !a.bindJSON(c, &in) {
		return
	}
	user, _ := currentUser(c)
	comment, err := a.deps.EngagementSvc.CreateComment(c.Request.Context(), user.ID, productID, in)
	if err != nil {
		a.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "Comment added successfully", gin.H{"comment": comment})
}

func (a *api) myComments(c *gin.Context) {
	page, ok := a.bindPage(c)
	if !ok {
		return
	}
	user, _ := currentUser(c)
	comments, p, err := a.deps.EngagementSvc.UserComments(c.Request.Context(), user.ID, page.Page, page.Limit)
	if err != nil {
		a.fail(c, err)
		return
	}
	respondPage(c, "User comments retrieved successfully", orEmpty(comments), p)
}

func (a *api) updateComment(c *gin.Context) {
	id, ok := a.pathID(c, "id")
	if !ok {
		return
	}
	var in engagementsvc.UpdateCommentInput
	if !a.bindJSON(c, &in) {
		return
	}
	actor, _ := currentUser(c)
	comment, err := a.deps.EngagementSvc.UpdateComment(c.Request.Context(), actor, id, in)
	if err != nil {
		a.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Comment updated successfully", gin.H{"comment": comment})
}

func (a *api) deleteComment(c *gin.Context) {
	id, ok := a.pathID(c, "id")
	if !ok {
		return
	}
	actor, _ := currentUser(c)
	if err := a.deps.EngagementSvc.DeleteComment(c.Request.Context(), actor, id); err != nil {
		a.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Comment deleted successfully", nil)
}
