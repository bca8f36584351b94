package router

import (
	"alterearth/internal/handlers"
	"alterearth/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine) {
	r.Use(middleware.LoadUser())

	postHandler := handlers.NewPostHandler()
	commentHandler := handlers.NewCommentHandler()
	voteHandler := handlers.NewVoteHandler()
	userHandler := handlers.NewUserHandler()

	// Public routes
	r.GET("/posts", postHandler.List)
	r.GET("/posts/:id", postHandler.Detail)
	r.GET("/posts/:id/comments", commentHandler.Tree)
	r.GET("/users/:id", userHandler.Profile)

	// Protected routes
	authorized := r.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.POST("/posts", postHandler.Create)
		authorized.DELETE("/posts/:id", postHandler.Delete)
		authorized.POST("/posts/:id/deactivate", postHandler.Deactivate)

		authorized.POST("/posts/:id/comments", commentHandler.Create)
		authorized.PUT("/comments/:id", commentHandler.Edit)
		authorized.DELETE("/comments/:id", commentHandler.Delete)

		authorized.POST("/vote/:type/:id", voteHandler.Cast)
		authorized.DELETE("/vote/:type/:id", voteHandler.Retract)
		authorized.GET("/vote/:type/:id", voteHandler.Status)

		authorized.GET("/me/karma", userHandler.KarmaLogs)
	}
}
