package handlers

import "github.com/gin-gonic/gin"

const APIVersion = "1.0.0"

func Index(ctx *gin.Context) {
	RespondOK(ctx, gin.H{
		"message": "Task Management API",
		"version": APIVersion,
		"endpoints": gin.H{
			"auth":        "/auth/login, /auth/logout, /auth/register, /auth/me",
			"tasks":       "/tasks",
			"users":       "/users",
			"assignments": "/tasks/:id/assign, /users/:id/tasks",
		},
	})
}
