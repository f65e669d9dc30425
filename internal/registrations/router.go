package registrations

import "github.com/gin-gonic/gin"

func SetupRegistrationRoutes(router *gin.RouterGroup, controller Controller, verificationEnabled bool) {
	router.POST("/register", controller.Register)
	router.GET("/verify_email/:email", controller.VerifyEmailExists)
	router.GET("/verify_limits", controller.VerifyLimits)

	// Token verification only exists for the persistent deployment
	if verificationEnabled {
		router.GET("/verify/:token", controller.VerifyToken)
	}
}
