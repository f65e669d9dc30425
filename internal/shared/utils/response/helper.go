package response

import "github.com/gin-gonic/gin"

// RespondJSON writes payload as-is with the given status
func RespondJSON(c *gin.Context, code int, payload interface{}) {
	c.JSON(code, payload)
}

// RespondError writes {"error": message} with the given status
func RespondError(c *gin.Context, code int, message string) {
	c.JSON(code, ErrorResponse{Error: message})
}

// AbortWithError writes the error body and stops the handler chain
func AbortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, ErrorResponse{Error: message})
}
