package respond

import (
	"github.com/gin-gonic/gin"
)

// JSON writes a JSON response with the given status.
func JSON(c *gin.Context, status int, payload interface{}) {
	c.JSON(status, payload)
}

// Success writes {success:true} merged with fields. A "success" entry in
// fields is overwritten.
func Success(c *gin.Context, status int, fields gin.H) {
	body := make(gin.H, len(fields)+1)
	for k, v := range fields {
		body[k] = v
	}
	body["success"] = true
	c.JSON(status, body)
}
