package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/huangang/caseeval/internal/middleware"
	"github.com/huangang/caseeval/internal/services"
	"github.com/huangang/caseeval/pkg/response"
)

// pathID parses the :id path parameter, writing a 400 when it is not a
// positive integer.
func pathID(c *gin.Context, what string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		response.BadRequest(c, "invalid "+what+" id")
		return 0, false
	}
	return uint(id), true
}

func viewerOf(c *gin.Context) services.Viewer {
	return services.Viewer{
		UserID:  middleware.GetUserID(c),
		IsAdmin: middleware.IsAdmin(c),
	}
}
