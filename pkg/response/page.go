package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// PageMeta describes one page of a list response.
type PageMeta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// PageBody is the envelope for paginated list responses.
type PageBody struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Meta    PageMeta    `json:"meta"`
}

// Paginated sends a 200 JSON response with data and page metadata.
func Paginated(c *gin.Context, data interface{}, page, limit int, total int64) {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	c.JSON(http.StatusOK, PageBody{
		Success: true,
		Data:    data,
		Meta: PageMeta{
			Page:       page,
			Limit:      limit,
			TotalItems: total,
			TotalPages: totalPages,
		},
	})
}
