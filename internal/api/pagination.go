package api

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

// PageResponse is the envelope every list endpoint returns.
type PageResponse struct {
	Count    int64       `json:"count"`
	Next     *string     `json:"next"`
	Previous *string     `json:"previous"`
	Results  interface{} `json:"results"`
}

type pageParams struct {
	page  int
	limit int
}

func (p pageParams) offset() int {
	return (p.page - 1) * p.limit
}

// parsePageParams reads `page` and `limit` from the query string. The page
// size is clamped to [1, maxSize].
func parsePageParams(c *gin.Context, defaultSize, maxSize int) pageParams {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 1 {
		page = 1
	}

	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit < 1 {
		limit = defaultSize
	}
	if limit > maxSize {
		limit = maxSize
	}

	return pageParams{page: page, limit: limit}
}

// newPageResponse builds the envelope with absolute next/previous URLs
// derived from the current request.
func newPageResponse(c *gin.Context, base string, p pageParams, count int64, results interface{}) PageResponse {
	resp := PageResponse{Count: count, Results: results}

	if int64(p.offset()+p.limit) < count {
		resp.Next = pageURL(c, base, p.page+1)
	}
	if p.page > 1 {
		resp.Previous = pageURL(c, base, p.page-1)
	}
	return resp
}

func pageURL(c *gin.Context, base string, page int) *string {
	u := *c.Request.URL
	query := u.Query()
	query.Set("page", strconv.Itoa(page))
	u.RawQuery = query.Encode()

	absolute := base + u.Path
	if u.RawQuery != "" {
		absolute += "?" + u.RawQuery
	}
	return &absolute
}

// queryUint parses a numeric query parameter, 0 when absent or malformed.
func queryUint(c *gin.Context, name string) uint {
	value := c.Query(name)
	if value == "" {
		return 0
	}
	n, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return 0
	}
	return uint(n)
}

// pathID parses the numeric :id path parameter.
func pathID(c *gin.Context) (uint, error) {
	n, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", c.Param("id"))
	}
	return uint(n), nil
}
