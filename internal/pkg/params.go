package pkg

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ParseIDParam parses a positive integer path parameter.
func ParseIDParam(c *gin.Context, name string) (uint, error) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s: %s", name, raw)
	}
	if id > uint64(^uint(0)) {
		return 0, fmt.Errorf("%s out of range: %s", name, raw)
	}
	return uint(id), nil
}
