package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	appErrors "github.com/unilab-dev/uni-records-api/pkg/errors"
)

// pathID parses the named path parameter as a positive integer identifier.
func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Validation([]string{name + " must be a positive integer"})
	}
	return id, nil
}
