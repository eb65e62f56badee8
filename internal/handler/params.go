package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/equipment-tracker/pkg/errors"
)

// pathID parses a positive integer path parameter.
func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, name+" must be a positive integer")
	}
	return id, nil
}

func invalidPayload(err error) error {
	return appErrors.Validation(err, "invalid payload")
}

func invalidQuery(err error) error {
	return appErrors.Validation(err, "invalid query parameters")
}
