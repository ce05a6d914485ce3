package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"mlboard/api/errs"
	"mlboard/api/types"
	"mlboard/auth"
	"mlboard/services"
)

// ParamFields lists the parameter and metric columns a project's experiments
// can be displayed with.
func ParamFields(c *gin.Context) {
	result, err := services.FieldNames(auth.ProjectID(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func ParamData(c *gin.Context) {
	keys := c.PostFormArray("param_fields[]")
	if len(keys) == 0 && c.ContentType() == binding.MIMEJSON {
		var request types.ParamDataRequest
		if err := c.ShouldBindWith(&request, binding.JSON); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, types.NewValidationResponse(err))
			return
		}
		keys = request.ParamFields
	}

	fields := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			fields = append(fields, k)
		}
	}
	if len(fields) == 0 {
		c.Error(errs.ErrMissingParamFields)
		return
	}

	rows, err := services.ParamValues(auth.ProjectID(c), fields)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, rows)
}
