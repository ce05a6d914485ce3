package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"

	"mlboard/api/errs"
	"mlboard/api/types"
	"mlboard/auth"
	"mlboard/metrics"
	"mlboard/models"
	"mlboard/services"
	"mlboard/tasks"
)

func ExperimentList(c *gin.Context) {
	var modelID *uint
	if raw := c.Param("model_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.Error(errs.ErrInvalidModelID)
			return
		}
		v := uint(id)
		modelID = &v
	}
	listExperiments(c, auth.ProjectID(c), modelID, 0)
}

// listExperiments writes the serialized experiments with status, or 200 when
// status is zero.
func listExperiments(c *gin.Context, projectID uint, modelID *uint, status int) {
	experiments, err := services.ListExperiments(projectID, modelID)
	if err != nil {
		c.Error(err)
		return
	}

	paramFields := c.QueryArray("param_fields[]")
	metricFields := c.QueryArray("metric_fields[]")

	if status == 0 {
		status = http.StatusOK
	}
	c.JSON(status, types.NewExperimentList(experiments, paramFields, metricFields))
}

func ExperimentDelete(c *gin.Context) {
	request, err := bindDeleteRequest(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, types.NewValidationResponse(err))
		return
	}

	var ids []uint
	switch {
	case request.ModelID != "":
		ids, err = services.ParseIDList(request.ModelID.String())
	case request.ModelIDs != "":
		ids, err = services.ParseIDList(request.ModelIDs)
	default:
		err = errs.ErrMissingDeleteIDs
	}
	if err != nil {
		c.Error(err)
		return
	}

	if err := services.DeleteExperiments(auth.ProjectID(c), ids); err != nil {
		c.Error(err)
		return
	}
	metrics.ExperimentsDeleted.Add(float64(len(ids)))
	c.Status(http.StatusNoContent)
}

// bindDeleteRequest reads the ids from a json body, a urlencoded body or the
// query string. net/http leaves DELETE form bodies unparsed, so those are
// decoded here.
func bindDeleteRequest(c *gin.Context) (types.DeleteRequest, error) {
	var request types.DeleteRequest

	if c.ContentType() != binding.MIMEPOSTForm {
		if err := c.ShouldBind(&request); err != nil && !errors.Is(err, io.EOF) {
			return request, err
		}
		return request, nil
	}

	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return request, err
	}
	values, err := url.ParseQuery(string(raw))
	if err != nil {
		return request, err
	}
	for k, v := range c.Request.URL.Query() {
		if _, ok := values[k]; !ok {
			values[k] = v
		}
	}
	request.ModelID = json.Number(values.Get("model_id"))
	request.ModelIDs = values.Get("model_ids")
	return request, nil
}

func ExperimentCreate(c *gin.Context) {
	var request types.ExperimentRequest

	if err := c.ShouldBindWith(&request, binding.JSON); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, types.NewValidationResponse(err))
		return
	}

	if request.ExperimentID == "" {
		request.ExperimentID = uuid.NewString()
	}
	exp := models.Experiment{
		ExperimentID:         request.ExperimentID,
		Name:                 request.Name,
		Algorithm:            request.Algorithm,
		Platform:             request.Platform,
		ProjectID:            auth.ProjectID(c),
		UserID:               auth.CurrentUser(c).ID,
		ModelParameters:      jsonOrNil(request.ModelParameters),
		EvaluationParameters: jsonOrNil(request.EvaluationParameters),
	}

	created, err := services.CreateExperiment(&exp)
	if err != nil {
		c.Error(err)
		return
	}
	if !created {
		metrics.ExperimentsCreated.WithLabelValues("existing").Inc()
		c.JSON(http.StatusOK, types.ModelIDResponse{ModelID: exp.ID})
		return
	}

	metrics.ExperimentsCreated.WithLabelValues("created").Inc()
	if err := tasks.NewTask(tasks.TypeExperimentCreated, exp.ID); err != nil {
		log.Warn().
			Err(err).
			Uint("experiment", exp.ID).
			Msg("experiment saved but follow-up task was not queued")
	}
	c.JSON(http.StatusCreated, types.ModelIDResponse{ModelID: exp.ID})
}

func jsonOrNil(raw []byte) datatypes.JSON {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return datatypes.JSON(raw)
}
