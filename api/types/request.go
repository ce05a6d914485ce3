package types

import "encoding/json"

type ExperimentRequest struct {
	ExperimentID         string          `json:"experiment_id" form:"experiment_id" binding:"omitempty,max=64,printascii"`
	Name                 string          `json:"name" form:"name" binding:"max=200"`
	Algorithm            string          `json:"algorithm" form:"algorithm" binding:"max=200"`
	Platform             string          `json:"platform" form:"platform" binding:"max=50"`
	ModelParameters      json.RawMessage `json:"model_parameters" binding:"omitempty,json_object"`
	EvaluationParameters json.RawMessage `json:"evaluation_parameters" binding:"omitempty,json_object"`
}

// DeleteRequest carries either a single id or a comma-separated id list.
type DeleteRequest struct {
	ModelID  json.Number `json:"model_id" form:"model_id"`
	ModelIDs string      `json:"model_ids" form:"model_ids"`
}

type ParamDataRequest struct {
	ParamFields []string `json:"param_fields"`
}
