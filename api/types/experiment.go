package types

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"mlboard/models"
)

type UserSummary struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

type Experiment struct {
	ID                   uint            `json:"id"`
	ExperimentID         string          `json:"experiment_id"`
	Name                 string          `json:"name"`
	Algorithm            string          `json:"algorithm"`
	Platform             string          `json:"platform"`
	ProjectID            uint            `json:"project_id"`
	User                 UserSummary     `json:"user"`
	DateCreated          time.Time       `json:"date_created"`
	ModelParameters      json.RawMessage `json:"model_parameters"`
	EvaluationParameters json.RawMessage `json:"evaluation_parameters"`
	ParamFields          map[string]any  `json:"param_fields"`
	MetricFields         map[string]any  `json:"metric_fields"`
}

// evaluation holds the parts of evaluation_parameters the serializer reads.
// Summary maps a metric name to its display variants, addressed as name$i.
type evaluation struct {
	MetricList []any            `json:"metric_list"`
	Summary    map[string][]any `json:"summary"`
}

func NewExperimentList(experiments []models.Experiment, paramFields, metricFields []string) []Experiment {
	out := make([]Experiment, 0, len(experiments))
	for i := range experiments {
		out = append(out, NewExperiment(&experiments[i], paramFields, metricFields))
	}
	return out
}

func NewExperiment(e *models.Experiment, paramFields, metricFields []string) Experiment {
	return Experiment{
		ID:                   e.ID,
		ExperimentID:         e.ExperimentID,
		Name:                 e.Name,
		Algorithm:            e.Algorithm,
		Platform:             e.Platform,
		ProjectID:            e.ProjectID,
		User:                 UserSummary{ID: e.User.ID, Username: e.User.Username},
		DateCreated:          e.CreatedAt,
		ModelParameters:      rawOrNull(e.ModelParameters),
		EvaluationParameters: rawOrNull(e.EvaluationParameters),
		ParamFields:          selectParams(e.ModelParameters, paramFields),
		MetricFields:         selectMetrics(e.EvaluationParameters, metricFields),
	}
}

func rawOrNull(raw []byte) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("null")
	}
	return json.RawMessage(raw)
}

func selectParams(raw []byte, fields []string) map[string]any {
	selected := map[string]any{}
	if len(fields) == 0 || len(raw) == 0 {
		return selected
	}
	var params map[string]any
	if err := json.Unmarshal(raw, &params); err != nil {
		return selected
	}
	for _, f := range fields {
		if v, ok := params[f]; ok {
			selected[f] = v
		}
	}
	return selected
}

func selectMetrics(raw []byte, fields []string) map[string]any {
	selected := map[string]any{}
	if len(fields) == 0 {
		return selected
	}
	var eval evaluation
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &eval)
	}
	for _, f := range fields {
		name, variant, ok := SplitMetricField(f)
		if !ok {
			continue
		}
		var value any
		if values := eval.Summary[name]; variant < len(values) {
			value = values[variant]
		}
		selected[f] = value
	}
	return selected
}

// MetricField builds the column name for the given metric display variant.
func MetricField(name string, variant int) string {
	return name + "$" + strconv.Itoa(variant)
}

// SplitMetricField parses "accuracy$1" into ("accuracy", 1).
func SplitMetricField(field string) (string, int, bool) {
	i := strings.LastIndexByte(field, '$')
	if i <= 0 {
		return "", 0, false
	}
	variant, err := strconv.Atoi(field[i+1:])
	if err != nil || variant < 0 {
		return "", 0, false
	}
	return field[:i], variant, true
}
