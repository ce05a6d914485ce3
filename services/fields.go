package services

import (
	"github.com/rs/zerolog/log"

	"mlboard/api/types"
	"mlboard/models"
)

// Each query has a postgres (jsonb) and a sqlite (json1) rendition. All of
// them skip blobs of the wrong json type instead of failing. Metric names that
// are not json strings are listed by their json text.
var (
	paramNameQuery = map[string]string{
		"postgres": `
SELECT DISTINCT k.name AS name
FROM experiments e,
	jsonb_object_keys(CASE WHEN jsonb_typeof(e.model_parameters::jsonb) = 'object'
		THEN e.model_parameters::jsonb ELSE '{}'::jsonb END) AS k(name)
WHERE e.project_id = ?
ORDER BY name`,
		"sqlite": `
SELECT DISTINCT je.key AS name
FROM experiments e, json_each(e.model_parameters) je
WHERE e.project_id = ?
AND json_type(e.model_parameters) = 'object'
ORDER BY name`,
	}

	metricNameQuery = map[string]string{
		"postgres": `
SELECT DISTINCT m.value #>> '{}' AS name
FROM experiments e,
	jsonb_array_elements(CASE WHEN jsonb_typeof(e.evaluation_parameters::jsonb -> 'metric_list') = 'array'
		THEN e.evaluation_parameters::jsonb -> 'metric_list' ELSE '[]'::jsonb END) AS m(value)
WHERE e.project_id = ?
AND jsonb_typeof(m.value) <> 'null'
ORDER BY name`,
		"sqlite": `
SELECT DISTINCT
	CASE je.type
		WHEN 'true' THEN 'true'
		WHEN 'false' THEN 'false'
		ELSE CAST(je.value AS TEXT)
	END AS name
FROM experiments e, json_each(e.evaluation_parameters, '$.metric_list') je
WHERE e.project_id = ?
AND json_type(e.evaluation_parameters, '$.metric_list') = 'array'
AND je.type <> 'null'
ORDER BY name`,
	}

	paramValueQuery = map[string]string{
		"postgres": `
SELECT DISTINCT e.id AS id, p.key AS "key", p.value AS "value"
FROM experiments e,
	jsonb_each_text(CASE WHEN jsonb_typeof(e.model_parameters::jsonb) = 'object'
		THEN e.model_parameters::jsonb ELSE '{}'::jsonb END) AS p
WHERE e.project_id = ?
AND p.key IN ?
ORDER BY e.id, p.key`,
		"sqlite": `
SELECT DISTINCT e.id AS id, je.key AS "key",
	CASE je.type
		WHEN 'true' THEN 'true'
		WHEN 'false' THEN 'false'
		WHEN 'null' THEN NULL
		ELSE CAST(je.value AS TEXT)
	END AS "value"
FROM experiments e, json_each(e.model_parameters) je
WHERE e.project_id = ?
AND json_type(e.model_parameters) = 'object'
AND je.key IN ?
ORDER BY e.id, je.key`,
	}
)

func dialectQuery(queries map[string]string) string {
	if q, ok := queries[models.DB.Dialector.Name()]; ok {
		return q
	}
	return queries["sqlite"]
}

// FieldNames lists the parameter keys and the expanded metric columns used by
// the project's experiments.
func FieldNames(projectID uint) (*types.FieldsResponse, error) {
	params := []types.FieldName{}
	if err := models.DB.Raw(dialectQuery(paramNameQuery), projectID).Scan(&params).Error; err != nil {
		log.Error().
			Err(err).
			Uint("project", projectID).
			Msg("failed to query parameter names")
		return nil, err
	}

	var metrics []types.FieldName
	if err := models.DB.Raw(dialectQuery(metricNameQuery), projectID).Scan(&metrics).Error; err != nil {
		log.Error().
			Err(err).
			Uint("project", projectID).
			Msg("failed to query metric names")
		return nil, err
	}

	result := &types.FieldsResponse{
		Parameter: params,
		Metric:    make([]types.FieldName, 0, 2*len(metrics)),
	}
	for _, m := range metrics {
		result.Metric = append(result.Metric,
			types.FieldName{Name: types.MetricField(m.Name, 0)},
			types.FieldName{Name: types.MetricField(m.Name, 1)},
		)
	}
	return result, nil
}

// ParamValues returns (experiment, key, value) rows for the requested keys.
func ParamValues(projectID uint, keys []string) ([]types.ParamValue, error) {
	rows := []types.ParamValue{}
	if err := models.DB.Raw(dialectQuery(paramValueQuery), projectID, keys).Scan(&rows).Error; err != nil {
		log.Error().
			Err(err).
			Uint("project", projectID).
			Strs("keys", keys).
			Msg("failed to query parameter values")
		return nil, err
	}
	return rows, nil
}
