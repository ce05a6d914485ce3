package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"mlboard/metrics"
	"mlboard/models"
)

const TypeExperimentCreated = "experiment:created"

type Task struct {
	ID uint
}

var redisOpt *asynq.RedisClientOpt

// Configure points the queue at redis. An empty address disables enqueueing.
func Configure(addr string) {
	if addr == "" {
		redisOpt = nil
		return
	}
	redisOpt = &asynq.RedisClientOpt{Addr: addr}
}

func Enabled() bool {
	return redisOpt != nil
}

func NewTask(typeName string, ID uint) error {
	if redisOpt == nil {
		metrics.TasksEnqueued.WithLabelValues(typeName, "disabled").Inc()
		return nil
	}
	client := asynq.NewClient(*redisOpt)
	defer client.Close()

	payload, err := json.Marshal(Task{ID: ID})
	if err != nil {
		log.Error().
			Err(err).
			Str("type", typeName).
			Uint("id", ID).
			Msgf("failed to create new task")
		return err
	}
	task := asynq.NewTask(typeName, payload)

	taskID := typeName + ":" + strconv.FormatUint(uint64(ID), 10)
	_, err = client.Enqueue(task, asynq.TaskID(taskID), asynq.MaxRetry(1))
	if err != nil {
		metrics.TasksEnqueued.WithLabelValues(typeName, "failed").Inc()
		log.Error().
			Err(err).
			Str("type", typeName).
			Str("task", taskID).
			Msg("failed to enqueue task")
		return err
	}
	metrics.TasksEnqueued.WithLabelValues(typeName, "enqueued").Inc()
	return nil
}

type Summary struct {
	Parameters       int
	Metrics          []string
	NonStringMetrics int
}

func Summarize(exp *models.Experiment) Summary {
	var s Summary

	var params map[string]json.RawMessage
	if len(exp.ModelParameters) > 0 && json.Unmarshal(exp.ModelParameters, &params) == nil {
		s.Parameters = len(params)
	}

	var eval struct {
		MetricList []any `json:"metric_list"`
	}
	if len(exp.EvaluationParameters) > 0 && json.Unmarshal(exp.EvaluationParameters, &eval) == nil {
		for _, m := range eval.MetricList {
			if name, ok := m.(string); ok {
				s.Metrics = append(s.Metrics, name)
			} else {
				s.NonStringMetrics++
			}
		}
	}
	return s
}

func HandleExperimentCreated(ctx context.Context, t *asynq.Task) error {
	var task Task
	var exp models.Experiment

	err := json.Unmarshal(t.Payload(), &task)
	if err != nil {
		return fmt.Errorf("bad payload: %v: %w", err, asynq.SkipRetry)
	}

	if err := models.DB.WithContext(ctx).First(&exp, task.ID).Error; err != nil {
		log.Error().
			Err(err).
			Str("type", t.Type()).
			Uint("experiment", task.ID).
			Msg("experiment not found")
		return err
	}

	s := Summarize(&exp)
	if s.NonStringMetrics > 0 {
		log.Warn().
			Uint("experiment", exp.ID).
			Int("non_string", s.NonStringMetrics).
			Msg("metric_list holds non-string entries; field discovery lists them by their json text")
	}
	log.Info().
		Uint("experiment", exp.ID).
		Uint("project", exp.ProjectID).
		Int("parameters", s.Parameters).
		Strs("metrics", s.Metrics).
		Msg("experiment recorded")
	return nil
}
