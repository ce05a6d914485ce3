package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"mlboard/api/errs"
	"mlboard/models"
)

// ListExperiments returns the project's experiments newest first. A non-nil
// modelID narrows the result to that single experiment.
func ListExperiments(projectID uint, modelID *uint) ([]models.Experiment, error) {
	var experiments []models.Experiment

	q := models.DB.Preload("User").Where("project_id = ?", projectID)
	if modelID != nil {
		q = q.Where("id = ?", *modelID)
	}
	if err := q.Order("created_at DESC").Order("id DESC").Find(&experiments).Error; err != nil {
		log.Error().
			Err(err).
			Uint("project", projectID).
			Msg("failed to list experiments")
		return nil, err
	}
	return experiments, nil
}

// CreateExperiment inserts exp unless its experiment id already exists. On a
// duplicate, exp is replaced by the stored record and created is false.
func CreateExperiment(exp *models.Experiment) (created bool, err error) {
	res := models.DB.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "experiment_id"}},
			DoNothing: true,
		}).
		Create(exp)
	if res.Error != nil {
		log.Error().
			Err(res.Error).
			Str("experiment", exp.ExperimentID).
			Msg("failed to create experiment")
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return true, nil
	}

	var existing models.Experiment
	if err := models.DB.First(&existing, "experiment_id = ?", exp.ExperimentID).Error; err != nil {
		return false, fmt.Errorf("failed to load experiment %s: %w", exp.ExperimentID, err)
	}
	if existing.ProjectID != exp.ProjectID {
		return false, errs.ErrExperimentConflict
	}
	*exp = existing
	return false, nil
}

// DeleteExperiments removes every id from the project in one transaction.
// An id missing from the project aborts the whole delete.
func DeleteExperiments(projectID uint, ids []uint) error {
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		for _, id := range ids {
			res := tx.Where("project_id = ?", projectID).Delete(&models.Experiment{}, id)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("experiment %d: %w", id, errs.ErrExperimentNotFound)
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, errs.ErrExperimentNotFound) {
		log.Error().
			Err(err).
			Uint("project", projectID).
			Msg("failed to delete experiments")
	}
	return err
}

// ParseIDList accepts "7" or "1, 2,3". Empty entries are skipped.
func ParseIDList(raw string) ([]uint, error) {
	var ids []uint
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseUint(part, 10, 64)
		if err != nil || id == 0 {
			return nil, fmt.Errorf("%q: %w", part, errs.ErrInvalidModelID)
		}
		ids = append(ids, uint(id))
	}
	if len(ids) == 0 {
		return nil, errs.ErrMissingDeleteIDs
	}
	return ids, nil
}
