package testutils

import (
	"fmt"
	"strings"
	"testing"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"mlboard/config"
	"mlboard/models"
)

// SetupDB points models.DB at a fresh in-memory sqlite database for t.
func SetupDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := models.Open(config.Database{
		Driver: "sqlite",
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	prev := models.DB
	models.DB = db
	t.Cleanup(func() {
		models.DB = prev
		sqlDB.Close()
	})
	return db
}

func CreateUser(t *testing.T, username string) *models.User {
	t.Helper()
	user := &models.User{Username: username, Email: username + "@example.com"}
	must(t, models.DB.Create(user).Error)
	return user
}

// CreateProject creates a project owned by owner and makes every member
// (owner included) a member of it.
func CreateProject(t *testing.T, name string, owner *models.User, members ...*models.User) *models.Project {
	t.Helper()
	project := &models.Project{Name: name, OwnerID: owner.ID}
	must(t, models.DB.Create(project).Error)
	for _, u := range append([]*models.User{owner}, members...) {
		must(t, models.DB.Create(&models.Membership{UserID: u.ID, ProjectID: project.ID}).Error)
	}
	return project
}

func CreateExperiment(t *testing.T, project *models.Project, user *models.User, experimentID, params, eval string) *models.Experiment {
	t.Helper()
	exp := &models.Experiment{
		ExperimentID: experimentID,
		Name:         experimentID,
		ProjectID:    project.ID,
		UserID:       user.ID,
	}
	if params != "" {
		exp.ModelParameters = datatypes.JSON(params)
	}
	if eval != "" {
		exp.EvaluationParameters = datatypes.JSON(eval)
	}
	must(t, models.DB.Create(exp).Error)
	return exp
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("fixture: %v", err)
	}
}
