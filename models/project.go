package models

import "time"

type Project struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Description string    `json:"description"`
	OwnerID     uint      `gorm:"index" json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`

	Owner User `gorm:"foreignKey:OwnerID" json:"-"`
}

// Membership grants a user access to a project.
type Membership struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_membership_user_project;not null" json:"user_id"`
	ProjectID uint      `gorm:"uniqueIndex:idx_membership_user_project;not null" json:"project_id"`
	CreatedAt time.Time `json:"created_at"`

	User    User    `gorm:"foreignKey:UserID" json:"-"`
	Project Project `gorm:"foreignKey:ProjectID" json:"-"`
}

func IsMember(userID, projectID uint) (bool, error) {
	var count int64
	err := DB.Model(&Membership{}).
		Where("user_id = ? AND project_id = ?", userID, projectID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
