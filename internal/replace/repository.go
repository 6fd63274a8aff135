package replace

import (
	"errors"

	"gorm.io/gorm"

	"github.com/mrlokans/reader/internal/entities"
)

// ErrNotFound is returned when a rule does not exist.
var ErrNotFound = errors.New("replace: rule not found")

// Repository handles replace-rule database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new replace-rule repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListRules returns all rules in application order.
func (r *Repository) ListRules() ([]entities.ReplaceRule, error) {
	var rules []entities.ReplaceRule
	err := r.db.Order("sort_order ASC, id ASC").Find(&rules).Error
	return rules, err
}

// ListEnabledRules returns only the enabled rules in application order.
func (r *Repository) ListEnabledRules() ([]entities.ReplaceRule, error) {
	var rules []entities.ReplaceRule
	err := r.db.Where("enabled = ?", true).Order("sort_order ASC, id ASC").Find(&rules).Error
	return rules, err
}

// CreateRule persists a new rule.
func (r *Repository) CreateRule(rule *entities.ReplaceRule) error {
	return r.db.Create(rule).Error
}

// UpdateRule saves changes to an existing rule.
func (r *Repository) UpdateRule(rule *entities.ReplaceRule) error {
	var existing entities.ReplaceRule
	if err := r.db.First(&existing, rule.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return r.db.Save(rule).Error
}

// DeleteRule removes a rule by ID.
func (r *Repository) DeleteRule(id uint) error {
	result := r.db.Delete(&entities.ReplaceRule{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
