package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/formula-ihu/quiz-api/internal/domain/entity"
	apperrors "github.com/formula-ihu/quiz-api/internal/pkg/errors"
)

// QuizRepo implements repository.QuizRepository on top of the content tables.
type QuizRepo struct {
	db *gorm.DB
}

// NewQuizRepo creates the content store repository.
func NewQuizRepo(db *gorm.DB) *QuizRepo {
	return &QuizRepo{db: db}
}

// GetActive returns the quiz with is_active = true.
func (r *QuizRepo) GetActive(ctx context.Context) (*entity.QuizDefinition, error) {
	return r.first(ctx, func(tx *gorm.DB) *gorm.DB {
		// the partial unique index keeps this to one row; the order is a guard for legacy data
		return tx.Where("is_active = ?", true).Order("updated_at DESC")
	})
}

// GetLatest returns the most recently created quiz of any activity state.
func (r *QuizRepo) GetLatest(ctx context.Context) (*entity.QuizDefinition, error) {
	return r.first(ctx, func(tx *gorm.DB) *gorm.DB {
		return tx.Order("created_at DESC, id DESC")
	})
}

func (r *QuizRepo) first(ctx context.Context, scope func(*gorm.DB) *gorm.DB) (*entity.QuizDefinition, error) {
	if r.db == nil {
		return nil, apperrors.ErrNotConfigured
	}

	var quiz entity.QuizDefinition
	err := scope(r.db.WithContext(ctx)).
		Preload("Questions", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("position ASC")
		}).
		First(&quiz).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &quiz, nil
}

// Save creates or replaces a quiz together with its questions in one transaction.
// Existing questions of the quiz are replaced wholesale, so positions always
// match what the administrator imported.
func (r *QuizRepo) Save(ctx context.Context, quiz *entity.QuizDefinition) error {
	if r.db == nil {
		return apperrors.ErrNotConfigured
	}
	if err := quiz.Validate(); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if quiz.IsActive {
			if err := deactivateAll(tx, quiz.ID); err != nil {
				return err
			}
		}

		questions := quiz.Questions
		quiz.Questions = nil
		if err := tx.Save(quiz).Error; err != nil {
			return fmt.Errorf("save quiz: %w", err)
		}

		if err := tx.Where("quiz_id = ?", quiz.ID).Delete(&entity.Question{}).Error; err != nil {
			return fmt.Errorf("clear questions of quiz #%d: %w", quiz.ID, err)
		}
		for i := range questions {
			questions[i].ID = 0
			questions[i].QuizID = quiz.ID
		}
		if len(questions) > 0 {
			if err := tx.Create(&questions).Error; err != nil {
				return fmt.Errorf("create questions of quiz #%d: %w", quiz.ID, err)
			}
		}
		quiz.Questions = questions
		return nil
	})
}

// Activate flags quizID as the only active quiz.
func (r *QuizRepo) Activate(ctx context.Context, quizID uint) error {
	if r.db == nil {
		return apperrors.ErrNotConfigured
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deactivateAll(tx, quizID); err != nil {
			return err
		}
		result := tx.Model(&entity.QuizDefinition{}).Where("id = ?", quizID).Update("is_active", true)
		if result.Error != nil {
			if isUniqueViolation(result.Error) {
				return fmt.Errorf("%w: another quiz is already active", apperrors.ErrConflict)
			}
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperrors.ErrNotFound
		}
		return nil
	})
}

// List returns every quiz without questions, newest first.
func (r *QuizRepo) List(ctx context.Context) ([]entity.QuizDefinition, error) {
	if r.db == nil {
		return nil, apperrors.ErrNotConfigured
	}
	var quizzes []entity.QuizDefinition
	err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&quizzes).Error
	return quizzes, err
}

func deactivateAll(tx *gorm.DB, exceptID uint) error {
	if err := tx.Model(&entity.QuizDefinition{}).
		Where("is_active = ? AND id <> ?", true, exceptID).
		Update("is_active", false).Error; err != nil {
		return fmt.Errorf("deactivate quizzes: %w", err)
	}
	return nil
}
