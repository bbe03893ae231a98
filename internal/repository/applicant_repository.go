package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/campushub/admissions-agent-api/internal/models"
)

// ApplicantRepository reads ranking input rows.
type ApplicantRepository struct {
	db *sqlx.DB
}

// NewApplicantRepository constructs the repository.
func NewApplicantRepository(db *sqlx.DB) *ApplicantRepository {
	return &ApplicantRepository{db: db}
}

// ListByCourse returns the applicants for one course in application order.
func (r *ApplicantRepository) ListByCourse(ctx context.Context, institutionID, courseID string) ([]models.Applicant, error) {
	const query = `SELECT id, name, aps_score
FROM applicants WHERE institution_id = $1 AND course_id = $2 ORDER BY applied_at ASC, id ASC`
	var applicants []models.Applicant
	if err := r.db.SelectContext(ctx, &applicants, query, institutionID, courseID); err != nil {
		return nil, fmt.Errorf("list applicants: %w", err)
	}
	return applicants, nil
}

// CourseIntakeLimit returns the configured intake for one course; 0 when
// the course has no explicit limit.
func (r *ApplicantRepository) CourseIntakeLimit(ctx context.Context, courseID string) (int, error) {
	var limit int
	if err := r.db.GetContext(ctx, &limit, `SELECT intake_limit FROM courses WHERE id = $1`, courseID); err != nil {
		return 0, fmt.Errorf("course intake limit: %w", err)
	}
	return limit, nil
}

// CountByInstitution returns the tenant's total applicant count.
func (r *ApplicantRepository) CountByInstitution(ctx context.Context, institutionID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM applicants WHERE institution_id = $1`, institutionID); err != nil {
		return 0, fmt.Errorf("count applicants: %w", err)
	}
	return count, nil
}
