package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func newApplicantRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestApplicantRepositoryListByCourse(t *testing.T) {
	db, mock, cleanup := newApplicantRepoMock(t)
	defer cleanup()
	repo := NewApplicantRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "aps_score"}).
		AddRow("app-1", "Thandi N", 42.0).
		AddRow("app-2", "Sipho M", 38.5)
	mock.ExpectQuery(regexp.QuoteMeta("FROM applicants WHERE institution_id = $1 AND course_id = $2 ORDER BY applied_at ASC, id ASC")).
		WithArgs("inst-1", "course-1").
		WillReturnRows(rows)

	applicants, err := repo.ListByCourse(context.Background(), "inst-1", "course-1")
	require.NoError(t, err)
	require.Len(t, applicants, 2)
	require.Equal(t, "Thandi N", applicants[0].Name)
	require.Equal(t, 38.5, applicants[1].APSScore)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicantRepositoryCourseIntakeLimit(t *testing.T) {
	db, mock, cleanup := newApplicantRepoMock(t)
	defer cleanup()
	repo := NewApplicantRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT intake_limit FROM courses WHERE id = $1")).
		WithArgs("course-1").
		WillReturnRows(sqlmock.NewRows([]string{"intake_limit"}).AddRow(120))

	limit, err := repo.CourseIntakeLimit(context.Background(), "course-1")
	require.NoError(t, err)
	require.Equal(t, 120, limit)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicantRepositoryCountByInstitution(t *testing.T) {
	db, mock, cleanup := newApplicantRepoMock(t)
	defer cleanup()
	repo := NewApplicantRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM applicants WHERE institution_id = $1")).
		WithArgs("inst-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	count, err := repo.CountByInstitution(context.Background(), "inst-1")
	require.NoError(t, err)
	require.Equal(t, 7, count)
	require.NoError(t, mock.ExpectationsWereMet())
}
