package repository_test

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"student-records/internal/model"
	"student-records/internal/repository"
)

func ptr[T any](v T) *T { return &v }

func TestAnalyticsRepository_TopCourses(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	columns := []string{"id", "name", "code", "credits", "year", "enrollment_count", "average_score", "max_score", "min_score"}
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY enrollment_count DESC, c.id ASC")).
		WithArgs(2024, 5).
		WillReturnRows(pgxmock.NewRows(columns).
			AddRow(int64(7), "Physics 7", "PHYS101", 3, 2024, int64(40), 71.5, 99.0, 12.0).
			AddRow(int64(3), "Biology 3", "BIO220", 2, 2024, int64(40), 68.25, 97.0, 3.0))

	courses, err := repository.NewAnalyticsRepository(mock).TopCourses(context.Background(), 2024, 5)
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, int64(7), courses[0].ID)
	assert.Equal(t, int64(40), courses[0].EnrollmentCount)
	assert.Equal(t, 71.5, courses[0].AverageScore)
	assert.Equal(t, "BIO220", courses[1].Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalyticsRepository_TopStudents(t *testing.T) {
	columns := []string{"id", "name", "email", "institute_name", "total_courses", "average_score",
		"total_score", "highest_score", "lowest_score", "rank_position"}

	t.Run("all years binds only the limit", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(regexp.QuoteMeta("LIMIT $1")).
			WithArgs(10).
			WillReturnRows(pgxmock.NewRows(columns).
				AddRow(int64(2), "B", "b@example.com", "Institute 1", int64(1), 95.0, 95.0, 95.0, 95.0, int64(1)).
				AddRow(int64(1), "A", "a@example.com", "Institute 1", int64(2), 85.0, 170.0, 90.0, 80.0, int64(2)))

		students, err := repository.NewAnalyticsRepository(mock).TopStudents(context.Background(), nil, 10)
		require.NoError(t, err)
		require.Len(t, students, 2)
		assert.Equal(t, int64(1), students[0].Rank)
		assert.Equal(t, 85.0, students[1].AverageScore)
		assert.Equal(t, int64(2), students[1].Rank)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("year filters before grouping", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(regexp.QuoteMeta("WHERE r.year = $1")).
			WithArgs(2024, 3).
			WillReturnRows(pgxmock.NewRows(columns))

		students, err := repository.NewAnalyticsRepository(mock).TopStudents(context.Background(), ptr(2024), 3)
		require.NoError(t, err)
		assert.Empty(t, students)
		assert.NotNil(t, students)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAnalyticsRepository_InstitutePerformance(t *testing.T) {
	columns := []string{"id", "name", "address", "contact", "total_students", "total_courses_offered",
		"total_results", "average_score", "highest_score", "lowest_score", "median_score"}

	t.Run("institute without results keeps null aggregates", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN results r ON r.student_id = s.id")).
			WillReturnRows(pgxmock.NewRows(columns).
				AddRow(int64(1), "Institute 1", "1 Main Street", "+1555", int64(2), int64(3), int64(4),
					ptr(75.0), ptr(90.0), ptr(60.0), ptr(77.5)).
				AddRow(int64(2), "Empty Institute", "", "", int64(0), int64(0), int64(0), nil, nil, nil, nil))

		stats, err := repository.NewAnalyticsRepository(mock).InstitutePerformance(context.Background(), nil)
		require.NoError(t, err)
		require.Len(t, stats, 2)
		require.NotNil(t, stats[0].MedianScore)
		assert.Equal(t, 77.5, *stats[0].MedianScore)
		assert.Equal(t, "Empty Institute", stats[1].Name)
		assert.Nil(t, stats[1].AverageScore)
		assert.Nil(t, stats[1].MedianScore)
		assert.Equal(t, int64(0), stats[1].TotalResults)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("year goes into the join condition", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(regexp.QuoteMeta("r.student_id = s.id AND r.year = $1")).
			WithArgs(2023).
			WillReturnRows(pgxmock.NewRows(columns))

		_, err = repository.NewAnalyticsRepository(mock).InstitutePerformance(context.Background(), ptr(2023))
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAnalyticsRepository_GradeBuckets(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("GROUP BY grade").
		WithArgs(int64(12)).
		WillReturnRows(pgxmock.NewRows([]string{"grade", "grade_count", "average_score"}).
			AddRow("A", int64(1), 95.0).
			AddRow("B", int64(2), 84.5))

	buckets, err := repository.NewAnalyticsRepository(mock).GradeBuckets(context.Background(), 12)
	require.NoError(t, err)
	assert.Equal(t, []model.GradeBucket{
		{Grade: "A", Count: 1, AverageScore: 95},
		{Grade: "B", Count: 2, AverageScore: 84.5},
	}, buckets)

	mock.ExpectQuery("GROUP BY grade").
		WithArgs(int64(13)).
		WillReturnError(fmt.Errorf("db error"))
	_, err = repository.NewAnalyticsRepository(mock).GradeBuckets(context.Background(), 13)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query grade buckets")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalyticsRepository_InstituteResults(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	mock.MatchExpectationsInOrder(false)

	now := time.Now().UTC()
	columns := []string{
		"id", "student_id", "course_id", "institute_id", "score", "grade", "year", "created_at",
		"sid", "sname", "semail", "sinstitute_id",
		"cid", "cname", "ccode", "ccredits", "cyear",
		"iid", "iname", "iaddress", "icontact",
	}

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM results r WHERE r.institute_id = $1 AND r.year = $2")).
		WithArgs(int64(4), 2024).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(25))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY r.score DESC, r.id ASC LIMIT $3 OFFSET $4")).
		WithArgs(int64(4), 2024, 10, 10).
		WillReturnRows(pgxmock.NewRows(columns).
			AddRow(int64(11), int64(1), int64(2), int64(4), 88.0, "B", 2024, now,
				int64(1), "Jane Smith 1", "jane@example.com", int64(4),
				int64(2), "Chemistry 2", "CHEM200", 4, 2024,
				int64(4), "Institute 4", "9 Road", "+1999"))

	results, total, err := repository.NewAnalyticsRepository(mock).InstituteResults(context.Background(), model.InstituteResultsQuery{
		InstituteID: 4,
		Page:        2,
		Limit:       10,
		Year:        ptr(2024),
	})
	require.NoError(t, err)
	assert.Equal(t, 25, total)
	require.Len(t, results, 1)
	assert.Equal(t, "B", results[0].Grade)
	assert.Equal(t, "Jane Smith 1", results[0].Student.Name)
	assert.Equal(t, "CHEM200", results[0].Course.Code)
	assert.Equal(t, int64(4), results[0].Institute.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
