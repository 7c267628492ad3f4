package repository

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"student-records/internal/model"
)

// AnalyticsRepository holds the fixed catalog of aggregate queries. Every
// value reaches the server as a positional argument; the only text spliced
// into a statement is a filter fragment chosen here.
type AnalyticsRepository struct {
	db DBTX
}

func NewAnalyticsRepository(db DBTX) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

const topCoursesSQL = `
	SELECT c.id, c.name, c.code, c.credits, c.year,
	       COUNT(r.id)  AS enrollment_count,
	       AVG(r.score) AS average_score,
	       MAX(r.score) AS max_score,
	       MIN(r.score) AS min_score
	FROM courses c
	INNER JOIN results r ON r.course_id = c.id
	WHERE c.year = $1
	GROUP BY c.id, c.name, c.code, c.credits, c.year
	ORDER BY enrollment_count DESC, c.id ASC
	LIMIT $2`

func (r *AnalyticsRepository) TopCourses(ctx context.Context, year int, limit int) ([]model.TopCourse, error) {
	rows, err := r.db.Query(ctx, topCoursesSQL, year, limit)
	if err != nil {
		return nil, fmt.Errorf("query top courses: %w", err)
	}
	defer rows.Close()

	courses := make([]model.TopCourse, 0)
	for rows.Next() {
		var c model.TopCourse
		if err := rows.Scan(&c.ID, &c.Name, &c.Code, &c.Credits, &c.Year,
			&c.EnrollmentCount, &c.AverageScore, &c.MaxScore, &c.MinScore); err != nil {
			return nil, fmt.Errorf("scan top course: %w", err)
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

const topStudentsSQL = `
	SELECT s.id, s.name, s.email, i.name AS institute_name,
	       COUNT(r.id)  AS total_courses,
	       AVG(r.score) AS average_score,
	       SUM(r.score) AS total_score,
	       MAX(r.score) AS highest_score,
	       MIN(r.score) AS lowest_score,
	       RANK() OVER (ORDER BY AVG(r.score) DESC) AS rank_position
	FROM students s
	INNER JOIN results r ON r.student_id = s.id
	INNER JOIN institutes i ON i.id = s.institute_id
	%s
	GROUP BY s.id, s.name, s.email, i.name
	ORDER BY average_score DESC, s.id ASC
	LIMIT $%d`

// TopStudents ranks students by average score. A year restricts which
// results are aggregated, not which rows are returned afterwards.
func (r *AnalyticsRepository) TopStudents(ctx context.Context, year *int, limit int) ([]model.TopStudent, error) {
	args := make([]any, 0, 2)
	where := ""
	if year != nil {
		args = append(args, *year)
		where = fmt.Sprintf("WHERE r.year = $%d", len(args))
	}
	args = append(args, limit)

	rows, err := r.db.Query(ctx, fmt.Sprintf(topStudentsSQL, where, len(args)), args...)
	if err != nil {
		return nil, fmt.Errorf("query top students: %w", err)
	}
	defer rows.Close()

	students := make([]model.TopStudent, 0)
	for rows.Next() {
		var s model.TopStudent
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &s.InstituteName,
			&s.TotalCourses, &s.AverageScore, &s.TotalScore, &s.HighestScore, &s.LowestScore, &s.Rank); err != nil {
			return nil, fmt.Errorf("scan top student: %w", err)
		}
		students = append(students, s)
	}
	return students, rows.Err()
}

const institutePerformanceSQL = `
	SELECT i.id, i.name, i.address, i.contact,
	       COUNT(DISTINCT s.id)       AS total_students,
	       COUNT(DISTINCT r.course_id) AS total_courses_offered,
	       COUNT(r.id)                AS total_results,
	       AVG(r.score)               AS average_score,
	       MAX(r.score)               AS highest_score,
	       MIN(r.score)               AS lowest_score,
	       PERCENTILE_CONT(0.5) WITHIN GROUP (ORDER BY r.score) AS median_score
	FROM institutes i
	LEFT JOIN students s ON s.institute_id = i.id
	LEFT JOIN results r ON r.student_id = s.id %s
	GROUP BY i.id, i.name, i.address, i.contact
	ORDER BY average_score DESC NULLS LAST, i.id ASC`

// InstitutePerformance keeps the year filter in the join so institutes
// without matching results still produce a row with NULL aggregates.
func (r *AnalyticsRepository) InstitutePerformance(ctx context.Context, year *int) ([]model.InstitutePerformance, error) {
	args := make([]any, 0, 1)
	joinFilter := ""
	if year != nil {
		args = append(args, *year)
		joinFilter = fmt.Sprintf("AND r.year = $%d", len(args))
	}

	rows, err := r.db.Query(ctx, fmt.Sprintf(institutePerformanceSQL, joinFilter), args...)
	if err != nil {
		return nil, fmt.Errorf("query institute performance: %w", err)
	}
	defer rows.Close()

	stats := make([]model.InstitutePerformance, 0)
	for rows.Next() {
		var p model.InstitutePerformance
		if err := rows.Scan(&p.ID, &p.Name, &p.Address, &p.Contact,
			&p.TotalStudents, &p.TotalCoursesOffered, &p.TotalResults,
			&p.AverageScore, &p.HighestScore, &p.LowestScore, &p.MedianScore); err != nil {
			return nil, fmt.Errorf("scan institute performance: %w", err)
		}
		stats = append(stats, p)
	}
	return stats, rows.Err()
}

func (r *AnalyticsRepository) GradeBuckets(ctx context.Context, courseID int64) ([]model.GradeBucket, error) {
	rows, err := r.db.Query(ctx,
		`SELECT grade, COUNT(id) AS grade_count, AVG(score) AS average_score
		 FROM results
		 WHERE course_id = $1
		 GROUP BY grade
		 ORDER BY grade ASC`, courseID)
	if err != nil {
		return nil, fmt.Errorf("query grade buckets: %w", err)
	}
	defer rows.Close()

	buckets := make([]model.GradeBucket, 0)
	for rows.Next() {
		var b model.GradeBucket
		if err := rows.Scan(&b.Grade, &b.Count, &b.AverageScore); err != nil {
			return nil, fmt.Errorf("scan grade bucket: %w", err)
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}

const instituteResultsSQL = `
	SELECT r.id, r.student_id, r.course_id, r.institute_id, r.score, r.grade, r.year, r.created_at,
	       s.id, s.name, s.email, s.institute_id,
	       c.id, c.name, c.code, c.credits, c.year,
	       i.id, i.name, i.address, i.contact
	FROM results r
	INNER JOIN students s ON s.id = r.student_id
	INNER JOIN courses c ON c.id = r.course_id
	INNER JOIN institutes i ON i.id = r.institute_id
	%s
	ORDER BY r.score DESC, r.id ASC
	LIMIT $%d OFFSET $%d`

// InstituteResults returns one page of results and the unpaged total.
// The page and the count run concurrently on separate pool connections.
func (r *AnalyticsRepository) InstituteResults(ctx context.Context, q model.InstituteResultsQuery) ([]model.InstituteResult, int, error) {
	where := "WHERE r.institute_id = $1"
	args := []any{q.InstituteID}
	if q.Year != nil {
		args = append(args, *q.Year)
		where += fmt.Sprintf(" AND r.year = $%d", len(args))
	}
	filterArgs := len(args)

	offset := (q.Page - 1) * q.Limit
	pageArgs := append(append(make([]any, 0, filterArgs+2), args...), q.Limit, offset)
	pageSQL := fmt.Sprintf(instituteResultsSQL, where, filterArgs+1, filterArgs+2)

	var (
		total   int
		results []model.InstituteResult
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := r.db.QueryRow(gctx, "SELECT COUNT(*) FROM results r "+where, args...).Scan(&total); err != nil {
			return fmt.Errorf("count institute results: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		page, err := r.instituteResultsPage(gctx, pageSQL, pageArgs)
		if err != nil {
			return err
		}
		results = page
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	return results, total, nil
}

func (r *AnalyticsRepository) instituteResultsPage(ctx context.Context, sql string, args []any) ([]model.InstituteResult, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query institute results: %w", err)
	}
	defer rows.Close()

	results := make([]model.InstituteResult, 0)
	for rows.Next() {
		var res model.InstituteResult
		if err := rows.Scan(
			&res.ID, &res.StudentID, &res.CourseID, &res.InstituteID, &res.Score, &res.Grade, &res.Year, &res.CreatedAt,
			&res.Student.ID, &res.Student.Name, &res.Student.Email, &res.Student.InstituteID,
			&res.Course.ID, &res.Course.Name, &res.Course.Code, &res.Course.Credits, &res.Course.Year,
			&res.Institute.ID, &res.Institute.Name, &res.Institute.Address, &res.Institute.Contact,
		); err != nil {
			return nil, fmt.Errorf("scan institute result: %w", err)
		}
		results = append(results, res)
	}
	return results, rows.Err()
}
