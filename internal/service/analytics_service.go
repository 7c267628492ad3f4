package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"student-records/internal/cache"
	"student-records/internal/model"
	"student-records/pkg/apierror"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100

	// MaxPage keeps (page-1)*limit inside int32 for any accepted limit.
	MaxPage = math.MaxInt32 / MaxLimit
)

type AnalyticsStore interface {
	TopCourses(ctx context.Context, year int, limit int) ([]model.TopCourse, error)
	TopStudents(ctx context.Context, year *int, limit int) ([]model.TopStudent, error)
	InstitutePerformance(ctx context.Context, year *int) ([]model.InstitutePerformance, error)
	GradeBuckets(ctx context.Context, courseID int64) ([]model.GradeBucket, error)
	InstituteResults(ctx context.Context, q model.InstituteResultsQuery) ([]model.InstituteResult, int, error)
}

// AnalyticsService runs the fixed catalog of aggregate reports, normalizing
// their inputs and caching shaped results for a short time.
type AnalyticsService struct {
	store  AnalyticsStore
	cache  cache.Cache
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

func NewAnalyticsService(store AnalyticsStore, c cache.Cache, ttl time.Duration, logger *slog.Logger) *AnalyticsService {
	if c == nil || ttl <= 0 {
		c = cache.Noop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalyticsService{
		store:  store,
		cache:  c,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// TopCourses defaults to the current calendar year.
func (s *AnalyticsService) TopCourses(ctx context.Context, q model.TopCoursesQuery) (model.TopCoursesReport, error) {
	if err := validateYear(q.Year); err != nil {
		return model.TopCoursesReport{}, err
	}
	year := s.now().Year()
	if q.Year != nil {
		year = *q.Year
	}
	limit := ClampLimit(q.Limit)

	key := fmt.Sprintf("top-courses:year=%d:limit=%d", year, limit)
	return cached(ctx, s, key, func(ctx context.Context) (model.TopCoursesReport, error) {
		courses, err := s.store.TopCourses(ctx, year, limit)
		if err != nil {
			s.logger.Error("top courses query failed", "year", year, "limit", limit, "error", err)
			return model.TopCoursesReport{}, err
		}
		for i := range courses {
			courses[i].AverageScore = round2(courses[i].AverageScore)
		}
		return model.TopCoursesReport{Year: year, Courses: courses}, nil
	})
}

func (s *AnalyticsService) TopStudents(ctx context.Context, q model.TopStudentsQuery) (model.TopStudentsReport, error) {
	if err := validateYear(q.Year); err != nil {
		return model.TopStudentsReport{}, err
	}
	limit := ClampLimit(q.Limit)

	key := fmt.Sprintf("top-students:year=%s:limit=%d", yearKey(q.Year), limit)
	return cached(ctx, s, key, func(ctx context.Context) (model.TopStudentsReport, error) {
		students, err := s.store.TopStudents(ctx, q.Year, limit)
		if err != nil {
			s.logger.Error("top students query failed", "year", yearKey(q.Year), "limit", limit, "error", err)
			return model.TopStudentsReport{}, err
		}
		for i := range students {
			students[i].AverageScore = round2(students[i].AverageScore)
			students[i].TotalScore = round2(students[i].TotalScore)
		}
		return model.TopStudentsReport{Year: q.Year, Students: students}, nil
	})
}

func (s *AnalyticsService) InstitutePerformance(ctx context.Context, year *int) (model.InstitutePerformanceReport, error) {
	if err := validateYear(year); err != nil {
		return model.InstitutePerformanceReport{}, err
	}

	key := "institute-performance:year=" + yearKey(year)
	return cached(ctx, s, key, func(ctx context.Context) (model.InstitutePerformanceReport, error) {
		stats, err := s.store.InstitutePerformance(ctx, year)
		if err != nil {
			s.logger.Error("institute performance query failed", "year", yearKey(year), "error", err)
			return model.InstitutePerformanceReport{}, err
		}
		for i := range stats {
			stats[i].AverageScore = round2Ptr(stats[i].AverageScore)
			stats[i].MedianScore = round2Ptr(stats[i].MedianScore)
		}
		return model.InstitutePerformanceReport{Year: year, Institutes: stats}, nil
	})
}

// CourseGradeDistribution reports each grade's share of the course's results.
// A course without results yields no buckets and a zero total.
func (s *AnalyticsService) CourseGradeDistribution(ctx context.Context, courseID int64) (model.GradeDistribution, error) {
	if courseID <= 0 {
		return model.GradeDistribution{}, apierror.Validation("courseId must be a positive integer", "courseId")
	}

	key := fmt.Sprintf("course-grades:course=%d", courseID)
	return cached(ctx, s, key, func(ctx context.Context) (model.GradeDistribution, error) {
		buckets, err := s.store.GradeBuckets(ctx, courseID)
		if err != nil {
			s.logger.Error("grade distribution query failed", "course_id", courseID, "error", err)
			return model.GradeDistribution{}, err
		}
		return gradeDistribution(courseID, buckets), nil
	})
}

func (s *AnalyticsService) InstituteResults(ctx context.Context, q model.InstituteResultsQuery) (model.InstituteResultsPage, error) {
	if q.InstituteID <= 0 {
		return model.InstituteResultsPage{}, apierror.Validation("instituteId must be a positive integer", "instituteId")
	}
	if err := validateYear(q.Year); err != nil {
		return model.InstituteResultsPage{}, err
	}
	q.Page = ClampPage(q.Page)
	if q.Page > MaxPage {
		return model.InstituteResultsPage{}, apierror.Validation(
			fmt.Sprintf("page must not exceed %d", MaxPage), "page")
	}
	q.Limit = ClampLimit(q.Limit)

	key := fmt.Sprintf("institute-results:institute=%d:year=%s:page=%d:limit=%d",
		q.InstituteID, yearKey(q.Year), q.Page, q.Limit)
	return cached(ctx, s, key, func(ctx context.Context) (model.InstituteResultsPage, error) {
		results, total, err := s.store.InstituteResults(ctx, q)
		if err != nil {
			s.logger.Error("institute results query failed",
				"institute_id", q.InstituteID, "year", yearKey(q.Year), "page", q.Page, "limit", q.Limit, "error", err)
			return model.InstituteResultsPage{}, err
		}
		return model.InstituteResultsPage{
			Results:    results,
			Pagination: model.NewPagination(q.Page, q.Limit, total),
		}, nil
	})
}

func gradeDistribution(courseID int64, buckets []model.GradeBucket) model.GradeDistribution {
	var total int64
	for _, b := range buckets {
		total += b.Count
	}

	grades := make([]model.GradeDistributionEntry, 0, len(buckets))
	for _, b := range buckets {
		entry := model.GradeDistributionEntry{
			Grade:        b.Grade,
			Count:        b.Count,
			AverageScore: round2(b.AverageScore),
		}
		if total > 0 {
			entry.Percentage = round2(float64(b.Count) / float64(total) * 100)
		}
		grades = append(grades, entry)
	}

	return model.GradeDistribution{CourseID: courseID, TotalResults: total, Grades: grades}
}

// cached serves key from the cache when present. Cache faults are logged
// and never fail the request.
func cached[T any](ctx context.Context, s *AnalyticsService, key string, load func(context.Context) (T, error)) (T, error) {
	var hit T
	found, err := s.cache.Get(ctx, key, &hit)
	if err != nil {
		s.logger.Warn("analytics cache read failed", "key", key, "error", err)
	} else if found {
		return hit, nil
	}

	value, err := load(ctx)
	if err != nil {
		return value, err
	}

	if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
		s.logger.Warn("analytics cache write failed", "key", key, "error", err)
	}
	return value, nil
}

// ClampLimit maps a missing or non-positive limit to DefaultLimit and caps it at MaxLimit.
func ClampLimit(limit int) int {
	switch {
	case limit < 1:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

func ClampPage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

func validateYear(year *int) error {
	if year != nil && *year <= 0 {
		return apierror.Validation("year must be a positive integer", "year")
	}
	return nil
}

func yearKey(year *int) string {
	if year == nil {
		return "all"
	}
	return strconv.Itoa(*year)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round2Ptr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := round2(*v)
	return &r
}
