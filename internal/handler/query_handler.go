package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"student-records/internal/model"
	"student-records/pkg/apierror"
)

type analyticsService interface {
	TopCourses(ctx context.Context, q model.TopCoursesQuery) (model.TopCoursesReport, error)
	TopStudents(ctx context.Context, q model.TopStudentsQuery) (model.TopStudentsReport, error)
	InstitutePerformance(ctx context.Context, year *int) (model.InstitutePerformanceReport, error)
	CourseGradeDistribution(ctx context.Context, courseID int64) (model.GradeDistribution, error)
	InstituteResults(ctx context.Context, q model.InstituteResultsQuery) (model.InstituteResultsPage, error)
}

type QueryHandler struct {
	service analyticsService
}

func NewQueryHandler(service analyticsService) *QueryHandler {
	return &QueryHandler{service: service}
}

func (h *QueryHandler) TopCourses(w http.ResponseWriter, r *http.Request) {
	year, limit, err := yearAndLimit(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	report, err := h.service.TopCourses(r.Context(), model.TopCoursesQuery{Year: year, Limit: limit})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, "", report)
}

func (h *QueryHandler) TopStudents(w http.ResponseWriter, r *http.Request) {
	year, limit, err := yearAndLimit(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	report, err := h.service.TopStudents(r.Context(), model.TopStudentsQuery{Year: year, Limit: limit})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, "", report)
}

func (h *QueryHandler) InstitutePerformance(w http.ResponseWriter, r *http.Request) {
	year, err := optionalQueryInt(r, "year")
	if err != nil {
		writeError(w, r, err)
		return
	}

	report, err := h.service.InstitutePerformance(r.Context(), year)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, "", report)
}

func (h *QueryHandler) CourseGrades(w http.ResponseWriter, r *http.Request) {
	courseID, err := pathID(r, "courseId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	dist, err := h.service.CourseGradeDistribution(r.Context(), courseID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, "", dist)
}

func (h *QueryHandler) InstituteResults(w http.ResponseWriter, r *http.Request) {
	instituteID, err := pathID(r, "instituteId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	q := model.InstituteResultsQuery{InstituteID: instituteID}
	if q.Year, err = optionalQueryInt(r, "year"); err != nil {
		writeError(w, r, err)
		return
	}
	if q.Page, err = queryInt(r, "page"); err != nil {
		writeError(w, r, err)
		return
	}
	if q.Limit, err = queryInt(r, "limit"); err != nil {
		writeError(w, r, err)
		return
	}

	page, err := h.service.InstituteResults(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writePage(w, page.Results, page.Pagination)
}

func yearAndLimit(r *http.Request) (*int, int, error) {
	year, err := optionalQueryInt(r, "year")
	if err != nil {
		return nil, 0, err
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		return nil, 0, err
	}
	return year, limit, nil
}

// queryInt returns 0 for an absent parameter so the service applies its default.
func queryInt(r *http.Request, name string) (int, error) {
	v, err := optionalQueryInt(r, name)
	if err != nil || v == nil {
		return 0, err
	}
	return *v, nil
}

func optionalQueryInt(r *http.Request, name string) (*int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, apierror.Validation(name+" must be an integer", name)
	}
	return &v, nil
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apierror.Validation(name+" must be a positive integer", name)
	}
	return id, nil
}
