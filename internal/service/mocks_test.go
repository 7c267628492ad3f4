package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"student-records/internal/model"
)

type mockTokenStore struct {
	mock.Mock
}

func (m *mockTokenStore) Create(ctx context.Context, t model.RefreshToken) error {
	return m.Called(ctx, t).Error(0)
}

func (m *mockTokenStore) FindByToken(ctx context.Context, token string) (model.RefreshToken, model.User, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(model.RefreshToken), args.Get(1).(model.User), args.Error(2)
}

func (m *mockTokenStore) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockTokenStore) Rotate(ctx context.Context, oldID string, next model.RefreshToken) error {
	return m.Called(ctx, oldID, next).Error(0)
}

func (m *mockTokenStore) RevokeForDevice(ctx context.Context, userID string, deviceID string) (int64, error) {
	args := m.Called(ctx, userID, deviceID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockTokenStore) RevokeAll(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockTokenStore) ListActive(ctx context.Context, userID string, now time.Time) ([]model.RefreshToken, error) {
	args := m.Called(ctx, userID, now)
	tokens, _ := args.Get(0).([]model.RefreshToken)
	return tokens, args.Error(1)
}

type mockUserStore struct {
	mock.Mock
}

func (m *mockUserStore) FindByID(ctx context.Context, id string) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *mockUserStore) FindByEmail(ctx context.Context, email string) (model.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *mockUserStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *mockUserStore) Create(ctx context.Context, u model.User) error {
	return m.Called(ctx, u).Error(0)
}

type mockAnalyticsStore struct {
	mock.Mock
}

func (m *mockAnalyticsStore) TopCourses(ctx context.Context, year int, limit int) ([]model.TopCourse, error) {
	args := m.Called(ctx, year, limit)
	rows, _ := args.Get(0).([]model.TopCourse)
	return rows, args.Error(1)
}

func (m *mockAnalyticsStore) TopStudents(ctx context.Context, year *int, limit int) ([]model.TopStudent, error) {
	args := m.Called(ctx, year, limit)
	rows, _ := args.Get(0).([]model.TopStudent)
	return rows, args.Error(1)
}

func (m *mockAnalyticsStore) InstitutePerformance(ctx context.Context, year *int) ([]model.InstitutePerformance, error) {
	args := m.Called(ctx, year)
	rows, _ := args.Get(0).([]model.InstitutePerformance)
	return rows, args.Error(1)
}

func (m *mockAnalyticsStore) GradeBuckets(ctx context.Context, courseID int64) ([]model.GradeBucket, error) {
	args := m.Called(ctx, courseID)
	rows, _ := args.Get(0).([]model.GradeBucket)
	return rows, args.Error(1)
}

func (m *mockAnalyticsStore) InstituteResults(ctx context.Context, q model.InstituteResultsQuery) ([]model.InstituteResult, int, error) {
	args := m.Called(ctx, q)
	rows, _ := args.Get(0).([]model.InstituteResult)
	return rows, args.Int(1), args.Error(2)
}
