package model

import "time"

type Institute struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Contact string `json:"contact"`
}

type Student struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	InstituteID int64  `json:"instituteId"`
}

type Course struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Code    string `json:"code"`
	Credits int    `json:"credits"`
	Year    int    `json:"year"`
}

type Result struct {
	ID          int64     `json:"id"`
	StudentID   int64     `json:"studentId"`
	CourseID    int64     `json:"courseId"`
	InstituteID int64     `json:"instituteId"`
	Score       float64   `json:"score"`
	Grade       string    `json:"grade"`
	Year        int       `json:"year"`
	CreatedAt   time.Time `json:"createdAt"`
}

// GradeForScore maps a 0-100 score to its letter grade.
func GradeForScore(score float64) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}
