package model

type TopCourse struct {
	Course
	EnrollmentCount int64   `json:"enrollmentCount"`
	AverageScore    float64 `json:"averageScore"`
	MaxScore        float64 `json:"maxScore"`
	MinScore        float64 `json:"minScore"`
}

type TopCoursesReport struct {
	Year    int         `json:"year"`
	Courses []TopCourse `json:"courses"`
}

type TopStudent struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	InstituteName string  `json:"instituteName"`
	TotalCourses  int64   `json:"totalCourses"`
	AverageScore  float64 `json:"averageScore"`
	TotalScore    float64 `json:"totalScore"`
	HighestScore  float64 `json:"highestScore"`
	LowestScore   float64 `json:"lowestScore"`
	Rank          int64   `json:"rank"`
}

type TopStudentsReport struct {
	Year     *int         `json:"year,omitempty"`
	Students []TopStudent `json:"students"`
}

// InstitutePerformance aggregates are nil when the institute has no results.
type InstitutePerformance struct {
	Institute
	TotalStudents       int64    `json:"totalStudents"`
	TotalCoursesOffered int64    `json:"totalCoursesOffered"`
	TotalResults        int64    `json:"totalResults"`
	AverageScore        *float64 `json:"averageScore"`
	HighestScore        *float64 `json:"highestScore"`
	LowestScore         *float64 `json:"lowestScore"`
	MedianScore         *float64 `json:"medianScore"`
}

type InstitutePerformanceReport struct {
	Year       *int                   `json:"year,omitempty"`
	Institutes []InstitutePerformance `json:"institutes"`
}

// GradeBucket is one raw group-by row before percentages are derived.
type GradeBucket struct {
	Grade        string
	Count        int64
	AverageScore float64
}

type GradeDistributionEntry struct {
	Grade        string  `json:"grade"`
	Count        int64   `json:"count"`
	Percentage   float64 `json:"percentage"`
	AverageScore float64 `json:"averageScore"`
}

type GradeDistribution struct {
	CourseID     int64                    `json:"courseId"`
	TotalResults int64                    `json:"totalResults"`
	Grades       []GradeDistributionEntry `json:"grades"`
}

type InstituteResult struct {
	Result
	Student   Student   `json:"student"`
	Course    Course    `json:"course"`
	Institute Institute `json:"institute"`
}

type TopCoursesQuery struct {
	Year  *int
	Limit int
}

type TopStudentsQuery struct {
	Year  *int
	Limit int
}

type InstituteResultsQuery struct {
	InstituteID int64
	Page        int
	Limit       int
	Year        *int
}

type InstituteResultsPage struct {
	Results    []InstituteResult `json:"results"`
	Pagination Pagination        `json:"pagination"`
}
