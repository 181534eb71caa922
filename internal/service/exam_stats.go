package service

import (
	"math"

	"github.com/unilab-dev/uni-records-api/internal/models"
)

// ComputeExamStats aggregates a student's exam list in memory: total count,
// mean grade rounded to two decimals, and a count per grade band. Every band
// from 2 to 5 is present in the result even when zero. An empty list yields a
// zero average by explicit branch, never a division by zero.
func ComputeExamStats(exams []models.ExamView) models.ExamStats {
	stats := models.ExamStats{
		GradeBands: make(map[int]int, models.GradeMax-models.GradeMin+1),
	}
	for band := models.GradeMin; band <= models.GradeMax; band++ {
		stats.GradeBands[band] = 0
	}

	if len(exams) == 0 {
		return stats
	}

	sum := 0
	for _, exam := range exams {
		sum += exam.Grade
		stats.GradeBands[exam.Grade]++
	}
	stats.Count = len(exams)
	stats.AverageGrade = math.Round(float64(sum)/float64(stats.Count)*100) / 100
	return stats
}
