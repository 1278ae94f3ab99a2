package batch

import (
	"log/slog"
	"time"
)

// Summary aggregates one batch run.
type Summary struct {
	Records  int
	Resolved int // at least one inducing commit
	Empty    int
	Failed   int

	Repositories int
	Duration     time.Duration

	durations []float64
	answers   []float64
}

func (s *Summary) record(answers int, took time.Duration, failed bool) {
	s.Records++
	switch {
	case failed:
		s.Failed++
	case answers == 0:
		s.Empty++
	default:
		s.Resolved++
	}
	s.durations = append(s.durations, took.Seconds())
	s.answers = append(s.answers, float64(answers))
}

func (s *Summary) merge(other *Summary) {
	s.Records += other.Records
	s.Resolved += other.Resolved
	s.Empty += other.Empty
	s.Failed += other.Failed
	s.durations = append(s.durations, other.durations...)
	s.answers = append(s.answers, other.answers...)
}

// AverageAnswers is the mean number of inducing commits per record.
func (s *Summary) AverageAnswers() float64 {
	return mean(s.answers)
}

// SlowestRecord is the longest single resolution.
func (s *Summary) SlowestRecord() time.Duration {
	return time.Duration(maxOf(s.durations) * float64(time.Second))
}

func (s *Summary) Log(logger *slog.Logger) {
	logger.Info("batch finished",
		"records", s.Records,
		"repositories", s.Repositories,
		"resolved", s.Resolved,
		"empty", s.Empty,
		"failed", s.Failed,
		"avg_answers", s.AverageAnswers(),
		"slowest", s.SlowestRecord().Round(time.Millisecond),
		"duration", s.Duration.Round(time.Millisecond),
	)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func maxOf(values []float64) float64 {
	var m float64
	for _, v := range values {
		if v > m {
			m = v
		}
	}
	return m
}
