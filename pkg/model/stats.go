package model

const (
	MonthlyGoal = 100
	YearlyGoal  = 365
)

type Stats struct {
	Prayers  Count `json:"total_oraciones"`
	Missions Count `json:"total_misiones"`
	Answered Count `json:"misiones_respondidas"`
}

// Progress returns percent of goal reached, capped at 100.
func Progress(n Count, goal int) float64 {
	if goal <= 0 {
		return 0
	}

	p := float64(n) * 100 / float64(goal)
	if p > 100 {
		return 100
	}

	return p
}

func (s *Stats) MonthlyProgress() float64 {
	return Progress(s.Prayers, MonthlyGoal)
}

func (s *Stats) YearlyProgress() float64 {
	return Progress(s.Prayers, YearlyGoal)
}
