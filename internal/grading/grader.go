package grading

// ChecklistInput is the LTP self-assessment for a single trade.
// Fields omitted from the request body count as false: an item the trader
// did not check counts against the trade.
type ChecklistInput struct {
	HadLevel          bool `json:"hadLevel"`
	HadTrend          bool `json:"hadTrend"`
	HadPatienceCandle bool `json:"hadPatienceCandle"`
	FollowedRules     bool `json:"followedRules"`
}

// Letter is the letter grade assigned to a trade.
type Letter string

const (
	GradeA Letter = "A"
	GradeB Letter = "B"
	GradeC Letter = "C"
	GradeD Letter = "D"
	GradeF Letter = "F"
)

// GradeResult is the scored outcome of a checklist.
type GradeResult struct {
	Score    int      `json:"score"`
	Grade    Letter   `json:"grade"`
	Feedback []string `json:"feedback"`
}

const pointsPerItem = 25

// Improvement messages, one per checklist item, in checklist order.
const (
	feedbackLevel    = "Wait for price to reach a key level before entering."
	feedbackTrend    = "Confirm the trend is in your favor before taking the trade."
	feedbackPatience = "Let a patience candle form instead of chasing the entry."
	feedbackRules    = "Review your trading rules and follow them on every trade."
)

var gradeTable = map[int]Letter{
	100: GradeA,
	75:  GradeB,
	50:  GradeC,
	25:  GradeD,
	0:   GradeF,
}

// Grade scores a checklist: 25 points per checked item, letter grade from a
// fixed table, and one improvement message per unchecked item in checklist
// order (level, trend, patience, rules). Total over all 16 combinations.
func Grade(checklist ChecklistInput) GradeResult {
	items := []struct {
		ok       bool
		feedback string
	}{
		{checklist.HadLevel, feedbackLevel},
		{checklist.HadTrend, feedbackTrend},
		{checklist.HadPatienceCandle, feedbackPatience},
		{checklist.FollowedRules, feedbackRules},
	}

	score := 0
	feedback := make([]string, 0, len(items))
	for _, item := range items {
		if item.ok {
			score += pointsPerItem
		} else {
			feedback = append(feedback, item.feedback)
		}
	}

	return GradeResult{
		Score:    score,
		Grade:    gradeTable[score],
		Feedback: feedback,
	}
}
