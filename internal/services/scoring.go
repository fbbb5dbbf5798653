package services

import (
	"fmt"

	"github.com/Craipes/StudyTestingSoftware-sub000/internal/models"
)

// SessionScore is the outcome of scoring one session against the live definition
type SessionScore struct {
	Total       float64
	MaxScore    float64
	PerQuestion map[uint]float64
	// Skipped lists questions whose definition could not be interpreted; they score 0.
	Skipped map[uint]error
}

// groupAnswers indexes recorded answers by question id
func groupAnswers(answers []models.Answer) map[uint][]models.Answer {
	grouped := make(map[uint][]models.Answer)
	for _, a := range answers {
		grouped[a.QuestionID] = append(grouped[a.QuestionID], a)
	}
	return grouped
}

// ScoreSession scores every question of def. The total is clamped to [0, MaxScore].
func ScoreSession(def *models.TestDefinition, answers []models.Answer) SessionScore {
	result := SessionScore{
		MaxScore:    def.MaxScore(),
		PerQuestion: make(map[uint]float64, len(def.Questions)),
		Skipped:     make(map[uint]error),
	}

	grouped := groupAnswers(answers)
	for i := range def.Questions {
		q := &def.Questions[i]
		score, err := ScoreQuestion(q, grouped[q.ID])
		if err != nil {
			result.Skipped[q.ID] = err
		}
		result.PerQuestion[q.ID] = score
		result.Total += score
	}

	result.Total = clamp(result.Total, 0, result.MaxScore)
	return result
}

// ScoreQuestion scores one question from the answers recorded for it. Missing answers
// score 0. An error means the question itself is malformed; its score is then 0.
func ScoreQuestion(q *models.Question, answers []models.Answer) (float64, error) {
	body, err := q.Body()
	if err != nil {
		return 0, err
	}

	switch b := body.(type) {
	case models.YesNoBody:
		a := singleAnswer(answers)
		if a == nil || a.BoolValue == nil {
			return 0, nil
		}
		if *a.BoolValue == b.Target {
			return q.Points, nil
		}
		return 0, nil

	case models.SliderBody:
		a := singleAnswer(answers)
		if a == nil || a.NumberValue == nil {
			return 0, nil
		}
		// exact equality, no tolerance band
		if *a.NumberValue == b.Target {
			return q.Points, nil
		}
		return 0, nil

	case models.SingleChoiceBody:
		a := singleAnswer(answers)
		if a == nil || a.SelectedOptionID == nil {
			return 0, nil
		}
		for _, o := range b.Options {
			if o.ID == *a.SelectedOptionID {
				if o.IsCorrect {
					return q.Points, nil
				}
				return 0, nil
			}
		}
		return 0, nil

	case models.MultipleChoiceBody:
		return scoreMultipleChoice(q.Points, b.Options, answers), nil

	case models.TableSingleChoiceBody:
		return scoreMatrix(q.Points, b.Rows, answers), nil

	case models.OrderingBody:
		return scoreMatrix(q.Points, b.Rows, answers), nil

	default:
		return 0, fmt.Errorf("no scoring rule for question %d of type %s", q.ID, q.Type)
	}
}

// scoreMultipleChoice credits every option whose selected state agrees with its
// correctness flag, unselected incorrect options included.
func scoreMultipleChoice(points float64, options []models.ChoiceOption, answers []models.Answer) float64 {
	if len(options) == 0 {
		return 0
	}

	selected := make(map[uint]bool, len(answers))
	for _, a := range answers {
		if a.SelectedOptionID != nil {
			selected[*a.SelectedOptionID] = true
		}
	}

	agreeing := 0
	for _, o := range options {
		if o.IsCorrect == selected[o.ID] {
			agreeing++
		}
	}

	return points * float64(agreeing) / float64(len(options))
}

// scoreMatrix credits every row mapped to its correct column
func scoreMatrix(points float64, rows []models.MatrixRow, answers []models.Answer) float64 {
	if len(rows) == 0 {
		return 0
	}

	mapped := make(map[uint]uint, len(answers))
	for _, a := range answers {
		if a.SelectedRowID != nil && a.SelectedColumnID != nil {
			mapped[*a.SelectedRowID] = *a.SelectedColumnID
		}
	}

	correct := 0
	for _, r := range rows {
		if col, ok := mapped[r.ID]; ok && col == r.CorrectColumnID {
			correct++
		}
	}

	return points * float64(correct) / float64(len(rows))
}

func singleAnswer(answers []models.Answer) *models.Answer {
	for i := range answers {
		if answers[i].SlotKey == models.SlotSingle {
			return &answers[i]
		}
	}
	return nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
