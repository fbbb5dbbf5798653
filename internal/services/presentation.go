package services

import (
	"math/rand"

	"github.com/Craipes/StudyTestingSoftware-sub000/internal/models"
)

// ShuffleIDs returns a seeded Fisher-Yates permutation of ids. The input is not
// modified and the same (seed, ids) always yields the same order.
func ShuffleIDs(seed int64, ids []uint) []uint {
	return shuffleWith(rand.New(rand.NewSource(seed)), ids)
}

// shuffleWith permutes a copy of ids with draws from rng. Successive calls on one rng
// give independent permutations.
func shuffleWith(rng *rand.Rand, ids []uint) []uint {
	out := make([]uint, len(ids))
	copy(out, ids)

	for i := len(out) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// newSeed draws the presentation seed of a new session
func newSeed() int64 {
	return rand.Int63()
}

// presentationOrder is the materialized order of one session view
type presentationOrder struct {
	Questions []uint
	Options   map[uint][]uint
	Columns   map[uint][]uint
}

// computePresentationOrder derives every list order of a view from one random stream
// seeded with the session seed, so each list gets its own permutation.
//
// Draw order is fixed: the question list first (when ShuffleQuestions is set), then,
// walking questions in definition order, each question's option list (choice types,
// when ShuffleAnswers is set) or column list (TableSingleChoice when ShuffleAnswers is
// set, Ordering always). Rows are never reordered.
func computePresentationOrder(seed int64, def *models.TestDefinition) presentationOrder {
	rng := rand.New(rand.NewSource(seed))
	order := presentationOrder{
		Questions: def.QuestionIDs(),
		Options:   make(map[uint][]uint),
		Columns:   make(map[uint][]uint),
	}

	if def.ShuffleQuestions {
		order.Questions = shuffleWith(rng, order.Questions)
	}

	for i := range def.Questions {
		q := &def.Questions[i]
		switch q.Type {
		case models.SingleChoice, models.MultipleChoice:
			ids := optionIDs(q.Options)
			if def.ShuffleAnswers {
				ids = shuffleWith(rng, ids)
			}
			order.Options[q.ID] = ids
		case models.TableSingleChoice:
			ids := columnIDs(q.Columns)
			if def.ShuffleAnswers {
				ids = shuffleWith(rng, ids)
			}
			order.Columns[q.ID] = ids
		case models.Ordering:
			order.Columns[q.ID] = shuffleWith(rng, columnIDs(q.Columns))
		}
	}

	return order
}

func optionIDs(options []models.ChoiceOption) []uint {
	ids := make([]uint, len(options))
	for i := range options {
		ids[i] = options[i].ID
	}
	return ids
}

func columnIDs(columns []models.MatrixColumn) []uint {
	ids := make([]uint, len(columns))
	for i := range columns {
		ids[i] = columns[i].ID
	}
	return ids
}

// buildSessionView materializes the session in its presentation order. A non-nil
// score marks the teacher view, which also carries correctness and per-question scores.
func buildSessionView(session *models.Session, def *models.TestDefinition, answers []models.Answer, score *SessionScore) *models.SessionView {
	order := computePresentationOrder(session.RandomSeed, def)
	grouped := groupAnswers(answers)
	teacher := score != nil

	view := &models.SessionView{
		SessionID:    session.ID,
		TestID:       def.ID,
		TestTitle:    def.Title,
		StudentID:    session.StudentID,
		StartedAt:    session.StartedAt,
		AutoFinishAt: session.AutoFinishAt,
		FinishedAt:   session.FinishedAt,
		IsCompleted:  session.IsCompleted,
		MaxScore:     def.MaxScore(),
		Questions:    make([]models.QuestionView, 0, len(order.Questions)),
	}

	if teacher {
		total := score.Total
		view.Score = &total
	} else if session.IsCompleted {
		stored := session.Score
		view.Score = &stored
	}

	for _, id := range order.Questions {
		q := def.QuestionByID(id)
		if q == nil {
			continue
		}

		qv := models.QuestionView{
			ID:     q.ID,
			Type:   q.Type,
			Text:   q.Text,
			Points: q.Points,
			Answer: snapshotAnswers(grouped[q.ID]),
		}

		for _, optionID := range order.Options[q.ID] {
			for _, o := range q.Options {
				if o.ID != optionID {
					continue
				}
				ov := models.OptionView{ID: o.ID, Text: o.Text}
				if teacher {
					correct := o.IsCorrect
					ov.IsCorrect = &correct
				}
				qv.Options = append(qv.Options, ov)
			}
		}

		for _, r := range q.Rows {
			rv := models.RowView{ID: r.ID, Text: r.Text}
			if teacher {
				correct := r.CorrectColumnID
				rv.CorrectColumnID = &correct
			}
			qv.Rows = append(qv.Rows, rv)
		}

		for _, columnID := range order.Columns[q.ID] {
			for _, c := range q.Columns {
				if c.ID == columnID {
					qv.Columns = append(qv.Columns, models.ColumnView{ID: c.ID, Text: c.Text})
				}
			}
		}

		if q.Type == models.Slider && q.SliderMin != nil && q.SliderMax != nil {
			sv := &models.SliderView{Min: *q.SliderMin, Max: *q.SliderMax}
			if q.SliderStep != nil {
				sv.Step = *q.SliderStep
			}
			if teacher {
				sv.Target = q.SliderTarget
			}
			qv.Slider = sv
		}

		if teacher {
			if q.Type == models.YesNo {
				qv.CorrectBool = q.YesNoTarget
			}
			received := score.PerQuestion[q.ID]
			qv.ReceivedScore = &received
		}

		view.Questions = append(view.Questions, qv)
	}

	return view
}

// snapshotAnswers folds the answer rows of one question into a single snapshot
func snapshotAnswers(answers []models.Answer) *models.AnswerSnapshot {
	if len(answers) == 0 {
		return nil
	}

	snap := &models.AnswerSnapshot{}
	for _, a := range answers {
		switch {
		case a.SelectedRowID != nil && a.SelectedColumnID != nil:
			if snap.RowColumns == nil {
				snap.RowColumns = make(map[uint]uint)
			}
			snap.RowColumns[*a.SelectedRowID] = *a.SelectedColumnID
		case a.SelectedOptionID != nil:
			snap.SelectedOptionIDs = append(snap.SelectedOptionIDs, *a.SelectedOptionID)
		case a.NumberValue != nil:
			snap.NumberValue = a.NumberValue
		case a.BoolValue != nil:
			snap.BoolValue = a.BoolValue
		}
	}
	return snap
}
