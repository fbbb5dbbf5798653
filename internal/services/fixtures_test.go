package services

import (
	"io"
	"log/slog"

	"github.com/Craipes/StudyTestingSoftware-sub000/internal/models"
)

const (
	teacherID = "teacher-1"
	studentID = "student-1"
)

func ptr[T any](v T) *T { return &v }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// sampleTest builds a published public test with one question of every type.
// Its max score is 14.
func sampleTest() *models.TestDefinition {
	return &models.TestDefinition{
		ID:              1,
		AuthorID:        teacherID,
		Title:           "Mixed quiz",
		DurationMinutes: 30,
		AccessMode:      models.AccessPublic,
		IsPublished:     true,
		MaxExperience:   100,
		MaxCoins:        50,
		Questions: []models.Question{
			{ID: 10, TestID: 1, Order: 1, Type: models.YesNo, Text: "Is water wet?", Points: 2, YesNoTarget: ptr(true)},
			{ID: 20, TestID: 1, Order: 2, Type: models.Slider, Text: "Pick five", Points: 2,
				SliderMin: ptr(0.0), SliderMax: ptr(10.0), SliderStep: ptr(0.5), SliderTarget: ptr(5.0)},
			{ID: 30, TestID: 1, Order: 3, Type: models.SingleChoice, Text: "Capital of France", Points: 2,
				Options: []models.ChoiceOption{
					{ID: 31, QuestionID: 30, Order: 1, Text: "Paris", IsCorrect: true},
					{ID: 32, QuestionID: 30, Order: 2, Text: "Lyon"},
				}},
			{ID: 40, TestID: 1, Order: 4, Type: models.MultipleChoice, Text: "Primes", Points: 4,
				Options: []models.ChoiceOption{
					{ID: 41, QuestionID: 40, Order: 1, Text: "2", IsCorrect: true},
					{ID: 42, QuestionID: 40, Order: 2, Text: "3", IsCorrect: true},
					{ID: 43, QuestionID: 40, Order: 3, Text: "4"},
					{ID: 44, QuestionID: 40, Order: 4, Text: "6"},
				}},
			{ID: 50, TestID: 1, Order: 5, Type: models.TableSingleChoice, Text: "Match", Points: 2,
				Rows: []models.MatrixRow{
					{ID: 51, QuestionID: 50, Order: 1, Text: "Cat", CorrectColumnID: 55},
					{ID: 52, QuestionID: 50, Order: 2, Text: "Oak", CorrectColumnID: 56},
				},
				Columns: []models.MatrixColumn{
					{ID: 55, QuestionID: 50, Order: 1, Text: "Animal"},
					{ID: 56, QuestionID: 50, Order: 2, Text: "Plant"},
				}},
			{ID: 60, TestID: 1, Order: 6, Type: models.Ordering, Text: "Order", Points: 2,
				Rows: []models.MatrixRow{
					{ID: 61, QuestionID: 60, Order: 1, Text: "First", CorrectColumnID: 65},
					{ID: 62, QuestionID: 60, Order: 2, Text: "Second", CorrectColumnID: 66},
				},
				Columns: []models.MatrixColumn{
					{ID: 65, QuestionID: 60, Order: 1, Text: "1"},
					{ID: 66, QuestionID: 60, Order: 2, Text: "2"},
				}},
		},
	}
}

// correctRequests answers every question of sampleTest correctly
func correctRequests() []*SubmitAnswerRequest {
	return []*SubmitAnswerRequest{
		{QuestionID: 10, BoolValue: ptr(true)},
		{QuestionID: 20, NumberValue: ptr(5.0)},
		{QuestionID: 30, OptionID: ptr(uint(31))},
		{QuestionID: 40, OptionID: ptr(uint(41))},
		{QuestionID: 40, OptionID: ptr(uint(42))},
		{QuestionID: 50, RowID: ptr(uint(51)), ColumnID: ptr(uint(55))},
		{QuestionID: 50, RowID: ptr(uint(52)), ColumnID: ptr(uint(56))},
		{QuestionID: 60, RowID: ptr(uint(61)), ColumnID: ptr(uint(65))},
		{QuestionID: 60, RowID: ptr(uint(62)), ColumnID: ptr(uint(66))},
	}
}

// answerRows converts requests into stored answer rows without going through the recorder
func answerRows(sessionID uint, reqs []*SubmitAnswerRequest) []models.Answer {
	out := make([]models.Answer, 0, len(reqs))
	for _, req := range reqs {
		a := models.Answer{
			SessionID:        sessionID,
			QuestionID:       req.QuestionID,
			SlotKey:          models.SlotSingle,
			SelectedOptionID: req.OptionID,
			SelectedRowID:    req.RowID,
			SelectedColumnID: req.ColumnID,
			NumberValue:      req.NumberValue,
			BoolValue:        req.BoolValue,
		}
		switch {
		case req.RowID != nil:
			a.SlotKey = models.RowSlot(*req.RowID)
		case req.QuestionID == 40:
			a.SlotKey = models.OptionSlot(*req.OptionID)
		}
		out = append(out, a)
	}
	return out
}
