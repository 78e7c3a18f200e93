package service

import (
	"fmt"

	"github.com/examlane/examlane-backend/internal/model"
	"github.com/examlane/examlane-backend/internal/repository"
)

// scoreAnswers grades a submission against the answer key. Every submitted
// question that exists in the key contributes its marks to the total, whether
// or not the selected option is correct; answers whose question is not in the
// key contribute to neither score nor total, so stale clients submitting
// removed questions cannot fail the whole attempt. When the same question
// appears more than once, the first answer wins.
func scoreAnswers(answers []model.SubmittedAnswer, key map[int64]repository.AnswerKeyEntry) model.ResultSummary {
	score := 0.0
	totalMarks := 0
	seen := make(map[int64]bool, len(answers))

	for _, ans := range answers {
		if seen[ans.QuestionID] {
			continue
		}
		seen[ans.QuestionID] = true

		entry, ok := key[ans.QuestionID]
		if !ok {
			continue
		}
		totalMarks += entry.Marks
		if entry.CorrectOptionID != 0 && ans.SelectedOptionID == entry.CorrectOptionID {
			score += float64(entry.Marks)
		}
	}

	return model.ResultSummary{
		Score:      score,
		TotalMarks: totalMarks,
		Percentage: formatPercentage(score, totalMarks),
	}
}

// formatPercentage renders score/total as a percentage with two decimals.
// A zero total (an empty submission) yields "0.00" rather than a division
// error.
func formatPercentage(score float64, totalMarks int) string {
	if totalMarks <= 0 {
		return "0.00"
	}
	return fmt.Sprintf("%.2f", score/float64(totalMarks)*100)
}
