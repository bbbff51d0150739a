package features

import "interviewassistant/api"

// DefaultTotalQuestions is the size of a generated question set.
const DefaultTotalQuestions = 6

// DifficultyForNumber follows the service convention: 1-2 easy, 3-4 medium, 5-6 hard.
func DifficultyForNumber(number int) api.Difficulty {
	switch {
	case number <= 2:
		return api.DifficultyEasy
	case number <= 4:
		return api.DifficultyMedium
	default:
		return api.DifficultyHard
	}
}

// DefaultTimeLimit is the per-question limit in seconds for a difficulty.
func DefaultTimeLimit(d api.Difficulty) int {
	switch d {
	case api.DifficultyEasy:
		return 20
	case api.DifficultyMedium:
		return 60
	default:
		return 120
	}
}

// normalizeQuestions fills what the service left out without reordering anything.
func normalizeQuestions(questions []api.Question) []api.Question {
	out := make([]api.Question, len(questions))
	for i, q := range questions {
		if q.Number <= 0 {
			q.Number = i + 1
		}
		if q.Difficulty == "" {
			q.Difficulty = DifficultyForNumber(q.Number)
		}
		if q.TimeLimit <= 0 {
			q.TimeLimit = DefaultTimeLimit(q.Difficulty)
		}
		out[i] = q
	}
	return out
}
