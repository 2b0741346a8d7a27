package models

type QuestionCategory string

const (
	CategoryProbability   QuestionCategory = "probability"
	CategoryBrainTeaser   QuestionCategory = "brainteaser"
	CategoryMarkets       QuestionCategory = "markets"
	CategoryMentalMath    QuestionCategory = "mental_math"
	CategoryCombinatorics QuestionCategory = "combinatorics"
)

type AnswerType string

const (
	AnswerNumber AnswerType = "number"
	AnswerMCQ    AnswerType = "mcq"
)

type DifficultyBand string

const (
	BandEasy    DifficultyBand = "easy"
	BandMedium  DifficultyBand = "medium"
	BandHard    DifficultyBand = "hard"
	BandExtreme DifficultyBand = "extreme"
)

// Bands returns the four difficulty bands in ascending order.
func Bands() []DifficultyBand {
	return []DifficultyBand{BandEasy, BandMedium, BandHard, BandExtreme}
}

// BandFor maps a raw difficulty score in [1,10] to its band. Scores below 1
// fall into easy; this is accepted behavior, not validated.
func BandFor(difficulty int) DifficultyBand {
	switch {
	case difficulty <= 4:
		return BandEasy
	case difficulty <= 7:
		return BandMedium
	case difficulty <= 9:
		return BandHard
	default:
		return BandExtreme
	}
}

// Rank orders bands for display and selection (easy=0 .. extreme=3).
func (b DifficultyBand) Rank() int {
	switch b {
	case BandEasy:
		return 0
	case BandMedium:
		return 1
	case BandHard:
		return 2
	default:
		return 3
	}
}

type QuestionOption struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Question is one interview-style problem. The catalog is built once at
// startup and never mutated; everything here is read-only at runtime.
type Question struct {
	ID          string           `json:"id" validate:"required"`
	Title       string           `json:"title" validate:"required"`
	Content     string           `json:"content" validate:"required"`
	Category    QuestionCategory `json:"category"`
	Subcategory string           `json:"subcategory"`
	Difficulty  int              `json:"difficulty" validate:"min=1,max=10"`

	// Grading contract: number requires NumericAnswer, mcq requires
	// Options plus CorrectAnswerID.
	AnswerType      AnswerType       `json:"answer_type" validate:"required,answer_type"`
	NumericAnswer   *float64         `json:"numeric_answer,omitempty"`
	Options         []QuestionOption `json:"options,omitempty"`
	CorrectAnswerID string           `json:"correct_answer_id,omitempty"`

	Hints         []string `json:"hints,omitempty"`
	Solution      string   `json:"solution,omitempty"`
	SolutionSteps []string `json:"solution_steps,omitempty"`

	// Firm groups questions for the company challenge; empty means the
	// question never appears in challenge mode.
	Firm         string `json:"firm,omitempty"`
	RequiresPaid bool   `json:"requires_paid,omitempty"`
}

func (q *Question) Band() DifficultyBand {
	return BandFor(q.Difficulty)
}
