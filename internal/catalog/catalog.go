package catalog

import (
	"fmt"
	"sort"

	"github.com/quantprep/challenge-service/internal/models"
)

// Catalog is the immutable in-memory question set. It is built once at
// startup and shared read-only by every component; no accessor returns a
// mutable view of internal state.
type Catalog struct {
	questions []models.Question
	byID      map[string]*models.Question
	byFirm    map[string][]*models.Question
}

// Filters narrows List results. Nil/zero fields match everything.
type Filters struct {
	Category   models.QuestionCategory
	Band       models.DifficultyBand
	Firm       string
	AnswerType models.AnswerType
	FreeOnly   bool
}

func New(questions []models.Question) (*Catalog, error) {
	c := &Catalog{
		questions: make([]models.Question, len(questions)),
		byID:      make(map[string]*models.Question, len(questions)),
		byFirm:    make(map[string][]*models.Question),
	}
	copy(c.questions, questions)

	for i := range c.questions {
		q := &c.questions[i]
		if q.ID == "" {
			return nil, fmt.Errorf("catalog question at index %d has no id", i)
		}
		if _, dup := c.byID[q.ID]; dup {
			return nil, fmt.Errorf("duplicate question id %q", q.ID)
		}
		switch q.AnswerType {
		case models.AnswerNumber:
			if q.NumericAnswer == nil {
				return nil, fmt.Errorf("question %q: numeric answer type without numeric_answer", q.ID)
			}
		case models.AnswerMCQ:
			if len(q.Options) == 0 || q.CorrectAnswerID == "" {
				return nil, fmt.Errorf("question %q: mcq answer type without options or correct_answer_id", q.ID)
			}
		default:
			return nil, fmt.Errorf("question %q: unknown answer type %q", q.ID, q.AnswerType)
		}
		c.byID[q.ID] = q
		if q.Firm != "" {
			c.byFirm[q.Firm] = append(c.byFirm[q.Firm], q)
		}
	}
	return c, nil
}

func (c *Catalog) Len() int {
	return len(c.questions)
}

// Get returns the question with the given id, or nil.
func (c *Catalog) Get(id string) *models.Question {
	return c.byID[id]
}

// List returns questions matching the filters, sorted by ascending
// difficulty then id for stable pagination.
func (c *Catalog) List(f Filters) []*models.Question {
	var out []*models.Question
	for i := range c.questions {
		q := &c.questions[i]
		if f.Category != "" && q.Category != f.Category {
			continue
		}
		if f.Band != "" && q.Band() != f.Band {
			continue
		}
		if f.Firm != "" && q.Firm != f.Firm {
			continue
		}
		if f.AnswerType != "" && q.AnswerType != f.AnswerType {
			continue
		}
		if f.FreeOnly && q.RequiresPaid {
			continue
		}
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Difficulty != out[j].Difficulty {
			return out[i].Difficulty < out[j].Difficulty
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Firms returns every firm tag present in the catalog, sorted.
func (c *Catalog) Firms() []string {
	firms := make([]string, 0, len(c.byFirm))
	for firm := range c.byFirm {
		firms = append(firms, firm)
	}
	sort.Strings(firms)
	return firms
}

// CountByBand returns how many catalog questions fall in each band.
func (c *Catalog) CountByBand() map[models.DifficultyBand]int {
	counts := make(map[models.DifficultyBand]int, 4)
	for i := range c.questions {
		counts[c.questions[i].Band()]++
	}
	return counts
}
