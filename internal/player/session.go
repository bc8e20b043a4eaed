package player

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"qadamsafe/internal/models"
)

// Feedback is shown to the learner after an answer.
type Feedback struct {
	StepID        string             `json:"stepId"`
	OptionID      string             `json:"optionId"`
	OutcomeType   models.OutcomeType `json:"outcomeType"`
	Explanation   string             `json:"explanation,omitempty"`
	ExplanationEn string             `json:"explanationEn,omitempty"`
	ExplanationKk string             `json:"explanationKk,omitempty"`
	Finished      bool               `json:"finished"`
}

// Result summarises a run.
type Result struct {
	Score     int               `json:"score"`
	Mistakes  int               `json:"mistakes"`
	Safe      int               `json:"safe"`
	Risky     int               `json:"risky"`
	Dangerous int               `json:"dangerous"`
	Total     int               `json:"total"`
	Decisions []models.Decision `json:"decisions"`
}

// Session walks one scenario. It is not safe for concurrent use.
type Session struct {
	scenario *models.Scenario
	index    map[string]int
	state    models.PlayState
}

// NewSession starts at the first step. When rng is not nil the options of every
// step are shuffled once, so the same session always shows the same order.
func NewSession(s *models.Scenario, rng *rand.Rand) *Session {
	sess := &Session{
		scenario: s,
		index:    buildIndex(s),
		state: models.PlayState{
			OptionOrder: make(map[string][]string),
			Decisions:   []models.Decision{},
		},
	}
	if len(s.Content.Steps) == 0 {
		sess.state.Finished = true
	}
	if rng != nil {
		for _, step := range s.Content.Steps {
			if len(step.Options) < 2 {
				continue
			}
			ids := make([]string, len(step.Options))
			for i, opt := range step.Options {
				ids[i] = opt.ID
			}
			// Fisher-Yates
			for i := len(ids) - 1; i > 0; i-- {
				j := rng.Intn(i + 1)
				ids[i], ids[j] = ids[j], ids[i]
			}
			sess.state.OptionOrder[step.ID] = ids
		}
	}
	return sess
}

// Resume restores a session from a stored state.
func Resume(s *models.Scenario, state models.PlayState) (*Session, error) {
	if !state.Finished && (state.StepIndex < 0 || state.StepIndex >= len(s.Content.Steps)) {
		return nil, fmt.Errorf("%w: stored step index %d out of range", ErrInvalidScenario, state.StepIndex)
	}
	if state.OptionOrder == nil {
		state.OptionOrder = make(map[string][]string)
	}
	if state.Decisions == nil {
		state.Decisions = []models.Decision{}
	}
	return &Session{scenario: s, index: buildIndex(s), state: state}, nil
}

func buildIndex(s *models.Scenario) map[string]int {
	index := make(map[string]int, len(s.Content.Steps))
	for i, step := range s.Content.Steps {
		if _, dup := index[step.ID]; !dup {
			index[step.ID] = i
		}
	}
	return index
}

// State returns a copy of the serialisable state.
func (s *Session) State() models.PlayState {
	st := s.state
	st.Decisions = append([]models.Decision(nil), s.state.Decisions...)
	st.OptionOrder = make(map[string][]string, len(s.state.OptionOrder))
	for k, v := range s.state.OptionOrder {
		st.OptionOrder[k] = append([]string(nil), v...)
	}
	return st
}

func (s *Session) Finished() bool { return s.state.Finished }

// Position returns the 1-based number of the current step and the step count.
func (s *Session) Position() (int, int) {
	total := len(s.scenario.Content.Steps)
	if s.state.Finished {
		return total, total
	}
	return s.state.StepIndex + 1, total
}

// Current returns the current step with options in session order, or nil when finished.
func (s *Session) Current() *models.Step {
	if s.state.Finished {
		return nil
	}
	step := s.scenario.Content.Steps[s.state.StepIndex]
	step.Options = s.orderedOptions(step)
	return &step
}

func (s *Session) orderedOptions(step models.Step) []models.Option {
	order, ok := s.state.OptionOrder[step.ID]
	if !ok || len(order) != len(step.Options) {
		return append([]models.Option(nil), step.Options...)
	}
	byID := make(map[string]models.Option, len(step.Options))
	for _, opt := range step.Options {
		byID[opt.ID] = opt
	}
	out := make([]models.Option, 0, len(order))
	for _, id := range order {
		opt, ok := byID[id]
		if !ok {
			return append([]models.Option(nil), step.Options...)
		}
		out = append(out, opt)
	}
	return out
}

// Choose answers the current step.
func (s *Session) Choose(optionID string, at time.Time) (*Feedback, error) {
	if s.state.Finished {
		return nil, ErrSessionFinished
	}
	step := &s.scenario.Content.Steps[s.state.StepIndex]
	if !step.Type.HasOptions() || len(step.Options) == 0 {
		return nil, fmt.Errorf("%w: step %q", ErrNotAQuestion, step.ID)
	}

	var chosen *models.Option
	for i := range step.Options {
		if step.Options[i].ID == optionID {
			chosen = &step.Options[i]
			break
		}
	}
	if chosen == nil {
		return nil, fmt.Errorf("%w: %q on step %q", ErrUnknownOption, optionID, step.ID)
	}

	s.state.Decisions = append(s.state.Decisions, models.Decision{
		StepID:      step.ID,
		OptionID:    chosen.ID,
		OutcomeType: chosen.OutcomeType,
		Timestamp:   at,
	})

	fb := &Feedback{
		StepID:        step.ID,
		OptionID:      chosen.ID,
		OutcomeType:   chosen.OutcomeType,
		Explanation:   chosen.Explanation,
		ExplanationEn: chosen.ExplanationEn,
		ExplanationKk: chosen.ExplanationKk,
	}
	if fb.Explanation == "" {
		fb.Explanation = step.Explanation
	}

	s.advance(chosen.NextStepID)
	fb.Finished = s.state.Finished
	return fb, nil
}

// Continue moves past an information step.
func (s *Session) Continue() error {
	if s.state.Finished {
		return ErrSessionFinished
	}
	step := s.scenario.Content.Steps[s.state.StepIndex]
	if step.Type.HasOptions() && len(step.Options) > 0 {
		return fmt.Errorf("%w: step %q", ErrNotInformation, step.ID)
	}
	s.advance("")
	return nil
}

func (s *Session) advance(optionNext string) {
	next := resolveNext(s.scenario.Content.Steps, s.index, s.state.StepIndex, optionNext)
	if next >= len(s.scenario.Content.Steps) {
		s.state.Finished = true
		return
	}
	s.state.StepIndex = next
}

// Result tallies the decisions made so far.
func (s *Session) Result() Result {
	return Score(s.state.Decisions, s.scenario.PointsReward)
}

// Score computes round(safe/total*points); an empty run scores 0 with 0 mistakes.
func Score(decisions []models.Decision, points int) Result {
	r := Result{Decisions: append([]models.Decision{}, decisions...)}
	for _, d := range decisions {
		switch d.OutcomeType {
		case models.OutcomeSafe:
			r.Safe++
		case models.OutcomeRisky:
			r.Risky++
		default:
			r.Dangerous++
		}
	}
	r.Total = len(decisions)
	if r.Total == 0 {
		return r
	}
	r.Mistakes = r.Total - r.Safe
	r.Score = int(math.Round(float64(r.Safe) / float64(r.Total) * float64(points)))
	return r
}
