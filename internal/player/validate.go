package player

import (
	"fmt"

	"qadamsafe/internal/models"
)

const (
	MinOptions = 2
	MaxOptions = 4
)

// Validate checks that an authored scenario can be played to the end:
// unique ids, 2..4 options on answerable steps, known outcome types,
// every nextStepId pointing at an existing step and no cycles reachable from the first step.
func Validate(s *models.Scenario) error {
	if s == nil || len(s.Content.Steps) == 0 {
		return fmt.Errorf("%w: scenario has no steps", ErrInvalidScenario)
	}
	steps := s.Content.Steps

	index := make(map[string]int, len(steps))
	for i, step := range steps {
		if step.ID == "" {
			return fmt.Errorf("%w: step #%d has empty id", ErrInvalidScenario, i+1)
		}
		if _, dup := index[step.ID]; dup {
			return fmt.Errorf("%w: duplicate step id %q", ErrInvalidScenario, step.ID)
		}
		index[step.ID] = i
	}

	for _, step := range steps {
		if !step.Type.Valid() {
			return fmt.Errorf("%w: step %q has unknown type %q", ErrInvalidScenario, step.ID, step.Type)
		}
		if step.NextStepID != "" {
			if _, ok := index[step.NextStepID]; !ok {
				return fmt.Errorf("%w: step %q points to unknown step %q", ErrInvalidScenario, step.ID, step.NextStepID)
			}
		}

		if !step.Type.HasOptions() {
			if len(step.Options) > 0 {
				return fmt.Errorf("%w: information step %q must not have options", ErrInvalidScenario, step.ID)
			}
			continue
		}

		if n := len(step.Options); n < MinOptions || n > MaxOptions {
			return fmt.Errorf("%w: step %q has %d options, want %d..%d", ErrInvalidScenario, step.ID, n, MinOptions, MaxOptions)
		}
		seen := make(map[string]struct{}, len(step.Options))
		for _, opt := range step.Options {
			if opt.ID == "" {
				return fmt.Errorf("%w: step %q has an option without id", ErrInvalidScenario, step.ID)
			}
			if _, dup := seen[opt.ID]; dup {
				return fmt.Errorf("%w: step %q has duplicate option id %q", ErrInvalidScenario, step.ID, opt.ID)
			}
			seen[opt.ID] = struct{}{}
			if !opt.OutcomeType.Valid() {
				return fmt.Errorf("%w: option %q of step %q has unknown outcome %q", ErrInvalidScenario, opt.ID, step.ID, opt.OutcomeType)
			}
			if opt.NextStepID != "" {
				if _, ok := index[opt.NextStepID]; !ok {
					return fmt.Errorf("%w: option %q of step %q points to unknown step %q", ErrInvalidScenario, opt.ID, step.ID, opt.NextStepID)
				}
			}
		}
	}

	if cycleAt, ok := findCycle(steps, index); ok {
		return fmt.Errorf("%w: cycle through step %q", ErrInvalidScenario, steps[cycleAt].ID)
	}
	return nil
}

// successors returns the indexes reachable in one move from step i.
// len(steps) stands for "finished".
func successors(steps []models.Step, index map[string]int, i int) []int {
	step := steps[i]
	if !step.Type.HasOptions() || len(step.Options) == 0 {
		return []int{resolveNext(steps, index, i, "")}
	}
	out := make([]int, 0, len(step.Options))
	for _, opt := range step.Options {
		out = append(out, resolveNext(steps, index, i, opt.NextStepID))
	}
	return out
}

func findCycle(steps []models.Step, index map[string]int) (int, bool) {
	const (
		white = iota
		grey
		black
	)
	color := make([]int, len(steps))

	var visit func(i int) (int, bool)
	visit = func(i int) (int, bool) {
		color[i] = grey
		for _, next := range successors(steps, index, i) {
			if next >= len(steps) {
				continue
			}
			switch color[next] {
			case grey:
				return next, true
			case white:
				if at, found := visit(next); found {
					return at, true
				}
			}
		}
		color[i] = black
		return 0, false
	}
	return visit(0)
}

// resolveNext applies the advance order: option pointer, step pointer, then the next step in sequence.
// Pointers to unknown steps are ignored.
func resolveNext(steps []models.Step, index map[string]int, current int, optionNext string) int {
	if optionNext != "" {
		if i, ok := index[optionNext]; ok {
			return i
		}
	}
	if next := steps[current].NextStepID; next != "" {
		if i, ok := index[next]; ok {
			return i
		}
	}
	return current + 1
}
