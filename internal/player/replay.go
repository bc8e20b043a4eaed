package player

import (
	"fmt"
	"time"

	"qadamsafe/internal/models"
)

// Choice is one client-submitted answer.
type Choice struct {
	StepID    string    `json:"stepId" binding:"required"`
	OptionID  string    `json:"optionId" binding:"required"`
	Timestamp time.Time `json:"timestamp"`
}

// Replay rebuilds a run from client choices and scores it.
// Information steps are walked implicitly; the run must reach the end.
// Zero timestamps are replaced with now.
func Replay(s *models.Scenario, choices []Choice, now time.Time) (*Result, error) {
	if err := Validate(s); err != nil {
		return nil, err
	}

	sess := NewSession(s, nil)
	for i, c := range choices {
		if err := skipInformation(sess); err != nil {
			return nil, err
		}
		if sess.Finished() {
			return nil, fmt.Errorf("%w: choice #%d submitted after the last step", ErrSessionFinished, i+1)
		}
		if cur := sess.Current(); cur.ID != c.StepID {
			return nil, fmt.Errorf("%w: choice #%d answers %q, current step is %q", ErrStepMismatch, i+1, c.StepID, cur.ID)
		}
		ts := c.Timestamp
		if ts.IsZero() {
			ts = now
		}
		if _, err := sess.Choose(c.OptionID, ts); err != nil {
			return nil, err
		}
	}
	if err := skipInformation(sess); err != nil {
		return nil, err
	}
	if !sess.Finished() {
		return nil, fmt.Errorf("%w: stopped at step %q", ErrIncomplete, sess.Current().ID)
	}

	res := sess.Result()
	return &res, nil
}

func skipInformation(sess *Session) error {
	for !sess.Finished() {
		cur := sess.Current()
		if cur.Type.HasOptions() && len(cur.Options) > 0 {
			return nil
		}
		if err := sess.Continue(); err != nil {
			return err
		}
	}
	return nil
}
