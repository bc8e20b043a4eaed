package service

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"qadamsafe/internal/interfaces"
	"qadamsafe/internal/models"
	"qadamsafe/internal/player"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PlayView - ответ на каждый шаг серверной сессии.
type PlayView struct {
	SessionID  uuid.UUID                `json:"sessionId"`
	ScenarioID uuid.UUID                `json:"scenarioId"`
	Step       *models.Step             `json:"step,omitempty"`
	StepNumber int                      `json:"stepNumber"`
	TotalSteps int                      `json:"totalSteps"`
	Finished   bool                     `json:"finished"`
	Feedback   *player.Feedback         `json:"feedback,omitempty"`
	Completion *models.CompletionResult `json:"completion,omitempty"`
}

// PlayService drives the scenario player on the server.
type PlayService interface {
	StartSession(ctx context.Context, userID, scenarioID uuid.UUID) (*PlayView, error)
	Answer(ctx context.Context, userID, sessionID uuid.UUID, optionID string) (*PlayView, error)
	Continue(ctx context.Context, userID, sessionID uuid.UUID) (*PlayView, error)
}

type playServiceImpl struct {
	userRepo     interfaces.UserRepository
	scenarioRepo interfaces.ScenarioRepository
	progressRepo interfaces.ProgressRepository
	sessions     interfaces.SessionStore
	progress     ProgressService
	ttl          time.Duration
	logger       *zap.Logger
	now          func() time.Time
	newRand      func() *rand.Rand
}

func NewPlayService(
	userRepo interfaces.UserRepository,
	scenarioRepo interfaces.ScenarioRepository,
	progressRepo interfaces.ProgressRepository,
	sessions interfaces.SessionStore,
	progress ProgressService,
	ttl time.Duration,
	logger *zap.Logger,
) PlayService {
	return &playServiceImpl{
		userRepo:     userRepo,
		scenarioRepo: scenarioRepo,
		progressRepo: progressRepo,
		sessions:     sessions,
		progress:     progress,
		ttl:          ttl,
		logger:       logger.Named("PlayService"),
		now:          time.Now,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
	}
}

func (s *playServiceImpl) StartSession(ctx context.Context, userID, scenarioID uuid.UUID) (*PlayView, error) {
	scenario, err := s.scenarioRepo.GetByID(ctx, scenarioID)
	if err != nil {
		return nil, err
	}
	c, err := loadCatalog(ctx, s.userRepo, s.scenarioRepo, s.progressRepo, userID)
	if err != nil {
		return nil, err
	}
	if err := c.check(scenario); err != nil {
		return nil, err
	}
	if err := player.Validate(scenario); err != nil {
		s.logger.Error("Stored scenario failed validation", zap.Stringer("scenarioID", scenarioID), zap.Error(err))
		return nil, fmt.Errorf("stored scenario is broken: %w", err)
	}

	sess := player.NewSession(scenario, s.newRand())
	ps := &models.PlaySession{
		ID:         uuid.New(),
		UserID:     userID,
		ScenarioID: scenarioID,
		State:      sess.State(),
		CreatedAt:  s.now(),
	}
	if err := s.sessions.Save(ctx, ps, s.ttl); err != nil {
		return nil, fmt.Errorf("failed to save play session: %w", err)
	}
	s.logger.Info("Play session started", zap.Stringer("userID", userID), zap.Stringer("scenarioID", scenarioID), zap.Stringer("sessionID", ps.ID))
	return s.view(ps.ID, scenarioID, sess), nil
}

func (s *playServiceImpl) Answer(ctx context.Context, userID, sessionID uuid.UUID, optionID string) (*PlayView, error) {
	return s.step(ctx, userID, sessionID, func(sess *player.Session) (*player.Feedback, error) {
		return sess.Choose(optionID, s.now())
	})
}

func (s *playServiceImpl) Continue(ctx context.Context, userID, sessionID uuid.UUID) (*PlayView, error) {
	return s.step(ctx, userID, sessionID, func(sess *player.Session) (*player.Feedback, error) {
		return nil, sess.Continue()
	})
}

// step loads the session, applies one action and persists the result.
// A finished session is recorded as a completion and removed.
func (s *playServiceImpl) step(ctx context.Context, userID, sessionID uuid.UUID, action func(*player.Session) (*player.Feedback, error)) (*PlayView, error) {
	ps, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if ps.UserID != userID {
		// чужая сессия выглядит как несуществующая
		return nil, models.ErrSessionNotFound
	}
	scenario, err := s.scenarioRepo.GetByID(ctx, ps.ScenarioID)
	if err != nil {
		return nil, err
	}
	sess, err := player.Resume(scenario, ps.State)
	if err != nil {
		// сценарий изменился после старта сессии
		_ = s.sessions.Delete(ctx, sessionID)
		return nil, fmt.Errorf("%w: %v", models.ErrSessionNotFound, err)
	}

	feedback, err := action(sess)
	if err != nil {
		return nil, err
	}

	view := s.view(sessionID, scenario.ID, sess)
	view.Feedback = feedback

	if !sess.Finished() {
		ps.State = sess.State()
		if err := s.sessions.Save(ctx, ps, s.ttl); err != nil {
			return nil, fmt.Errorf("failed to save play session: %w", err)
		}
		return view, nil
	}

	res := sess.Result()
	completion, err := s.progress.RecordRun(ctx, userID, scenario, &res)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		s.logger.Warn("Failed to delete finished session", zap.Error(err), zap.Stringer("sessionID", sessionID))
	}
	view.Completion = completion
	return view, nil
}

func (s *playServiceImpl) view(sessionID, scenarioID uuid.UUID, sess *player.Session) *PlayView {
	n, total := sess.Position()
	return &PlayView{
		SessionID:  sessionID,
		ScenarioID: scenarioID,
		Step:       sess.Current(),
		StepNumber: n,
		TotalSteps: total,
		Finished:   sess.Finished(),
	}
}
