package service_test

import (
	"context"
	"testing"
	"time"

	"qadamsafe/internal/config"
	"qadamsafe/internal/database"
	"qadamsafe/internal/interfaces"
	"qadamsafe/internal/messaging"
	"qadamsafe/internal/models"
	"qadamsafe/internal/player"
	"qadamsafe/internal/realtime"
	"qadamsafe/internal/seed"
	"qadamsafe/internal/service"
	"qadamsafe/pkg/migration"

	"github.com/docker/docker/client"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

const testPushQueue = "push_notifications_test"

// capturingSender получает push payload'ы из настоящего консьюмера.
type capturingSender struct {
	got chan models.PushNotificationPayload
}

func (s *capturingSender) SendNotification(_ context.Context, payload models.PushNotificationPayload) error {
	s.got <- payload
	return nil
}

type IntegrationTestSuite struct {
	suite.Suite
	ctx          context.Context
	pgContainer  *postgres.PostgresContainer
	rdContainer  *tcredis.RedisContainer
	rmqContainer *rabbitmq.RabbitMQContainer
	pgPool       *pgxpool.Pool
	redisClient  *redis.Client
	rabbitConn   *amqp.Connection
	publisher    *messaging.PushPublisher
	consumer     *messaging.Consumer
	pushes       *capturingSender
	logger       *zap.Logger

	scenarioRepo interfaces.ScenarioRepository
	auth         service.AuthService
	scenarios    service.ScenarioService
	progress     service.ProgressService
	leaderboard  service.LeaderboardService
	classrooms   service.ClassroomService
	catalog      *seed.Catalog
	seeder       *seed.Seeder
}

func (s *IntegrationTestSuite) SetupSuite() {
	s.ctx = context.Background()
	s.logger = zap.NewNop()
	var err error

	s.pgContainer, err = postgres.Run(s.ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("qadamsafe_test"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
	)
	require.NoError(s.T(), err, "Failed to start postgres container")
	dsn, err := s.pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	require.NoError(s.T(), err)

	s.pgPool, err = database.ConnectPostgres(s.ctx, database.PostgresOptions{DSN: dsn, MaxConns: 5}, s.logger)
	require.NoError(s.T(), err)
	require.NoError(s.T(), migration.NewMigrator(migration.Config{
		MigrationsFS:   database.MigrationsFS,
		MigrationsPath: database.MigrationsPath,
	}, s.pgPool).Up(s.ctx))

	s.rdContainer, err = tcredis.Run(s.ctx,
		"docker.io/redis:7-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("* Ready to accept connections").WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(s.T(), err, "Failed to start redis container")
	redisURI, err := s.rdContainer.ConnectionString(s.ctx)
	require.NoError(s.T(), err)
	redisOpts, err := redis.ParseURL(redisURI)
	require.NoError(s.T(), err)
	s.redisClient, err = database.ConnectRedis(s.ctx, database.RedisOptions{Addr: redisOpts.Addr}, s.logger)
	require.NoError(s.T(), err)

	s.rmqContainer, err = rabbitmq.Run(s.ctx,
		"rabbitmq:3-management-alpine",
		testcontainers.WithWaitStrategy(wait.ForLog("Server startup complete")),
	)
	require.NoError(s.T(), err, "Failed to start rabbitmq container")
	amqpURL, err := s.rmqContainer.AmqpURL(s.ctx)
	require.NoError(s.T(), err)
	s.rabbitConn, err = messaging.ConnectRabbitMQ(s.ctx, amqpURL, s.logger)
	require.NoError(s.T(), err)
	s.publisher, err = messaging.NewPushPublisher(s.rabbitConn, testPushQueue, s.logger)
	require.NoError(s.T(), err)

	s.pushes = &capturingSender{got: make(chan models.PushNotificationPayload, 16)}
	s.consumer = messaging.NewConsumer(s.rabbitConn, s.logger, testPushQueue, 2, messaging.NewProcessor(s.logger, s.pushes))
	go func() { _ = s.consumer.Start() }()

	cfg := &config.Config{
		JWTSecret:       "integration-jwt-secret",
		PasswordPepper:  "integration-pepper",
		AccessTokenTTL:  5 * time.Minute,
		RefreshTokenTTL: 10 * time.Minute,
	}

	userRepo := database.NewPgUserRepository(s.pgPool, s.logger)
	s.scenarioRepo = database.NewPgScenarioRepository(s.pgPool, s.logger)
	progressRepo := database.NewPgProgressRepository(s.pgPool, s.logger)
	achievementRepo := database.NewPgAchievementRepository(s.pgPool, s.logger)

	achievements := service.NewAchievementService(achievementRepo, progressRepo, s.logger)
	s.leaderboard = service.NewLeaderboardService(userRepo,
		database.NewRedisLeaderboardCache(s.redisClient, time.Minute, s.logger), s.logger)
	events := service.NewEventDispatcher(s.publisher, realtime.NewManager(s.logger), s.logger)

	s.auth = service.NewAuthService(userRepo, database.NewRedisTokenRepository(s.redisClient, s.logger), s.leaderboard, cfg, s.logger)
	s.scenarios = service.NewScenarioService(userRepo, s.scenarioRepo, progressRepo, s.logger)
	s.progress = service.NewProgressService(userRepo, s.scenarioRepo, progressRepo, achievements, s.leaderboard, events, s.logger)
	s.classrooms = service.NewClassroomService(database.NewPgClassroomRepository(s.pgPool, s.logger), s.logger)

	s.catalog, err = seed.LoadCatalog()
	require.NoError(s.T(), err)
	s.seeder = seed.NewSeeder(s.scenarioRepo, achievementRepo, s.logger)
}

func (s *IntegrationTestSuite) TearDownSuite() {
	if s.consumer != nil {
		s.consumer.Stop()
	}
	if s.publisher != nil {
		_ = s.publisher.Close()
	}
	if s.rabbitConn != nil {
		_ = s.rabbitConn.Close()
	}
	if s.pgPool != nil {
		s.pgPool.Close()
	}
	if s.redisClient != nil {
		_ = s.redisClient.Close()
	}
	if s.pgContainer != nil {
		_ = s.pgContainer.Terminate(s.ctx)
	}
	if s.rdContainer != nil {
		_ = s.rdContainer.Terminate(s.ctx)
	}
	if s.rmqContainer != nil {
		_ = s.rmqContainer.Terminate(s.ctx)
	}
}

func (s *IntegrationTestSuite) SetupTest() {
	require.NoError(s.T(), s.redisClient.FlushDB(s.ctx).Err())
	_, err := s.pgPool.Exec(s.ctx, "TRUNCATE TABLE users, scenarios, achievements RESTART IDENTITY CASCADE")
	require.NoError(s.T(), err)
	require.NoError(s.T(), s.seeder.Run(s.ctx, s.catalog))

	// Сообщения из прошлых тестов
	for {
		select {
		case <-s.pushes.got:
		default:
			return
		}
	}
}

func TestIntegrationTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		t.Skipf("Docker client init error: %v", err)
	}
	defer cli.Close()
	if _, err := cli.Ping(context.Background()); err != nil {
		t.Skipf("Docker daemon is not accessible: %v", err)
	}

	suite.Run(t, new(IntegrationTestSuite))
}

func safeChoices(sc *models.Scenario) []player.Choice {
	var choices []player.Choice
	for _, step := range sc.Content.Steps {
		for _, opt := range step.Options {
			if opt.OutcomeType == models.OutcomeSafe {
				choices = append(choices, player.Choice{StepID: step.ID, OptionID: opt.ID})
				break
			}
		}
	}
	return choices
}

func (s *IntegrationTestSuite) TestRegisterLoginAndVerify() {
	t := s.T()
	user, tokens, err := s.auth.Register(s.ctx, "Student@Example.com", "password123", "Aigerim", "ru")
	require.NoError(t, err)
	require.Equal(t, "student@example.com", user.Email)
	require.Equal(t, models.RankNovice, user.Rank)

	_, _, err = s.auth.Register(s.ctx, "student@example.com", "password123", "Dup", "ru")
	require.ErrorIs(t, err, models.ErrEmailAlreadyExists)

	claims, err := s.auth.VerifyAccessToken(s.ctx, tokens.AccessToken)
	require.NoError(t, err)
	require.Equal(t, user.ID, claims.UserID)

	_, _, err = s.auth.Login(s.ctx, "student@example.com", "wrong-password")
	require.ErrorIs(t, err, models.ErrInvalidCredentials)

	require.NoError(t, s.auth.Logout(s.ctx, claims, tokens.RefreshToken))
	_, err = s.auth.VerifyAccessToken(s.ctx, tokens.AccessToken)
	require.Error(t, err)
}

func (s *IntegrationTestSuite) TestCompletionUnlocksNextScenarioAndPublishesPush() {
	t := s.T()
	user, _, err := s.auth.Register(s.ctx, "player@example.com", "password123", "Player", "en")
	require.NoError(t, err)

	list, err := s.scenarios.ListScenarios(s.ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, list, len(s.catalog.Scenarios))
	require.False(t, list[0].Locked)
	require.True(t, list[1].Locked)

	_, err = s.progress.CompleteScenario(s.ctx, user.ID, list[1].ID, safeChoices(list[1].Scenario))
	require.ErrorIs(t, err, models.ErrScenarioLocked)

	res, err := s.progress.CompleteScenario(s.ctx, user.ID, list[0].ID, safeChoices(list[0].Scenario))
	require.NoError(t, err)
	require.Zero(t, res.Mistakes)
	require.Positive(t, res.SecurityScoreGained)
	require.Equal(t, 1, res.Progress.Attempts)

	var unlocked []string
	for _, ua := range res.UnlockedAchievements {
		unlocked = append(unlocked, ua.Achievement.Key)
	}
	require.Contains(t, unlocked, models.AchievementFirstScenario)
	require.Contains(t, unlocked, models.AchievementPerfectScore)

	list, err = s.scenarios.ListScenarios(s.ctx, user.ID)
	require.NoError(t, err)
	require.False(t, list[1].Locked, "next level opens after completion")
	require.NotNil(t, list[0].UserProgress)

	// Повторное прохождение не выдает очки и достижения повторно
	again, err := s.progress.CompleteScenario(s.ctx, user.ID, list[0].ID, safeChoices(list[0].Scenario))
	require.NoError(t, err)
	require.Zero(t, again.SecurityScoreGained)
	require.Empty(t, again.UnlockedAchievements)
	require.Equal(t, 2, again.Progress.Attempts)

	entry, err := s.leaderboard.GetPosition(s.ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, 1, entry.Position)
	require.Equal(t, res.SecurityScore, entry.SecurityScore)

	select {
	case payload := <-s.pushes.got:
		require.Equal(t, user.ID, payload.UserID)
		require.NotEmpty(t, payload.Notification.Title)
	case <-time.After(15 * time.Second):
		t.Fatal("push notification was not consumed from RabbitMQ")
	}
}

func (s *IntegrationTestSuite) TestConcurrentCompletionsCountScoreOnce() {
	t := s.T()
	user, _, err := s.auth.Register(s.ctx, "twice@example.com", "password123", "Twice", "ru")
	require.NoError(t, err)
	first := s.catalog.Scenarios[0]

	const runs = 4
	results := make(chan *models.CompletionResult, runs)
	errs := make(chan error, runs)
	for i := 0; i < runs; i++ {
		go func() {
			res, err := s.progress.CompleteScenario(s.ctx, user.ID, first.ID, safeChoices(first))
			if err != nil {
				errs <- err
				return
			}
			results <- res
		}()
	}

	gainedTotal := 0
	for i := 0; i < runs; i++ {
		select {
		case err := <-errs:
			t.Fatalf("completion failed: %v", err)
		case res := <-results:
			gainedTotal += res.SecurityScoreGained
		case <-time.After(30 * time.Second):
			t.Fatal("completions did not finish")
		}
	}
	require.Equal(t, first.PointsReward, gainedTotal)

	me, err := s.auth.GetMe(s.ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, first.PointsReward, me.SecurityScore)

	stored, err := s.progress.GetScenarioProgress(s.ctx, user.ID, first.ID)
	require.NoError(t, err)
	require.Equal(t, runs, stored.Attempts)
}

func (s *IntegrationTestSuite) TestRegisteredUserAppearsInWarmLeaderboard() {
	t := s.T()
	first, _, err := s.auth.Register(s.ctx, "first@example.com", "password123", "First", "ru")
	require.NoError(t, err)

	warm, err := s.leaderboard.GetLeaderboard(s.ctx, 10)
	require.NoError(t, err)
	require.Len(t, warm, 1)

	second, _, err := s.auth.Register(s.ctx, "second@example.com", "password123", "Second", "ru")
	require.NoError(t, err)

	// Кэш еще жив, новый пользователь должен попасть в него сразу
	top, err := s.leaderboard.GetLeaderboard(s.ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	require.Equal(t, first.ID, top[0].UserID)
	require.Equal(t, second.ID, top[1].UserID)
}

func (s *IntegrationTestSuite) TestLeaderboardCacheKeepsTieOrderForLargeScores() {
	t := s.T()
	cache := database.NewRedisLeaderboardCache(s.redisClient, time.Minute, s.logger)
	base := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	early := models.LeaderboardEntry{UserID: uuid.New(), Name: "early", SecurityScore: 2_000_000, CreatedAt: base}
	late := models.LeaderboardEntry{UserID: uuid.New(), Name: "late", SecurityScore: 2_000_000, CreatedAt: base.Add(time.Second)}
	low := models.LeaderboardEntry{UserID: uuid.New(), Name: "low", SecurityScore: 1_999_999, CreatedAt: base.Add(-time.Hour)}
	require.NoError(t, cache.Rebuild(s.ctx, []models.LeaderboardEntry{low, late, early}))

	top, found, err := cache.Top(s.ctx, 10)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, top, 3)
	require.Equal(t, []uuid.UUID{early.UserID, late.UserID, low.UserID},
		[]uuid.UUID{top[0].UserID, top[1].UserID, top[2].UserID})

	late.SecurityScore++
	require.NoError(t, cache.Upsert(s.ctx, late))
	pos, found, err := cache.Position(s.ctx, late.UserID)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, 1, pos)

	pos, found, err = cache.Position(s.ctx, uuid.New())
	require.NoError(t, err)
	require.False(t, found)
	require.Zero(t, pos)
}

func (s *IntegrationTestSuite) TestClassroomJoinFlow() {
	t := s.T()
	teacher, _, err := s.auth.Register(s.ctx, "teacher@example.com", "password123", "Teacher", "ru")
	require.NoError(t, err)
	student, _, err := s.auth.Register(s.ctx, "student2@example.com", "password123", "Student", "ru")
	require.NoError(t, err)

	classroom, err := s.classrooms.CreateClassroom(s.ctx, teacher.ID, models.RoleTeacher, "9A")
	require.NoError(t, err)
	require.Len(t, classroom.Code, 6)

	joined, err := s.classrooms.JoinClassroom(s.ctx, student.ID, classroom.Code)
	require.NoError(t, err)
	require.Equal(t, 1, joined.StudentCount)

	_, err = s.classrooms.JoinClassroom(s.ctx, student.ID, classroom.Code)
	require.ErrorIs(t, err, models.ErrAlreadyJoined)

	students, err := s.classrooms.ListStudents(s.ctx, teacher.ID, models.RoleTeacher, classroom.ID)
	require.NoError(t, err)
	require.Len(t, students, 1)
	require.Equal(t, student.ID, students[0].UserID)

	_, err = s.classrooms.ListStudents(s.ctx, student.ID, models.RoleUser, classroom.ID)
	require.ErrorIs(t, err, models.ErrForbidden)
}
