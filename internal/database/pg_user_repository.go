package database

import (
	"context"
	"errors"
	"fmt"

	"qadamsafe/internal/interfaces"
	"qadamsafe/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

const userColumns = `id, email, name, password_hash, role, language, subscription_tier,
	security_score, rank, has_seen_welcome, created_at, updated_at`

// Compile-time check to ensure pgUserRepository implements UserRepository
var _ interfaces.UserRepository = (*pgUserRepository)(nil)

type pgUserRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgUserRepository creates a new PostgreSQL-backed UserRepository.
func NewPgUserRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.UserRepository {
	return &pgUserRepository{
		db:     db,
		logger: logger.Named("PgUserRepo"),
	}
}

func (r *pgUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (email, name, password_hash, role, language, subscription_tier)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, security_score, rank, has_seen_welcome, created_at, updated_at`
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("email", user.Email))

	err := r.db.QueryRow(ctx, query,
		user.Email, user.Name, user.PasswordHash, user.Role, user.Language, user.SubscriptionTier,
	).Scan(&user.ID, &user.SecurityScore, &user.Rank, &user.HasSeenWelcome, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			r.logger.Warn("Attempted to create duplicate user by email", zap.String("email", user.Email), zap.String("constraint", pgErr.ConstraintName))
			return models.ErrEmailAlreadyExists
		}
		r.logger.Error("Failed to create user in postgres", zap.Error(err), zap.String("email", user.Email))
		return fmt.Errorf("failed to create user in postgres: %w", err)
	}
	r.logger.Info("User created successfully", zap.String("userID", user.ID.String()), zap.String("email", user.Email))
	return nil
}

func (r *pgUserRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *pgUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *pgUserRepository) getOne(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var user models.User
	if err := pgxscan.Get(ctx, r.db, &user, query, arg); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrUserNotFound
		}
		r.logger.Error("Failed to get user from postgres", zap.Error(err), zap.Any("key", arg))
		return nil, fmt.Errorf("failed to get user from postgres: %w", err)
	}
	return &user, nil
}

func (r *pgUserRepository) UpdateLanguage(ctx context.Context, id uuid.UUID, language string) error {
	return r.execOne(ctx, `UPDATE users SET language = $2 WHERE id = $1`, id, language)
}

func (r *pgUserRepository) MarkWelcomeSeen(ctx context.Context, id uuid.UUID) error {
	return r.execOne(ctx, `UPDATE users SET has_seen_welcome = TRUE WHERE id = $1`, id)
}

func (r *pgUserRepository) UpdateRank(ctx context.Context, id uuid.UUID, rank int) error {
	return r.execOne(ctx, `UPDATE users SET rank = $2 WHERE id = $1`, id, rank)
}

func (r *pgUserRepository) execOne(ctx context.Context, query string, id uuid.UUID, args ...interface{}) error {
	tag, err := r.db.Exec(ctx, query, append([]interface{}{id}, args...)...)
	if err != nil {
		r.logger.Error("Failed to update user", zap.Error(err), zap.String("userID", id.String()), zap.String("query", query))
		return fmt.Errorf("failed to update user %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

func (r *pgUserRepository) AddSecurityScore(ctx context.Context, id uuid.UUID, delta int) (int, error) {
	query := `UPDATE users SET security_score = security_score + $2 WHERE id = $1 RETURNING security_score`
	var score int
	if err := r.db.QueryRow(ctx, query, id, delta).Scan(&score); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, models.ErrUserNotFound
		}
		r.logger.Error("Failed to add security score", zap.Error(err), zap.String("userID", id.String()), zap.Int("delta", delta))
		return 0, fmt.Errorf("failed to add security score: %w", err)
	}
	return score, nil
}

func (r *pgUserRepository) ListLeaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	query := `SELECT id, name, security_score, rank, created_at FROM users
		ORDER BY security_score DESC, created_at ASC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	var entries []models.LeaderboardEntry
	if err := pgxscan.Select(ctx, r.db, &entries, query, args...); err != nil {
		r.logger.Error("Failed to list leaderboard", zap.Error(err))
		return nil, fmt.Errorf("failed to list leaderboard: %w", err)
	}
	for i := range entries {
		entries[i].Position = i + 1
	}
	return entries, nil
}

func (r *pgUserRepository) GetLeaderboardPosition(ctx context.Context, id uuid.UUID) (int, error) {
	query := `SELECT (
			SELECT COUNT(*) FROM users o
			WHERE o.security_score > u.security_score
			   OR (o.security_score = u.security_score AND o.created_at < u.created_at)
		) + 1
		FROM users u WHERE u.id = $1`
	var pos int
	if err := r.db.QueryRow(ctx, query, id).Scan(&pos); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, models.ErrUserNotFound
		}
		r.logger.Error("Failed to get leaderboard position", zap.Error(err), zap.String("userID", id.String()))
		return 0, fmt.Errorf("failed to get leaderboard position: %w", err)
	}
	return pos, nil
}
