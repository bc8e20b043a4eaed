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

const classroomColumns = `id, name, code, owner_id, student_count, created_at`

var _ interfaces.ClassroomRepository = (*pgClassroomRepository)(nil)

type pgClassroomRepository struct {
	db     interfaces.TxStarter
	logger *zap.Logger
}

// NewPgClassroomRepository требует пул, т.к. Join выполняется в транзакции.
func NewPgClassroomRepository(db interfaces.TxStarter, logger *zap.Logger) interfaces.ClassroomRepository {
	return &pgClassroomRepository{
		db:     db,
		logger: logger.Named("PgClassroomRepo"),
	}
}

func (r *pgClassroomRepository) Create(ctx context.Context, c *models.Classroom) error {
	query := `INSERT INTO classrooms (name, code, owner_id) VALUES ($1, $2, $3)
		RETURNING id, student_count, created_at`
	err := r.db.QueryRow(ctx, query, c.Name, c.Code, c.OwnerID).Scan(&c.ID, &c.StudentCount, &c.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.ErrClassroomCodeTaken
		}
		r.logger.Error("Failed to create classroom", zap.Error(err), zap.Stringer("ownerID", c.OwnerID))
		return fmt.Errorf("failed to create classroom: %w", err)
	}
	r.logger.Info("Classroom created", zap.Stringer("classroomID", c.ID), zap.String("code", c.Code))
	return nil
}

func (r *pgClassroomRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Classroom, error) {
	return r.getOne(ctx, `SELECT `+classroomColumns+` FROM classrooms WHERE id = $1`, id)
}

func (r *pgClassroomRepository) GetByCode(ctx context.Context, code string) (*models.Classroom, error) {
	return r.getOne(ctx, `SELECT `+classroomColumns+` FROM classrooms WHERE code = $1`, code)
}

func (r *pgClassroomRepository) getOne(ctx context.Context, query string, arg interface{}) (*models.Classroom, error) {
	var c models.Classroom
	if err := pgxscan.Get(ctx, r.db, &c, query, arg); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrClassroomNotFound
		}
		r.logger.Error("Failed to get classroom", zap.Error(err), zap.Any("key", arg))
		return nil, fmt.Errorf("failed to get classroom: %w", err)
	}
	return &c, nil
}

func (r *pgClassroomRepository) Join(ctx context.Context, classroomID, userID uuid.UUID) (*models.Classroom, error) {
	var joined models.Classroom
	err := WithTx(ctx, r.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO classroom_members (classroom_id, user_id) VALUES ($1, $2)`, classroomID, userID)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) {
				switch pgErr.Code {
				case "23505":
					return models.ErrAlreadyJoined
				case "23503": // foreign_key_violation
					return models.ErrClassroomNotFound
				}
			}
			return fmt.Errorf("failed to insert membership: %w", err)
		}
		err = pgxscan.Get(ctx, tx, &joined,
			`UPDATE classrooms SET student_count = student_count + 1 WHERE id = $1 RETURNING `+classroomColumns, classroomID)
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ErrClassroomNotFound
		}
		return err
	})
	if err != nil {
		if !errors.Is(err, models.ErrAlreadyJoined) && !errors.Is(err, models.ErrClassroomNotFound) {
			r.logger.Error("Failed to join classroom", zap.Error(err), zap.Stringer("classroomID", classroomID), zap.Stringer("userID", userID))
		}
		return nil, err
	}
	return &joined, nil
}

func (r *pgClassroomRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.Classroom, error) {
	var list []*models.Classroom
	err := pgxscan.Select(ctx, r.db, &list, `
		SELECT `+classroomColumns+` FROM classrooms
		WHERE owner_id = $1
		   OR id IN (SELECT classroom_id FROM classroom_members WHERE user_id = $1)
		ORDER BY created_at DESC`, userID)
	if err != nil {
		r.logger.Error("Failed to list classrooms", zap.Error(err), zap.Stringer("userID", userID))
		return nil, fmt.Errorf("failed to list classrooms: %w", err)
	}
	return list, nil
}

func (r *pgClassroomRepository) ListStudents(ctx context.Context, classroomID uuid.UUID) ([]*models.ClassroomStudent, error) {
	var list []*models.ClassroomStudent
	err := pgxscan.Select(ctx, r.db, &list, `
		SELECT u.id AS user_id, u.name, u.email, u.security_score, u.rank, m.joined_at
		FROM classroom_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.classroom_id = $1
		ORDER BY u.security_score DESC, m.joined_at ASC`, classroomID)
	if err != nil {
		r.logger.Error("Failed to list classroom students", zap.Error(err), zap.Stringer("classroomID", classroomID))
		return nil, fmt.Errorf("failed to list classroom students: %w", err)
	}
	return list, nil
}
