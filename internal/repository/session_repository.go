package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/tutormatch/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SessionRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

const sessionColumns = `id, student_id, teacher_id, subject_id, topic_id, status, started_at, ended_at, duration_minutes, end_reason, created_at, updated_at`

func scanSession(row pgx.Row) (*model.Session, error) {
	var s model.Session
	err := row.Scan(
		&s.ID,
		&s.StudentID,
		&s.TeacherID,
		&s.SubjectID,
		&s.TopicID,
		&s.Status,
		&s.StartedAt,
		&s.EndedAt,
		&s.DurationMinutes,
		&s.EndReason,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Claim атомарно превращает объявление в активную сессию: условный DELETE
// объявления и INSERT сессии в одной транзакции. Если объявление уже забрали
// (или сняли), DELETE не вернёт строку — возвращаем (nil, nil), победитель
// может быть только один, это гарантирует сама БД.
func (r *SessionRepository) Claim(ctx context.Context, advertisementID, studentID uuid.UUID, startedAt time.Time) (*model.Session, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	deleteQuery := `
		DELETE FROM availability_ads
		WHERE id = $1
		RETURNING teacher_id, subject_id, topic_id
	`

	var teacherID, subjectID uuid.UUID
	var topicID *uuid.UUID
	err = tx.QueryRow(ctx, deleteQuery, advertisementID).Scan(&teacherID, &subjectID, &topicID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil // Объявление исчезло — гонка проиграна
		}
		return nil, fmt.Errorf("delete claimed advertisement: %w", err)
	}

	insertQuery := `
		INSERT INTO sessions (id, student_id, teacher_id, subject_id, topic_id, status, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + sessionColumns

	session, err := scanSession(tx.QueryRow(
		ctx, insertQuery,
		uuid.New(),
		studentID,
		teacherID,
		subjectID,
		topicID,
		model.SessionStatusActive,
		startedAt,
	))
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return session, nil
}

// GetByID получает сессию по ID
func (r *SessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`

	session, err := scanSession(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get session by id: %w", err)
	}

	return session, nil
}

// StartIfPending переводит ожидающую сессию в активную и фиксирует started_at.
// Условие status = 'pending' делает параллельную активацию безопасной: второй
// вызов не вернёт строку и момент старта не перезапишется.
func (r *SessionRepository) StartIfPending(ctx context.Context, id uuid.UUID, startedAt time.Time) (*model.Session, error) {
	query := `
		UPDATE sessions
		SET status = 'active', started_at = $1, updated_at = now()
		WHERE id = $2 AND status = 'pending'
		RETURNING ` + sessionColumns

	session, err := scanSession(r.pool.QueryRow(ctx, query, startedAt, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("start session: %w", err)
	}

	return session, nil
}

// FinishIfActive переводит активную сессию в терминальный статус. Условие
// status = 'active' делает повторное завершение no-op: возвращается (nil, nil),
// и длительность никогда не пересчитывается.
func (r *SessionRepository) FinishIfActive(ctx context.Context, id uuid.UUID, status model.SessionStatus, endedAt time.Time, durationMinutes int, reason model.EndReason) (*model.Session, error) {
	query := `
		UPDATE sessions
		SET status = $1, ended_at = $2, duration_minutes = $3, end_reason = $4, updated_at = now()
		WHERE id = $5 AND status = 'active'
		RETURNING ` + sessionColumns

	session, err := scanSession(r.pool.QueryRow(ctx, query, status, endedAt, durationMinutes, reason, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("finish session: %w", err)
	}

	return session, nil
}

// ListActiveStartedBefore получает активные сессии, начатые раньше cutoff —
// кандидаты на принудительное завершение по лимиту времени.
func (r *SessionRepository) ListActiveStartedBefore(ctx context.Context, cutoff time.Time) ([]*model.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE status = 'active' AND started_at <= $1
		ORDER BY started_at
	`

	rows, err := r.pool.Query(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list expired sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*model.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expired sessions: %w", err)
	}

	return sessions, nil
}

// ListByParticipant получает сессии, где пользователь студент или учитель
func (r *SessionRepository) ListByParticipant(ctx context.Context, participantID uuid.UUID) ([]*model.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE student_id = $1 OR teacher_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, participantID)
	if err != nil {
		return nil, fmt.Errorf("list sessions by participant: %w", err)
	}
	defer rows.Close()

	var sessions []*model.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	return sessions, nil
}

// CountCompleted считает завершённые сессии для пересчёта статистики
func (r *SessionRepository) CountCompleted(ctx context.Context) (int64, error) {
	query := `SELECT COUNT(*) FROM sessions WHERE status = 'completed'`

	var count int64
	if err := r.pool.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count completed sessions: %w", err)
	}

	return count, nil
}
