package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tutormatch/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CatalogRepository предметы и темы. Каталог статический, только чтение —
// наполняется миграциями.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// ListSubjects получает все предметы
func (r *CatalogRepository) ListSubjects(ctx context.Context) ([]*model.Subject, error) {
	query := `
		SELECT id, name
		FROM subjects
		ORDER BY name
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	defer rows.Close()

	var subjects []*model.Subject
	for rows.Next() {
		var subject model.Subject
		if err := rows.Scan(&subject.ID, &subject.Name); err != nil {
			return nil, fmt.Errorf("scan subject: %w", err)
		}
		subjects = append(subjects, &subject)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subjects: %w", err)
	}

	return subjects, nil
}

// ListTopics получает темы предмета
func (r *CatalogRepository) ListTopics(ctx context.Context, subjectID uuid.UUID) ([]*model.Topic, error) {
	query := `
		SELECT id, subject_id, name
		FROM topics
		WHERE subject_id = $1
		ORDER BY name
	`

	rows, err := r.pool.Query(ctx, query, subjectID)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	defer rows.Close()

	var topics []*model.Topic
	for rows.Next() {
		var topic model.Topic
		if err := rows.Scan(&topic.ID, &topic.SubjectID, &topic.Name); err != nil {
			return nil, fmt.Errorf("scan topic: %w", err)
		}
		topics = append(topics, &topic)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate topics: %w", err)
	}

	return topics, nil
}

// GetSubject получает предмет по ID
func (r *CatalogRepository) GetSubject(ctx context.Context, id uuid.UUID) (*model.Subject, error) {
	query := `
		SELECT id, name
		FROM subjects
		WHERE id = $1
	`

	var subject model.Subject
	err := r.pool.QueryRow(ctx, query, id).Scan(&subject.ID, &subject.Name)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get subject by id: %w", err)
	}

	return &subject, nil
}

// GetTopic получает тему по ID
func (r *CatalogRepository) GetTopic(ctx context.Context, id uuid.UUID) (*model.Topic, error) {
	query := `
		SELECT id, subject_id, name
		FROM topics
		WHERE id = $1
	`

	var topic model.Topic
	err := r.pool.QueryRow(ctx, query, id).Scan(&topic.ID, &topic.SubjectID, &topic.Name)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get topic by id: %w", err)
	}

	return &topic, nil
}
