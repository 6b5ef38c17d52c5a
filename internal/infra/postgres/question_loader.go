package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"smartquiz/internal/domain"
)

// QuestionLoader is the pgx-based hot read path: it feeds the question cache
// during quiz runs and resolves subject pools for section partitioning.
type QuestionLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionLoader(pool *pgxpool.Pool) *QuestionLoader {
	return &QuestionLoader{pool: pool}
}

func (l *QuestionLoader) Question(ctx context.Context, id int64) (domain.Question, error) {
	var q domain.Question
	err := l.pool.QueryRow(ctx,
		`SELECT id, subject_id, question_text FROM questions WHERE id=$1`, id).
		Scan(&q.ID, &q.SubjectID, &q.Text)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	if err != nil {
		return domain.Question{}, fmt.Errorf("load question %d: %w", id, err)
	}

	rows, err := l.pool.Query(ctx,
		`SELECT id, option_text, is_correct FROM options WHERE question_id=$1 ORDER BY position, id`, id)
	if err != nil {
		return domain.Question{}, fmt.Errorf("load options for question %d: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var opt domain.Option
		if err := rows.Scan(&opt.ID, &opt.Text, &opt.Correct); err != nil {
			return domain.Question{}, fmt.Errorf("scan option: %w", err)
		}
		q.Options = append(q.Options, opt)
	}
	if err := rows.Err(); err != nil {
		return domain.Question{}, fmt.Errorf("iterate options: %w", err)
	}
	return q, nil
}

func (l *QuestionLoader) QuestionIDsBySubject(ctx context.Context, subjectID int64) ([]int64, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT id FROM questions WHERE subject_id=$1 ORDER BY id`, subjectID)
	if err != nil {
		return nil, fmt.Errorf("load question ids for subject %d: %w", subjectID, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan question id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate question ids: %w", err)
	}
	return ids, nil
}
