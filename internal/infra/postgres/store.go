package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"smartquiz/internal/domain"
)

// Store is the bun-backed write side: subject/user bootstrap, question
// persistence and stats. The hot question read path lives in QuestionLoader.
type Store struct {
	db *bun.DB
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

// EnsureSubject finds or creates the subject by name and links the uploader
// to it, all in one transaction.
func (s *Store) EnsureSubject(ctx context.Context, name, description string, chatID int64, userName string) (domain.Subject, error) {
	var subject subjectRow
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		err := tx.NewSelect().Model(&subject).Where("subject_name = ?", name).Limit(1).Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			subject = subjectRow{Name: name, Description: description, OwnerChatID: chatID}
			if _, err := tx.NewInsert().Model(&subject).Exec(ctx); err != nil {
				return fmt.Errorf("insert subject: %w", err)
			}
		} else if err != nil {
			return fmt.Errorf("select subject: %w", err)
		}
		return s.ensureSubscriptionTx(ctx, tx, chatID, userName, subject.ID)
	})
	if err != nil {
		return domain.Subject{}, err
	}
	return domain.Subject{
		ID:          subject.ID,
		Name:        subject.Name,
		Description: subject.Description,
		OwnerChatID: subject.OwnerChatID,
	}, nil
}

// EnsureSubscription creates the user on first contact and adds the
// membership idempotently.
func (s *Store) EnsureSubscription(ctx context.Context, chatID int64, userName string, subjectID int64) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return s.ensureSubscriptionTx(ctx, tx, chatID, userName, subjectID)
	})
}

func (s *Store) ensureSubscriptionTx(ctx context.Context, tx bun.Tx, chatID int64, userName string, subjectID int64) error {
	var user userRow
	err := tx.NewSelect().Model(&user).Where("chat_id = ?", chatID).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		user = userRow{ChatID: chatID, UserName: userName}
		if _, err := tx.NewInsert().Model(&user).Exec(ctx); err != nil {
			return fmt.Errorf("insert user: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("select user: %w", err)
	}

	link := userSubjectRow{UserID: user.ID, SubjectID: subjectID}
	if _, err := tx.NewInsert().Model(&link).
		On("CONFLICT (user_id, subject_id) DO NOTHING").
		Exec(ctx); err != nil {
		return fmt.Errorf("link user to subject: %w", err)
	}
	return nil
}

// InsertQuestion attaches the question and all of its options in one
// transaction; a partially attached question is never observable.
func (s *Store) InsertQuestion(ctx context.Context, q domain.Question) (int64, error) {
	row := questionRow{SubjectID: q.SubjectID, Text: q.Text}
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(&row).Exec(ctx); err != nil {
			return fmt.Errorf("insert question: %w", err)
		}
		for i, opt := range q.Options {
			optRow := optionRow{
				QuestionID: row.ID,
				Text:       opt.Text,
				Correct:    opt.Correct,
				Position:   i,
			}
			if _, err := tx.NewInsert().Model(&optRow).Exec(ctx); err != nil {
				return fmt.Errorf("insert option %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return row.ID, nil
}

func (s *Store) Subject(ctx context.Context, id int64) (domain.Subject, error) {
	var row subjectRow
	err := s.db.NewSelect().Model(&row).Where("s.id = ?", id).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Subject{}, domain.ErrSubjectNotFound
	}
	if err != nil {
		return domain.Subject{}, fmt.Errorf("select subject %d: %w", id, err)
	}
	return domain.Subject{ID: row.ID, Name: row.Name, Description: row.Description, OwnerChatID: row.OwnerChatID}, nil
}

// SubjectsByChat lists the subjects the chat is subscribed to.
func (s *Store) SubjectsByChat(ctx context.Context, chatID int64) ([]domain.Subject, error) {
	var rows []subjectRow
	err := s.db.NewSelect().Model(&rows).
		Join("JOIN user_subjects AS us ON us.subject_id = s.id").
		Join("JOIN users AS u ON u.id = us.user_id").
		Where("u.chat_id = ?", chatID).
		Order("s.id").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select subjects for chat %d: %w", chatID, err)
	}
	subjects := make([]domain.Subject, len(rows))
	for i, row := range rows {
		subjects[i] = domain.Subject{ID: row.ID, Name: row.Name, Description: row.Description, OwnerChatID: row.OwnerChatID}
	}
	return subjects, nil
}

func (s *Store) InsertStats(ctx context.Context, rec domain.StatsRecord) error {
	row := statsRow{
		UserID:      rec.UserID,
		SubjectID:   rec.SubjectID,
		SubjectName: rec.SubjectName,
		Section:     rec.Section,
		Total:       rec.Total,
		Correct:     rec.Correct,
		Wrong:       rec.Wrong,
		Percentage:  rec.Percentage,
		CreatedAt:   rec.CreatedAt,
	}
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return fmt.Errorf("insert stats: %w", err)
	}
	return nil
}

func (s *Store) StatsByUser(ctx context.Context, userID int64) ([]domain.StatsRecord, error) {
	var rows []statsRow
	err := s.db.NewSelect().Model(&rows).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select stats for user %d: %w", userID, err)
	}
	records := make([]domain.StatsRecord, len(rows))
	for i, row := range rows {
		records[i] = domain.StatsRecord{
			ID:          row.ID,
			UserID:      row.UserID,
			SubjectID:   row.SubjectID,
			SubjectName: row.SubjectName,
			Section:     row.Section,
			Total:       row.Total,
			Correct:     row.Correct,
			Wrong:       row.Wrong,
			Percentage:  row.Percentage,
			CreatedAt:   row.CreatedAt,
		}
	}
	return records, nil
}
