package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/explore-with-me/internal/model"
)

// CategoryRepository reads categories. Category management lives elsewhere;
// events only need existence checks and names.
type CategoryRepository struct {
	db *pgxpool.Pool
}

// NewCategoryRepository constructs a CategoryRepository.
func NewCategoryRepository(db *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// GetByID returns a category or ErrNotFound.
func (r *CategoryRepository) GetByID(ctx context.Context, id int64) (*model.Category, error) {
	var c model.Category
	err := r.db.QueryRow(ctx, `SELECT id, name FROM categories WHERE id = $1`, id).Scan(&c.ID, &c.Name)
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// UserRepository reads users.
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository constructs a UserRepository.
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// GetByID returns a user or ErrNotFound.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.UserShort, error) {
	var u model.UserShort
	err := r.db.QueryRow(ctx, `SELECT id, name FROM users WHERE id = $1`, id).Scan(&u.ID, &u.Name)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// CommentRepository reads the comments attached to events.
type CommentRepository struct {
	db *pgxpool.Pool
}

// NewCommentRepository constructs a CommentRepository.
func NewCommentRepository(db *pgxpool.Pool) *CommentRepository {
	return &CommentRepository{db: db}
}

// ListByEvents returns the comments of every listed event keyed by event id,
// oldest first.
func (r *CommentRepository) ListByEvents(ctx context.Context, eventIDs []int64) (map[int64][]model.Comment, error) {
	out := make(map[int64][]model.Comment, len(eventIDs))
	if len(eventIDs) == 0 {
		return out, nil
	}
	rows, err := r.db.Query(ctx,
		`SELECT c.id, c.event_id, c.commentator_id, u.name, c.text, c.created_on, c.last_update
		 FROM comments c JOIN users u ON u.id = c.commentator_id
		 WHERE c.event_id = ANY($1)
		 ORDER BY c.id`,
		eventIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(&c.ID, &c.EventID, &c.AuthorID, &c.AuthorName, &c.Text, &c.Created, &c.LastUpdate); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		out[c.EventID] = append(out[c.EventID], c)
	}
	return out, rows.Err()
}
