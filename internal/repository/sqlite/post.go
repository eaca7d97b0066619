package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/dailybite/dailybite/internal/apperror"
	"github.com/dailybite/dailybite/internal/model"
	"github.com/dailybite/dailybite/internal/repository"
)

var _ repository.PostRepository = (*PostStore)(nil)

// PostStore is the legacy blog-post facet of DB.
type PostStore struct {
	conn *sql.DB
}

// Create inserts a new blog post.
func (db *PostStore) Create(ctx context.Context, post *model.BlogPost) error {
	now := time.Now()
	post.ID = xid.New().String()
	post.CreatedAt = now
	post.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO blog_posts (id, title, content, published, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		post.ID,
		post.Title,
		post.Content,
		post.Published,
		post.CreatedAt,
		post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting blog post: %w", err)
	}

	return nil
}

// GetByID retrieves a single blog post.
func (db *PostStore) GetByID(ctx context.Context, id string) (*model.BlogPost, error) {
	var p model.BlogPost

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, title, content, published, created_at, updated_at
		 FROM blog_posts WHERE id = ?`,
		id,
	).Scan(&p.ID, &p.Title, &p.Content, &p.Published, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("post", id)
		}
		return nil, fmt.Errorf("sqlite: getting blog post %s: %w", id, err)
	}

	return &p, nil
}

// List returns blog posts newest first, optionally published only.
func (db *PostStore) List(ctx context.Context, opts repository.ListOptions, publishedOnly bool) ([]model.BlogPost, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	query := `SELECT id, title, content, published, created_at, updated_at FROM blog_posts`
	if publishedOnly {
		query += ` WHERE published = 1`
	}
	query += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`

	rows, err := db.conn.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing blog posts: %w", err)
	}
	defer rows.Close()

	posts := make([]model.BlogPost, 0, limit)
	for rows.Next() {
		var p model.BlogPost
		if err := rows.Scan(&p.ID, &p.Title, &p.Content, &p.Published, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning blog post row: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating blog posts: %w", err)
	}

	return posts, nil
}

// Update persists changes to a blog post.
func (db *PostStore) Update(ctx context.Context, post *model.BlogPost) error {
	post.UpdatedAt = time.Now()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE blog_posts SET title = ?, content = ?, published = ?, updated_at = ? WHERE id = ?`,
		post.Title,
		post.Content,
		post.Published,
		post.UpdatedAt,
		post.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating blog post %s: %w", post.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("post", post.ID)
	}

	return nil
}

// Delete removes a blog post; absent posts are a NotFound.
func (db *PostStore) Delete(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM blog_posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting blog post %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("post", id)
	}

	return nil
}
