package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonathan/seo-content-machine/internal/types"
)

const articleColumns = `id, run_id, project, topic, status, outline, markdown, html, metadata,
	schema_ld, seo_score, audit, created_at, updated_at`

func marshalNullable(v any, isNil bool) ([]byte, error) {
	if isNil {
		return nil, nil
	}
	return json.Marshal(v)
}

func scanArticle(row pgx.Row) (*Article, error) {
	var a Article
	var outline, metadata, audit []byte
	if err := row.Scan(&a.ID, &a.RunID, &a.Project, &a.Topic, &a.Status, &outline, &a.Markdown, &a.HTML,
		&metadata, &a.Schema, &a.SEOScore, &audit, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}

	if len(outline) > 0 {
		a.Outline = &types.Outline{}
		if err := json.Unmarshal(outline, a.Outline); err != nil {
			return nil, fmt.Errorf("failed to decode outline: %w", err)
		}
	}
	if len(metadata) > 0 {
		a.Metadata = &types.Metadata{}
		if err := json.Unmarshal(metadata, a.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode metadata: %w", err)
		}
	}
	if len(audit) > 0 {
		a.Audit = &types.AuditResult{}
		if err := json.Unmarshal(audit, a.Audit); err != nil {
			return nil, fmt.Errorf("failed to decode audit: %w", err)
		}
	}
	return &a, nil
}

// CreateArticle inserts a new article and fills in its ID and timestamps
func (db *DB) CreateArticle(ctx context.Context, a *Article) error {
	outline, err := marshalNullable(a.Outline, a.Outline == nil)
	if err != nil {
		return fmt.Errorf("failed to marshal outline: %w", err)
	}
	metadata, err := marshalNullable(a.Metadata, a.Metadata == nil)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	audit, err := marshalNullable(a.Audit, a.Audit == nil)
	if err != nil {
		return fmt.Errorf("failed to marshal audit: %w", err)
	}
	if a.Status == "" {
		a.Status = ArticleStatusDraft
	}

	err = db.pool.QueryRow(ctx,
		`INSERT INTO articles (run_id, project, topic, status, outline, markdown, html, metadata, schema_ld, seo_score, audit)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id, created_at, updated_at`,
		a.RunID, a.Project, a.Topic, a.Status, outline, a.Markdown, a.HTML, metadata, a.Schema, a.SEOScore, audit,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create article: %w", err)
	}
	return nil
}

// GetArticle retrieves an article by ID; nil if it does not exist
func (db *DB) GetArticle(ctx context.Context, id uuid.UUID) (*Article, error) {
	a, err := scanArticle(db.pool.QueryRow(ctx,
		`SELECT `+articleColumns+` FROM articles WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get article: %w", err)
	}
	return a, nil
}

// ListArticles lists articles, newest first
func (db *DB) ListArticles(ctx context.Context, filters ArticleFilters) ([]Article, error) {
	if filters.Limit <= 0 {
		filters.Limit = 50
	}

	query := `SELECT ` + articleColumns + ` FROM articles WHERE 1=1`
	args := []any{}
	argNum := 1

	if filters.Project != "" {
		query += fmt.Sprintf(" AND project = $%d", argNum)
		args = append(args, filters.Project)
		argNum++
	}
	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, filters.Status)
		argNum++
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", argNum)
	args = append(args, filters.Limit)

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	defer rows.Close()

	articles := []Article{}
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}
		articles = append(articles, *a)
	}
	return articles, rows.Err()
}

// UpdateArticleContent replaces the Markdown, HTML, metadata and schema of an article
func (db *DB) UpdateArticleContent(ctx context.Context, id uuid.UUID, markdown, html string, metadata *types.Metadata, schema string) error {
	meta, err := marshalNullable(metadata, metadata == nil)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	status := ArticleStatusDraft
	if html != "" {
		status = ArticleStatusCoded
	}

	result, err := db.pool.Exec(ctx,
		`UPDATE articles SET markdown = $2, html = $3, metadata = $4, schema_ld = $5, status = $6, updated_at = NOW()
		 WHERE id = $1`,
		id, markdown, html, meta, schema, status,
	)
	if err != nil {
		return fmt.Errorf("failed to update article: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("article %s: %w", id, ErrNotFound)
	}
	return nil
}

// UpdateArticleAudit stores an audit result and its score
func (db *DB) UpdateArticleAudit(ctx context.Context, id uuid.UUID, audit *types.AuditResult) error {
	if audit == nil {
		return fmt.Errorf("audit is required")
	}
	auditJSON, err := json.Marshal(audit)
	if err != nil {
		return fmt.Errorf("failed to marshal audit: %w", err)
	}

	result, err := db.pool.Exec(ctx,
		`UPDATE articles SET audit = $2, seo_score = $3, status = $4, updated_at = NOW() WHERE id = $1`,
		id, auditJSON, audit.Score, ArticleStatusAudited,
	)
	if err != nil {
		return fmt.Errorf("failed to update article audit: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("article %s: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteArticle removes an article
func (db *DB) DeleteArticle(ctx context.Context, id uuid.UUID) error {
	result, err := db.pool.Exec(ctx, `DELETE FROM articles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete article: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("article %s: %w", id, ErrNotFound)
	}
	return nil
}
