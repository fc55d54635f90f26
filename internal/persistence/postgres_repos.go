package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"newsengine/internal/core"
)

// formatVector renders a dense vector as the pgvector text literal.
func formatVector(v []float64) string {
	if len(v) == 0 {
		return "[]"
	}
	var b strings.Builder
	b.WriteByte('[')
	for i, x := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%g", x)
	}
	b.WriteByte(']')
	return b.String()
}

// parseVector parses pgvector's "[0.1,0.2,...]" text output.
func parseVector(s string) ([]float64, error) {
	s = strings.Trim(s, "[]")
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float64, len(parts))
	for i, p := range parts {
		var f float64
		if _, err := fmt.Sscanf(strings.TrimSpace(p), "%g", &f); err != nil {
			return nil, fmt.Errorf("parse vector component %q: %w", p, err)
		}
		out[i] = f
	}
	return out, nil
}

func marshalDetail(d core.HealthDetail) ([]byte, error) {
	return json.Marshal(d)
}

func unmarshalDetail(b []byte) (core.HealthDetail, error) {
	var d core.HealthDetail
	if len(b) == 0 {
		return d, nil
	}
	if err := json.Unmarshal(b, &d); err != nil {
		return core.HealthDetail{}, err
	}
	return d, nil
}

// --- articles ---------------------------------------------------------

type postgresArticleStore struct {
	db *sql.DB
}

const articleColumns = `id, link, title, summary, published, category, category_medium, category_minor, image_url, embedding_vector, collected_at`

func (r *postgresArticleStore) UpsertBatch(ctx context.Context, articles []core.Article) error {
	if len(articles) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO articles (id, link, title, summary, published, category, category_medium, category_minor, image_url, embedding_vector, collected_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULL, $10)
		ON CONFLICT (link) DO UPDATE SET
			title = EXCLUDED.title,
			summary = EXCLUDED.summary,
			published = EXCLUDED.published,
			category = EXCLUDED.category,
			image_url = EXCLUDED.image_url
	`)
	if err != nil {
		return fmt.Errorf("prepare article upsert: %w", err)
	}
	defer stmt.Close()

	for _, a := range articles {
		var published interface{}
		if a.Published != "" {
			published = a.Published
		}
		if _, err := stmt.ExecContext(ctx, a.ID, a.Link, a.Title, a.Summary, published, a.Category, a.CategoryMedium, pq.Array(a.CategoryMinor), a.ImageURL, a.CollectedAt); err != nil {
			return fmt.Errorf("upsert article %s: %w", a.ID, err)
		}
		if a.HasEmbedding() {
			if _, err := tx.ExecContext(ctx, `UPDATE articles SET embedding_vector = $1::vector WHERE id = $2`, formatVector(a.Embedding), a.ID); err != nil {
				return fmt.Errorf("set embedding for %s: %w", a.ID, err)
			}
		}
	}

	return tx.Commit()
}

func (r *postgresArticleStore) Get(ctx context.Context, id string) (core.Article, bool, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+articleColumns+` FROM articles WHERE id = $1`, id)
	a, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return core.Article{}, false, nil
	}
	if err != nil {
		return core.Article{}, false, err
	}
	return a, true, nil
}

func (r *postgresArticleStore) GetMany(ctx context.Context, ids []string) ([]core.Article, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+articleColumns+` FROM articles WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanArticles(rows)
}

func (r *postgresArticleStore) MatchArticles(ctx context.Context, query []float64, matchCount int) ([]core.Article, []float64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+articleColumns+`, similarity FROM match_articles($1::vector, $2)`, formatVector(query), matchCount)
	if err != nil {
		return nil, nil, fmt.Errorf("match_articles: %w", err)
	}
	defer rows.Close()

	var articles []core.Article
	var sims []float64
	for rows.Next() {
		var a core.Article
		var embStr sql.NullString
		var published sql.NullString
		var sim float64
		if err := rows.Scan(&a.ID, &a.Link, &a.Title, &a.Summary, &published, &a.Category, &a.CategoryMedium, pq.Array(&a.CategoryMinor), &a.ImageURL, &embStr, &a.CollectedAt, &sim); err != nil {
			return nil, nil, err
		}
		a.Published = published.String
		if embStr.Valid {
			if a.Embedding, err = parseVector(embStr.String); err != nil {
				return nil, nil, err
			}
		}
		articles = append(articles, a)
		sims = append(sims, sim)
	}
	return articles, sims, rows.Err()
}

func (r *postgresArticleStore) RandomArticles(ctx context.Context, pickCount int) ([]core.Article, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+articleColumns+` FROM random_articles($1)`, pickCount)
	if err != nil {
		return nil, fmt.Errorf("random_articles: %w", err)
	}
	defer rows.Close()
	return scanArticles(rows)
}

func (r *postgresArticleStore) SampleByCategory(ctx context.Context, category string, limit int) ([]core.Article, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+articleColumns+` FROM articles WHERE category ILIKE $1 ORDER BY collected_at DESC LIMIT $2`, "%"+category+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanArticles(rows)
}

func (r *postgresArticleStore) FirstN(ctx context.Context, n int) ([]core.Article, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+articleColumns+` FROM articles WHERE embedding_vector IS NOT NULL ORDER BY collected_at ASC LIMIT $1`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanArticles(rows)
}

func (r *postgresArticleStore) Latest(ctx context.Context, limit int) ([]core.Article, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+articleColumns+` FROM articles ORDER BY collected_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanArticles(rows)
}

func (r *postgresArticleStore) PendingEmbeddings(ctx context.Context, limit int) ([]core.Article, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+articleColumns+` FROM articles WHERE embedding_vector IS NULL ORDER BY collected_at ASC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanArticles(rows)
}

func (r *postgresArticleStore) EmbeddingDimension(ctx context.Context) (int, error) {
	var dim sql.NullInt64
	err := r.db.QueryRowContext(ctx, `SELECT vector_dims(embedding_vector) FROM articles WHERE embedding_vector IS NOT NULL LIMIT 1`).Scan(&dim)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return int(dim.Int64), nil
}

func scanArticle(row *sql.Row) (core.Article, error) {
	var a core.Article
	var embStr sql.NullString
	var published sql.NullString
	if err := row.Scan(&a.ID, &a.Link, &a.Title, &a.Summary, &published, &a.Category, &a.CategoryMedium, pq.Array(&a.CategoryMinor), &a.ImageURL, &embStr, &a.CollectedAt); err != nil {
		return core.Article{}, err
	}
	a.Published = published.String
	if embStr.Valid {
		v, err := parseVector(embStr.String)
		if err != nil {
			return core.Article{}, err
		}
		a.Embedding = v
	}
	return a, nil
}

func scanArticles(rows *sql.Rows) ([]core.Article, error) {
	var out []core.Article
	for rows.Next() {
		var a core.Article
		var embStr sql.NullString
		var published sql.NullString
		if err := rows.Scan(&a.ID, &a.Link, &a.Title, &a.Summary, &published, &a.Category, &a.CategoryMedium, pq.Array(&a.CategoryMinor), &a.ImageURL, &embStr, &a.CollectedAt); err != nil {
			return nil, err
		}
		a.Published = published.String
		if embStr.Valid {
			v, err := parseVector(embStr.String)
			if err != nil {
				return nil, err
			}
			a.Embedding = v
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// --- user vectors -------------------------------------------------------

type postgresUserVectorStore struct {
	db *sql.DB
}

func (r *postgresUserVectorStore) Get(ctx context.Context, userID string) (core.UserVector, bool, error) {
	var embStr sql.NullString
	err := r.db.QueryRowContext(ctx, `SELECT vector FROM user_vectors WHERE user_id = $1`, userID).Scan(&embStr)
	if err == sql.ErrNoRows {
		return core.UserVector{}, false, nil
	}
	if err != nil {
		return core.UserVector{}, false, err
	}
	v, err := parseVector(embStr.String)
	if err != nil {
		return core.UserVector{}, false, err
	}
	return core.UserVector{UserID: userID, Vector: v}, true, nil
}

func (r *postgresUserVectorStore) Upsert(ctx context.Context, v core.UserVector) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_vectors (user_id, vector, updated_at)
		VALUES ($1, $2::vector, NOW())
		ON CONFLICT (user_id) DO UPDATE SET vector = EXCLUDED.vector, updated_at = NOW()
	`, v.UserID, formatVector(v.Vector))
	return err
}

// --- interactions --------------------------------------------------------

type postgresInteractionStore struct {
	db *sql.DB
}

func (r *postgresInteractionStore) Upsert(ctx context.Context, in core.Interaction) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO interactions (user_id, article_id, kind, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, article_id, kind) DO UPDATE SET created_at = EXCLUDED.created_at
	`, in.UserID, in.ArticleID, string(in.Kind), in.CreatedAt)
	return err
}

func (r *postgresInteractionStore) InteractedIDs(ctx context.Context, userID string, kinds []core.InteractionKind) (map[string]bool, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT article_id FROM interactions WHERE user_id = $1 AND kind = ANY($2)`, userID, pq.Array(kindStrings(kinds)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]bool{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = true
	}
	return out, rows.Err()
}

func (r *postgresInteractionStore) History(ctx context.Context, userID string, kinds []core.InteractionKind, limit int) ([]core.Interaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, article_id, kind, created_at FROM interactions
		WHERE user_id = $1 AND kind = ANY($2)
		ORDER BY created_at DESC LIMIT $3
	`, userID, pq.Array(kindStrings(kinds)), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanInteractions(rows)
}

func (r *postgresInteractionStore) Positive(ctx context.Context, userID string, limit int) ([]core.Interaction, error) {
	return r.History(ctx, userID, []core.InteractionKind{core.View, core.DeepDive}, limit)
}

func (r *postgresInteractionStore) Stats(ctx context.Context, userID string) (core.Stats, error) {
	stats := core.Stats{ByKind: map[string]int{}, ByCategory: map[string]int{}, ByDay: map[string]int{}}

	rows, err := r.db.QueryContext(ctx, `
		SELECT i.kind, COALESCE(a.category, ''), i.created_at::date::text, COUNT(*)
		FROM interactions i
		LEFT JOIN articles a ON a.id = i.article_id
		WHERE i.user_id = $1
		GROUP BY i.kind, a.category, i.created_at::date
	`, userID)
	if err != nil {
		return stats, err
	}
	defer rows.Close()

	for rows.Next() {
		var kind, category, day string
		var count int
		if err := rows.Scan(&kind, &category, &day, &count); err != nil {
			return stats, err
		}
		stats.TotalInteractions += count
		stats.ByKind[kind] += count
		if category != "" {
			stats.ByCategory[category] += count
		}
		stats.ByDay[day] += count
	}
	return stats, rows.Err()
}

func kindStrings(kinds []core.InteractionKind) []string {
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = string(k)
	}
	return out
}

func scanInteractions(rows *sql.Rows) ([]core.Interaction, error) {
	var out []core.Interaction
	for rows.Next() {
		var in core.Interaction
		var kind string
		if err := rows.Scan(&in.UserID, &in.ArticleID, &kind, &in.CreatedAt); err != nil {
			return nil, err
		}
		in.Kind = core.InteractionKind(kind)
		out = append(out, in)
	}
	return out, rows.Err()
}

// --- user profiles -------------------------------------------------------

type postgresProfileStore struct {
	db *sql.DB
}

func (r *postgresProfileStore) Get(ctx context.Context, userID string) (core.UserProfile, bool, error) {
	var p core.UserProfile
	err := r.db.QueryRowContext(ctx, `SELECT user_id, onboarded, display_name FROM user_profiles WHERE user_id = $1`, userID).
		Scan(&p.UserID, &p.Onboarded, &p.DisplayName)
	if err == sql.ErrNoRows {
		return core.UserProfile{}, false, nil
	}
	if err != nil {
		return core.UserProfile{}, false, err
	}
	return p, true, nil
}

func (r *postgresProfileStore) Upsert(ctx context.Context, p core.UserProfile) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_profiles (user_id, onboarded, display_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET onboarded = EXCLUDED.onboarded, display_name = EXCLUDED.display_name
	`, p.UserID, p.Onboarded, p.DisplayName)
	return err
}

// --- health snapshots ------------------------------------------------------

type postgresHealthStore struct {
	db *sql.DB
}

func (r *postgresHealthStore) Upsert(ctx context.Context, s core.HealthSnapshot) error {
	detailJSON, err := marshalDetail(s.Detail)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO health_snapshots (user_id, score_date, diversity, bias_ratio, top_category, detail)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, score_date) DO UPDATE SET
			diversity = EXCLUDED.diversity,
			bias_ratio = EXCLUDED.bias_ratio,
			top_category = EXCLUDED.top_category,
			detail = EXCLUDED.detail
	`, s.UserID, s.ScoreDate, s.Diversity, s.BiasRatio, s.TopCategory, detailJSON)
	return err
}

func (r *postgresHealthStore) History(ctx context.Context, userID string, days int) ([]core.HealthSnapshot, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, score_date::text, diversity, bias_ratio, top_category, detail
		FROM health_snapshots
		WHERE user_id = $1
		ORDER BY score_date DESC
		LIMIT $2
	`, userID, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.HealthSnapshot
	for rows.Next() {
		var s core.HealthSnapshot
		var detailJSON []byte
		if err := rows.Scan(&s.UserID, &s.ScoreDate, &s.Diversity, &s.BiasRatio, &s.TopCategory, &detailJSON); err != nil {
			return nil, err
		}
		detail, err := unmarshalDetail(detailJSON)
		if err != nil {
			return nil, err
		}
		s.Detail = detail
		out = append(out, s)
	}
	return out, rows.Err()
}
