// Package persistence provides database implementations.
package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // Postgres driver
)

// PostgresDB implements Store for PostgreSQL + pgvector.
type PostgresDB struct {
	db           *sql.DB
	articles     ArticleStore
	userVectors  UserVectorStore
	interactions InteractionStore
	profiles     UserProfileStore
	health       HealthStore
}

// NewPostgresDB opens a connection pool and verifies connectivity.
func NewPostgresDB(connectionString string) (*PostgresDB, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	p := &PostgresDB{db: db}
	p.articles = &postgresArticleStore{db: db}
	p.userVectors = &postgresUserVectorStore{db: db}
	p.interactions = &postgresInteractionStore{db: db}
	p.profiles = &postgresProfileStore{db: db}
	p.health = &postgresHealthStore{db: db}
	return p, nil
}

func (p *PostgresDB) Articles() ArticleStore         { return p.articles }
func (p *PostgresDB) UserVectors() UserVectorStore   { return p.userVectors }
func (p *PostgresDB) Interactions() InteractionStore { return p.interactions }
func (p *PostgresDB) Profiles() UserProfileStore     { return p.profiles }
func (p *PostgresDB) Health() HealthStore            { return p.health }

func (p *PostgresDB) Close() error { return p.db.Close() }

func (p *PostgresDB) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }
