package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/foghornhq/foghorn/internal/model"
)

// Schema is the DDL for the single documents table. Every entity is a
// JSONB document keyed by (collection, id); equality filters go
// through the ->> operator, which is all the store contract needs.
const Schema = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	id TEXT NOT NULL,
	data JSONB NOT NULL,
	PRIMARY KEY (collection, id)
);
CREATE INDEX IF NOT EXISTS documents_site_idx
	ON documents ((data->>'siteId')) WHERE collection = 'pages';
`

const (
	collSites       = "sites"
	collPages       = "pages"
	collTeams       = "teams"
	collTeamMembers = "team_members"
	collUsers       = "users"
	collAPIKeys     = "api_keys"
)

// Querier is the subset of pgxpool.Pool the store uses. pgxmock
// satisfies it, which is how the Postgres paths are tested.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresConfig controls the Postgres connection pool.
type PostgresConfig struct {
	DSN      string
	MaxConns int32
	MinConns int32
}

// Postgres implements every entity store on a Postgres JSONB table.
type Postgres struct {
	db  Querier
	now func() time.Time
}

// NewPostgres connects a pool and ensures the schema exists.
func NewPostgres(ctx context.Context, cfg PostgresConfig) (*Postgres, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, Schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &Postgres{db: pool, now: time.Now}, nil
}

// NewPostgresWithQuerier constructs a store from an existing querier
// (primarily for testing with pgxmock).
func NewPostgresWithQuerier(db Querier) *Postgres {
	return &Postgres{db: db, now: time.Now}
}

// Close releases the underlying pool when one is held.
func (p *Postgres) Close() {
	if pool, ok := p.db.(*pgxpool.Pool); ok {
		pool.Close()
	}
}

// Stores returns the typed store bundle backed by this connection.
func (p *Postgres) Stores() Stores {
	return Stores{
		Sites:       &pgSites{p},
		Pages:       &pgPages{p},
		Teams:       &pgTeams{p},
		TeamMembers: &pgTeamMembers{p},
		Users:       &pgUsers{p},
		APIKeys:     &pgAPIKeys{p},
	}
}

// filter is one equality condition on a JSON field.
type filter struct {
	field string
	value string
}

func (p *Postgres) insert(ctx context.Context, collection, id string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal %s document: %w", collection, err)
	}
	_, err = p.db.Exec(ctx,
		`INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3)`,
		collection, id, data,
	)
	if err != nil {
		return fmt.Errorf("insert %s document: %w", collection, err)
	}
	return nil
}

func (p *Postgres) update(ctx context.Context, collection, id string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal %s document: %w", collection, err)
	}
	tag, err := p.db.Exec(ctx,
		`UPDATE documents SET data = $3 WHERE collection = $1 AND id = $2`,
		collection, id, data,
	)
	if err != nil {
		return fmt.Errorf("update %s document: %w", collection, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update %s document: no row for id %s", collection, id)
	}
	return nil
}

func (p *Postgres) remove(ctx context.Context, collection, id string) error {
	if _, err := p.db.Exec(ctx,
		`DELETE FROM documents WHERE collection = $1 AND id = $2`,
		collection, id,
	); err != nil {
		return fmt.Errorf("delete %s document: %w", collection, err)
	}
	return nil
}

func findDoc[T any](ctx context.Context, p *Postgres, collection, id string) (*T, error) {
	row := p.db.QueryRow(ctx,
		`SELECT data FROM documents WHERE collection = $1 AND id = $2`,
		collection, id,
	)
	return scanDoc[T](row, collection)
}

func findDocBy[T any](ctx context.Context, p *Postgres, collection string, filters ...filter) (*T, error) {
	sql, args := selectSQL(collection, filters, true)
	row := p.db.QueryRow(ctx, sql, args...)
	return scanDoc[T](row, collection)
}

func listDocs[T any](ctx context.Context, p *Postgres, collection string, filters ...filter) ([]*T, error) {
	sql, args := selectSQL(collection, filters, false)
	rows, err := p.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s documents: %w", collection, err)
	}
	defer rows.Close()

	var out []*T
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan %s document: %w", collection, err)
		}
		doc := new(T)
		if err := json.Unmarshal(data, doc); err != nil {
			return nil, fmt.Errorf("unmarshal %s document: %w", collection, err)
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s documents: %w", collection, err)
	}
	return out, nil
}

func selectSQL(collection string, filters []filter, single bool) (string, []any) {
	sql := `SELECT data FROM documents WHERE collection = $1`
	args := []any{collection}
	for _, f := range filters {
		sql += fmt.Sprintf(` AND data->>$%d = $%d`, len(args)+1, len(args)+2)
		args = append(args, f.field, f.value)
	}
	sql += ` ORDER BY data->>'createdAt'`
	if single {
		sql += ` LIMIT 1`
	}
	return sql, args
}

func scanDoc[T any](row pgx.Row, collection string) (*T, error) {
	var data []byte
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan %s document: %w", collection, err)
	}
	doc := new(T)
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("unmarshal %s document: %w", collection, err)
	}
	return doc, nil
}

func (p *Postgres) stamp() (string, time.Time) {
	return uuid.NewString(), p.now().UTC().Truncate(time.Millisecond)
}

type pgSites struct{ p *Postgres }

func (s *pgSites) Create(ctx context.Context, site *model.Site) error {
	id, now := s.p.stamp()
	site.ID, site.CreatedAt, site.UpdatedAt = id, now, now
	if site.SitemapPath == "" {
		site.SitemapPath = model.DefaultSitemapPath
	}
	return s.p.insert(ctx, collSites, site.ID, site)
}

func (s *pgSites) Find(ctx context.Context, id string) (*model.Site, error) {
	return findDoc[model.Site](ctx, s.p, collSites, id)
}

func (s *pgSites) ByTeam(ctx context.Context, teamID string) ([]*model.Site, error) {
	return listDocs[model.Site](ctx, s.p, collSites, filter{"teamId", teamID})
}

func (s *pgSites) All(ctx context.Context) ([]*model.Site, error) {
	return listDocs[model.Site](ctx, s.p, collSites)
}

func (s *pgSites) Save(ctx context.Context, site *model.Site) error {
	site.UpdatedAt = s.p.now().UTC().Truncate(time.Millisecond)
	return s.p.update(ctx, collSites, site.ID, site)
}

func (s *pgSites) Delete(ctx context.Context, id string) error {
	return s.p.remove(ctx, collSites, id)
}

type pgPages struct{ p *Postgres }

func (s *pgPages) Create(ctx context.Context, page *model.Page) error {
	id, now := s.p.stamp()
	page.ID, page.CreatedAt, page.UpdatedAt = id, now, now
	return s.p.insert(ctx, collPages, page.ID, page)
}

func (s *pgPages) Find(ctx context.Context, id string) (*model.Page, error) {
	return findDoc[model.Page](ctx, s.p, collPages, id)
}

func (s *pgPages) BySite(ctx context.Context, siteID string) ([]*model.Page, error) {
	return listDocs[model.Page](ctx, s.p, collPages, filter{"siteId", siteID})
}

func (s *pgPages) FindBySitePath(ctx context.Context, siteID, path string) (*model.Page, error) {
	return findDocBy[model.Page](ctx, s.p, collPages, filter{"siteId", siteID}, filter{"path", path})
}

func (s *pgPages) All(ctx context.Context) ([]*model.Page, error) {
	return listDocs[model.Page](ctx, s.p, collPages)
}

func (s *pgPages) Save(ctx context.Context, page *model.Page) error {
	page.UpdatedAt = s.p.now().UTC().Truncate(time.Millisecond)
	return s.p.update(ctx, collPages, page.ID, page)
}

type pgTeams struct{ p *Postgres }

func (s *pgTeams) Create(ctx context.Context, team *model.Team) error {
	id, now := s.p.stamp()
	team.ID, team.CreatedAt, team.UpdatedAt = id, now, now
	return s.p.insert(ctx, collTeams, team.ID, team)
}

func (s *pgTeams) Find(ctx context.Context, id string) (*model.Team, error) {
	return findDoc[model.Team](ctx, s.p, collTeams, id)
}

func (s *pgTeams) Save(ctx context.Context, team *model.Team) error {
	team.UpdatedAt = s.p.now().UTC().Truncate(time.Millisecond)
	return s.p.update(ctx, collTeams, team.ID, team)
}

func (s *pgTeams) Delete(ctx context.Context, id string) error {
	return s.p.remove(ctx, collTeams, id)
}

type pgTeamMembers struct{ p *Postgres }

func (s *pgTeamMembers) Create(ctx context.Context, member *model.TeamMember) error {
	id, now := s.p.stamp()
	member.ID, member.CreatedAt, member.UpdatedAt = id, now, now
	return s.p.insert(ctx, collTeamMembers, member.ID, member)
}

func (s *pgTeamMembers) ByTeam(ctx context.Context, teamID string) ([]*model.TeamMember, error) {
	return listDocs[model.TeamMember](ctx, s.p, collTeamMembers, filter{"teamId", teamID})
}

func (s *pgTeamMembers) ByUser(ctx context.Context, userID string) ([]*model.TeamMember, error) {
	return listDocs[model.TeamMember](ctx, s.p, collTeamMembers, filter{"userId", userID})
}

func (s *pgTeamMembers) Delete(ctx context.Context, id string) error {
	return s.p.remove(ctx, collTeamMembers, id)
}

type pgUsers struct{ p *Postgres }

func (s *pgUsers) Create(ctx context.Context, user *model.User) error {
	id, now := s.p.stamp()
	user.ID, user.CreatedAt, user.UpdatedAt = id, now, now
	return s.p.insert(ctx, collUsers, user.ID, user)
}

func (s *pgUsers) Find(ctx context.Context, id string) (*model.User, error) {
	return findDoc[model.User](ctx, s.p, collUsers, id)
}

func (s *pgUsers) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return findDocBy[model.User](ctx, s.p, collUsers, filter{"email", email})
}

type pgAPIKeys struct{ p *Postgres }

func (s *pgAPIKeys) Create(ctx context.Context, key *model.APIKey) error {
	id, now := s.p.stamp()
	key.ID, key.CreatedAt, key.UpdatedAt = id, now, now
	return s.p.insert(ctx, collAPIKeys, key.ID, key)
}

func (s *pgAPIKeys) Find(ctx context.Context, id string) (*model.APIKey, error) {
	return findDoc[model.APIKey](ctx, s.p, collAPIKeys, id)
}

func (s *pgAPIKeys) ByUser(ctx context.Context, userID string) ([]*model.APIKey, error) {
	return listDocs[model.APIKey](ctx, s.p, collAPIKeys, filter{"userId", userID})
}

func (s *pgAPIKeys) FindByHash(ctx context.Context, keyHash string) (*model.APIKey, error) {
	return findDocBy[model.APIKey](ctx, s.p, collAPIKeys, filter{"keyHash", keyHash})
}

func (s *pgAPIKeys) Save(ctx context.Context, key *model.APIKey) error {
	key.UpdatedAt = s.p.now().UTC().Truncate(time.Millisecond)
	return s.p.update(ctx, collAPIKeys, key.ID, key)
}

func (s *pgAPIKeys) Delete(ctx context.Context, id string) error {
	return s.p.remove(ctx, collAPIKeys, id)
}
