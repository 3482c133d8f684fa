// Package store defines the document-store interfaces the service
// persists through, with a Postgres JSONB implementation and an
// in-memory implementation.
//
// Lookups that miss return (nil, nil), mirroring the find/findBy
// contract of a document store; callers translate nil into their own
// not-found handling. No method is transactional: the pipelines get
// their idempotence from uniqueness checks, not isolation.
package store

import (
	"context"

	"github.com/foghornhq/foghorn/internal/model"
)

// SiteStore persists sites.
type SiteStore interface {
	Create(ctx context.Context, site *model.Site) error
	Find(ctx context.Context, id string) (*model.Site, error)
	ByTeam(ctx context.Context, teamID string) ([]*model.Site, error)
	All(ctx context.Context) ([]*model.Site, error)
	Save(ctx context.Context, site *model.Site) error
	Delete(ctx context.Context, id string) error
}

// PageStore persists pages.
type PageStore interface {
	Create(ctx context.Context, page *model.Page) error
	Find(ctx context.Context, id string) (*model.Page, error)
	BySite(ctx context.Context, siteID string) ([]*model.Page, error)
	FindBySitePath(ctx context.Context, siteID, path string) (*model.Page, error)
	All(ctx context.Context) ([]*model.Page, error)
	Save(ctx context.Context, page *model.Page) error
}

// TeamStore persists teams.
type TeamStore interface {
	Create(ctx context.Context, team *model.Team) error
	Find(ctx context.Context, id string) (*model.Team, error)
	Save(ctx context.Context, team *model.Team) error
	Delete(ctx context.Context, id string) error
}

// TeamMemberStore persists team memberships.
type TeamMemberStore interface {
	Create(ctx context.Context, member *model.TeamMember) error
	ByTeam(ctx context.Context, teamID string) ([]*model.TeamMember, error)
	ByUser(ctx context.Context, userID string) ([]*model.TeamMember, error)
	Delete(ctx context.Context, id string) error
}

// UserStore persists users.
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	Find(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

// APIKeyStore persists API keys.
type APIKeyStore interface {
	Create(ctx context.Context, key *model.APIKey) error
	Find(ctx context.Context, id string) (*model.APIKey, error)
	ByUser(ctx context.Context, userID string) ([]*model.APIKey, error)
	FindByHash(ctx context.Context, keyHash string) (*model.APIKey, error)
	Save(ctx context.Context, key *model.APIKey) error
	Delete(ctx context.Context, id string) error
}

// Stores bundles every entity store behind one handle.
type Stores struct {
	Sites       SiteStore
	Pages       PageStore
	Teams       TeamStore
	TeamMembers TeamMemberStore
	Users       UserStore
	APIKeys     APIKeyStore
}
