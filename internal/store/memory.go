package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/foghornhq/foghorn/internal/model"
)

// Memory implements every entity store on in-process maps. It backs
// tests and local runs without a database. Documents are deep-copied
// through JSON on the way in and out so callers never share state
// with the store.
type Memory struct {
	mu   sync.RWMutex
	data map[string]map[string]memDoc // collection -> id -> doc
	seq  int64
	now  func() time.Time
}

type memDoc struct {
	raw       []byte
	createdAt time.Time
	seq       int64
}

// NewMemory builds an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		data: make(map[string]map[string]memDoc),
		now:  time.Now,
	}
}

// SetClock overrides the timestamp source (tests).
func (m *Memory) SetClock(now func() time.Time) {
	m.now = now
}

// Stores returns the typed store bundle backed by this memory.
func (m *Memory) Stores() Stores {
	return Stores{
		Sites:       &memSites{m},
		Pages:       &memPages{m},
		Teams:       &memTeams{m},
		TeamMembers: &memTeamMembers{m},
		Users:       &memUsers{m},
		APIKeys:     &memAPIKeys{m},
	}
}

func (m *Memory) put(collection, id string, doc any, createdAt time.Time) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal %s document: %w", collection, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	coll := m.data[collection]
	if coll == nil {
		coll = make(map[string]memDoc)
		m.data[collection] = coll
	}
	m.seq++
	coll[id] = memDoc{raw: raw, createdAt: createdAt, seq: m.seq}
	return nil
}

func (m *Memory) replace(collection, id string, doc any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	coll := m.data[collection]
	existing, ok := coll[id]
	if !ok {
		return fmt.Errorf("update %s document: no row for id %s", collection, id)
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal %s document: %w", collection, err)
	}
	coll[id] = memDoc{raw: raw, createdAt: existing.createdAt, seq: existing.seq}
	return nil
}

func (m *Memory) remove(collection, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data[collection], id)
}

func memFind[T any](m *Memory, collection, id string) (*T, error) {
	m.mu.RLock()
	doc, ok := m.data[collection][id]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	out := new(T)
	if err := json.Unmarshal(doc.raw, out); err != nil {
		return nil, fmt.Errorf("unmarshal %s document: %w", collection, err)
	}
	return out, nil
}

// memList returns documents matching every filter, oldest first.
func memList[T any](m *Memory, collection string, filters ...filter) ([]*T, error) {
	m.mu.RLock()
	docs := make([]memDoc, 0, len(m.data[collection]))
	for _, doc := range m.data[collection] {
		docs = append(docs, doc)
	}
	m.mu.RUnlock()

	sort.Slice(docs, func(i, j int) bool {
		if docs[i].createdAt.Equal(docs[j].createdAt) {
			return docs[i].seq < docs[j].seq
		}
		return docs[i].createdAt.Before(docs[j].createdAt)
	})

	var out []*T
	for _, doc := range docs {
		if len(filters) > 0 {
			var fields map[string]any
			if err := json.Unmarshal(doc.raw, &fields); err != nil {
				return nil, fmt.Errorf("unmarshal %s document: %w", collection, err)
			}
			if !matches(fields, filters) {
				continue
			}
		}
		item := new(T)
		if err := json.Unmarshal(doc.raw, item); err != nil {
			return nil, fmt.Errorf("unmarshal %s document: %w", collection, err)
		}
		out = append(out, item)
	}
	return out, nil
}

func memFirst[T any](m *Memory, collection string, filters ...filter) (*T, error) {
	items, err := memList[T](m, collection, filters...)
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return items[0], nil
}

func matches(fields map[string]any, filters []filter) bool {
	for _, f := range filters {
		v, ok := fields[f.field].(string)
		if !ok || v != f.value {
			return false
		}
	}
	return true
}

func (m *Memory) stamp() (string, time.Time) {
	return uuid.NewString(), m.now().UTC().Truncate(time.Millisecond)
}

type memSites struct{ m *Memory }

func (s *memSites) Create(_ context.Context, site *model.Site) error {
	id, now := s.m.stamp()
	site.ID, site.CreatedAt, site.UpdatedAt = id, now, now
	if site.SitemapPath == "" {
		site.SitemapPath = model.DefaultSitemapPath
	}
	return s.m.put(collSites, site.ID, site, now)
}

func (s *memSites) Find(_ context.Context, id string) (*model.Site, error) {
	return memFind[model.Site](s.m, collSites, id)
}

func (s *memSites) ByTeam(_ context.Context, teamID string) ([]*model.Site, error) {
	return memList[model.Site](s.m, collSites, filter{"teamId", teamID})
}

func (s *memSites) All(_ context.Context) ([]*model.Site, error) {
	return memList[model.Site](s.m, collSites)
}

func (s *memSites) Save(_ context.Context, site *model.Site) error {
	site.UpdatedAt = s.m.now().UTC().Truncate(time.Millisecond)
	return s.m.replace(collSites, site.ID, site)
}

func (s *memSites) Delete(_ context.Context, id string) error {
	s.m.remove(collSites, id)
	return nil
}

type memPages struct{ m *Memory }

func (s *memPages) Create(_ context.Context, page *model.Page) error {
	id, now := s.m.stamp()
	page.ID, page.CreatedAt, page.UpdatedAt = id, now, now
	return s.m.put(collPages, page.ID, page, now)
}

func (s *memPages) Find(_ context.Context, id string) (*model.Page, error) {
	return memFind[model.Page](s.m, collPages, id)
}

func (s *memPages) BySite(_ context.Context, siteID string) ([]*model.Page, error) {
	return memList[model.Page](s.m, collPages, filter{"siteId", siteID})
}

func (s *memPages) FindBySitePath(_ context.Context, siteID, path string) (*model.Page, error) {
	return memFirst[model.Page](s.m, collPages, filter{"siteId", siteID}, filter{"path", path})
}

func (s *memPages) All(_ context.Context) ([]*model.Page, error) {
	return memList[model.Page](s.m, collPages)
}

func (s *memPages) Save(_ context.Context, page *model.Page) error {
	page.UpdatedAt = s.m.now().UTC().Truncate(time.Millisecond)
	return s.m.replace(collPages, page.ID, page)
}

type memTeams struct{ m *Memory }

func (s *memTeams) Create(_ context.Context, team *model.Team) error {
	id, now := s.m.stamp()
	team.ID, team.CreatedAt, team.UpdatedAt = id, now, now
	return s.m.put(collTeams, team.ID, team, now)
}

func (s *memTeams) Find(_ context.Context, id string) (*model.Team, error) {
	return memFind[model.Team](s.m, collTeams, id)
}

func (s *memTeams) Save(_ context.Context, team *model.Team) error {
	team.UpdatedAt = s.m.now().UTC().Truncate(time.Millisecond)
	return s.m.replace(collTeams, team.ID, team)
}

func (s *memTeams) Delete(_ context.Context, id string) error {
	s.m.remove(collTeams, id)
	return nil
}

type memTeamMembers struct{ m *Memory }

func (s *memTeamMembers) Create(_ context.Context, member *model.TeamMember) error {
	id, now := s.m.stamp()
	member.ID, member.CreatedAt, member.UpdatedAt = id, now, now
	return s.m.put(collTeamMembers, member.ID, member, now)
}

func (s *memTeamMembers) ByTeam(_ context.Context, teamID string) ([]*model.TeamMember, error) {
	return memList[model.TeamMember](s.m, collTeamMembers, filter{"teamId", teamID})
}

func (s *memTeamMembers) ByUser(_ context.Context, userID string) ([]*model.TeamMember, error) {
	return memList[model.TeamMember](s.m, collTeamMembers, filter{"userId", userID})
}

func (s *memTeamMembers) Delete(_ context.Context, id string) error {
	s.m.remove(collTeamMembers, id)
	return nil
}

type memUsers struct{ m *Memory }

func (s *memUsers) Create(_ context.Context, user *model.User) error {
	id, now := s.m.stamp()
	user.ID, user.CreatedAt, user.UpdatedAt = id, now, now
	return s.m.put(collUsers, user.ID, user, now)
}

func (s *memUsers) Find(_ context.Context, id string) (*model.User, error) {
	return memFind[model.User](s.m, collUsers, id)
}

func (s *memUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	return memFirst[model.User](s.m, collUsers, filter{"email", email})
}

type memAPIKeys struct{ m *Memory }

func (s *memAPIKeys) Create(_ context.Context, key *model.APIKey) error {
	id, now := s.m.stamp()
	key.ID, key.CreatedAt, key.UpdatedAt = id, now, now
	return s.m.put(collAPIKeys, key.ID, key, now)
}

func (s *memAPIKeys) Find(_ context.Context, id string) (*model.APIKey, error) {
	return memFind[model.APIKey](s.m, collAPIKeys, id)
}

func (s *memAPIKeys) ByUser(_ context.Context, userID string) ([]*model.APIKey, error) {
	return memList[model.APIKey](s.m, collAPIKeys, filter{"userId", userID})
}

func (s *memAPIKeys) FindByHash(_ context.Context, keyHash string) (*model.APIKey, error) {
	return memFirst[model.APIKey](s.m, collAPIKeys, filter{"keyHash", keyHash})
}

func (s *memAPIKeys) Save(_ context.Context, key *model.APIKey) error {
	key.UpdatedAt = s.m.now().UTC().Truncate(time.Millisecond)
	return s.m.replace(collAPIKeys, key.ID, key)
}

func (s *memAPIKeys) Delete(_ context.Context, id string) error {
	s.m.remove(collAPIKeys, id)
	return nil
}
