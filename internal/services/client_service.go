// Package services – ClientService
//
// This file implements the ClientService, which drives the synchronous
// reload → mutate cycle every user interaction performs: each call loads a
// fresh snapshot from the record store, applies at most one mutation, and
// lets the next interaction reload again. Nothing is cached across calls
// because the backing store may be edited out-of-band.
//
// The service also owns the concerns the store deliberately does not:
// technician roster checks, presentation ordering (French collation for
// keys, newest-first history), and the two-step delete confirmation.
package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/tbourn/go-heating-backend/internal/domain"
	"github.com/tbourn/go-heating-backend/internal/search"
	"github.com/tbourn/go-heating-backend/internal/store"
)

// DefaultConfirmTTL bounds how long a delete confirmation token stays valid.
const DefaultConfirmTTL = 5 * time.Minute

// ClientSummary is the roster-listing projection of a client record:
// everything except the intervention history, plus its length.
type ClientSummary struct {
	Key           string `json:"key"`
	LastName      string `json:"last_name"`
	FirstName     string `json:"first_name"`
	StreetAddress string `json:"street_address"`
	City          string `json:"city"`
	PostalCode    string `json:"postal_code"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	Equipment     string `json:"equipment_description"`
	FileLinks     string `json:"client_file_links"`
	Interventions int    `json:"intervention_count"`
}

// InterventionView pairs an intervention with its storage position so a
// client can display newest-first while edits and deletes still address the
// stored list.
type InterventionView struct {
	Position     int                 `json:"position"`
	Intervention domain.Intervention `json:"intervention"`
}

// ClientDetail is the full record of one client. History is sorted newest
// first for display; Position inside each entry refers to storage order.
type ClientDetail struct {
	Key     string             `json:"key"`
	Record  domain.ClientRecord `json:"record"`
	History []InterventionView `json:"history"`
}

// deleteTicket is one pending delete confirmation.
type deleteTicket struct {
	key     string
	expires time.Time
}

// ClientService provides roster operations on top of the record store.
type ClientService struct {
	// Store is the record store every cycle goes through.
	Store *store.Store
	// Roster is the set of technicians an intervention may be assigned to.
	// An empty roster disables the membership check (the non-empty
	// invariant still holds).
	Roster []string
	// ConfirmTTL is the delete confirmation validity window.
	ConfirmTTL time.Duration

	// now is a test seam for token expiry.
	now func() time.Time

	mu      sync.Mutex
	pending map[string]deleteTicket
}

// NewClientService constructs a ClientService with the default confirmation
// TTL.
func NewClientService(st *store.Store, roster []string) *ClientService {
	return &ClientService{
		Store:      st,
		Roster:     roster,
		ConfirmTTL: DefaultConfirmTTL,
		now:        time.Now,
		pending:    make(map[string]deleteTicket),
	}
}

// List searches the roster and returns one page of summaries plus the total
// match count. An empty term lists everything. Keys are ordered with French
// collation so accented names sort the way the roster reads on paper.
func (s *ClientService) List(ctx context.Context, term string, page, pageSize int) ([]ClientSummary, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	snap, err := s.Store.LoadAll(ctx)
	if err != nil {
		return nil, 0, err
	}
	records := snap.Records()
	keys := search.Build(records).Query(term)

	c := collate.New(language.French)
	c.SortStrings(keys)

	total := int64(len(keys))
	start := (page - 1) * pageSize
	if start >= len(keys) {
		return []ClientSummary{}, total, nil
	}
	end := start + pageSize
	if end > len(keys) {
		end = len(keys)
	}

	out := make([]ClientSummary, 0, end-start)
	for _, key := range keys[start:end] {
		rec := records[key]
		out = append(out, ClientSummary{
			Key:           key,
			LastName:      rec.LastName,
			FirstName:     rec.FirstName,
			StreetAddress: rec.StreetAddress,
			City:          rec.City,
			PostalCode:    rec.PostalCode,
			Phone:         rec.Phone,
			Email:         rec.Email,
			Equipment:     rec.Equipment,
			FileLinks:     rec.FileLinks,
			Interventions: len(rec.History),
		})
	}
	return out, total, nil
}

// Get returns the full record for key with its history arranged newest
// first. Positions refer to storage order and stay valid for the follow-up
// replace or delete call within the same interaction.
func (s *ClientService) Get(ctx context.Context, key string) (*ClientDetail, error) {
	snap, err := s.Store.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	rec, ok := snap.Get(strings.TrimSpace(key))
	if !ok {
		return nil, fmt.Errorf("%w: %q", store.ErrNotFound, key)
	}

	views := make([]InterventionView, len(rec.History))
	for i, iv := range rec.History {
		views[i] = InterventionView{Position: i, Intervention: iv}
	}
	sort.SliceStable(views, func(a, b int) bool {
		return views[a].Intervention.Date > views[b].Intervention.Date
	})

	return &ClientDetail{Key: rec.Key(), Record: rec, History: views}, nil
}

// Create inserts a new client with an empty history. The derived key must
// be non-empty and unused.
func (s *ClientService) Create(ctx context.Context, rec domain.ClientRecord) error {
	snap, err := s.Store.LoadAll(ctx)
	if err != nil {
		return err
	}
	return s.Store.InsertClient(ctx, snap, rec)
}

// UpdateField writes one field of an existing client.
func (s *ClientService) UpdateField(ctx context.Context, key, field, value string) error {
	snap, err := s.Store.LoadAll(ctx)
	if err != nil {
		return err
	}
	return s.Store.UpdateClientField(ctx, snap, strings.TrimSpace(key), field, value)
}

// AddIntervention validates iv against the roster and appends it to the
// client's history.
func (s *ClientService) AddIntervention(ctx context.Context, key string, iv domain.Intervention) error {
	if err := s.checkRoster(iv); err != nil {
		return err
	}
	snap, err := s.Store.LoadAll(ctx)
	if err != nil {
		return err
	}
	return s.Store.AppendIntervention(ctx, snap, strings.TrimSpace(key), iv)
}

// ReplaceIntervention swaps the history entry at the given storage position.
func (s *ClientService) ReplaceIntervention(ctx context.Context, key string, pos int, iv domain.Intervention) error {
	if err := s.checkRoster(iv); err != nil {
		return err
	}
	snap, err := s.Store.LoadAll(ctx)
	if err != nil {
		return err
	}
	return s.Store.ReplaceIntervention(ctx, snap, strings.TrimSpace(key), pos, iv)
}

// RemoveIntervention deletes the history entry at the given storage position.
func (s *ClientService) RemoveIntervention(ctx context.Context, key string, pos int) error {
	snap, err := s.Store.LoadAll(ctx)
	if err != nil {
		return err
	}
	return s.Store.DeleteIntervention(ctx, snap, strings.TrimSpace(key), pos)
}

// RequestDelete starts the two-step client deletion: it verifies the client
// exists and hands back a single-use token the caller must echo to
// ConfirmDelete before the TTL elapses.
func (s *ClientService) RequestDelete(ctx context.Context, key string) (token string, expires time.Time, err error) {
	key = strings.TrimSpace(key)
	snap, err := s.Store.LoadAll(ctx)
	if err != nil {
		return "", time.Time{}, err
	}
	if _, ok := snap.Get(key); !ok {
		return "", time.Time{}, fmt.Errorf("%w: %q", store.ErrNotFound, key)
	}

	ttl := s.ConfirmTTL
	if ttl <= 0 {
		ttl = DefaultConfirmTTL
	}
	token = uuid.NewString()
	expires = s.clock()().Add(ttl)

	s.mu.Lock()
	if s.pending == nil {
		s.pending = make(map[string]deleteTicket)
	}
	s.gcTicketsLocked()
	s.pending[token] = deleteTicket{key: key, expires: expires}
	s.mu.Unlock()
	return token, expires, nil
}

// ConfirmDelete consumes a confirmation token and performs the deletion.
// The token must match the key it was issued for and must not be expired;
// either way it is spent after this call.
func (s *ClientService) ConfirmDelete(ctx context.Context, key, token string) error {
	key = strings.TrimSpace(key)

	s.mu.Lock()
	ticket, ok := s.pending[token]
	delete(s.pending, token)
	s.gcTicketsLocked()
	s.mu.Unlock()

	if !ok || ticket.key != key || s.clock()().After(ticket.expires) {
		return ErrConfirmationInvalid
	}

	snap, err := s.Store.LoadAll(ctx)
	if err != nil {
		return err
	}
	return s.Store.DeleteClient(ctx, snap, key)
}

// Technicians returns the configured roster.
func (s *ClientService) Technicians() []string {
	out := make([]string, len(s.Roster))
	copy(out, s.Roster)
	return out
}

// InterventionTypes returns the selectable intervention type set.
func (s *ClientService) InterventionTypes() []string {
	return domain.InterventionTypes()
}

// checkRoster enforces roster membership when a roster is configured. The
// failure is a validation error: it is caught before any mutation.
func (s *ClientService) checkRoster(iv domain.Intervention) error {
	if len(s.Roster) == 0 {
		return nil
	}
	for _, t := range iv.Technicians {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		known := false
		for _, r := range s.Roster {
			if strings.EqualFold(t, r) {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("%w: technician %q is not on the roster", domain.ErrValidation, t)
		}
	}
	return nil
}

// gcTicketsLocked drops expired tickets. Callers must hold mu.
func (s *ClientService) gcTicketsLocked() {
	now := s.clock()()
	for tok, ticket := range s.pending {
		if now.After(ticket.expires) {
			delete(s.pending, tok)
		}
	}
}

// clock returns the time source, defaulting to time.Now so zero-value
// construction stays usable in tests.
func (s *ClientService) clock() func() time.Time {
	if s.now != nil {
		return s.now
	}
	return time.Now
}
