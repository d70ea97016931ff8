// Client HTTP handlers.
//
// This file exposes REST endpoints for client records:
//   - GET    /clients                     (search + paginated list)
//   - POST   /clients                     (create)
//   - GET    /clients/{key}               (fetch one, history newest first)
//   - PUT    /clients/{key}/fields/{field} (single-field update)
//   - POST   /clients/{key}/delete-request (issue confirmation token)
//   - DELETE /clients/{key}               (confirmed delete)
//
// Handlers are transport-thin: they decode input, call the roster service,
// and translate results into HTTP responses. Client keys travel URL-encoded
// in the path ("Martin%20Paul").
package handlers

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-heating-backend/internal/domain"
	"github.com/tbourn/go-heating-backend/internal/services"
	"github.com/tbourn/go-heating-backend/internal/utils"
)

// RosterService defines the operations consumed by the HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type RosterService interface {
	// List searches the roster and returns one page plus the total count.
	List(ctx context.Context, term string, page, pageSize int) ([]services.ClientSummary, int64, error)
	// Get returns one client with its history arranged for display.
	Get(ctx context.Context, key string) (*services.ClientDetail, error)
	// Create inserts a new client with an empty history.
	Create(ctx context.Context, rec domain.ClientRecord) error
	// UpdateField writes one field of an existing client.
	UpdateField(ctx context.Context, key, field, value string) error
	// AddIntervention appends a validated intervention to a client.
	AddIntervention(ctx context.Context, key string, iv domain.Intervention) error
	// ReplaceIntervention swaps the entry at a storage position.
	ReplaceIntervention(ctx context.Context, key string, pos int, iv domain.Intervention) error
	// RemoveIntervention deletes the entry at a storage position.
	RemoveIntervention(ctx context.Context, key string, pos int) error
	// RequestDelete issues a single-use delete confirmation token.
	RequestDelete(ctx context.Context, key string) (string, time.Time, error)
	// ConfirmDelete consumes the token and removes the client.
	ConfirmDelete(ctx context.Context, key, token string) error
	// Technicians returns the configured roster.
	Technicians() []string
	// InterventionTypes returns the selectable type set.
	InterventionTypes() []string
}

// Handlers groups the HTTP endpoints of the roster API.
type Handlers struct {
	svc RosterService
}

// New constructs a Handlers instance bound to the given service.
func New(svc RosterService) *Handlers {
	return &Handlers{svc: svc}
}

// clientKey extracts the client key path parameter, URL-decoding it so keys
// with spaces round-trip ("Martin%20Paul" -> "Martin Paul").
func clientKey(c *gin.Context) string {
	raw := c.Param("key")
	if dec, err := url.PathUnescape(raw); err == nil {
		raw = dec
	}
	return strings.TrimSpace(raw)
}

//
// DTOs
//

// CreateClientRequest is the JSON payload for creating a client.
type CreateClientRequest struct {
	LastName      string `json:"last_name" binding:"required"`
	FirstName     string `json:"first_name"`
	StreetAddress string `json:"street_address"`
	City          string `json:"city"`
	PostalCode    string `json:"postal_code"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	Equipment     string `json:"equipment_description"`
	FileLinks     string `json:"client_file_links"`
}

// UpdateFieldRequest is the JSON payload for a single-field update.
type UpdateFieldRequest struct {
	Value string `json:"value"`
}

// DeleteRequestResponse carries the confirmation token for a pending
// client deletion.
type DeleteRequestResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListClientsResponse wraps a page of client summaries.
type ListClientsResponse struct {
	Clients    []services.ClientSummary `json:"clients"`
	Pagination Pagination               `json:"pagination"`
}

// clampPagination parses and bounds page and page_size query params.
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

//
// Endpoints
//

// ListClients handles GET /clients. The q parameter is the free-text search
// term; an empty or all-punctuation term lists every client.
func (h *Handlers) ListClients(c *gin.Context) {
	page, pageSize := clampPagination(c)
	term := c.Query("q")

	items, total, err := h.svc.List(c.Request.Context(), term, page, pageSize)
	if err != nil {
		mapError(c, err)
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, 200, ListClientsResponse{
		Clients: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// CreateClient handles POST /clients.
func (h *Handlers) CreateClient(c *gin.Context) {
	var req CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, 400, ErrCodeBadRequest, "invalid request body: "+err.Error())
		return
	}
	rec := domain.ClientRecord{
		LastName:      strings.TrimSpace(req.LastName),
		FirstName:     strings.TrimSpace(req.FirstName),
		StreetAddress: req.StreetAddress,
		City:          req.City,
		PostalCode:    req.PostalCode,
		Phone:         req.Phone,
		Email:         req.Email,
		Equipment:     req.Equipment,
		FileLinks:     req.FileLinks,
	}
	if err := h.svc.Create(c.Request.Context(), rec); err != nil {
		mapError(c, err)
		return
	}
	ok(c, 201, gin.H{"key": rec.Key()})
}

// GetClient handles GET /clients/{key}.
func (h *Handlers) GetClient(c *gin.Context) {
	detail, err := h.svc.Get(c.Request.Context(), clientKey(c))
	if err != nil {
		mapError(c, err)
		return
	}
	ok(c, 200, detail)
}

// UpdateClientField handles PUT /clients/{key}/fields/{field}. The field
// path parameter is a canonical column name (e.g. "phone"); the history
// column is rejected, interventions have their own endpoints.
func (h *Handlers) UpdateClientField(c *gin.Context) {
	var req UpdateFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, 400, ErrCodeBadRequest, "invalid request body: "+err.Error())
		return
	}
	field := strings.TrimSpace(c.Param("field"))
	if err := h.svc.UpdateField(c.Request.Context(), clientKey(c), field, req.Value); err != nil {
		mapError(c, err)
		return
	}
	noContent(c)
}

// RequestDelete handles POST /clients/{key}/delete-request. It issues the
// confirmation token the client must echo in the follow-up DELETE; the
// record is untouched until then.
func (h *Handlers) RequestDelete(c *gin.Context) {
	token, expires, err := h.svc.RequestDelete(c.Request.Context(), clientKey(c))
	if err != nil {
		mapError(c, err)
		return
	}
	ok(c, 200, DeleteRequestResponse{Token: token, ExpiresAt: expires})
}

// DeleteClient handles DELETE /clients/{key}. The X-Confirm-Token header
// must carry a token previously issued by RequestDelete for the same key.
func (h *Handlers) DeleteClient(c *gin.Context) {
	token := strings.TrimSpace(c.GetHeader("X-Confirm-Token"))
	if token == "" {
		fail(c, 400, ErrCodeBadRequest, "missing X-Confirm-Token header")
		return
	}
	if err := h.svc.ConfirmDelete(c.Request.Context(), clientKey(c), token); err != nil {
		mapError(c, err)
		return
	}
	noContent(c)
}

// ListTechnicians handles GET /meta/technicians.
func (h *Handlers) ListTechnicians(c *gin.Context) {
	ok(c, 200, gin.H{"technicians": h.svc.Technicians()})
}

// ListInterventionTypes handles GET /meta/intervention-types.
func (h *Handlers) ListInterventionTypes(c *gin.Context) {
	ok(c, 200, gin.H{"types": h.svc.InterventionTypes()})
}
