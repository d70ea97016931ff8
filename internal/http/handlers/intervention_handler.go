// Intervention HTTP handlers.
//
// This file exposes REST endpoints for the intervention history embedded in
// a client record:
//   - POST   /clients/{key}/interventions        (append)
//   - PUT    /clients/{key}/interventions/{pos}  (replace at position)
//   - DELETE /clients/{key}/interventions/{pos}  (delete at position)
//
// Positions address storage order (as returned by GetClient); a position
// that no longer exists after a concurrent edit maps to a stale_position
// conflict rather than being silently reinterpreted.
package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/tbourn/go-heating-backend/internal/domain"
)

// InterventionRequest is the JSON payload for creating or replacing an
// intervention.
//
// Type is one of the selectable types; when it is "Other", TypeOther must
// carry the free-text specification, which becomes the stored type.
type InterventionRequest struct {
	Date        string          `json:"date" binding:"required"`
	Type        string          `json:"type" binding:"required"`
	TypeOther   string          `json:"type_other"`
	Description string          `json:"desc"`
	Price       decimal.Decimal `json:"price"`
	Technicians []string        `json:"technicians"`
	FileLinks   string          `json:"file_links"`
}

// intervention resolves the request into a domain intervention. The "Other"
// indirection is purely transport-level: storage only ever sees the
// resolved type, and a bare "Other" without specification fails validation
// downstream.
func (r InterventionRequest) intervention() domain.Intervention {
	typ := strings.TrimSpace(r.Type)
	if strings.EqualFold(typ, domain.TypeOther) {
		if other := strings.TrimSpace(r.TypeOther); other != "" {
			typ = other
		}
	}
	return domain.Intervention{
		Date:        strings.TrimSpace(r.Date),
		Type:        typ,
		Description: r.Description,
		Price:       r.Price,
		Technicians: r.Technicians,
		FileLinks:   r.FileLinks,
	}
}

// positionParam parses the {pos} path parameter. Negative and non-numeric
// values are rejected at the transport layer.
func positionParam(c *gin.Context) (int, bool) {
	pos, err := strconv.Atoi(c.Param("pos"))
	if err != nil || pos < 0 {
		fail(c, 400, ErrCodeBadRequest, "position must be a non-negative integer")
		return 0, false
	}
	return pos, true
}

// AddIntervention handles POST /clients/{key}/interventions.
func (h *Handlers) AddIntervention(c *gin.Context) {
	var req InterventionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, 400, ErrCodeBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := h.svc.AddIntervention(c.Request.Context(), clientKey(c), req.intervention()); err != nil {
		mapError(c, err)
		return
	}
	ok(c, 201, gin.H{"status": "created"})
}

// ReplaceIntervention handles PUT /clients/{key}/interventions/{pos}.
func (h *Handlers) ReplaceIntervention(c *gin.Context) {
	pos, okPos := positionParam(c)
	if !okPos {
		return
	}
	var req InterventionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, 400, ErrCodeBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := h.svc.ReplaceIntervention(c.Request.Context(), clientKey(c), pos, req.intervention()); err != nil {
		mapError(c, err)
		return
	}
	noContent(c)
}

// DeleteIntervention handles DELETE /clients/{key}/interventions/{pos}.
func (h *Handlers) DeleteIntervention(c *gin.Context) {
	pos, okPos := positionParam(c)
	if !okPos {
		return
	}
	if err := h.svc.RemoveIntervention(c.Request.Context(), clientKey(c), pos); err != nil {
		mapError(c, err)
		return
	}
	noContent(c)
}
