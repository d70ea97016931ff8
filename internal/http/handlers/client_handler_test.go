package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/tbourn/go-heating-backend/internal/domain"
	"github.com/tbourn/go-heating-backend/internal/services"
	"github.com/tbourn/go-heating-backend/internal/store"
)

// ----- Fake service -----

type fakeSvc struct {
	listItems []services.ClientSummary
	listTotal int64
	listErr   error
	listTerm  string

	getDetail *services.ClientDetail
	getErr    error
	getKey    string

	createRec domain.ClientRecord
	createErr error

	updateKey, updateField, updateValue string
	updateErr                           error

	addKey string
	addIV  domain.Intervention
	addErr error

	replaceKey string
	replacePos int
	replaceIV  domain.Intervention
	replaceErr error

	removeKey string
	removePos int
	removeErr error

	reqDelKey   string
	reqDelToken string
	reqDelErr   error

	confirmKey, confirmToken string
	confirmErr               error
}

func (f *fakeSvc) List(ctx context.Context, term string, page, pageSize int) ([]services.ClientSummary, int64, error) {
	f.listTerm = term
	return f.listItems, f.listTotal, f.listErr
}

func (f *fakeSvc) Get(ctx context.Context, key string) (*services.ClientDetail, error) {
	f.getKey = key
	return f.getDetail, f.getErr
}

func (f *fakeSvc) Create(ctx context.Context, rec domain.ClientRecord) error {
	f.createRec = rec
	return f.createErr
}

func (f *fakeSvc) UpdateField(ctx context.Context, key, field, value string) error {
	f.updateKey, f.updateField, f.updateValue = key, field, value
	return f.updateErr
}

func (f *fakeSvc) AddIntervention(ctx context.Context, key string, iv domain.Intervention) error {
	f.addKey, f.addIV = key, iv
	return f.addErr
}

func (f *fakeSvc) ReplaceIntervention(ctx context.Context, key string, pos int, iv domain.Intervention) error {
	f.replaceKey, f.replacePos, f.replaceIV = key, pos, iv
	return f.replaceErr
}

func (f *fakeSvc) RemoveIntervention(ctx context.Context, key string, pos int) error {
	f.removeKey, f.removePos = key, pos
	return f.removeErr
}

func (f *fakeSvc) RequestDelete(ctx context.Context, key string) (string, time.Time, error) {
	f.reqDelKey = key
	return f.reqDelToken, time.Now().Add(time.Minute), f.reqDelErr
}

func (f *fakeSvc) ConfirmDelete(ctx context.Context, key, token string) error {
	f.confirmKey, f.confirmToken = key, token
	return f.confirmErr
}

func (f *fakeSvc) Technicians() []string       { return []string{"Seb", "Marc"} }
func (f *fakeSvc) InterventionTypes() []string { return domain.InterventionTypes() }

// ----- Helpers -----

func newRouter(svc *fakeSvc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := New(svc)
	r.GET("/clients", h.ListClients)
	r.POST("/clients", h.CreateClient)
	r.GET("/clients/:key", h.GetClient)
	r.PUT("/clients/:key/fields/:field", h.UpdateClientField)
	r.POST("/clients/:key/delete-request", h.RequestDelete)
	r.DELETE("/clients/:key", h.DeleteClient)
	r.POST("/clients/:key/interventions", h.AddIntervention)
	r.PUT("/clients/:key/interventions/:pos", h.ReplaceIntervention)
	r.DELETE("/clients/:key/interventions/:pos", h.DeleteIntervention)
	r.GET("/meta/technicians", h.ListTechnicians)
	r.GET("/meta/intervention-types", h.ListInterventionTypes)
	return r
}

func do(t *testing.T, r *gin.Engine, method, target string, body any, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ----- Tests -----

func TestListClients(t *testing.T) {
	svc := &fakeSvc{
		listItems: []services.ClientSummary{{Key: "Martin Paul", City: "Paris"}},
		listTotal: 1,
	}
	w := do(t, newRouter(svc), http.MethodGet, "/clients?q=martin&page=1&page_size=10", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	if svc.listTerm != "martin" {
		t.Fatalf("term not forwarded: %q", svc.listTerm)
	}
	var resp ListClientsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Clients) != 1 || resp.Clients[0].Key != "Martin Paul" {
		t.Fatalf("unexpected body: %+v", resp)
	}
	if resp.Pagination.Total != 1 || resp.Pagination.TotalPages != 1 || resp.Pagination.HasNext {
		t.Fatalf("pagination wrong: %+v", resp.Pagination)
	}
}

func TestCreateClient(t *testing.T) {
	svc := &fakeSvc{}
	body := CreateClientRequest{LastName: "Martin", FirstName: "Paul", PostalCode: "75001"}
	w := do(t, newRouter(svc), http.MethodPost, "/clients", body, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	if svc.createRec.Key() != "Martin Paul" {
		t.Fatalf("record not forwarded: %+v", svc.createRec)
	}
}

func TestCreateClientConflict(t *testing.T) {
	svc := &fakeSvc{createErr: fmt.Errorf("%w: Martin Paul", store.ErrAlreadyExists)}
	w := do(t, newRouter(svc), http.MethodPost, "/clients", CreateClientRequest{LastName: "Martin"}, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
	var resp ErrorResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Code != ErrCodeConflict {
		t.Fatalf("code = %q", resp.Code)
	}
}

func TestCreateClientRejectsMissingLastName(t *testing.T) {
	w := do(t, newRouter(&fakeSvc{}), http.MethodPost, "/clients", map[string]string{"first_name": "Paul"}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestGetClientDecodesKey(t *testing.T) {
	svc := &fakeSvc{getDetail: &services.ClientDetail{Key: "Martin Paul"}}
	w := do(t, newRouter(svc), http.MethodGet, "/clients/Martin%20Paul", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	if svc.getKey != "Martin Paul" {
		t.Fatalf("key not decoded: %q", svc.getKey)
	}
}

func TestGetClientNotFound(t *testing.T) {
	svc := &fakeSvc{getErr: fmt.Errorf("%w: nobody", store.ErrNotFound)}
	w := do(t, newRouter(svc), http.MethodGet, "/clients/Nobody", nil, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestUpdateClientField(t *testing.T) {
	svc := &fakeSvc{}
	w := do(t, newRouter(svc), http.MethodPut, "/clients/Martin%20Paul/fields/phone", UpdateFieldRequest{Value: "07 00 00 00 00"}, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	if svc.updateKey != "Martin Paul" || svc.updateField != "phone" || svc.updateValue != "07 00 00 00 00" {
		t.Fatalf("update args: %q %q %q", svc.updateKey, svc.updateField, svc.updateValue)
	}
}

func TestDeleteFlow(t *testing.T) {
	svc := &fakeSvc{reqDelToken: "tok-123"}
	r := newRouter(svc)

	w := do(t, r, http.MethodPost, "/clients/Martin%20Paul/delete-request", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("request-delete status = %d", w.Code)
	}
	var resp DeleteRequestResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.Token != "tok-123" {
		t.Fatalf("token body: %s err=%v", w.Body.String(), err)
	}

	w = do(t, r, http.MethodDelete, "/clients/Martin%20Paul", nil, map[string]string{"X-Confirm-Token": "tok-123"})
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d body=%s", w.Code, w.Body.String())
	}
	if svc.confirmKey != "Martin Paul" || svc.confirmToken != "tok-123" {
		t.Fatalf("confirm args: %q %q", svc.confirmKey, svc.confirmToken)
	}
}

func TestDeleteWithoutTokenRejected(t *testing.T) {
	w := do(t, newRouter(&fakeSvc{}), http.MethodDelete, "/clients/Martin%20Paul", nil, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestDeleteInvalidConfirmation(t *testing.T) {
	svc := &fakeSvc{confirmErr: services.ErrConfirmationInvalid}
	w := do(t, newRouter(svc), http.MethodDelete, "/clients/Martin%20Paul", nil, map[string]string{"X-Confirm-Token": "stale"})
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
	var resp ErrorResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Code != ErrCodeConfirmationInvalid {
		t.Fatalf("code = %q", resp.Code)
	}
}

func TestAddInterventionResolvesOtherType(t *testing.T) {
	svc := &fakeSvc{}
	body := InterventionRequest{
		Date:        "2024-03-01",
		Type:        "Other",
		TypeOther:   "Chimney sweep",
		Price:       decimal.NewFromFloat(120.0),
		Technicians: []string{"Seb"},
	}
	w := do(t, newRouter(svc), http.MethodPost, "/clients/Martin%20Paul/interventions", body, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	if svc.addIV.Type != "Chimney sweep" {
		t.Fatalf("Other type not resolved: %q", svc.addIV.Type)
	}
	if !svc.addIV.Price.Equal(decimal.NewFromFloat(120.0)) {
		t.Fatalf("price lost: %s", svc.addIV.Price)
	}
}

func TestAddInterventionValidationFailure(t *testing.T) {
	svc := &fakeSvc{addErr: fmt.Errorf("%w: no technician", domain.ErrValidation)}
	body := InterventionRequest{Date: "2024-03-01", Type: "Repair"}
	w := do(t, newRouter(svc), http.MethodPost, "/clients/Martin%20Paul/interventions", body, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestReplaceInterventionForwardsPosition(t *testing.T) {
	svc := &fakeSvc{}
	body := InterventionRequest{Date: "2024-03-01", Type: "Repair", Technicians: []string{"Seb"}}
	w := do(t, newRouter(svc), http.MethodPut, "/clients/Martin%20Paul/interventions/2", body, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	if svc.replacePos != 2 {
		t.Fatalf("pos = %d, want 2", svc.replacePos)
	}
}

func TestDeleteInterventionStalePosition(t *testing.T) {
	svc := &fakeSvc{removeErr: fmt.Errorf("%w: position 7", store.ErrIndexOutOfRange)}
	w := do(t, newRouter(svc), http.MethodDelete, "/clients/Martin%20Paul/interventions/7", nil, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
	var resp ErrorResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Code != ErrCodeStalePosition {
		t.Fatalf("code = %q", resp.Code)
	}
}

func TestInterventionPositionMustBeNumeric(t *testing.T) {
	w := do(t, newRouter(&fakeSvc{}), http.MethodDelete, "/clients/Martin%20Paul/interventions/first", nil, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestStoreUnavailableMapsTo503(t *testing.T) {
	svc := &fakeSvc{listErr: fmt.Errorf("%w: timeout", store.ErrUnavailable)}
	w := do(t, newRouter(svc), http.MethodGet, "/clients", nil, nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
}

func TestMetaEndpoints(t *testing.T) {
	r := newRouter(&fakeSvc{})
	w := do(t, r, http.MethodGet, "/meta/technicians", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("technicians status = %d", w.Code)
	}
	w = do(t, r, http.MethodGet, "/meta/intervention-types", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("types status = %d", w.Code)
	}
}
