package validator_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hacklabs/hwlib/pkg/httpx"
	pkgvalidator "github.com/hacklabs/hwlib/pkg/validator"
)

type reserveReq struct {
	ItemID   int64 `json:"item_id" validate:"required,gt=0"`
	Quantity int   `json:"quantity" validate:"omitempty,lte=100"`
}

type newItem struct {
	Name  string `json:"name" validate:"required,notblank,max=10"`
	Stock int    `json:"stock" validate:"gte=0"`
}

type importReq struct {
	Items []newItem `json:"items" validate:"required,min=1,dive"`
}

func TestValidate_valid(t *testing.T) {
	if err := pkgvalidator.Validate(&reserveReq{ItemID: 3, Quantity: 2}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestFormatValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		in    any
		field string
		want  string
	}{
		{"required", &reserveReq{}, "item_id", "This field is required"},
		{"gt", &reserveReq{ItemID: -1}, "item_id", "Must be greater than 0"},
		{"lte", &reserveReq{ItemID: 1, Quantity: 101}, "quantity", "Must be less than or equal to 100"},
		{"empty slice", &importReq{Items: []newItem{}}, "items", "Must contain at least 1 entries"},
		{"nested max", &importReq{Items: []newItem{{Name: "ok"}, {Name: "far too long"}}}, "items[1].name", "Maximum length is 10"},
		{"blank name", &importReq{Items: []newItem{{Name: "   "}}}, "items[0].name", "Must not be blank"},
		{"nested gte", &importReq{Items: []newItem{{Name: "ok", Stock: -1}}}, "items[0].stock", "Must be greater than or equal to 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := pkgvalidator.FormatValidationErrors(pkgvalidator.Validate(tt.in))
			if m[tt.field] != tt.want {
				t.Errorf("%s: got %q, want %q (all: %v)", tt.field, m[tt.field], tt.want, m)
			}
		})
	}
}

func TestFormatValidationErrors_nonValidationError(t *testing.T) {
	m := pkgvalidator.FormatValidationErrors(http.ErrNoCookie)
	if len(m) != 0 {
		t.Errorf("expected empty map for non-validation error, got %v", m)
	}
}

// --- ValidateRequest ---

func TestValidateRequest_valid(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"item_id":3,"quantity":2}`))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	req, ok := pkgvalidator.ValidateRequest[reserveReq](w, r)
	if !ok {
		t.Fatalf("expected ok=true, got false. Response: %s", w.Body.String())
	}
	if req.ItemID != 3 || req.Quantity != 2 {
		t.Errorf("unexpected request: %+v", req)
	}
}

func TestValidateRequest_rejectedBodies(t *testing.T) {
	tests := []struct {
		name string
		body string
		code int
		msg  string
	}{
		{"malformed", "{bad json", http.StatusBadRequest, "Invalid JSON"},
		{"empty", "", http.StatusBadRequest, "Request body is required"},
		{"trailing value", `{"item_id":3}{"item_id":4}`, http.StatusBadRequest, "Invalid JSON"},
		{"wrong type", `{"item_id":"three"}`, http.StatusBadRequest, "Invalid JSON"},
		{"failed rule", `{"item_id":-2}`, http.StatusUnprocessableEntity, "Validation failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			if _, ok := pkgvalidator.ValidateRequest[reserveReq](w, r); ok {
				t.Fatal("expected ok=false")
			}
			if w.Code != tt.code {
				t.Errorf("status: got %d, want %d", w.Code, tt.code)
			}
			if !strings.Contains(w.Body.String(), tt.msg) {
				t.Errorf("expected %q in body, got: %s", tt.msg, w.Body.String())
			}
		})
	}
}

func TestValidateRequest_missingField(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"quantity":1}`))
	w := httptest.NewRecorder()

	_, ok := pkgvalidator.ValidateRequest[reserveReq](w, r)
	if ok {
		t.Fatal("expected ok=false for missing item_id")
	}
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", w.Code)
	}
	var body struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error != "Validation failed" || body.Fields["item_id"] == "" {
		t.Errorf("unexpected body: %+v", body)
	}
}

func TestValidateRequest_bodyTooLarge(t *testing.T) {
	h := httpx.RequestBodyLimit(16)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := pkgvalidator.ValidateRequest[importReq](w, r); ok {
			w.WriteHeader(http.StatusOK)
		}
	}))
	body := `{"items":[{"name":"a","stock":1},{"name":"b","stock":2}]}`
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", w.Code)
	}
}
