package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/marketplace-core/pkg/errors"
)

type option struct {
	Group  string `json:"group" validate:"required"`
	Choice string `json:"choice" validate:"required"`
}

type addRequest struct {
	ProductID string   `json:"productId" validate:"required"`
	Quantity  int      `json:"quantity" validate:"min=1"`
	Mode      string   `json:"mode" validate:"omitempty,oneof=light dark"`
	Options   []option `json:"selectedOptions" validate:"omitempty,dive"`
}

func decode(t *testing.T, body string) (addRequest, *pkgerrors.Error) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	var dest addRequest
	err := DecodeJSONBody(req, &dest)
	if err == nil {
		return dest, nil
	}
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected a typed error, got %v", err)
	return dest, typed
}

func TestDecodeJSONBodyAcceptsValidPayload(t *testing.T) {
	dest, err := decode(t, `{"productId":"p1","quantity":2,"selectedOptions":[{"group":"size","choice":"L"}]}`)
	require.Nil(t, err)
	assert.Equal(t, "p1", dest.ProductID)
	assert.Len(t, dest.Options, 1)
}

func TestDecodeJSONBodyRejections(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
		field   string
	}{
		{name: "empty", body: "", message: "request body is required"},
		{name: "malformed", body: `{"productId":`, message: "malformed JSON body"},
		{name: "unknown field", body: `{"productId":"p1","quantity":1,"price":"1.00"}`, message: "unknown field", field: "price"},
		{name: "wrong type", body: `{"productId":"p1","quantity":"two"}`, message: "invalid field type", field: "quantity"},
		{name: "trailing data", body: `{"productId":"p1","quantity":1}{}`, message: "request body must contain a single JSON object"},
		{name: "min", body: `{"productId":"p1","quantity":0}`, message: "validation failed", field: "quantity"},
		{name: "oneof", body: `{"productId":"p1","quantity":1,"mode":"sepia"}`, message: "validation failed", field: "mode"},
		{name: "nested", body: `{"productId":"p1","quantity":1,"selectedOptions":[{"group":"size"}]}`, message: "validation failed", field: "selectedOptions[0].choice"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decode(t, tt.body)
			require.NotNil(t, err)
			assert.Equal(t, pkgerrors.CodeValidation, err.Code())
			assert.Equal(t, tt.message, err.Message())
			if tt.field == "" {
				return
			}
			switch details := err.Details().(type) {
			case map[string]string:
				assert.Contains(t, details, tt.field)
			case map[string]any:
				assert.Contains(t, details, tt.field)
			default:
				t.Fatalf("unexpected details %T", details)
			}
		})
	}
}

func TestDecodeJSONBodyRejectsOversizedBody(t *testing.T) {
	big := `{"productId":"` + strings.Repeat("x", MaxBodyBytes) + `","quantity":1}`
	_, err := decode(t, big)
	require.NotNil(t, err)
	assert.Equal(t, "request body too large", err.Message())
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "vendor", SanitizeString("  vendor\x00 ", 0))
	assert.Equal(t, "ñañ", SanitizeString("ñañaña", 3))
	assert.Equal(t, "", SanitizeString("   ", 10))
}

func TestParseQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=5&bad=x&big=500", nil)

	got, err := ParseQueryInt(req, "limit", 10, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 5, got)

	got, err = ParseQueryInt(req, "missing", 10, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 10, got)

	_, err = ParseQueryInt(req, "bad", 10, 1, 100)
	assert.Error(t, err)
	_, err = ParseQueryInt(req, "big", 10, 1, 100)
	assert.Error(t, err)
}
