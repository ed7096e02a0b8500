package validators

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	pkgerrors "github.com/zachbush96/treelead-backend/pkg/errors"
)

type samplePayload struct {
	Zip   string  `json:"zip" validate:"required,zip5"`
	Email string  `json:"email" validate:"required,email"`
	Price float64 `json:"price" validate:"gt=0"`
}

func TestDecodeJSONBodySuccess(t *testing.T) {
	body := `{"zip":"15213","email":"buyer@example.com","price":25}`
	r := httptest.NewRequest("POST", "/", strings.NewReader(body))

	var dest samplePayload
	require.NoError(t, DecodeJSONBody(r, &dest))
	assert.Equal(t, "15213", dest.Zip)
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	body := `{"zip":"15213","email":"buyer@example.com","price":25,"extra":true}`
	r := httptest.NewRequest("POST", "/", strings.NewReader(body))

	var dest samplePayload
	err := DecodeJSONBody(r, &dest)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestValidateStructReportsFieldMessages(t *testing.T) {
	err := ValidateStruct(&samplePayload{Zip: "abc", Email: "nope", Price: 0})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)

	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "must be a five digit ZIP code", details["zip"])
	assert.Equal(t, "must be a valid email", details["email"])
}

func TestParseQueryInt(t *testing.T) {
	r := httptest.NewRequest("GET", "/?limit=30", nil)
	got, err := ParseQueryInt(r, "limit", 25, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 30, got)

	r = httptest.NewRequest("GET", "/", nil)
	got, err = ParseQueryInt(r, "limit", 25, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 25, got)

	r = httptest.NewRequest("GET", "/?limit=5000", nil)
	_, err = ParseQueryInt(r, "limit", 25, 1, 100)
	assert.Error(t, err)
}

func TestSanitizePhone(t *testing.T) {
	assert.Equal(t, "+14125551234", SanitizePhone(" +1 (412) 555-1234 "))
	assert.Equal(t, "4125551234", SanitizePhone("412.555.1234"))
}
