package validators

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	pkgerrors "github.com/lankapos/pos-backend/pkg/errors"
)

func TestParseDecimalAcceptsValidNumbers(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"0", "12", "3.50", "-1.25", " 99.999 "} {
		value, err := ParseDecimal(raw, "quantity")
		require.NoError(t, err, "input %q", raw)
		require.False(t, value.IsZero() && raw != "0", "input %q parsed to zero", raw)
	}
}

func TestParseDecimalRejectsMalformedInput(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "   ", "abc", "1.2.3", "12,50", "NaN-ish"} {
		_, err := ParseDecimal(raw, "quantity")
		require.Error(t, err, "input %q", raw)
		require.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
	}
}

func TestParseOptionalDecimal(t *testing.T) {
	t.Parallel()

	value, err := ParseOptionalDecimal(nil, "weight")
	require.NoError(t, err)
	require.Nil(t, value)

	empty := "  "
	value, err = ParseOptionalDecimal(&empty, "weight")
	require.NoError(t, err)
	require.Nil(t, value)

	raw := "2.345"
	value, err = ParseOptionalDecimal(&raw, "weight")
	require.NoError(t, err)
	require.NotNil(t, value)
	require.Equal(t, "2.345", value.String())

	bad := "two"
	_, err = ParseOptionalDecimal(&bad, "weight")
	require.Error(t, err)
}

func TestParseQueryIntBounds(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest("GET", "/?limit=30", nil)
	value, err := ParseQueryInt(r, "limit", 25, 1, 100)
	require.NoError(t, err)
	require.Equal(t, 30, value)

	r = httptest.NewRequest("GET", "/", nil)
	value, err = ParseQueryInt(r, "limit", 25, 1, 100)
	require.NoError(t, err)
	require.Equal(t, 25, value)

	r = httptest.NewRequest("GET", "/?limit=500", nil)
	_, err = ParseQueryInt(r, "limit", 25, 1, 100)
	require.Error(t, err)

	r = httptest.NewRequest("GET", "/?limit=ten", nil)
	_, err = ParseQueryInt(r, "limit", 25, 1, 100)
	require.Error(t, err)
}
