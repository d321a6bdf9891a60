package identity_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dukex/formflow/pkg/identity"
	"github.com/dukex/formflow/pkg/models"
	"github.com/gofiber/fiber/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ada = models.Submitter{ID: "u1", Name: "Ada", Email: "ada@example.com"}

func TestIssueAndVerify(t *testing.T) {
	t.Parallel()

	verifier := identity.NewVerifier("secret", time.Hour)

	token, err := verifier.Issue(ada)
	require.NoError(t, err)

	claims, err := verifier.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, ada, claims.Submitter())
}

func TestVerifyRejects(t *testing.T) {
	t.Parallel()

	token, err := identity.NewVerifier("other", time.Hour).Issue(ada)
	require.NoError(t, err)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, identity.Claims{
		UserID: ada.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	verifier := identity.NewVerifier("secret", time.Hour)

	_, err = verifier.Verify("")
	require.ErrorIs(t, err, identity.ErrMissingToken)

	_, err = verifier.Verify("not-a-token")
	require.ErrorIs(t, err, identity.ErrInvalidToken)

	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, identity.ErrInvalidToken)

	_, err = verifier.Verify(expired)
	require.ErrorIs(t, err, identity.ErrInvalidToken)
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	verifier := identity.NewVerifier("secret", time.Hour)

	app := fiber.New()
	app.Get("/me", func(c fiber.Ctx) error {
		submitter, ok := identity.SubmitterFrom(c)
		if !ok {
			return fiber.ErrInternalServerError
		}

		return c.SendString(submitter.Email)
	}, identity.Middleware(verifier))

	token, err := verifier.Issue(ada)
	require.NoError(t, err)

	tests := map[string]struct {
		header string
		status int
	}{
		"valid":   {header: "Bearer " + token, status: http.StatusOK},
		"missing": {header: "", status: http.StatusUnauthorized},
		"garbage": {header: "Bearer abc", status: http.StatusUnauthorized},
		"scheme":  {header: "Basic " + token, status: http.StatusUnauthorized},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			if tt.status == http.StatusOK {
				body, err := io.ReadAll(resp.Body)
				require.NoError(t, err)
				assert.Equal(t, ada.Email, string(body))
			}
		})
	}
}
