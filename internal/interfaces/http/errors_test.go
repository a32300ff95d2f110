package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventory-ledger/internal/application/dto"
	"github.com/jhoicas/inventory-ledger/internal/domain"
	"github.com/jhoicas/inventory-ledger/pkg/logger"
)

func TestWriteError_InternoNoExponeDetalle(t *testing.T) {
	var logs bytes.Buffer
	app := fiber.New()
	app.Use(RequestLogger(logger.New(logger.Config{Level: "info", Output: &logs})))
	app.Get("/falla", func(c *fiber.Ctx) error {
		return writeError(c, fmt.Errorf("actualizar lote: %w", errors.New(`ERROR: relation "inventory_batches" does not exist (SQLSTATE 42P01)`)))
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/falla", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	var body dto.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "INTERNAL", body.Code)
	assert.NotContains(t, body.Message, "SQLSTATE")

	assert.Contains(t, logs.String(), "SQLSTATE 42P01")
	assert.Contains(t, logs.String(), `"status":500`)
}

func TestWriteError_ErroresDeDominio(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{domain.NewValidationError("quantity", "admite como máximo 6 decimales"), fiber.StatusBadRequest, "VALIDATION"},
		{&domain.InvalidStateError{Reason: "lote agotado"}, fiber.StatusUnprocessableEntity, "INVALID_STATE"},
		{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
		{domain.ErrConflict, fiber.StatusConflict, "CONFLICT"},
	}
	for _, tc := range cases {
		app := fiber.New()
		app.Get("/", func(c *fiber.Ctx) error { return writeError(c, tc.err) })

		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil), -1)
		require.NoError(t, err)
		var body dto.ErrorResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		resp.Body.Close()
		assert.Equal(t, tc.status, resp.StatusCode, tc.code)
		assert.Equal(t, tc.code, body.Code)
	}
}
