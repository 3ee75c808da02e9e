package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "coursehub/pkg/domain-errors"
)

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func TestWriteError(t *testing.T) {
	t.Run("internal error hides its message", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeInternal, "db failed"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "Internal server error", decode(t, w)["detail"])
	})

	t.Run("validation error keeps its message", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeValidation, "password too short"))

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "password too short", decode(t, w)["detail"])
	})

	t.Run("unclassified error is internal", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, assert.AnError)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestEnvelopes(t *testing.T) {
	t.Run("data", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteData(w, map[string]int{"n": 1})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		body := decode(t, w)
		assert.EqualValues(t, 200, body["code"])
		assert.Equal(t, map[string]any{"n": float64(1)}, body["data"])
	})

	t.Run("business error rides a 200", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteEnvelopeError(w, http.StatusUnauthorized, "token expired")

		assert.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		assert.EqualValues(t, 401, body["code"])
		assert.Equal(t, "token expired", body["message"])
		assert.Nil(t, body["data"])
	})
}
