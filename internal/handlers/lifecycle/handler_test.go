package lifecycle

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/fcv-2025.net/jobinitiator/internal/adapter/logging"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/handlers/handlerstest"
	"gitlab.com/fcv-2025.net/jobinitiator/internal/static/errs"
)

func serve(fake *handlerstest.FakeInitiator, method, path string) *httptest.ResponseRecorder {
	r := mux.NewRouter()
	NewHandler(fake, logging.NewNopLogger()).Register(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestDieUndie(t *testing.T) {
	fake := &handlerstest.FakeInitiator{}

	rec := serve(fake, http.MethodGet, "/api/lifecycle")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"awaitingDeath":false}`, rec.Body.String())

	rec = serve(fake, http.MethodPost, "/api/lifecycle/die")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(fake, http.MethodGet, "/api/lifecycle")
	assert.JSONEq(t, `{"awaitingDeath":true}`, rec.Body.String())

	rec = serve(fake, http.MethodPost, "/api/lifecycle/undie")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	dies, undies := fake.Counts()
	assert.Equal(t, 1, dies)
	assert.Equal(t, 1, undies)
}

func TestDieWrongMethod(t *testing.T) {
	fake := &handlerstest.FakeInitiator{}
	rec := serve(fake, http.MethodGet, "/api/lifecycle/die")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestStoppedController(t *testing.T) {
	fake := &handlerstest.FakeInitiator{LifeErr: errs.ErrControllerStopped}
	assert.Equal(t, http.StatusServiceUnavailable, serve(fake, http.MethodPost, "/api/lifecycle/die").Code)
	assert.Equal(t, http.StatusServiceUnavailable, serve(fake, http.MethodGet, "/api/lifecycle").Code)
}
