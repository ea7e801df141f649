package matrix

import (
	"crypto/hmac"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"registrar/pkg/platform/httputil"
)

// FakeSharedSecret is the shared secret the development homeserver expects.
const FakeSharedSecret = "fakesecret"

// FakeHomeserver answers the shared-secret registration endpoints for
// development mode and tests. Nonces are single use and MACs are checked.
type FakeHomeserver struct {
	sharedSecret []byte
	serverName   string

	mu       sync.Mutex
	nonces   map[string]struct{}
	accounts map[string]struct{}
}

func NewFakeHomeserver(sharedSecret, serverName string) *FakeHomeserver {
	return &FakeHomeserver{
		sharedSecret: []byte(sharedSecret),
		serverName:   serverName,
		nonces:       make(map[string]struct{}),
		accounts:     make(map[string]struct{}),
	}
}

// Router serves the fake under whatever prefix it is mounted at.
func (f *FakeHomeserver) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/_matrix/client/versions", f.handleVersions)
	r.Get("/_matrix/client/r0/admin/register", f.handleNonce)
	r.Post("/_matrix/client/r0/admin/register", f.handleRegister)
	return r
}

// Registered reports whether username has an account.
func (f *FakeHomeserver) Registered(username string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.accounts[username]
	return ok
}

func (f *FakeHomeserver) handleVersions(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string][]string{"versions": {"r0.5.0"}})
}

func (f *FakeHomeserver) handleNonce(w http.ResponseWriter, _ *http.Request) {
	nonce := uuid.NewString()
	f.mu.Lock()
	f.nonces[nonce] = struct{}{}
	f.mu.Unlock()
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"nonce": nonce})
}

func (f *FakeHomeserver) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		matrixError(w, http.StatusBadRequest, "M_NOT_JSON", "invalid JSON")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.nonces[req.Nonce]; !ok {
		matrixError(w, http.StatusBadRequest, "M_UNKNOWN", "unrecognised nonce")
		return
	}
	delete(f.nonces, req.Nonce)

	want := generateMAC(f.sharedSecret, req.Nonce, req.Username, req.Password, req.UserType)
	if req.Admin || !hmac.Equal([]byte(want), []byte(req.MAC)) {
		matrixError(w, http.StatusForbidden, "M_FORBIDDEN", "HMAC incorrect")
		return
	}
	if _, taken := f.accounts[req.Username]; taken {
		matrixError(w, http.StatusBadRequest, "M_USER_IN_USE", "user ID already taken")
		return
	}
	f.accounts[req.Username] = struct{}{}

	httputil.WriteJSON(w, http.StatusOK, Account{
		UserID:     "@" + req.Username + ":" + f.serverName,
		HomeServer: f.serverName,
	})
}

func matrixError(w http.ResponseWriter, status int, code, msg string) {
	httputil.WriteJSON(w, status, map[string]string{"errcode": code, "error": msg})
}
