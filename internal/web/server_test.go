package web

import (
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mkarlsen/tidelist/internal/identity"
	"github.com/mkarlsen/tidelist/internal/store"
)

const testSessionKey = "0123456789abcdef0123456789abcdef"

// newTestServer spins up the full stack (store, identity, router) behind
// an httptest server, plus a cookie-carrying client that does not follow
// redirects, so guard behavior can be asserted precisely.
func newTestServer(t *testing.T) (*httptest.Server, *http.Client) {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	ident := identity.New(st, identity.WithBcryptCost(bcrypt.MinCost))
	srv, err := New(st, ident, []byte(testSessionKey), nil)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return ts, client
}

func postForm(t *testing.T, client *http.Client, target string, form url.Values) *http.Response {
	t.Helper()
	resp, err := client.Post(target, "application/x-www-form-urlencoded",
		strings.NewReader(form.Encode()))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func get(t *testing.T, client *http.Client, target string) (*http.Response, string) {
	t.Helper()
	resp, err := client.Get(target)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

// signup registers a fresh account and leaves its session cookie in the
// client's jar.
func signup(t *testing.T, client *http.Client, baseURL, email string) {
	t.Helper()
	resp := postForm(t, client, baseURL+"/signup", url.Values{
		"email":    {email},
		"password": {"hunter22"},
		"confirm":  {"hunter22"},
	})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, "/", resp.Header.Get("Location"))
}

func TestGuard_RedirectsUnauthenticated(t *testing.T) {
	ts, client := newTestServer(t)

	resp, _ := get(t, client, ts.URL+"/")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestGuard_EvaluatedOnEveryRequest(t *testing.T) {
	ts, client := newTestServer(t)
	signup(t, client, ts.URL, "user@example.com")

	resp, _ := get(t, client, ts.URL+"/")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Logging out invalidates the cookie; the very next navigation is
	// redirected, not served from any cached decision.
	postForm(t, client, ts.URL+"/logout", url.Values{})
	resp, _ = get(t, client, ts.URL+"/")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestPublicRoutes_AlwaysReachable(t *testing.T) {
	ts, client := newTestServer(t)

	for _, path := range []string{"/login", "/signup"} {
		resp, _ := get(t, client, ts.URL+path)
		assert.Equal(t, http.StatusOK, resp.StatusCode, "path %s", path)
	}

	// Still reachable with an active session.
	signup(t, client, ts.URL, "user@example.com")
	for _, path := range []string{"/login", "/signup"} {
		resp, _ := get(t, client, ts.URL+path)
		assert.Equal(t, http.StatusOK, resp.StatusCode, "path %s (authenticated)", path)
	}
}

func TestSignup_PasswordMismatch(t *testing.T) {
	ts, client := newTestServer(t)

	resp := postForm(t, client, ts.URL+"/signup", url.Values{
		"email":    {"user@example.com"},
		"password": {"hunter22"},
		"confirm":  {"different"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, "mismatch renders the form inline")
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Passwords do not match.")
}

func TestSignup_EmailInUse(t *testing.T) {
	ts, client := newTestServer(t)
	signup(t, client, ts.URL, "user@example.com")

	resp := postForm(t, client, ts.URL+"/signup", url.Values{
		"email":    {"user@example.com"},
		"password": {"hunter22"},
		"confirm":  {"hunter22"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "already registered")
}

func TestLogin_WrongPassword(t *testing.T) {
	ts, client := newTestServer(t)
	signup(t, client, ts.URL, "user@example.com")
	postForm(t, client, ts.URL+"/logout", url.Values{})

	resp := postForm(t, client, ts.URL+"/login", url.Values{
		"email":    {"user@example.com"},
		"password": {"wrong"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Incorrect email or password.")

	// The failed login did not establish a session.
	resp2, _ := get(t, client, ts.URL+"/")
	assert.Equal(t, http.StatusFound, resp2.StatusCode)
}

func TestLogin_Succeeds(t *testing.T) {
	ts, client := newTestServer(t)
	signup(t, client, ts.URL, "user@example.com")
	postForm(t, client, ts.URL+"/logout", url.Values{})

	resp := postForm(t, client, ts.URL+"/login", url.Values{
		"email":    {"user@example.com"},
		"password": {"hunter22"},
	})
	require.Equal(t, http.StatusFound, resp.StatusCode)

	_, body := get(t, client, ts.URL+"/")
	assert.Contains(t, body, "user@example.com")
	assert.Contains(t, body, "My todos")
}

func TestAddToggleDeleteFlow(t *testing.T) {
	ts, client := newTestServer(t)
	signup(t, client, ts.URL, "user@example.com")

	// Add.
	resp := postForm(t, client, ts.URL+"/items", url.Values{"text": {"buy milk"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	_, body := get(t, client, ts.URL+"/")
	require.Contains(t, body, "buy milk")

	itemID := extractItemID(t, body)

	// Toggle: the item renders struck-through and shows under the
	// completed filter.
	postForm(t, client, ts.URL+"/items/"+itemID+"/toggle", url.Values{})
	_, body = get(t, client, ts.URL+"/?filter=completed")
	assert.Contains(t, body, "buy milk")
	_, body = get(t, client, ts.URL+"/?filter=active")
	assert.NotContains(t, body, "buy milk")

	// Delete, twice: the second is a no-op, not an error.
	resp = postForm(t, client, ts.URL+"/items/"+itemID+"/delete", url.Values{})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	resp = postForm(t, client, ts.URL+"/items/"+itemID+"/delete", url.Values{})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	_, body = get(t, client, ts.URL+"/")
	assert.NotContains(t, body, "buy milk")
	assert.NotContains(t, body, "Couldn't", "idempotent delete must not flash an error")
}

func TestAddItem_EmptyTextFlashes(t *testing.T) {
	ts, client := newTestServer(t)
	signup(t, client, ts.URL, "user@example.com")

	resp := postForm(t, client, ts.URL+"/items", url.Values{"text": {"   "}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	_, body := get(t, client, ts.URL+"/")
	assert.Contains(t, body, "Item text can't be empty.")
	assert.Contains(t, body, "No todos yet", "no item may be written")

	// The flash is transient: gone on the next render.
	_, body = get(t, client, ts.URL+"/")
	assert.NotContains(t, body, "Item text can't be empty.")
}

func TestMutations_PreserveFilter(t *testing.T) {
	ts, client := newTestServer(t)
	signup(t, client, ts.URL, "user@example.com")

	resp := postForm(t, client, ts.URL+"/items", url.Values{
		"text":   {"task"},
		"filter": {"active"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/?filter=active", resp.Header.Get("Location"))
}

func TestListIsolation_BetweenAccounts(t *testing.T) {
	ts, alice := newTestServer(t)
	signup(t, alice, ts.URL, "alice@example.com")
	postForm(t, alice, ts.URL+"/items", url.Values{"text": {"alice's secret"}})

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	bob := &http.Client{Jar: jar, CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	signup(t, bob, ts.URL, "bob@example.com")

	_, body := get(t, bob, ts.URL+"/")
	assert.NotContains(t, body, "alice")
}

// extractItemID pulls the first item id out of a rendered toggle form
// action.
func extractItemID(t *testing.T, body string) string {
	t.Helper()
	const marker = `action="/items/`
	start := strings.Index(body, marker)
	require.GreaterOrEqual(t, start, 0, "no item form in page")
	rest := body[start+len(marker):]
	end := strings.Index(rest, "/")
	require.Greater(t, end, 0)
	return rest[:end]
}
