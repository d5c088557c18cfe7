package handler_test

import (
	"bytes"
	"cmp"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"slices"
	"strings"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	gocmp "github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/hamidoujand/roster/internal/auth"
	"github.com/hamidoujand/roster/internal/domains/user/bus"
	"github.com/hamidoujand/roster/internal/domains/user/handler"
	"github.com/hamidoujand/roster/internal/errs"
	"github.com/hamidoujand/roster/internal/mid"
	"github.com/hamidoujand/roster/internal/order"
	"github.com/hamidoujand/roster/internal/page"
	"github.com/hamidoujand/roster/pkg/keystore"
	"github.com/hamidoujand/roster/pkg/logger"
	"golang.org/x/crypto/bcrypt"

	"github.com/gin-gonic/gin"
)

const kid = "signing"

// memStore keeps users in memory, good enough to drive the handlers.
type memStore struct {
	mu    sync.Mutex
	users []bus.User
	fail  error
}

func (s *memStore) Create(ctx context.Context, usr bus.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email.Address == usr.Email.Address {
			return bus.ErrDuplicatedEmail
		}
	}

	s.users = append(s.users, usr)
	return nil
}

func (s *memStore) QueryByID(ctx context.Context, id uuid.UUID) (bus.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}

	return bus.User{}, bus.ErrUserNotFound
}

func (s *memStore) QueryByEmail(ctx context.Context, email mail.Address) (bus.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email.Address == email.Address {
			return u, nil
		}
	}

	return bus.User{}, bus.ErrUserNotFound
}

func (s *memStore) Query(ctx context.Context, filter bus.QueryFilter, orderBy order.By, pg page.Page) ([]bus.User, error) {
	if s.fail != nil {
		return nil, s.fail
	}

	matched := s.match(filter)

	slices.SortFunc(matched, func(a, b bus.User) int {
		var c int
		switch orderBy.Field {
		case bus.OrderByName:
			c = cmp.Compare(a.Name, b.Name)
		case bus.OrderByEmail:
			c = cmp.Compare(a.Email.Address, b.Email.Address)
		default:
			c = a.CreatedAt.Compare(b.CreatedAt)
		}

		if orderBy.Direction == order.DESC {
			return -c
		}
		return c
	})

	start := min(pg.Offset(), len(matched))
	end := min(start+pg.Rows, len(matched))

	return matched[start:end], nil
}

func (s *memStore) Count(ctx context.Context, filter bus.QueryFilter) (int, error) {
	if s.fail != nil {
		return 0, s.fail
	}

	return len(s.match(filter)), nil
}

func (s *memStore) match(filter bus.QueryFilter) []bus.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []bus.User
	for _, u := range s.users {
		if filter.Name != nil && !strings.Contains(strings.ToLower(u.Name), strings.ToLower(*filter.Name)) {
			continue
		}

		if filter.Department != nil && u.Department != *filter.Department {
			continue
		}

		if len(filter.Roles) > 0 && !slices.ContainsFunc(u.Roles, func(r bus.Role) bool { return slices.Contains(filter.Roles, r) }) {
			continue
		}

		out = append(out, u)
	}

	return out
}

// ==============================================================================

type queryResult struct {
	Users []struct {
		Name       string   `json:"name"`
		Email      string   `json:"email"`
		Roles      []string `json:"roles"`
		Department string   `json:"department"`
	} `json:"users"`
	Total       int `json:"total"`
	Page        int `json:"page"`
	RowsPerPage int `json:"rowsPerPage"`
}

func newAuth(t *testing.T) *auth.Auth {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate key: %s", err)
	}

	ks := keystore.New()
	fsys := fstest.MapFS{
		kid + ".pem": {Data: pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})},
	}

	if _, err := ks.LoadFromFileSystem(fsys); err != nil {
		t.Fatalf("failed to load keys: %s", err)
	}

	return auth.New(ks, "roster")
}

func setup(t *testing.T, store *memStore) *gin.Engine {
	t.Helper()

	log := logger.NewDiscard()

	r := gin.New()
	r.Use(mid.Errors(log))

	handler.Routes(handler.Conf{
		UserBus:     bus.New(store, nil),
		Log:         log,
		Auth:        newAuth(t),
		KID:         kid,
		TokenMaxAge: time.Hour,
	}).MountAt(r, "/v1/users")

	return r
}

// login returns the authorization header of the user.
func login(t *testing.T, r *gin.Engine, email string, password string) string {
	t.Helper()

	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	req := httptest.NewRequest(http.MethodPost, "/v1/users/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("failed to login as %s: status=%d: %s", email, w.Code, w.Body.String())
	}

	var tkn handler.Token
	if err := json.NewDecoder(w.Body).Decode(&tkn); err != nil {
		t.Fatalf("failed to decode token: %s", err)
	}

	return "Bearer " + tkn.Token
}

// seeded users share one password, Jane is disabled.
const password = "test1234"

func seed(t *testing.T, store *memStore) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %s", err)
	}

	now := time.Now()
	usrs := []struct {
		name       string
		email      string
		roles      []bus.Role
		department string
	}{
		{"John Doe", "john@doe.com", []bus.Role{bus.RoleUser}, "sales"},
		{"Jane Doe", "jane@doe.com", []bus.Role{bus.RoleUser}, "shipping"},
		{"Mike Doe", "mike@doe.com", []bus.Role{bus.RoleAdmin}, "sales"},
		{"Tom Doe", "tom@doe.com", []bus.Role{bus.RoleAdmin, bus.RoleUser}, "marketing"},
	}

	for i, u := range usrs {
		err := store.Create(context.Background(), bus.User{
			ID:           uuid.New(),
			Name:         u.name,
			Email:        mail.Address{Name: u.name, Address: u.email},
			Roles:        u.roles,
			Department:   u.department,
			PasswordHash: hash,
			Enabled:      u.name != "Jane Doe",
			CreatedAt:    now.Add(time.Duration(i) * time.Minute),
			UpdatedAt:    now.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("failed to seed %s: %s", u.name, err)
		}
	}
}

func Test_FindAll(t *testing.T) {
	t.Parallel()

	store := &memStore{}
	seed(t, store)
	r := setup(t, store)

	tests := []struct {
		name       string
		query      string
		statusCode int
		names      []string
		total      int
		page       int
		rows       int
	}{
		{name: "every_user", query: "", statusCode: http.StatusOK, names: []string{"John Doe", "Jane Doe", "Mike Doe", "Tom Doe"}, total: 4, page: 1, rows: 10},
		{name: "ordered_by_name", query: "?order_by=name,desc", statusCode: http.StatusOK, names: []string{"Tom Doe", "Mike Doe", "John Doe", "Jane Doe"}, total: 4, page: 1, rows: 10},
		{name: "second_page", query: "?order_by=email&page=2&rows=3", statusCode: http.StatusOK, names: []string{"Tom Doe"}, total: 4, page: 2, rows: 3},
		{name: "admins", query: "?roles=admin&order_by=name", statusCode: http.StatusOK, names: []string{"Mike Doe", "Tom Doe"}, total: 2, page: 1, rows: 10},
		{name: "sales", query: "?department=sales&name=john", statusCode: http.StatusOK, names: []string{"John Doe"}, total: 1, page: 1, rows: 10},
		{name: "bad_page", query: "?page=0", statusCode: http.StatusBadRequest},
		{name: "huge_page", query: "?page=922337203685477581&rows=100", statusCode: http.StatusBadRequest},
		{name: "bad_order", query: "?order_by=password", statusCode: http.StatusBadRequest},
		{name: "bad_role", query: "?roles=root", statusCode: http.StatusBadRequest},
		{name: "bad_date", query: "?startCreatedAt=yesterday", statusCode: http.StatusBadRequest},
		{name: "inverted_dates", query: "?startCreatedAt=2025-02-01T00:00:00Z&endCreatedAt=2025-01-01T00:00:00Z", statusCode: http.StatusBadRequest},
	}

	for _, ts := range tests {
		t.Run(ts.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/users/every"+ts.query, nil))

			if w.Code != ts.statusCode {
				t.Fatalf("status=%d, got=%d: %s", ts.statusCode, w.Code, w.Body.String())
			}

			if ts.statusCode != http.StatusOK {
				var appErr errs.Error
				if err := json.NewDecoder(w.Body).Decode(&appErr); err != nil {
					t.Fatalf("failed to decode error: %s", err)
				}

				if appErr.Code != ts.statusCode {
					t.Errorf("code=%d, got=%d", ts.statusCode, appErr.Code)
				}
				return
			}

			var qr queryResult
			if err := json.NewDecoder(w.Body).Decode(&qr); err != nil {
				t.Fatalf("failed to decode result: %s", err)
			}

			names := make([]string, len(qr.Users))
			for i, u := range qr.Users {
				names[i] = u.Name
			}

			if diff := gocmp.Diff(ts.names, names); diff != "" {
				t.Errorf("users mismatch (-want +got):\n%s", diff)
			}

			if qr.Total != ts.total {
				t.Errorf("total=%d, got=%d", ts.total, qr.Total)
			}

			if qr.Page != ts.page || qr.RowsPerPage != ts.rows {
				t.Errorf("page=%d rows=%d, got page=%d rows=%d", ts.page, ts.rows, qr.Page, qr.RowsPerPage)
			}
		})
	}
}

func Test_FindAllStoreFailure(t *testing.T) {
	t.Parallel()

	store := &memStore{fail: errors.New("connection refused")}
	r := setup(t, store)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/users/every", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d, got=%d", http.StatusInternalServerError, w.Code)
	}

	if strings.Contains(w.Body.String(), "connection refused") {
		t.Errorf("internal error leaked to the client: %s", w.Body.String())
	}
}

func Test_FindAllEmpty(t *testing.T) {
	t.Parallel()

	r := setup(t, &memStore{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/users/every", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, got=%d", http.StatusOK, w.Code)
	}

	//an empty page is a list, not null.
	if !strings.Contains(w.Body.String(), `"users":[]`) {
		t.Errorf("expected an empty users list, got=%s", w.Body.String())
	}
}

func Test_QueryByID(t *testing.T) {
	t.Parallel()

	store := &memStore{}
	seed(t, store)
	r := setup(t, store)

	john := store.users[0]
	mike := store.users[2]

	johnToken := login(t, r, "john@doe.com", password)
	mikeToken := login(t, r, "mike@doe.com", password)

	tests := []struct {
		name       string
		token      string
		id         string
		statusCode int
		email      string
	}{
		{name: "self", token: johnToken, id: john.ID.String(), statusCode: http.StatusOK, email: john.Email.Address},
		{name: "admin_reads_other", token: mikeToken, id: john.ID.String(), statusCode: http.StatusOK, email: john.Email.Address},
		{name: "user_reads_other", token: johnToken, id: mike.ID.String(), statusCode: http.StatusForbidden},
		{name: "no_token", id: john.ID.String(), statusCode: http.StatusUnauthorized},
		{name: "bad_token", token: "Bearer abc.def.ghi", id: john.ID.String(), statusCode: http.StatusUnauthorized},
		{name: "not_found", token: mikeToken, id: uuid.NewString(), statusCode: http.StatusNotFound},
		{name: "malformed", token: mikeToken, id: "unknown", statusCode: http.StatusBadRequest},
	}

	for _, ts := range tests {
		t.Run(ts.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/users/"+ts.id, nil)
			if ts.token != "" {
				req.Header.Set("Authorization", ts.token)
			}

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != ts.statusCode {
				t.Fatalf("status=%d, got=%d: %s", ts.statusCode, w.Code, w.Body.String())
			}

			if ts.statusCode != http.StatusOK {
				return
			}

			var got struct {
				ID    string `json:"id"`
				Email string `json:"email"`
			}
			if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
				t.Fatalf("failed to decode user: %s", err)
			}

			if got.ID != ts.id || got.Email != ts.email {
				t.Errorf("user=%s/%s, got=%s/%s", ts.id, ts.email, got.ID, got.Email)
			}
		})
	}
}

func Test_Login(t *testing.T) {
	t.Parallel()

	store := &memStore{}
	seed(t, store)
	r := setup(t, store)

	tests := []struct {
		name       string
		body       string
		statusCode int
	}{
		{name: "valid", body: `{"email":"tom@doe.com","password":"test1234"}`, statusCode: http.StatusOK},
		{name: "wrong_password", body: `{"email":"tom@doe.com","password":"wrong-password"}`, statusCode: http.StatusUnauthorized},
		{name: "unknown_email", body: `{"email":"nobody@doe.com","password":"test1234"}`, statusCode: http.StatusUnauthorized},
		{name: "disabled_user", body: `{"email":"jane@doe.com","password":"test1234"}`, statusCode: http.StatusUnauthorized},
		{name: "missing_password", body: `{"email":"tom@doe.com"}`, statusCode: http.StatusBadRequest},
	}

	for _, ts := range tests {
		t.Run(ts.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/users/login", strings.NewReader(ts.body))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != ts.statusCode {
				t.Fatalf("status=%d, got=%d: %s", ts.statusCode, w.Code, w.Body.String())
			}

			if ts.statusCode != http.StatusOK {
				return
			}

			var tkn handler.Token
			if err := json.NewDecoder(w.Body).Decode(&tkn); err != nil {
				t.Fatalf("failed to decode token: %s", err)
			}

			if strings.Count(tkn.Token, ".") != 2 {
				t.Errorf("expected a signed jwt, got=%s", tkn.Token)
			}
		})
	}
}

func Test_Create(t *testing.T) {
	t.Parallel()

	store := &memStore{}
	r := setup(t, store)

	valid := map[string]any{
		"name":            "John Doe",
		"email":           "john@doe.com",
		"roles":           []string{"user"},
		"department":      "sales",
		"password":        "test1234",
		"passwordConfirm": "test1234",
	}

	tests := []struct {
		name       string
		body       any
		statusCode int
		fields     []string
	}{
		{name: "create_user_201", body: valid, statusCode: http.StatusCreated},
		{name: "create_user_duplicated_email", body: valid, statusCode: http.StatusBadRequest},
		{
			name: "create_user_400",
			body: map[string]any{
				"name":            "Jo",
				"email":           "john.com",
				"roles":           []string{"root"},
				"department":      "loading",
				"password":        "test",
				"passwordConfirm": "test1",
			},
			statusCode: http.StatusBadRequest,
			fields:     []string{"department", "email", "name", "password", "passwordConfirm", "roles[0]"},
		},
		{name: "malformed_json", body: "{", statusCode: http.StatusBadRequest},
	}

	//subtests run in order, the duplicate relies on the first one.
	for _, ts := range tests {
		t.Run(ts.name, func(t *testing.T) {
			var buf bytes.Buffer
			if s, ok := ts.body.(string); ok {
				buf.WriteString(s)
			} else if err := json.NewEncoder(&buf).Encode(ts.body); err != nil {
				t.Fatalf("failed to encode: %s", err)
			}

			req := httptest.NewRequest(http.MethodPost, "/v1/users/", &buf)
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != ts.statusCode {
				t.Fatalf("status=%d, got=%d: %s", ts.statusCode, w.Code, w.Body.String())
			}

			if ts.fields == nil {
				return
			}

			var appErr errs.Error
			if err := json.NewDecoder(w.Body).Decode(&appErr); err != nil {
				t.Fatalf("failed to decode error: %s", err)
			}

			var fields []string
			for f := range appErr.Fields {
				fields = append(fields, f)
			}
			slices.Sort(fields)

			if diff := gocmp.Diff(ts.fields, fields); diff != "" {
				t.Errorf("fields mismatch (-want +got):\n%s", diff)
			}
		})
	}

	if len(store.users) != 1 {
		t.Errorf("users=%d, got=%d", 1, len(store.users))
	}
}
