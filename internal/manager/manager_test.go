package manager

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"entity-manager/internal/cache"
	"entity-manager/internal/entity"
	"entity-manager/internal/repository"
	"entity-manager/internal/request"
	"entity-manager/internal/schema"
	"entity-manager/internal/service"
	"entity-manager/internal/transform"
	"entity-manager/internal/transport"
)

// recorder is a transport that records requests and answers with reply.
type recorder struct {
	mu       sync.Mutex
	requests []transport.Request
	reply    func(req *transport.Request) (*transport.Response, error)
}

func (r *recorder) Do(_ context.Context, req *transport.Request) (*transport.Response, error) {
	r.mu.Lock()
	r.requests = append(r.requests, *req)
	r.mu.Unlock()

	if r.reply == nil {
		return &transport.Response{Status: http.StatusOK}, nil
	}

	return r.reply(req)
}

func (r *recorder) Requests() []transport.Request {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]transport.Request(nil), r.requests...)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestManager_Settings(t *testing.T) {
	m := New(&recorder{},
		WithEndpoint("https://api.test"),
		WithHeader("Accept", "application/json"),
		WithLogger(quietLogger()),
	)

	assert.Equal(t, "https://api.test", m.Endpoint())
	m.SetEndpoint("https://other.test").AddHeader("X-Token", "t")
	assert.Equal(t, "https://other.test", m.Endpoint())

	opts := m.HTTPOptions()
	assert.Equal(t, map[string]string{"Accept": "application/json", "X-Token": "t"}, opts.Header)

	// returned options are copies
	opts.Header["Accept"] = "text/plain"
	assert.Equal(t, "application/json", m.Settings().HTTPOptions.Header["Accept"])

	m.SetHTTPOptions(request.Options{Header: map[string]string{"A": "1"}})
	assert.Equal(t, map[string]string{"A": "1"}, m.Settings().HTTPOptions.Header)
}

func TestManager_MissingURL(t *testing.T) {
	tr := &recorder{}
	m := New(tr, WithLogger(quietLogger()))

	for _, call := range []func(context.Context, request.Options) (any, error){m.Get, m.Post, m.Delete} {
		_, err := call(context.Background(), request.Options{})
		assert.ErrorIs(t, err, ErrMissingURL)
	}

	_, err := m.Put(context.Background(), request.Options{Data: map[string]any{}})
	assert.ErrorIs(t, err, ErrMissingURL)

	assert.Empty(t, tr.Requests(), "configuration errors never reach the transport")
}

func TestManager_MissingData(t *testing.T) {
	tr := &recorder{}
	m := New(tr, WithLogger(quietLogger()))

	_, err := m.Put(context.Background(), request.Options{URL: "/users/1"})
	assert.ErrorIs(t, err, ErrMissingData)

	_, err = m.Patch(context.Background(), request.Options{URL: "/users/1"})
	assert.ErrorIs(t, err, ErrMissingData)

	assert.Empty(t, tr.Requests())
}

func TestManager_PostDefaultsToEmptyObject(t *testing.T) {
	tr := &recorder{}
	m := New(tr, WithLogger(quietLogger()))

	_, err := m.Post(context.Background(), request.Options{URL: "/users"})
	require.NoError(t, err)

	reqs := tr.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPost, reqs[0].Method)
	assert.Equal(t, map[string]any{}, reqs[0].Data)
}

func TestManager_Verbs(t *testing.T) {
	tr := &recorder{}
	m := New(tr, WithLogger(quietLogger()))
	ctx := context.Background()
	o := request.Options{URL: "/x", Data: map[string]any{"a": 1}}

	_, _ = m.Get(ctx, o)
	_, _ = m.Post(ctx, o)
	_, _ = m.Put(ctx, o)
	_, _ = m.Patch(ctx, o)
	_, _ = m.Delete(ctx, o)

	var methods []string
	for _, r := range tr.Requests() {
		methods = append(methods, r.Method)
	}

	assert.Equal(t, []string{"GET", "POST", "PUT", "PATCH", "DELETE"}, methods)
}

func TestManager_CallFlow(t *testing.T) {
	tr := &recorder{reply: func(req *transport.Request) (*transport.Response, error) {
		return &transport.Response{Status: http.StatusOK, Data: map[string]any{"full_name": "Ada"}}, nil
	}}

	reg := transform.NewRegistry(nil)
	reg.Register("user", schema.NewMapper(&schema.Schema{
		Request:  &schema.Node{Fields: []schema.Field{{Key: "full_name", Source: "name"}}},
		Response: &schema.Node{Fields: []schema.Field{{Key: "name", Source: "full_name"}}},
	}))
	reg.RegisterFunc("wrap", func(v any) (any, error) { return map[string]any{"data": v}, nil })

	m := New(tr,
		WithEndpoint("https://api.test"),
		WithHeader("Accept", "application/json"),
		WithHeader("X-A", "base"),
		WithTransformers(reg),
		WithLogger(quietLogger()),
	)

	out, err := m.Post(context.Background(), request.Options{
		URL:                 "/users",
		Header:              map[string]string{"X-A": "call"},
		Data:                map[string]any{"name": "Ada"},
		Criteria:            map[string]any{"b": "x", "a": 1},
		RequestTransformer:  "user wrap",
		ResponseTransformer: "user",
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "Ada"}, out)

	reqs := tr.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, `https://api.test/users?a=1&b=%22x%22`, reqs[0].URL)
	assert.Equal(t, map[string]string{"Accept": "application/json", "X-A": "call"}, reqs[0].Header)
	assert.Equal(t, map[string]any{"data": map[string]any{"full_name": "Ada"}}, reqs[0].Data)
}

func TestManager_TransportErrorsUnmodified(t *testing.T) {
	statusErr := &transport.StatusError{Method: "GET", URL: "/x", Status: 500}
	tr := &recorder{reply: func(*transport.Request) (*transport.Response, error) { return nil, statusErr }}
	m := New(tr, WithLogger(quietLogger()))

	_, err := m.Get(context.Background(), request.Options{URL: "/x", ResponseTransformer: "anything"})
	assert.Same(t, statusErr, err)
}

func TestManager_TransformerErrors(t *testing.T) {
	tr := &recorder{}
	services := service.NewRegistry[transform.Transformer]()
	reg := transform.NewRegistry(services)
	reg.RegisterRef("dates", "iso-dates")

	m := New(tr, WithTransformers(reg), WithLogger(quietLogger()))

	_, err := m.Post(context.Background(), request.Options{URL: "/x", RequestTransformer: "dates"})
	assert.ErrorIs(t, err, service.ErrUnknown)
	assert.Empty(t, tr.Requests())

	_, err = m.Get(context.Background(), request.Options{URL: "/x", ResponseTransformer: "dates"})
	assert.ErrorIs(t, err, service.ErrUnknown)
}

func TestEncodeCriteria(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		criteria map[string]any
		expected string
	}{
		{"none", "/users", nil, "/users"},
		{"number", "/users", map[string]any{"l": 1}, "/users?l=1"},
		{"string is JSON quoted", "/users", map[string]any{"name": "Ada"}, "/users?name=%22Ada%22"},
		{"sorted keys", "/users", map[string]any{"z": true, "a": nil}, "/users?a=null&z=true"},
		{"existing query", "/users?x=1", map[string]any{"l": 1}, "/users?x=1&l=1"},
		{"object", "/users", map[string]any{"age": map[string]any{"$gt": 3}}, "/users?age=%7B%22%24gt%22%3A3%7D"},
		{"list", "/users", map[string]any{"ids": []any{1, 2}}, "/users?ids=%5B1%2C2%5D"},
		{"space and reserved", "/users", map[string]any{"q": "a b&c=d"}, "/users?q=%22a+b%26c%3Dd%22"},
		{"escaped key", "/users", map[string]any{"a b": 1}, "/users?a+b=1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, EncodeCriteria(tt.url, tt.criteria))
		})
	}
}

func TestEncodeCriteria_DecodesToCompactJSON(t *testing.T) {
	criteria := map[string]any{
		"name": "Ada",
		"tags": []any{"a", "b"},
		"age":  map[string]any{"$gte": 18, "$lt": 65},
	}

	encoded := EncodeCriteria("/users", criteria)
	assert.Equal(t,
		"/users?age=%7B%22%24gte%22%3A18%2C%22%24lt%22%3A65%7D&name=%22Ada%22&tags=%5B%22a%22%2C%22b%22%5D",
		encoded)

	u, err := url.Parse(encoded)
	require.NoError(t, err)

	query := u.Query()
	assert.Equal(t, `{"$gte":18,"$lt":65}`, query.Get("age"))
	assert.Equal(t, `"Ada"`, query.Get("name"))
	assert.Equal(t, `["a","b"]`, query.Get("tags"))
}

// auditRepository overrides Save and inherits everything else.
type auditRepository struct {
	*repository.Base
	saved int
}

func (r *auditRepository) Save(ctx context.Context, e entity.Entity, opts ...request.Options) (any, error) {
	r.saved++
	return r.Base.Save(ctx, e, opts...)
}

func TestManager_Repositories(t *testing.T) {
	tr := &recorder{}

	repos := service.NewRegistry[repository.Factory]()
	repos.RegisterInstance("audit", func(cfg repository.Config) repository.Repository {
		return &auditRepository{Base: repository.NewBase(cfg)}
	})

	catalog := entity.NewCatalog(entity.Kind{Name: "user", Repository: "audit"})

	m := New(tr, WithRepositories(repos), WithCatalog(catalog), WithLogger(quietLogger()))

	repo, err := m.RepositoryFor("user", "users")
	require.NoError(t, err)
	require.IsType(t, &auditRepository{}, repo)
	assert.Equal(t, "users", repo.EntityName())
	assert.Equal(t, "user", repo.Kind().Name)

	_, err = repo.Save(context.Background(), entity.Fields{"id": "42"})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.(*auditRepository).saved)
	assert.Equal(t, "/users/42", tr.Requests()[0].URL)

	// unknown kinds use the default kind and repository
	repo, err = m.RepositoryFor("order", "")
	require.NoError(t, err)
	assert.Equal(t, "order", repo.EntityName())
	assert.Equal(t, entity.DefaultKind.Name, repo.Kind().Name)

	repo, err = m.Repository(entity.DefaultRepository, "posts")
	require.NoError(t, err)
	assert.Equal(t, "/posts/1", repo.BuildURL("1"))

	_, err = m.Repository("missing", "posts")
	assert.ErrorIs(t, err, service.ErrUnknown)

	repos.RegisterInstance("nil", nil)
	_, err = m.Repository("nil", "posts")
	assert.ErrorIs(t, err, ErrInvalidRepository)
}

func TestManager_RepositoryUsesCache(t *testing.T) {
	tr := &recorder{reply: func(*transport.Request) (*transport.Response, error) {
		return &transport.Response{Status: http.StatusOK, Data: map[string]any{"id": "1"}}, nil
	}}
	tags := cache.New()
	defer tags.Close()

	m := New(tr, WithCache(tags), WithLogger(quietLogger()))

	repo, err := m.Repository(entity.DefaultRepository, "users")
	require.NoError(t, err)

	_, err = repo.Find(context.Background(), "1")
	require.NoError(t, err)
	_, err = repo.Find(context.Background(), "1")
	require.NoError(t, err)

	assert.Len(t, tr.Requests(), 1)
}

func TestManager_Convert(t *testing.T) {
	type user struct{ *entity.Base }

	catalog := entity.NewCatalog(entity.Kind{
		Name: "user",
		New:  func(init entity.Fields) entity.Entity { return user{entity.New(init)} },
	})
	m := New(&recorder{}, WithCatalog(catalog), WithLogger(quietLogger()))

	converted := m.Convert(map[string]any{"id": "1"}, "user")
	require.IsType(t, user{}, converted)

	data := map[string]any{"id": "1"}
	assert.Equal(t, data, m.Convert(data, "unknown"))
	assert.Equal(t, "text", m.Convert("text", "user"))
}

func TestManager_Transform(t *testing.T) {
	m := New(&recorder{}, WithLogger(quietLogger()))
	m.Transformers().RegisterFunc("upper", func(v any) (any, error) { return strings.ToUpper(v.(string)), nil })

	out, err := m.Transform("upper", "a")
	require.NoError(t, err)
	assert.Equal(t, "A", out)

	out, err = m.ReverseTransform("upper missing", "a")
	require.NoError(t, err)
	assert.Equal(t, "A", out)
}

func TestManager_Metrics(t *testing.T) {
	fail := errors.New("down")
	tr := &recorder{reply: func(req *transport.Request) (*transport.Response, error) {
		if req.Method == http.MethodDelete {
			return nil, fail
		}

		return &transport.Response{Status: http.StatusOK}, nil
	}}

	reg := prometheus.NewRegistry()
	m := New(tr, WithMetrics(reg), WithLogger(quietLogger()))

	_, _ = m.Get(context.Background(), request.Options{URL: "/a"})
	_, _ = m.Get(context.Background(), request.Options{URL: "/b"})
	_, _ = m.Delete(context.Background(), request.Options{URL: "/a"})
	_, _ = m.Get(context.Background(), request.Options{})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.metrics.requests.WithLabelValues("GET", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.metrics.requests.WithLabelValues("DELETE", "error")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.metrics.requests))

	// a second manager on the same registry shares the collectors
	other := New(tr, WithMetrics(reg), WithLogger(quietLogger()))
	_, _ = other.Get(context.Background(), request.Options{URL: "/a"})
	assert.Equal(t, 3.0, testutil.ToFloat64(m.metrics.requests.WithLabelValues("GET", "success")))
}

func TestManager_EndToEnd(t *testing.T) {
	var (
		mu    sync.Mutex
		seen  []string
		store = map[string]map[string]any{
			"1": {"_id": map[string]any{"$oid": "1"}, "full_name": "Ada"},
			"2": {"_id": map[string]any{"$oid": "2"}, "full_name": "Grace"},
		}
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Method+" "+r.URL.RequestURI())
		mu.Unlock()

		id := strings.TrimPrefix(r.URL.Path, "/api/users/")

		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/users":
			_ = json.NewEncoder(w).Encode([]any{store["1"]})
		case r.Method == http.MethodGet:
			_ = json.NewEncoder(w).Encode(store[id])
		case r.Method == http.MethodDelete && id == "2":
			w.WriteHeader(http.StatusConflict)
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer srv.Close()

	userSchema, err := schema.Parse([]byte(`
response:
  __copy: [_id]
  name: full_name
request:
  full_name: name
`))
	require.NoError(t, err)

	reg := transform.NewRegistry(nil)
	reg.Register("user", schema.NewMapper(userSchema))

	m := New(transport.NewHTTP(), WithEndpoint(srv.URL+"/api"), WithTransformers(reg), WithLogger(quietLogger()))

	users, err := m.Repository(entity.DefaultRepository, "users")
	require.NoError(t, err)

	withSchema := request.Options{RequestTransformer: "user", ResponseTransformer: "user"}

	u, err := users.Find(context.Background(), "1", withSchema)
	require.NoError(t, err)
	assert.Equal(t, "Ada", u.Fields()["name"])

	id, ok := entity.IDString(u)
	require.True(t, ok)
	assert.Equal(t, "1", id)

	found, err := users.FindOneBy(context.Background(), map[string]any{"name": "Ada"}, withSchema)
	require.NoError(t, err)
	assert.Equal(t, "Ada", found.Fields()["name"])

	res := users.Remove(context.Background(), []entity.Entity{
		entity.Fields{"id": "1"},
		entity.Fields{"id": "2"},
		entity.Fields{"name": "no id"},
	})
	assert.Equal(t, 2, res.Len())
	assert.Len(t, res.Succeeded, 1)
	assert.Len(t, res.Failed, 1)

	mu.Lock()
	defer mu.Unlock()

	assert.Contains(t, seen, "GET /api/users/1")
	assert.Contains(t, seen, "GET /api/users?l=1&name=%22Ada%22")
	assert.Contains(t, seen, "DELETE /api/users/2")
}
