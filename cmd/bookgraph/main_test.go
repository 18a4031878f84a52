package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hanpama/bookgraph/internal/eventbus"
)

func runCmd(t *testing.T, stdin string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err = run(args, strings.NewReader(stdin), &out, &errOut)
	return out.String(), errOut.String(), err
}

func TestHelp(t *testing.T) {
	out, _, err := runCmd(t, "", "help")
	require.NoError(t, err)
	require.Contains(t, out, "print-schema")

	out, _, err = runCmd(t, "", "help", "serve")
	require.NoError(t, err)
	require.Contains(t, out, "-graph.strict-author-refs")

	_, _, err = runCmd(t, "", "help", "nope")
	require.EqualError(t, err, `unknown help topic "nope"`)
}

func TestUnknownCommand(t *testing.T) {
	_, stderr, err := runCmd(t, "")
	require.EqualError(t, err, "missing command")
	require.Contains(t, stderr, "USAGE")

	_, _, err = runCmd(t, "", "compile")
	require.EqualError(t, err, `unknown command "compile"`)
}

func TestPrintSchema(t *testing.T) {
	out, _, err := runCmd(t, "", "print-schema")
	require.NoError(t, err)
	require.Contains(t, out, "addBook(name: String!, authorId: Int!): Book!")

	path := filepath.Join(t.TempDir(), "schema.graphql")
	_, _, err = runCmd(t, "", "print-schema", "-out", path)
	require.NoError(t, err)
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, out, string(b))
}

func TestQuery(t *testing.T) {
	out, _, err := runCmd(t, "", "query", `{ author(name: "Brent Weeks") { books { name } } }`)
	require.NoError(t, err)
	require.JSONEq(t, `{"data":{"author":{"books":[{"name":"The Way of Shadows"},{"name":"Beyond the Shadows"}]}}}`, out)

	out, _, err = runCmd(t, `mutation Add($n: String!) { addAuthor(name: $n) { id books { id } } }`,
		"query", "-variables", `{"n":"K"}`, "-operation", "Add", "-")
	require.NoError(t, err)
	require.JSONEq(t, `{"data":{"addAuthor":{"id":4,"books":[]}}}`, out)
}

func TestQuerySeedAndErrors(t *testing.T) {
	seed := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(seed, []byte(`
authors:
  - {id: 1, name: J}
books:
  - {id: 1, name: B1, authorId: 1}
`), 0644))

	out, _, err := runCmd(t, "", "query", "-store.seed", seed, "-store.driver", "sqlite", `{ books { name author { name } } }`)
	require.NoError(t, err)
	require.JSONEq(t, `{"data":{"books":[{"name":"B1","author":{"name":"J"}}]}}`, out)

	out, _, err = runCmd(t, "", "query", "-store.seed", seed, `mutation { addBook(name: "X", authorId: 9) { id } }`)
	require.EqualError(t, err, "query returned 1 error(s)")
	require.Contains(t, out, "BAD_USER_INPUT")

	out, _, err = runCmd(t, "", "query", "-store.seed", seed, "-graph.strict-author-refs=false",
		`mutation { addBook(name: "X", authorId: 9) { id author { name } } }`)
	require.NoError(t, err)
	require.JSONEq(t, `{"data":{"addBook":{"id":2,"author":null}}}`, out)

	_, _, err = runCmd(t, "", "query")
	require.EqualError(t, err, "expected exactly one document argument")

	_, _, err = runCmd(t, "", "query", "-store.driver", "postgres", "{ books { id } }")
	require.EqualError(t, err, `unknown store driver "postgres"`)
}

func TestParseServeFlags(t *testing.T) {
	cfg, err := parseServeFlags(nil)
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.addr)
	require.Equal(t, 10*time.Second, cfg.timeout)
	require.True(t, cfg.store.strictRefs)
	require.True(t, cfg.introspection)

	cfg, err = parseServeFlags([]string{
		"-server.addr", ":9090",
		"-server.cors", "http://a.example", "-server.cors", "http://b.example",
		"-graph.strict-author-refs=false",
		"-graphql.introspection=false",
		"-store.driver", "sqlite",
	})
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.addr)
	require.Equal(t, stringListFlag{"http://a.example", "http://b.example"}, cfg.cors)
	require.False(t, cfg.store.strictRefs)
	require.False(t, cfg.introspection)
	require.Equal(t, "sqlite", cfg.store.driver)

	_, err = parseServeFlags([]string{"extra"})
	require.Error(t, err)
}

func TestServeMux(t *testing.T) {
	eventbus.Use(eventbus.New())
	t.Cleanup(func() { eventbus.Use(nil) })

	cfg, err := parseServeFlags([]string{"-graphql.introspection=false"})
	require.NoError(t, err)
	mux, cleanup, err := newMux(context.Background(), cfg)
	require.NoError(t, err)
	defer cleanup()

	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/graphql", "application/json",
		strings.NewReader(`{"query":"mutation { addAuthor(name: \"K\") { id } }"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get("X-Request-Id"))

	resp, err = http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	var body bytes.Buffer
	_, _ = body.ReadFrom(resp.Body)
	resp.Body.Close()
	require.Contains(t, body.String(), `bookgraph_entities_created_total{kind="Author"} 1`)
	require.Contains(t, body.String(), `bookgraph_graphql_operations_total{type="mutation"} 1`)
}
