package testutil

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

// GDPPage is a trimmed copy of the GDP list page: two unrelated table bodies
// come before the data table, which holds a header row, an unlinked aggregate
// row, a row without data and two country rows.
const GDPPage = `<!DOCTYPE html>
<html>
<head><title>List of countries by GDP (nominal)</title></head>
<body>
<table class="infobox"><tbody><tr><td>Largest economies by nominal GDP</td></tr></tbody></table>
<table class="sidebar"><tbody><tr><td><a href="/wiki/International_Monetary_Fund">IMF</a></td></tr></tbody></table>
<table class="wikitable sortable">
<caption>GDP (US$ million) by country</caption>
<tbody>
<tr><th>Country/Territory</th><th>UN region</th><th>IMF estimate</th><th>Year</th></tr>
<tr><td>World</td><td>—</td><td>105,568,776</td><td>2023</td></tr>
<tr><td><span class="flagicon"><img src="us.png"></span>&nbsp;<a href="/wiki/United_States" title="United States">United States</a></td><td>Americas</td><td>26,854,599<sup>[n 1]</sup></td><td>2023</td></tr>
<tr><td><a href="/wiki/Nowhere">Nowhere</a></td><td>Asia</td><td>—</td><td>—</td></tr>
<tr><td><a href="/wiki/Country_X">Country X</a></td><td>Europe</td><td>1,200</td><td>2023</td></tr>
</tbody>
</table>
</body>
</html>`

// ServePage starts a server answering every request with body as HTML. It is
// closed when the test ends.
func ServePage(t testing.TB, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

// ServeStatus starts a server answering every request with status.
func ServeStatus(t testing.TB, status int) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)
	return server
}

// OpenSqlite opens the sqlite database at path for inspection, relative paths
// are resolved against a fresh temporary directory.
func OpenSqlite(t testing.TB, path string) *sql.DB {
	t.Helper()
	if !filepath.IsAbs(path) {
		path = filepath.Join(t.TempDir(), path)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
