package screener

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/trogers1052/stock-insights/internal/config"
)

const loginPage = `<html><body>
<form method="post" action="/login/">
<input type="hidden" name="csrfmiddlewaretoken" value="tok123">
<input name="username"><input name="password" type="password">
</form></body></html>`

const resultsPage = `<html><body><table class="data-table">
<thead><tr><th>Name</th><th>CMP</th></tr></thead>
<tbody>
<tr>
  <td><a href="/company/tcs/consolidated/">Tata Consultancy</a></td>
  <td>₹1,234.50</td><td>12,00,000</td><td>28.4</td><td>45.2</td>
  <td>0.1</td><td>2.5</td><td>12.3</td><td>9.8</td><td>IT Services</td>
</tr>
<tr>
  <td><a href="/company/INFY/">Infosys</a></td>
  <td>1500</td><td>600000</td><td>24</td><td>31</td>
  <td>0.05</td><td>2.1</td><td>-3.5</td>
</tr>
<tr><td><a href="/company/SHORT/">Short Row</a></td><td>1</td><td>2</td></tr>
</tbody></table></body></html>`

const emptyResultsPage = `<html><body><table><tbody></tbody></table></body></html>`

// fakeUpstream imitates the screening site: a CSRF-protected login form and a
// results page that requires the session cookie handed out at login.
type fakeUpstream struct {
	server *httptest.Server

	password    string
	resultsBody string
	omitCSRF    bool
	expired     atomic.Bool
	delay       time.Duration

	requests     atomic.Int32
	fetches      atomic.Int32
	mu           sync.Mutex
	lastQuery    string
	lastReferer  string
	lastCookie   string
	lastPostForm map[string]string
}

func newFakeUpstream(t *testing.T) *fakeUpstream {
	t.Helper()
	f := &fakeUpstream{password: "secret", resultsBody: resultsPage}

	mux := http.NewServeMux()
	mux.HandleFunc("/login/", func(w http.ResponseWriter, r *http.Request) {
		f.requests.Add(1)
		switch r.Method {
		case http.MethodGet:
			http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: "csrf-cookie"})
			f.mu.Lock()
			omit := f.omitCSRF
			f.mu.Unlock()
			if omit {
				w.Write([]byte("<html><body>maintenance</body></html>"))
				return
			}
			w.Write([]byte(loginPage))
		case http.MethodPost:
			r.ParseForm()
			f.mu.Lock()
			f.lastReferer = r.Header.Get("Referer")
			f.lastCookie = r.Header.Get("Cookie")
			f.lastPostForm = map[string]string{
				"username":            r.PostForm.Get("username"),
				"password":            r.PostForm.Get("password"),
				"csrfmiddlewaretoken": r.PostForm.Get("csrfmiddlewaretoken"),
			}
			f.mu.Unlock()

			if r.PostForm.Get("password") != f.password || r.PostForm.Get("csrfmiddlewaretoken") != "tok123" {
				w.Header().Set("Location", "/login/?next=/")
				w.WriteHeader(http.StatusFound)
				return
			}
			http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: "upstream-session"})
			w.Header().Set("Location", "/dash/")
			w.WriteHeader(http.StatusFound)
		}
	})
	mux.HandleFunc("/screen/raw/", func(w http.ResponseWriter, r *http.Request) {
		f.requests.Add(1)
		f.fetches.Add(1)
		f.mu.Lock()
		f.lastQuery = r.URL.RawQuery
		f.lastCookie = r.Header.Get("Cookie")
		delay, body := f.delay, f.resultsBody
		f.mu.Unlock()

		if delay > 0 {
			time.Sleep(delay)
		}
		if f.expired.Load() {
			w.Header().Set("Location", "/login/?next=/screen/raw/")
			w.WriteHeader(http.StatusFound)
			return
		}
		if c, err := r.Cookie("sessionid"); err != nil || c.Value != "upstream-session" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Write([]byte(body))
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeUpstream) client() *Client {
	return NewClient(config.ScreenerConfig{
		BaseURL:   f.server.URL + "/",
		UserAgent: "stock-insights-test",
		Timeout:   5 * time.Second,
	})
}

func (f *fakeUpstream) setResults(body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resultsBody = body
}

func (f *fakeUpstream) setDelay(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delay = d
}

func (f *fakeUpstream) setOmitCSRF() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.omitCSRF = true
}

func (f *fakeUpstream) query() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastQuery
}

func (f *fakeUpstream) cookie() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastCookie
}
