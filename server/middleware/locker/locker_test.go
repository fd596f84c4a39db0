package locker_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/osastro/efw-server/generichttp"
	"github.com/osastro/efw-server/server/middleware/locker"
)

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestCheckBouncesWhileLocked(t *testing.T) {
	l := locker.New()
	hndl := l.Check(http.HandlerFunc(okHandler))

	w := httptest.NewRecorder()
	hndl.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/slot", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 while unlocked, got %d", w.Code)
	}

	l.Lock()
	w = httptest.NewRecorder()
	hndl.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/slot", nil))
	if w.Code != http.StatusLocked {
		t.Fatalf("expected 423 while locked, got %d", w.Code)
	}

	// the lock routes themselves stay reachable, otherwise nobody could
	// ever unlock
	w = httptest.NewRecorder()
	hndl.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/lock", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for the lock route, got %d", w.Code)
	}

	l.Unlock()
	w = httptest.NewRecorder()
	hndl.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/slot", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 after unlock, got %d", w.Code)
	}
}

func TestHTTPSetAndGet(t *testing.T) {
	l := locker.New()
	set := locker.HTTPSet(l)
	get := locker.HTTPGet(l)

	w := httptest.NewRecorder()
	set(w, httptest.NewRequest(http.MethodPost, "/lock", strings.NewReader(`{"bool": true}`)))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !l.Locked() {
		t.Fatal("expected the locker to be locked")
	}

	w = httptest.NewRecorder()
	get(w, httptest.NewRequest(http.MethodGet, "/lock", nil))
	if !strings.Contains(w.Body.String(), "true") {
		t.Errorf("expected a true payload, got %q", w.Body.String())
	}
}

func TestInjectAddsLockRoutes(t *testing.T) {
	rt := generichttp.RouteTable{}
	holder := rtHolder{rt: rt}
	locker.Inject(holder, locker.New())
	endpts := strings.Join(rt.Endpoints(), "\n")
	if !strings.Contains(endpts, "GET /lock") || !strings.Contains(endpts, "POST /lock") {
		t.Errorf("expected lock routes to be injected, got %v", rt.Endpoints())
	}
}

type rtHolder struct {
	rt generichttp.RouteTable
}

func (r rtHolder) RT() generichttp.RouteTable { return r.rt }
