// Package locker provides an HTTP middleware which allows a route tree to be
// locked, returning 423 (locked) to everything except an allowlist.  The
// underlying device libraries have no per-device locking, so a client that
// needs exclusive use of a wheel takes the lock, works, and releases it.
package locker

import (
	"encoding/json"
	"go/types"
	"net/http"
	"strings"

	"github.com/osastro/efw-server/generichttp"
)

// ManipulableLock can be locked and unlocked over HTTP and can wrap
// handlers in a gate that enforces the lock
type ManipulableLock interface {
	// Lock the lock
	Lock()

	// Unlock the lock
	Unlock()

	// Locked returns true if the lock is held
	Locked() bool

	// Check is a middleware that bounces requests while the lock is held
	Check(http.Handler) http.Handler
}

// Inject adds a lock route to an HTTPer which is used to manipulate the lock
func Inject(other generichttp.HTTPer, l ManipulableLock) {
	rt := other.RT()
	rt[generichttp.MethodPath{Method: http.MethodGet, Path: "/lock"}] = HTTPGet(l)
	rt[generichttp.MethodPath{Method: http.MethodPost, Path: "/lock"}] = HTTPSet(l)
}

// Locker is a type which behaves like a sync.Mutex without the blocking,
// and holds a list of path fragments to not protect
type Locker struct {
	isLocked bool

	// DoNotProtect is a list of path fragments the lock does not apply to
	DoNotProtect []string
}

// New returns a new Locker with DoNotProtect prepopulated with "lock"
func New() *Locker {
	return &Locker{DoNotProtect: []string{"lock"}}
}

// Lock the locker
func (l *Locker) Lock() {
	l.isLocked = true
}

// Unlock the locker
func (l *Locker) Unlock() {
	l.isLocked = false
}

// Locked returns true if the locker is locked
func (l *Locker) Locked() bool {
	return l.isLocked
}

// Check is an HTTP middleware that returns http.StatusLocked if Locked() is
// true, otherwise passes down the line
func (l *Locker) Check(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l.Locked() {
			protected := true
			url := r.URL.Path
			for _, str := range l.DoNotProtect {
				if strings.Contains(url, str) {
					protected = false
				}
			}
			if protected {
				w.WriteHeader(http.StatusLocked)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// HTTPSet returns a handler func that calls Lock or Unlock based on
// json:bool on the request body
func HTTPSet(l ManipulableLock) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b := generichttp.BoolT{}
		err := json.NewDecoder(r.Body).Decode(&b)
		defer r.Body.Close()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if b.Bool {
			l.Lock()
		} else {
			l.Unlock()
		}
		w.WriteHeader(http.StatusOK)
	}
}

// HTTPGet returns a handler func that reports Locked() as JSON
func HTTPGet(l ManipulableLock) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hp := generichttp.HumanPayload{T: types.Bool, Bool: l.Locked()}
		hp.EncodeAndRespond(w, r)
	}
}
