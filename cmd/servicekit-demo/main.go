// Command servicekit-demo wires the kit end to end: providers seed a
// container, the ambient locator exposes it, and chi handlers resolve their
// services through it instead of receiving them as arguments.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	servicekit "github.com/km-arc/go-servicekit"
	"github.com/km-arc/go-servicekit/cache"
	"github.com/km-arc/go-servicekit/config"
	"github.com/km-arc/go-servicekit/container"
	"github.com/km-arc/go-servicekit/logging"
	"github.com/km-arc/go-servicekit/mode"
	"github.com/km-arc/go-servicekit/provider"
)

// demoServer tags the demo's log output.
type demoServer struct{}

func main() {
	cfg := config.Load()
	cfg.Log.Console = true // request logs should be visible in a demo

	c := container.New()
	provider.Apply(c, provider.Defaults(cfg)...)
	container.RegisterLazy(c, newUserDirectory)
	container.RegisterConstant(c, cache.NewExpiring[statusReport](5*time.Second, time.Minute))

	servicekit.SetCurrent(c)

	started := time.Now()

	r := chi.NewRouter()
	r.Use(requestLogger)

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"message": "Welcome to servicekit!"})
	})

	r.Get("/status", statusHandler(started))
	r.Get("/services", listServices)

	r.Route("/users", func(api chi.Router) {
		api.Get("/", listUsers)
		api.Post("/", createUser)
		api.Get("/{id}", showUser)
	})

	addr := config.Get("SERVICEKIT_DEMO_ADDR", ":8000")
	fmt.Printf("servicekit demo running on http://localhost%s\n", addr)

	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

// ── Middleware ────────────────────────────────────────────────────────────────

// requestLogger tags every request with an id and logs it through the
// locator's log manager.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-ID", id)

		servicekit.LoggerFor[demoServer]().Infof("%s %s [%s]", req.Method, req.URL.Path, id)
		next.ServeHTTP(w, req)
	})
}

// ── Handlers ──────────────────────────────────────────────────────────────────

func listUsers(w http.ResponseWriter, req *http.Request) {
	dir := servicekit.MustGet[*userDirectory]()
	writeJSON(w, http.StatusOK, dir.List())
}

func showUser(w http.ResponseWriter, req *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(req, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "id must be numeric"})
		return
	}

	dir := servicekit.MustGet[*userDirectory]()
	u, ok := dir.Find(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "user not found"})
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func createUser(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}

	body.Name = strings.TrimSpace(body.Name)
	if len(body.Name) < 2 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"errors": map[string][]string{"name": {"must be at least 2 characters"}},
		})
		return
	}

	dir := servicekit.MustGet[*userDirectory]()
	writeJSON(w, http.StatusCreated, dir.Add(body.Name))
}

// statusHandler serves a snapshot that is rebuilt at most once per cache TTL.
func statusHandler(started time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		reports := servicekit.MustGet[*cache.Expiring[statusReport]]()

		report, ok := reports.Get("current")
		if !ok {
			dir := servicekit.MustGet[*userDirectory]()
			report = statusReport{
				Users:         len(dir.List()),
				UptimeSeconds: int64(time.Since(started).Seconds()),
				GeneratedAt:   time.Now().UTC(),
			}
			reports.Set("current", report)
		}
		writeJSON(w, http.StatusOK, report)
	}
}

// listServices reports which services the ambient resolver currently
// knows about.
func listServices(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{
		"config":       servicekit.Has[*config.Config](),
		"logger":       servicekit.Has[logging.Logger](),
		"log_manager":  servicekit.Has[logging.Manager](),
		"mode":         servicekit.Has[mode.Detector](),
		"users":        servicekit.Has[*userDirectory](),
		"status_cache": servicekit.Has[*cache.Expiring[statusReport]](),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ── Demo services ─────────────────────────────────────────────────────────────

type user struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type statusReport struct {
	Users         int       `json:"users"`
	UptimeSeconds int64     `json:"uptime_seconds"`
	GeneratedAt   time.Time `json:"generated_at"`
}

// userDirectory is the demo's in-memory "database".
type userDirectory struct {
	mu    sync.Mutex
	next  int
	users map[int]string
}

func newUserDirectory() *userDirectory {
	return &userDirectory{
		next:  3,
		users: map[int]string{1: "Alice", 2: "Bob"},
	}
}

func (d *userDirectory) List() []user {
	d.mu.Lock()
	defer d.mu.Unlock()

	ids := make([]int, 0, len(d.users))
	for id := range d.users {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	out := make([]user, 0, len(ids))
	for _, id := range ids {
		out = append(out, user{ID: id, Name: d.users[id]})
	}
	return out
}

func (d *userDirectory) Find(id int) (user, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	name, ok := d.users[id]
	return user{ID: id, Name: name}, ok
}

func (d *userDirectory) Add(name string) user {
	d.mu.Lock()
	defer d.mu.Unlock()
	u := user{ID: d.next, Name: name}
	d.users[u.ID] = name
	d.next++
	return u
}
