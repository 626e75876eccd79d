package mock

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var clockStart = time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

func TestFixedClock(t *testing.T) {
	clock := FixedClock(clockStart)
	assert.Equal(t, clockStart, clock())
	assert.Equal(t, clockStart, clock())
}

func TestSteppingClock(t *testing.T) {
	clock := SteppingClock(clockStart, time.Minute)
	assert.Equal(t, clockStart, clock())
	assert.Equal(t, clockStart.Add(time.Minute), clock())
	assert.Equal(t, clockStart.Add(2*time.Minute), clock())
}

func TestSteppingClock_Concurrent(t *testing.T) {
	clock := SteppingClock(clockStart, time.Second)

	var wg sync.WaitGroup
	seen := make(chan time.Time, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seen <- clock()
		}()
	}
	wg.Wait()
	close(seen)

	unique := make(map[time.Time]bool)
	for ts := range seen {
		unique[ts] = true
	}
	assert.Len(t, unique, 50)
	assert.Equal(t, clockStart.Add(50*time.Second), clock())
}

func TestServer_SteppingClock(t *testing.T) {
	server, err := NewServer(Config{Routes: []RouteConfig{{
		Path:      "/api/now",
		Responses: []RouteResponse{{Body: map[string]interface{}{"at": "{{ now }}"}}},
	}}}, WithClock(SteppingClock(clockStart, time.Hour)))
	if !assert.NoError(t, err) {
		return
	}

	first := serveOnce(server, "/api/now")
	second := serveOnce(server, "/api/now")
	assert.JSONEq(t, `{"at":"2024-01-15T10:00:00Z"}`, first)
	assert.JSONEq(t, `{"at":"2024-01-15T11:00:00Z"}`, second)
}

func serveOnce(server *Server, path string) string {
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec.Body.String()
}
