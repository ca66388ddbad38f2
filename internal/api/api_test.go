package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/erilali/roomrelay/internal/hub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nullSender struct{}

func (nullSender) Send([]byte) error { return nil }
func (nullSender) Open() bool        { return true }
func (nullSender) Close()            {}

func newTestServer(t *testing.T, staticDir string) (*hub.Hub, *httptest.Server) {
	t.Helper()
	h := hub.NewHub(hub.Options{})
	srv := httptest.NewServer(NewServer(h, nil, nil, nil).Routes(staticDir))
	t.Cleanup(srv.Close)
	return h, srv
}

func getJSON(t *testing.T, url string, into any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusOK {
		assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(resp.Body).Decode(into))
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	h, srv := newTestServer(t, "")
	_, err := h.Join(nullSender{}, "abc", "c1", false)
	require.NoError(t, err)

	var body struct {
		Status string         `json:"status"`
		Nats   string         `json:"nats"`
		Stats  map[string]int `json:"stats"`
		Uptime string         `json:"uptime"`
	}
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/health", &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "disabled", body.Nats)
	assert.Equal(t, 1, body.Stats["rooms"])
	assert.Equal(t, 1, body.Stats["sessions"])
	assert.NotEmpty(t, body.Uptime)
}

func TestRooms(t *testing.T) {
	h, srv := newTestServer(t, "")
	s, err := h.Join(nullSender{}, "abc", "c1", false)
	require.NoError(t, err)
	_, err = h.Join(nullSender{}, "xyz", "c2", false)
	require.NoError(t, err)

	var list struct {
		Rooms []hub.RoomInfo `json:"rooms"`
		Count int            `json:"count"`
	}
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/rooms", &list))
	assert.Equal(t, 2, list.Count)
	require.Len(t, list.Rooms, 2)
	assert.Equal(t, "ABC", list.Rooms[0].Code)
	assert.Equal(t, s.Username(), list.Rooms[0].Members[0].Username)

	var room hub.RoomInfo
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/rooms/abc", &room))
	assert.Equal(t, "ABC", room.Code)
	assert.False(t, room.SpecialStatusActive)

	assert.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/api/rooms/nope", nil))

	h.Leave(s, true)
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/rooms", &list))
	assert.Equal(t, 1, list.Count)
}

func TestStaticDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>relay</h1>"), 0o644))
	_, srv := newTestServer(t, dir)

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "relay")
}

func TestNoStaticDir(t *testing.T) {
	_, srv := newTestServer(t, "")
	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
