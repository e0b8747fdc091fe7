package console

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sala-api/internal/dto"
)

func TestUserBoardToggleRevertsOnFailure(t *testing.T) {
	var board *UserBoard
	var inFlight []dto.UserResponse

	mux := http.NewServeMux()
	mux.HandleFunc("/api/admin/users", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(t, w, http.StatusOK, true, "users retrieved", []dto.UserResponse{
			{ID: 1, Username: "sokha", IsActive: true},
			{ID: 2, Username: "dara", IsActive: false},
		})
	})
	mux.HandleFunc("/api/admin/users/1/status", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		inFlight = board.Users()
		writeEnvelope(t, w, http.StatusInternalServerError, false, "failed to update user status", nil)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	notifier := &recordingNotifier{}
	board = NewUserBoard(NewClient(server.URL, testLogger()), NewStore(), notifier)

	_, err := board.Load(context.Background())
	require.NoError(t, err)

	err = board.ToggleStatus(context.Background(), 1)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusInternalServerError, apiErr.Status)

	require.False(t, inFlight[0].IsActive, "toggle is applied before the request completes")
	users := board.Users()
	require.True(t, users[0].IsActive)
	require.False(t, users[1].IsActive)
	require.Len(t, notifier.errorToasts(), 1)
	require.Contains(t, notifier.errorToasts()[0], "failed to update user status")
}

func TestUserBoardToggleKeepsServerState(t *testing.T) {
	var patched dto.UserStatusRequest
	mux := http.NewServeMux()
	mux.HandleFunc("/api/admin/users", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(t, w, http.StatusOK, true, "users retrieved", []dto.UserResponse{{ID: 4, Username: "vanna", IsActive: true}})
	})
	mux.HandleFunc("/api/admin/users/4/status", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&patched))
		writeEnvelope(t, w, http.StatusOK, true, "user status updated", dto.UserResponse{ID: 4, Username: "vanna", IsActive: false})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	store := NewStore()
	notifier := &recordingNotifier{}
	board := NewUserBoard(NewClient(server.URL, testLogger()), store, notifier)
	_, err := board.Load(context.Background())
	require.NoError(t, err)
	_, cached := store.Get(usersListKey)
	require.True(t, cached)

	require.NoError(t, board.ToggleStatus(context.Background(), 4))
	require.NotNil(t, patched.IsActive)
	require.False(t, *patched.IsActive)
	require.False(t, board.Users()[0].IsActive)
	require.Empty(t, notifier.errorToasts())

	_, cached = store.Get(usersListKey)
	require.False(t, cached)

	require.Error(t, board.ToggleStatus(context.Background(), 99))
}
