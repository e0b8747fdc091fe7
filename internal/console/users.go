package console

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/noah-isme/sala-api/internal/dto"
)

const usersListKey = "users:list"

// Notifier shows toasts to the operator.
type Notifier interface {
	Success(message string)
	Error(message string)
}

// UserBoard backs the staff list and its active toggle.
type UserBoard struct {
	client   *Client
	store    *Store
	notifier Notifier

	mu      sync.Mutex
	users   []dto.UserResponse
	pending map[uint]bool
}

// NewUserBoard constructs the board.
func NewUserBoard(client *Client, store *Store, notifier Notifier) *UserBoard {
	return &UserBoard{client: client, store: store, notifier: notifier, pending: make(map[uint]bool)}
}

// Load fetches the user list, serving it from the store when cached.
func (b *UserBoard) Load(ctx context.Context) ([]dto.UserResponse, error) {
	if cached, ok := b.store.Get(usersListKey); ok {
		users := cached.([]dto.UserResponse)
		b.replace(users)
		return b.Users(), nil
	}

	var users []dto.UserResponse
	if err := b.client.Do(ctx, http.MethodGet, "/api/admin/users", nil, nil, &users); err != nil {
		return nil, err
	}
	b.store.Set(usersListKey, users)
	b.replace(users)
	return b.Users(), nil
}

// Users returns a copy of the board state.
func (b *UserBoard) Users() []dto.UserResponse {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]dto.UserResponse(nil), b.users...)
}

// ToggleStatus flips the user's active flag locally, then persists it. On
// failure the previous value is restored and an error toast is shown. A
// second toggle for the same user is rejected while one is in flight.
func (b *UserBoard) ToggleStatus(ctx context.Context, id uint) error {
	b.mu.Lock()
	idx := b.indexOf(id)
	if idx < 0 {
		b.mu.Unlock()
		return fmt.Errorf("user %d is not loaded", id)
	}
	if b.pending[id] {
		b.mu.Unlock()
		return fmt.Errorf("user %d is already being updated", id)
	}
	previous := b.users[idx].IsActive
	b.users[idx].IsActive = !previous
	b.pending[id] = true
	b.mu.Unlock()

	var updated dto.UserResponse
	err := b.client.Do(ctx, http.MethodPatch, fmt.Sprintf("/api/admin/users/%d/status", id), nil,
		dto.UserStatusRequest{IsActive: boolPtr(!previous)}, &updated)

	b.mu.Lock()
	delete(b.pending, id)
	if idx = b.indexOf(id); idx >= 0 {
		if err != nil {
			b.users[idx].IsActive = previous
		} else {
			b.users[idx] = updated
		}
	}
	b.mu.Unlock()

	if err != nil {
		b.notifier.Error(fmt.Sprintf("Failed to update user status: %s", err.Error()))
		return err
	}

	b.store.Invalidate("users")
	b.notifier.Success("User status updated")
	return nil
}

func (b *UserBoard) replace(users []dto.UserResponse) {
	b.mu.Lock()
	b.users = append([]dto.UserResponse(nil), users...)
	b.mu.Unlock()
}

func (b *UserBoard) indexOf(id uint) int {
	for i, u := range b.users {
		if u.ID == id {
			return i
		}
	}
	return -1
}

func boolPtr(v bool) *bool {
	return &v
}
