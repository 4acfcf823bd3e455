package store

import (
	"context"
	"sync"

	"github.com/kevinaaaquil/bookshelf/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Memory is an in-process user store with the same semantics as DB. Every
// operation holds the lock for its whole read-modify-write, which gives the same
// per-document atomicity Mongo provides for $push and $pull.
type Memory struct {
	mu      sync.Mutex
	users   map[primitive.ObjectID]*models.User
	byEmail map[string]primitive.ObjectID
}

func NewMemory() *Memory {
	return &Memory{
		users:   make(map[primitive.ObjectID]*models.User),
		byEmail: make(map[string]primitive.ObjectID),
	}
}

func (m *Memory) UserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byEmail[email]
	if !ok {
		return nil, nil
	}
	return cloneUser(m.users[id]), nil
}

func (m *Memory) UserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return cloneUser(u), nil
}

func (m *Memory) CreateUser(_ context.Context, user *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byEmail[user.Email]; exists {
		return nil, ErrDuplicateEmail
	}
	u := cloneUser(user)
	u.ID = primitive.NewObjectID()
	m.users[u.ID] = u
	m.byEmail[u.Email] = u.ID
	return cloneUser(u), nil
}

func (m *Memory) AddSavedBook(_ context.Context, userID primitive.ObjectID, book models.SavedBook) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, nil
	}
	for _, b := range u.SavedBooks {
		if b.BookID == book.BookID {
			return cloneUser(u), nil
		}
	}
	u.SavedBooks = append(u.SavedBooks, cloneBook(book))
	return cloneUser(u), nil
}

func (m *Memory) RemoveSavedBook(_ context.Context, userID primitive.ObjectID, bookID string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, nil
	}
	kept := u.SavedBooks[:0]
	for _, b := range u.SavedBooks {
		if b.BookID != bookID {
			kept = append(kept, b)
		}
	}
	u.SavedBooks = kept
	return cloneUser(u), nil
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.SavedBooks = make([]models.SavedBook, 0, len(u.SavedBooks))
	for _, b := range u.SavedBooks {
		c.SavedBooks = append(c.SavedBooks, cloneBook(b))
	}
	return &c
}

func cloneBook(b models.SavedBook) models.SavedBook {
	if b.Authors != nil {
		b.Authors = append([]string(nil), b.Authors...)
	} else {
		b.Authors = []string{}
	}
	return b
}
