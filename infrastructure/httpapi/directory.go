package httpapi

import (
	"sync"

	"github.com/batsdk/wowclass-enlace/auth"
	"github.com/batsdk/wowclass-enlace/contract"
	"github.com/batsdk/wowclass-enlace/errors"
)

// Account is one credential entry. Identifier is the teacher's email or
// the student's username.
type Account struct {
	UserID     string
	Identifier string
	Name       string
	Role       string
	Hash       string
}

// Directory is the in-memory credential store backing the login
// endpoint. Accounts are keyed per role so a teacher email and a
// student username never collide.
type Directory struct {
	mu       sync.RWMutex
	accounts map[string]Account
}

func NewDirectory() *Directory {
	return &Directory{accounts: make(map[string]Account)}
}

func key(role, identifier string) string {
	return role + "/" + identifier
}

// Register stores an account with the given plain text password.
func (d *Directory) Register(userID, identifier, name, role, password string) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.accounts[key(role, identifier)] = Account{
		UserID:     userID,
		Identifier: identifier,
		Name:       name,
		Role:       role,
		Hash:       hash,
	}
	return nil
}

// Authenticate resolves an identifier/password pair to an identity.
// Lookup misses and wrong passwords return the same error so the
// response never reveals which half failed.
func (d *Directory) Authenticate(role, identifier, password string) (contract.Identity, error) {
	d.mu.RLock()
	acc, ok := d.accounts[key(role, identifier)]
	d.mu.RUnlock()
	if !ok {
		return contract.Identity{}, errors.ErrInvalidCredentials
	}
	match, err := auth.ComparePassword(password, acc.Hash)
	if err != nil || !match {
		return contract.Identity{}, errors.ErrInvalidCredentials
	}
	return contract.Identity{SubjectID: acc.UserID, Role: acc.Role, Name: acc.Name}, nil
}
