package session

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"tradepost/internal/domain"
	"tradepost/internal/store"
)

var ErrBadCreds = errors.New("invalid user or password")

type Auth struct {
	Users *store.UserStore
}

func (a *Auth) Login(userID, password string) (*domain.User, error) {
	u, err := a.Users.ByID(userID)
	if err != nil {
		return nil, ErrBadCreds
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return nil, ErrBadCreds
	}
	return u, nil
}
