package mocks

import (
	"context"

	"github.com/aaravmahajanofficial/juicebar-storefront/internal/models"
	"github.com/stretchr/testify/mock"
)

type AuthBackend struct {
	mock.Mock
}

func NewAuthBackend(t interface {
	mock.TestingT
	Cleanup(func())
}) *AuthBackend {
	m := &AuthBackend{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *AuthBackend) Login(ctx context.Context, emailOrPhone, password string) (*models.Session, error) {
	args := m.Called(ctx, emailOrPhone, password)

	var session *models.Session
	if v := args.Get(0); v != nil {
		session = v.(*models.Session)
	}

	return session, args.Error(1)
}
