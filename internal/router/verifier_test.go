package router

import (
	"context"
	"errors"

	"firebase.google.com/go/v4/auth"
)

type rejectAll struct{}

func (rejectAll) VerifyIDToken(context.Context, string) (*auth.Token, error) {
	return nil, errors.New("rejected")
}
