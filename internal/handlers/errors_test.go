package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/coffeeshop/internal/services"
	appErrors "github.com/charlesng35/coffeeshop/pkg/errors"
)

func TestTranslateDrinkError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{err: services.ErrDrinkNotFound, status: http.StatusNotFound, code: appErrors.CodeNotFound},
		{err: fmt.Errorf("update: %w", services.ErrDrinkConflict), status: http.StatusConflict, code: appErrors.CodeConflict},
		{err: services.ErrDrinkInvalid, status: http.StatusBadRequest, code: appErrors.CodeBadRequest},
	}
	for _, tc := range cases {
		var appErr *appErrors.AppError
		require.True(t, errors.As(translateDrinkError(tc.err), &appErr))
		require.Equal(t, tc.status, appErr.StatusCode)
		require.Equal(t, tc.code, appErr.Code)
	}

	cause := errors.New("database is locked")
	var appErr *appErrors.AppError
	require.True(t, errors.As(translateDrinkError(cause), &appErr))
	require.Equal(t, http.StatusInternalServerError, appErr.StatusCode)
	require.Equal(t, "internal server error", appErr.Message)
	require.ErrorIs(t, appErr, cause)
}
