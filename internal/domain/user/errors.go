package user

import (
	"fmt"

	apperrors "user-management-service/pkg/errors"
)

// NotFoundByID is the error every store returns for an unknown user id.
func NotFoundByID(id int64) error {
	return apperrors.NewNotFoundError("user", fmt.Sprintf("User not found with id: %d", id))
}
