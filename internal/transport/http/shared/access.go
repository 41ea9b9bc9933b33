package shared

import (
	"context"
	"errors"

	"chancehr/internal/domain/employee"
	"chancehr/internal/requestctx"
)

var ErrForbidden = errors.New("not allowed to access this resource")

type ProfileGetter interface {
	Get(ctx context.Context, employeeID string) (employee.Profile, error)
}

// AuthorizeEmployee loads the employee the actor wants to act on. Owners reach every employee of their
// workplace; employees reach only themselves.
func AuthorizeEmployee(ctx context.Context, profiles ProfileGetter, actor requestctx.Actor, employeeID string) (employee.Profile, error) {
	if !actor.IsOwner() && employeeID != actor.EmployeeID {
		return employee.Profile{}, ErrForbidden
	}
	profile, err := profiles.Get(ctx, employeeID)
	if err != nil {
		return employee.Profile{}, err
	}
	if profile.WorkplaceID != actor.WorkplaceID {
		return employee.Profile{}, ErrForbidden
	}
	return profile, nil
}

// AuthorizeWorkplace admits owners of the given workplace.
func AuthorizeWorkplace(actor requestctx.Actor, workplaceID string) error {
	if !actor.IsOwner() || actor.WorkplaceID != workplaceID {
		return ErrForbidden
	}
	return nil
}
