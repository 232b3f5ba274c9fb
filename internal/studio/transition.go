// internal/studio/transition.go
package studio

import (
	"errors"
	"fmt"

	"github.com/merchstudio/photostudio-backend/internal/models"
)

var ErrIllegalTransition = errors.New("illegal image state transition")

// StateSet is the set of lifecycle states a transition may start from.
type StateSet map[models.ImageState]struct{}

func States(states ...models.ImageState) StateSet {
	set := make(StateSet, len(states))
	for _, s := range states {
		set[s] = struct{}{}
	}
	return set
}

// AnyExcept builds the complement set of the given states.
func AnyExcept(excluded ...models.ImageState) StateSet {
	skip := States(excluded...)
	set := make(StateSet, len(models.AllImageStates))
	for _, s := range models.AllImageStates {
		if _, ok := skip[s]; ok {
			continue
		}
		set[s] = struct{}{}
	}
	return set
}

func (s StateSet) Contains(state models.ImageState) bool {
	_, ok := s[state]
	return ok
}

// Transition moves the record with the given id into a new lifecycle state,
// but only when its current state is in the allowed set. Every lifecycle
// operation funnels state changes through here so an illegal move fails
// loudly instead of silently clobbering a concurrent operation's state.
func (c *Collection) Transition(id string, from StateSet, to models.ImageState) error {
	idx := c.index(id)
	if idx < 0 {
		return ErrImageNotFound
	}

	current := c.images[idx].ImageState
	if !from.Contains(current) {
		return fmt.Errorf("%w: %q -> %q for image %s", ErrIllegalTransition, current, to, id)
	}

	c.images[idx].ImageState = to
	return nil
}
