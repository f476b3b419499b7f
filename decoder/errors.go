package decoder

import (
	"errors"
	"fmt"
)

var errMissingFactory = errors.New("decoder: transform and card factories are required")

func wrap(op string, err error) error {
	return fmt.Errorf("decoder: %s: %w", op, err)
}
