package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompensatorUnwindsInReverseOrder(t *testing.T) {
	var order []int
	c := &compensator{}
	c.push(func(context.Context) error { order = append(order, 1); return nil })
	c.push(func(context.Context) error { order = append(order, 2); return nil })
	c.push(func(context.Context) error { order = append(order, 3); return nil })

	c.unwind(context.Background())

	require.Equal(t, []int{3, 2, 1}, order)
}

func TestCompensatorContinuesAfterFailure(t *testing.T) {
	var ran []int
	c := &compensator{}
	c.push(func(context.Context) error { ran = append(ran, 1); return nil })
	c.push(func(context.Context) error { ran = append(ran, 2); return errors.New("boom") })
	c.push(func(context.Context) error { ran = append(ran, 3); return nil })

	c.unwind(context.Background())

	require.Equal(t, []int{3, 2, 1}, ran)
}
