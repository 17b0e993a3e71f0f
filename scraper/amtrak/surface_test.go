package amtrak

import (
	"context"
	"errors"
	"testing"

	"amtrak-price-tracker/config"
	"amtrak-price-tracker/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenTabRestartsDeadBrowser(t *testing.T) {
	c := NewController(&config.Config{}, utils.NewNopLogger())
	c.browserCtx = context.Background()
	stopped := false
	c.browserCancel = func() { stopped = true }

	launches, tabs := 0, 0
	c.launch = func() error {
		launches++
		return nil
	}
	c.newTab = func() (*Surface, error) {
		tabs++
		if tabs == 1 {
			return nil, errors.New("websocket: close 1006")
		}
		return &Surface{}, nil
	}

	s, err := c.openTab()
	require.NoError(t, err)
	assert.NotNil(t, s)
	assert.True(t, stopped, "the dead browser must be released")
	assert.Nil(t, c.browserCtx)
	assert.Equal(t, 1, launches)
	assert.Equal(t, 2, tabs)
}

func TestOpenTabGivesUpAfterOneRestart(t *testing.T) {
	c := NewController(&config.Config{}, utils.NewNopLogger())
	launches, tabs := 0, 0
	c.launch = func() error {
		launches++
		return nil
	}
	c.newTab = func() (*Surface, error) {
		tabs++
		return nil, errors.New("browser gone")
	}

	_, err := c.openTab()
	require.Error(t, err)
	assert.Equal(t, 1, launches)
	assert.Equal(t, 2, tabs)
}

func TestAcquireReportsRestartFailure(t *testing.T) {
	c := NewController(&config.Config{}, utils.NewNopLogger())
	launches := 0
	c.launch = func() error {
		launches++
		if launches > 1 {
			return errors.New("chrome not found")
		}
		return nil
	}
	c.newTab = func() (*Surface, error) { return nil, errors.New("browser gone") }

	_, err := c.Acquire(context.Background())
	require.ErrorIs(t, err, ErrSurfaceUnavailable)
	assert.Equal(t, 2, launches)
	assert.Nil(t, c.current)
}
