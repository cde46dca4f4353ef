package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeAgent struct {
	name    string
	present bool
}

func (f *fakeAgent) Name() string { return f.name }
func (f *fakeAgent) DetectPresence() (bool, error) {
	return f.present, nil
}
func (f *fakeAgent) BuildLaunchCommand(context.Context, string, TaskOrigin) (LaunchCommand, error) {
	return LaunchCommand{Path: f.name}, nil
}
func (f *fakeAgent) BuildResumeCommand(context.Context, string, TaskOrigin) (LaunchCommand, error) {
	return LaunchCommand{Path: f.name}, nil
}

func TestRegisterGetList(t *testing.T) {
	Register("fake-a", func() Agent { return &fakeAgent{name: "fake-a"} })
	Register("fake-b", func() Agent { return &fakeAgent{name: "fake-b", present: true} })

	got, err := Get("fake-a")
	require.NoError(t, err)
	require.Equal(t, "fake-a", got.Name())

	require.Contains(t, List(), "fake-a")
	require.Contains(t, List(), "fake-b")

	_, err = Get("does-not-exist")
	require.Error(t, err)
}

func TestDetectReturnsFirstPresent(t *testing.T) {
	Register("fake-absent", func() Agent { return &fakeAgent{name: "fake-absent", present: false} })
	Register("fake-present", func() Agent { return &fakeAgent{name: "fake-present", present: true} })

	got, err := Detect()
	require.NoError(t, err)
	require.True(t, got.Name() == "fake-present" || got.Name() == "fake-b")
}
