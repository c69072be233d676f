package command

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOnceRunsFunctionExactlyOnce(t *testing.T) {
	calls := 0
	cmd, err := Once(func() { calls++ })
	require.NoError(t, err)

	assert.True(t, cmd.Execute())
	assert.Equal(t, 1, calls)

	for i := 0; i < 3; i++ {
		assert.True(t, cmd.Execute())
	}
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0.0, cmd.base().timeoutInSeconds())
	assert.Zero(t, cmd.base().requirementSet().Len())
}

func TestOnceWithinThenCallsEnd(t *testing.T) {
	var ran, ended int
	cmd, err := OnceWithinThen(2*time.Second, func() { ran++ }, func() { ended++ })
	require.NoError(t, err)

	assert.True(t, cmd.Execute())
	cmd.End()
	assert.Equal(t, 1, ran)
	assert.Equal(t, 1, ended)
	assert.Equal(t, 2.0, cmd.base().timeoutInSeconds())
	assert.Equal(t, "Command (one-time, duration=2 sec)", describe(cmd))

	noEnd, err := OnceWithin(time.Second, func() {})
	require.NoError(t, err)
	assert.NotPanics(t, noEnd.End)
}

func TestPauseNeverCompletes(t *testing.T) {
	cmd, err := Pause(500 * time.Millisecond)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		assert.False(t, cmd.Execute())
	}
	assert.Equal(t, 0.5, cmd.base().timeoutInSeconds())
	assert.Zero(t, cmd.base().requirementSet().Len())
	assert.Equal(t, "PauseCommand (500 milliseconds)", describe(cmd))

	secs, err := PauseSeconds(1.5)
	require.NoError(t, err)
	assert.False(t, secs.Execute())
	assert.Equal(t, 1.5, secs.base().timeoutInSeconds())
	assert.Equal(t, "PauseCommand (1.5 sec)", describe(secs))
}

func TestCancelCompletesImmediately(t *testing.T) {
	a, b := newSubsystem("drivetrain"), newSubsystem("arm")

	cmd, err := Cancel(a, b)
	require.NoError(t, err)

	assert.True(t, cmd.Execute())
	reqs := cmd.base().requirementSet()
	assert.Equal(t, 2, reqs.Len())
	assert.True(t, reqs.Has(a))
	assert.True(t, reqs.Has(b))
	assert.Equal(t, 0.0, cmd.base().timeoutInSeconds())
	assert.Equal(t, "Cancel (requires [drivetrain, arm])", describe(cmd))
}

func TestUntilWithinThenDelegatesToPredicate(t *testing.T) {
	answers := []bool{false, false, false, true}
	calls, ended := 0, 0

	cmd, err := UntilWithinThen(3*time.Second, func() bool {
		v := answers[calls]
		calls++
		return v
	}, func() { ended++ })
	require.NoError(t, err)

	var got []bool
	for range answers {
		got = append(got, cmd.Execute())
		assert.Zero(t, ended, "end must not run before completion")
	}
	cmd.End()

	assert.Equal(t, answers, got)
	assert.Equal(t, 1, ended)
	assert.Equal(t, 3.0, cmd.base().timeoutInSeconds())
}

func TestUntilVariants(t *testing.T) {
	done := func() bool { return true }

	c1, err := Until(done)
	require.NoError(t, err)
	assert.Equal(t, "Command (repeatable)", describe(c1))
	assert.NotPanics(t, c1.End)

	ended := false
	c2, err := UntilThen(done, func() { ended = true })
	require.NoError(t, err)
	c2.End()
	assert.True(t, ended)

	c3, err := UntilWithin(250*time.Millisecond, done)
	require.NoError(t, err)
	assert.Equal(t, 0.25, c3.base().timeoutInSeconds())
	assert.Equal(t, "Command (timeout=0.25 sec, repeatable)", describe(c3))
}

func TestCreateWithRequirementsAndDescription(t *testing.T) {
	arm := newSubsystem("arm")

	cmd, err := Create(time.Second, func() bool { return false }, nil, func() string { return "hold arm" }, arm, arm)
	require.NoError(t, err)

	assert.Equal(t, "hold arm", describe(cmd))
	assert.Equal(t, 1, cmd.base().requirementSet().Len())
	assert.True(t, cmd.base().isInterruptible())

	anon, err := Create(0, func() bool { return true }, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Command", describe(anon))
}

func TestFactoriesFailAtConstruction(t *testing.T) {
	tests := []struct {
		name  string
		build func() (Command, error)
		want  error
	}{
		{"once nil", func() (Command, error) { return Once(nil) }, ErrNilFunction},
		{"once within nil", func() (Command, error) { return OnceWithin(time.Second, nil) }, ErrNilFunction},
		{"once then nil", func() (Command, error) { return OnceWithinThen(time.Second, nil, func() {}) }, ErrNilFunction},
		{"until nil", func() (Command, error) { return Until(nil) }, ErrNilFunction},
		{"until then nil", func() (Command, error) { return UntilThen(nil, func() {}) }, ErrNilFunction},
		{"until within nil", func() (Command, error) { return UntilWithin(time.Second, nil) }, ErrNilFunction},
		{"create nil", func() (Command, error) { return Create(0, nil, nil, nil) }, ErrNilFunction},
		{"negative pause", func() (Command, error) { return Pause(-time.Second) }, ErrInvalidTimeout},
		{"negative pause seconds", func() (Command, error) { return PauseSeconds(-0.1) }, ErrInvalidTimeout},
		{"negative once", func() (Command, error) { return OnceWithin(-time.Second, func() {}) }, ErrInvalidTimeout},
		{"negative until", func() (Command, error) { return UntilWithin(-time.Second, func() bool { return true }) }, ErrInvalidTimeout},
		{"nil controller", func() (Command, error) { return Use(nil, 1, 0.1) }, ErrNilController},
		{"typed nil controller", func() (Command, error) { return UseWithin(time.Second, (*fakeController)(nil), 1, 0.1) }, ErrNilController},
		{"negative use", func() (Command, error) { return UseWithin(-time.Second, &fakeController{}, 1, 0.1) }, ErrInvalidTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := tt.build()
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, cmd)
		})
	}
}
