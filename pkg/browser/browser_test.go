package browser

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLauncher(t *testing.T) {
	for _, name := range []string{DriverRod, DriverPlaywright, DriverStatic} {
		t.Run(name, func(t *testing.T) {
			l, err := NewLauncher(name, nil)
			require.NoError(t, err)
			assert.Equal(t, name, l.Name())
		})
	}

	_, err := NewLauncher("selenium", nil)
	assert.ErrorIs(t, err, ErrUnknownDriver)
}

func TestDriversSorted(t *testing.T) {
	assert.Equal(t, []string{DriverPlaywright, DriverRod, DriverStatic}, Drivers())
}

type fakeSession struct {
	closed     bool
	pageClosed bool
	closeErr   error
}

func (s *fakeSession) NewPage(context.Context) (Page, error) {
	return &fakePage{StaticPage: NewStaticPage(nil), session: s}, nil
}

func (s *fakeSession) Close() error {
	s.closed = true
	return s.closeErr
}

type fakePage struct {
	*StaticPage
	session *fakeSession
}

func (p *fakePage) Close() error {
	p.session.pageClosed = true
	return nil
}

type fakeLauncher struct {
	session   *fakeSession
	launchErr error
}

func (l *fakeLauncher) Name() string { return "fake" }

func (l *fakeLauncher) Launch(context.Context, Options) (Session, error) {
	if l.launchErr != nil {
		return nil, l.launchErr
	}
	return l.session, nil
}

func TestWithSessionReleasesResources(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name     string
		fnErr    error
		closeErr error
		wantErr  error
	}{
		{name: "success", wantErr: nil},
		{name: "callback error wins", fnErr: boom, closeErr: errors.New("close"), wantErr: boom},
		{name: "close error surfaces", closeErr: boom, wantErr: boom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := &fakeSession{closeErr: tt.closeErr}
			l := &fakeLauncher{session: session}

			err := WithSession(context.Background(), l, DefaultOptions(), func(Page) error {
				return tt.fnErr
			})

			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.True(t, session.pageClosed, "page should be closed")
			assert.True(t, session.closed, "session should be closed")
		})
	}
}

func TestWithSessionLaunchFailure(t *testing.T) {
	l := &fakeLauncher{launchErr: fmt.Errorf("failed to launch browser: %w", errors.New("no chrome"))}

	called := false
	err := WithSession(context.Background(), l, DefaultOptions(), func(Page) error {
		called = true
		return nil
	})

	assert.Error(t, err)
	assert.False(t, called)
}

func TestWrapWait(t *testing.T) {
	assert.NoError(t, wrapWait(nil, "x"))
	assert.ErrorIs(t, wrapWait(context.DeadlineExceeded, "wait"), ErrTimeout)
	assert.NotErrorIs(t, wrapWait(errors.New("other"), "wait"), ErrTimeout)
}

func TestExactTextRegex(t *testing.T) {
	assert.Equal(t, `/^\s*Key\s+Features\s*$/`, exactTextRegex("Key Features"))
	assert.Equal(t, `/^\s*a\.b\s*$/`, exactTextRegex(" a.b "))
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.True(t, opts.Headless)
	assert.True(t, opts.IgnoreHTTPSErrors)
	assert.Equal(t, DefaultTimeout, opts.timeout())
	assert.Equal(t, DefaultTimeout, Options{}.timeout())
}
