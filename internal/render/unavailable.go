package render

import (
	"context"
	"fmt"
)

// Unavailable stands in for an engine that failed its capability check.
type Unavailable struct {
	Engine string
	Reason error
}

func (u *Unavailable) Name() string { return u.Engine }

// Message is the instruction shown to the user.
func (u *Unavailable) Message() string {
	return fmt.Sprintf("The %s engine requires Chrome or Chromium, which was not found (%v). "+
		"Install Chrome/Chromium, pass --browser-bin, or use --engine static.", u.Engine, u.Reason)
}

func (u *Unavailable) Render(_ context.Context, _ string, _ Options) (*Page, error) {
	return nil, fmt.Errorf("%w: %s", ErrRendererUnavailable, u.Message())
}
