package auth

// ScreenKind identifies a top-level screen.
type ScreenKind string

const (
	ScreenLogin ScreenKind = "login"
	ScreenHome  ScreenKind = "home"
)

// Screen is the root content presented by a window.
type Screen struct {
	Kind ScreenKind
	User *User // set for ScreenHome
}

// ScreenFor selects the root screen for a session state.
func ScreenFor(state SessionState) Screen {
	if state.IsLoggedIn && state.User != nil {
		u := *state.User
		return Screen{Kind: ScreenHome, User: &u}
	}
	return Screen{Kind: ScreenLogin}
}

// Transition describes how a window swaps its root screen.
type Transition int

const (
	TransitionNone Transition = iota
	TransitionCrossDissolve
)

func (t Transition) String() string {
	switch t {
	case TransitionCrossDissolve:
		return "cross_dissolve"
	default:
		return "none"
	}
}
