package session

import (
	"context"
	"strings"
)

func (h *Handler) cmdRegister(ctx context.Context, sess *session, rest, _ string) (string, bool) {
	args := strings.Fields(rest)
	if len(args) < 2 || len(args) > 4 {
		return "FAIL Usage: REGISTER <username> <password> [role] [admin_code]", false
	}
	var role, secret string
	if len(args) >= 3 {
		role = args[2]
	}
	if len(args) == 4 {
		secret = args[3]
	}

	_, parsed, err := h.Auth.Register(ctx, args[0], args[1], role, secret)
	if err != nil {
		return h.failFor(sess, err), false
	}

	sess.log.Info("user.registered", "user", args[0], "role", string(parsed))
	h.audit("registered user %s (role %s)", args[0], parsed)
	return "SUCCESS Registered. Please login.", false
}

// cmdLogin authenticates the session. Logging in over an authenticated
// session simply replaces its identity.
func (h *Handler) cmdLogin(ctx context.Context, sess *session, rest, _ string) (string, bool) {
	args := strings.Fields(rest)
	if len(args) != 2 {
		return "FAIL Usage: LOGIN <username> <password>", false
	}

	id, role, err := h.Auth.Login(ctx, args[0], args[1])
	if err != nil {
		return h.failFor(sess, err), false
	}

	sess.authenticated = true
	sess.username = args[0]
	sess.userID = id
	sess.role = role
	sess.practiceQID = 0
	sess.practiceAnswer = ""

	sess.log.Info("user.logged_in", "user", args[0], "role", string(role))
	h.audit("%s logged in", args[0])
	return "SUCCESS " + string(role), false
}

func (h *Handler) cmdExit(_ context.Context, _ *session, _, _ string) (string, bool) {
	return "SUCCESS Goodbye", true
}
