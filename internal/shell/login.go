package shell

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"
)

// Login prompts for the password until it matches. It returns false when
// input ends before a correct password is entered.
func (m *Manager) Login() (bool, error) {
	m.header("Login: " + m.cfg.User)
	for {
		pw, err := m.in.ReadPassword("Password: ")
		if err != nil {
			if isEOF(err) {
				shellLogger.Info("Input closed at login")
				m.ended = true
				return false, nil
			}
			return false, err
		}

		if m.checkPassword(pw) {
			shellLogger.Info("User %q logged in", m.cfg.User)
			return true, nil
		}
		shellLogger.Warn("Failed login for user %q", m.cfg.User)
		m.dialog("Denied", "Wrong password")
	}
}

// checkPassword compares against the bcrypt hash when one is configured and
// against the plain password otherwise. The comparison is exact.
func (m *Manager) checkPassword(pw string) bool {
	if m.cfg.PasswordHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(m.cfg.PasswordHash), []byte(pw)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(pw), []byte(m.cfg.Password)) == 1
}
