package management

import (
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/GoAD-Admin/GoAD-Admin/internal/directory"
)

// ResetPassword resets the password of one user and applies the expiry and
// lock options, committed by a single directory save.
//
// Staging order matters: password, never-expires flag, forced expiry (only if
// requireChange), unlock. The unlock is always staged, it is idempotent on
// unlocked accounts. If any staging step fails nothing is saved.
//
// Concurrent resets on the same user are not serialized here: the directory
// is the system of record, the last save wins.
func (s *Service) ResetPassword(username, newPassword string, setNeverExpires, requireChange bool) bool {
	log.Info().Str("user", username).
		Bool("setNeverExpires", setNeverExpires).
		Bool("requireChange", requireChange).
		Msg("attempting password reset")

	mutation, err := s.gw.MutateUser(username)
	if err != nil {
		if errors.Is(err, directory.ErrUserNotFound) {
			log.Warn().Str("user", username).Msg("user not found, password reset failed")
		} else {
			log.Error().Err(err).Str("user", username).Msg("could not start password reset")
		}

		return false
	}

	if errSet := mutation.SetPassword(newPassword); errSet != nil {
		log.Error().Err(errSet).Str("user", username).Msg("failed to stage new password")
		return false
	}

	mutation.SetPasswordNeverExpires(setNeverExpires)

	if requireChange {
		mutation.ExpirePasswordNow()
	}

	mutation.Unlock()

	if errSave := mutation.Save(); errSave != nil {
		log.Error().Err(errSave).Str("user", username).Msg("failed to save password reset")
		return false
	}

	log.Info().Str("user", username).Msg("password reset saved")

	return true
}
