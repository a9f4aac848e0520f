package cmd

import (
	"VelSave/internal/config"
	"VelSave/internal/notifier"
)

// NotifierFromConfig builds a Notifier from cfg. It returns nil when
// notifications are disabled or misconfigured; in the latter case warn is
// called with the error message.
func NotifierFromConfig(cfg *config.Config, warn func(string)) notifier.Notifier {
	n, err := notifier.FromConfig(cfg)
	if err != nil {
		if warn != nil {
			warn("discord notification: " + err.Error())
		}
		return nil
	}
	return n
}
