package deps

import "github.com/sirupsen/logrus"

// Stats tallies the outcome of one dependency download pass.
type Stats struct {
	Downloaded  int
	Cloned      int
	SkippedArch int
	Failed      int
}

// Log writes the download summary
func (s Stats) Log() {
	logrus.Info("=== Download Summary ===")
	logrus.Infof("  Downloaded: %d files", s.Downloaded)
	logrus.Infof("  Cloned: %d git repositories", s.Cloned)
	logrus.Infof("  Skipped (arch): %d", s.SkippedArch)
	logrus.Infof("  Failed: %d", s.Failed)
}
