package webd

import (
	"os"

	"github.com/rotblauer/rund/params"
	"github.com/rotblauer/rund/state"
)

// newTestWebDaemon creates a WebDaemon over a throwaway store.
// If datadir is empty, one will be provided for you.
func newTestWebDaemon(datadir string) (daemon *WebDaemon, teardown func() error) {
	config := params.DefaultTestWebDaemonConfig()
	if datadir != "" {
		config.DataDir = datadir
	} else {
		tmpd, err := os.MkdirTemp(os.TempDir(), "rund-webd-test")
		if err != nil {
			panic(err)
		}
		config.DataDir = tmpd
	}
	store, err := state.Open(config.DataDir, false)
	if err != nil {
		panic(err)
	}
	daemon, err = NewWebDaemon(config, store)
	if err != nil {
		panic(err)
	}
	daemon.initMelody()
	teardown = func() error {
		store.Close()
		return os.RemoveAll(config.DataDir)
	}
	return daemon, teardown
}
