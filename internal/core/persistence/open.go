package persistence

import (
	"github.com/rs/zerolog"

	"github.com/altrapisos/crm/internal/core/ports"
)

var (
	_ ports.Store = (*LocalStore)(nil)
	_ ports.Store = (*RemoteStore)(nil)
)

// Open picks the facade implementation once. A nil remote backend means no
// valid remote client could be built and the process runs in local mode.
func Open(remote ports.RemoteBackend, local ports.KVStore, log zerolog.Logger) ports.Store {
	if remote == nil {
		log.Info().Msg("no remote store configured, running in local mode")
		return NewLocalStore(local, log)
	}
	log.Info().Msg("remote store available, running in remote mode")
	return NewRemoteStore(remote, local, log)
}
