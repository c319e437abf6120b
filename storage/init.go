package storage

import (
	"QuestsInvite/storage/redis"
)

// Init brings up the storage layer. Redis is the only external store; the
// claim data itself lives behind the Supabase RPC.
func Init() error {
	if err := redis.Init(); err != nil {
		return err
	}

	return nil
}
