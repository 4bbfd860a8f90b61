// Package redis builds a go-redis client from Config. The config carries
// the key prefix the item store writes under.
//
//	client, err := redis.New(redis.Config{Enabled: true, Addr: "localhost:6379"}, log)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//	items := redisstore.New[Item](client, client.KeyPrefix())
package redis
