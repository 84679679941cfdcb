package redispub

// luaPublish atomically prepends a record to the feed list, trims it,
// and announces it on the pub/sub channel.
//
// KEYS[1] = feed list key
// ARGV[1] = record JSON string
// ARGV[2] = max list length
// ARGV[3] = pub/sub channel
//
// Returns: list length after trim (number)
const luaPublish = `
redis.call('LPUSH', KEYS[1], ARGV[1])
redis.call('LTRIM', KEYS[1], 0, tonumber(ARGV[2]) - 1)
redis.call('PUBLISH', ARGV[3], ARGV[1])
return redis.call('LLEN', KEYS[1])
`
