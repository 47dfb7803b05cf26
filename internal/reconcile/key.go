package reconcile

import (
	"crypto/md5"
	"encoding/binary"
	"strconv"
)

// SeasonKey derives the seas_id for one player, season and team: the first
// four bytes of md5("name|season|team") read as a big-endian signed 32-bit
// integer, made non-negative. The same triple always yields the same key.
//
// Keys range over 0..2147483648. Only math.MinInt32 reaches the top value,
// which is the one key an INTEGER column cannot hold.
func SeasonKey(name string, season int, team string) int64 {
	sum := md5.Sum([]byte(name + "|" + strconv.Itoa(season) + "|" + team))
	return magnitude(int32(binary.BigEndian.Uint32(sum[:4])))
}

// magnitude widens before negating so math.MinInt32 does not overflow.
func magnitude(n int32) int64 {
	v := int64(n)
	if v < 0 {
		return -v
	}
	return v
}
