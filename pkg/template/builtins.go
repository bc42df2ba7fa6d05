package template

import (
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// builtins are the placeholders that take no context.
var builtins = map[string]func() string{
	"random.uuid": func() string { return uuid.NewString() },
	"uuid":        func() string { return uuid.NewString() },
	"now":         func() string { return time.Now().Format(time.RFC3339) },
	"timestamp": func() string {
		return strconv.FormatInt(time.Now().Unix(), 10)
	},
	"timestamp.unix_ms": func() string {
		return strconv.FormatInt(time.Now().UnixMilli(), 10)
	},
	// random.int yields an integer in [0, 100].
	"random.int": func() string { return strconv.Itoa(rand.IntN(101)) },
}
