package redis

import (
	"context"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
)

type nsHook struct {
	namespace string
}

func (h *nsHook) appendNamespace(key interface{}) string {
	k := fmt.Sprint(key)
	if strings.HasPrefix(k, h.namespace+":") {
		return k
	}

	return fmt.Sprintf("%s:%s", h.namespace, k)
}

// updateCmd prefixes the key arguments of the commands the progress cache issues.
func (h *nsHook) updateCmd(cmd redis.Cmder) {
	if len(cmd.Args()) <= 1 {
		return
	}

	switch cmd.Name() {
	case "get", "set", "setex", "getdel", "expire", "pexpire", "persist", "ttl", "pttl", "type", "strlen":
		cmd.Args()[1] = h.appendNamespace(cmd.Args()[1])
	case "del", "unlink", "exists", "touch", "mget":
		for i := 1; i < len(cmd.Args()); i++ {
			cmd.Args()[i] = h.appendNamespace(cmd.Args()[i])
		}
	case "mset", "msetnx":
		for i := 1; i < len(cmd.Args()); i += 2 {
			cmd.Args()[i] = h.appendNamespace(cmd.Args()[i])
		}
	case "scan":
		for i, arg := range cmd.Args() {
			if strings.EqualFold(fmt.Sprint(arg), "match") && i+1 < len(cmd.Args()) {
				cmd.Args()[i+1] = h.appendNamespace(cmd.Args()[i+1])
				break
			}
		}
	}
}

func (h *nsHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h *nsHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		if len(h.namespace) > 0 {
			h.updateCmd(cmd)
		}

		return next(ctx, cmd)
	}
}

func (h *nsHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		if len(h.namespace) > 0 {
			for _, c := range cmds {
				h.updateCmd(c)
			}
		}

		return next(ctx, cmds)
	}
}
