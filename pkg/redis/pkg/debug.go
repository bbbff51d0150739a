package redis

import (
	"context"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	logging "interviewassistant/pkg/logger/pkg"
)

type debugHook struct {
	enabled bool
}

func (h *debugHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h *debugHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		if h.enabled {
			logging.Logger(ctx).Debug("redis command", zap.String("cmd", cmd.Name()), zap.Any("args", keyArgs(cmd)), zap.Error(err))
		}
		return err
	}
}

func (h *debugHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		if h.enabled {
			for _, c := range cmds {
				logging.Logger(ctx).Debug("redis pipeline command", zap.String("cmd", c.Name()), zap.Any("args", keyArgs(c)))
			}
		}

		return next(ctx, cmds)
	}
}

// keyArgs drops values so progress payloads are not written to the log.
func keyArgs(cmd redis.Cmder) []interface{} {
	args := cmd.Args()
	if len(args) > 2 {
		return args[:2]
	}
	return args
}
