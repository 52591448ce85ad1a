package scheduler

import (
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/agentstation/staymap/pkg/errors"
	"github.com/agentstation/staymap/pkg/logging"
)

// RedisOpt turns a redis:// or rediss:// URL into asynq connection options.
func RedisOpt(redisURL string) (asynq.RedisClientOpt, error) {
	if redisURL == "" {
		return asynq.RedisClientOpt{}, errors.NewConfigError("scheduler", "redis url not configured", nil)
	}
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, errors.NewConfigError("scheduler", "invalid redis url", err)
	}
	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Username:  opt.Username,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: opt.TLSConfig,
	}, nil
}

// logger adapts the zerolog default logger to asynq.Logger.
type logger struct {
	component string
}

func (l logger) Debug(args ...any) {
	logging.Default().Debug().Str("component", l.component).Msg(fmt.Sprint(args...))
}

func (l logger) Info(args ...any) {
	logging.Default().Info().Str("component", l.component).Msg(fmt.Sprint(args...))
}

func (l logger) Warn(args ...any) {
	logging.Default().Warn().Str("component", l.component).Msg(fmt.Sprint(args...))
}

func (l logger) Error(args ...any) {
	logging.Default().Error().Str("component", l.component).Msg(fmt.Sprint(args...))
}

func (l logger) Fatal(args ...any) {
	logging.Default().Fatal().Str("component", l.component).Msg(fmt.Sprint(args...))
}
