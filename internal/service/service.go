package service

import (
	"github.com/redis/go-redis/v9"

	"feedpulse/internal/config"
	"feedpulse/internal/repository"
	"feedpulse/internal/service/fanout"
	"feedpulse/internal/service/feed"
	"feedpulse/internal/service/notify"
	"feedpulse/internal/service/readstate"
	"feedpulse/internal/service/resolver"
)

type Services struct {
	Resolver  resolver.Service
	Notify    notify.Service
	Feed      feed.Service
	ReadState readstate.Service
	Fanout    fanout.Dispatcher
}

func NewServices(repos *repository.Repositories, rdb *redis.Client, cfg *config.Config) *Services {
	resolverService := resolver.NewService(repos.User, repos.Follow, repos.Broadcast)
	notifyService := notify.NewService(repos.Notification, repos.Reaction)
	readStateService := readstate.NewService(rdb)
	feedService := feed.NewService(repos.Notification, repos.User, repos.Reaction, readStateService)

	dispatcher := fanout.NewDispatcher(resolverService, notifyService, repos.Reaction, rdb, fanout.Options{
		Workers:              cfg.FanoutWorkers,
		QueueSize:            cfg.FanoutQueueSize,
		RecipientConcurrency: cfg.FanoutRecipientConcurrency,
		MaxRetries:           cfg.FanoutMaxRetries,
		RetryBackoff:         cfg.FanoutRetryBackoff,
	})

	return &Services{
		Resolver:  resolverService,
		Notify:    notifyService,
		Feed:      feedService,
		ReadState: readStateService,
		Fanout:    dispatcher,
	}
}
