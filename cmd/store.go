package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	dbconfig "interviewassistant/internal/database"
	"interviewassistant/internal/repo"
	cache "interviewassistant/internal/utils/redis"
	"interviewassistant/pkg/database/client"
	redispkg "interviewassistant/pkg/redis/pkg"
)

// openRepository connects the progress backend named by store.driver.
func openRepository(ctx context.Context, driver string, logger *zap.Logger) (*repo.Repository, error) {
	switch driver {
	case "", "file":
		dir := viper.GetString("store.dir")
		progress, err := repo.NewFileProgressRepository(dir)
		if err != nil {
			return nil, fmt.Errorf("open progress dir %s: %w", dir, err)
		}
		return repo.New(progress), nil

	case "memory":
		return repo.New(repo.NewMemoryProgressRepository()), nil

	case "redis":
		rdb, err := redispkg.New(redispkg.ReadConfig(), redispkg.ClientName("interviewassistant"))
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		progress := repo.NewRedisProgressRepository(cache.New(rdb), viper.GetDuration("store.ttl"))
		return repo.New(progress, rdb.Close), nil

	case "mysql":
		db, err := client.Open(client.ReadConfig())
		if err != nil {
			return nil, fmt.Errorf("open mysql: %w", err)
		}
		if err := dbconfig.InitDB(ctx, db, logger); err != nil {
			_ = db.Close()
			return nil, err
		}
		return repo.New(repo.NewMySQLProgressRepository(db), db.Close), nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}
