package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/medloop/aushadhi/internal/clock"
	"github.com/medloop/aushadhi/internal/config"
	"github.com/medloop/aushadhi/internal/logger"
	"github.com/medloop/aushadhi/internal/migration"
	"github.com/medloop/aushadhi/internal/server"
	"github.com/medloop/aushadhi/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(registerSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		server.Module,
	)
	app.Run()
}

func registerSnowflake(cfg config.Config) *snowflake.Node {
	node, err := snowflake.NewNode(cfg.SnowflakeNodeID)
	if err != nil {
		panic(err)
	}
	return node
}
