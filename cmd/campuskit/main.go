package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/campuskit/campuskit/internal/clock"
	"github.com/campuskit/campuskit/internal/config"
	"github.com/campuskit/campuskit/internal/contact"
	"github.com/campuskit/campuskit/internal/logger"
	"github.com/campuskit/campuskit/internal/migration"
	"github.com/campuskit/campuskit/internal/observability"
	"github.com/campuskit/campuskit/internal/school"
	"github.com/campuskit/campuskit/pkg/db"
	"github.com/campuskit/campuskit/pkg/telemetry"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		logger.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		telemetry.Module,
		db.Module,
		clock.Module,
		migration.Module,

		// Functional domains
		contact.Module,
		school.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
