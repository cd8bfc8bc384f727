package main

import (
	"fmt"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/outgrowdb/outgrow/pkg/buildinfo"
	"github.com/outgrowdb/outgrow/pkg/migration"
)

// Populated via -ldflags by the release pipeline.
var (
	version string
	commit  string
	date    string
)

type versionCmd struct{}

func (v *versionCmd) Run() error {
	info := buildinfo.Get()
	fmt.Printf("outgrow %s (commit %s, built %s, %s)\n",
		info.Version, info.Commit, info.Date, info.GoVer)
	return nil
}

var cli struct {
	Migrate  migration.Migration `cmd:"" help:"Migrate a SQLite database to PostgreSQL or MySQL."`
	Validate migration.Validate  `cmd:"" help:"Print the CREATE TABLE statements a migration would run."`
	Version  versionCmd          `cmd:"" help:"Print version information."`
}

func main() {
	// load the .env file if it exists
	godotenv.Load()
	buildinfo.Set(version, commit, date)
	ctx := kong.Parse(&cli,
		kong.Name("outgrow"),
		kong.Description("Outgrow: move SQLite databases into PostgreSQL or MySQL"),
		kong.UsageOnError(),
	)
	ctx.FatalIfErrorf(ctx.Run())
}
