package main

import (
	"database/sql"

	"github.com/ebdapp/ebd/storage/database"
)

var gooseRunFunc = database.RunMigration // mockable

func (cli *commandLine) migrate(args []string) error {
	var db *sql.DB
	if cli.db != nil {
		db = cli.db.DB
	}
	return gooseRunFunc(args[0], db, args[1:]...)
}
