package main

import (
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/schemadrift/schemadrift/cli/commands"
)

func main() {
	commands.Execute()
}
