package main

import (
	"gdp-etl/cmd/gdp-etl/commands"
	"gdp-etl/lib/util/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}
