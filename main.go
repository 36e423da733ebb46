package main

import (
	"os"

	"github.com/dbt-labs/jaffle-shop-generator-sub000/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
