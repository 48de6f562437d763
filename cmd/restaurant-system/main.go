package main

import (
	"fmt"
	"os"

	"restaurant-shm/internal/common/logger"
)

func main() {
	defer logger.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "restaurant-system:", err)
		logger.Sync()
		os.Exit(1)
	}
}
