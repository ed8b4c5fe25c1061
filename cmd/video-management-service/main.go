// Package main — точка входа video-management-service (HTTP + WebSocket).
package main

import (
	"log"

	"github.com/psds-microservice/video-management-service/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
