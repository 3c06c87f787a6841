package main

import (
	"net/http"
	"os"
	"time"

	"github.com/goleaf/tribal-clone-sub002/internal/constants"
)

func main() {
	addr := os.Getenv(constants.EnvAddr)
	if addr == "" || addr[0] == ':' {
		addr = "127.0.0.1" + addr
		if addr == "127.0.0.1" {
			addr = "127.0.0.1:8080"
		}
	}
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + addr + "/api/version")
	if err != nil {
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		os.Exit(1)
	}
	os.Exit(0)
}
