package main

import (
	"bazar/api"
)

func main() {
	args := ParseArgs()
	if !args.Validate() {
		panic("missing arguments")
	}
	server, err := api.NewServer(args.ServerConfig)
	if err != nil {
		panic(err)
	}
	server.Start()
	defer server.Close()

	router := api.NewRouter(server)
	if err := router.Run(args.ServerURL); err != nil {
		panic(err)
	}
}
