package main

import (
	"github.com/sirupsen/logrus"

	"github.com/terrep263/snapbrand/config"
	"github.com/terrep263/snapbrand/internal/appServer"
)

func main() {
	viperInstance, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Cannot load config. Error: {%s}", err.Error())
	}

	cfg, err := config.ParseConfig(viperInstance)
	if err != nil {
		logrus.Fatalf("Cannot parse config. Error: {%s}", err.Error())
	}

	appServer.NewServer(cfg)
}
