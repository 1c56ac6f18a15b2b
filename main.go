package main

import (
	"log"
	"os"

	"K9Ops/Config"
	"K9Ops/CronJobs"
	"K9Ops/FiberConfig"
	"K9Ops/Models"
	"K9Ops/Push"
)

func main() {
	setupLogging()
	Config.Load()
	Models.Connect()

	if Config.FirebaseCredFile != "" {
		if err := Push.InitFirebase(Config.FirebaseCredFile); err != nil {
			log.Println("Push notifications disabled:", err)
		} else {
			Models.SendPush = Push.SendToUser
		}
	}

	jobs := CronJobs.NewMaintenanceJobs(Models.DB)
	if err := jobs.Start(); err != nil {
		log.Fatal("Failed to start maintenance jobs:", err)
	}
	defer jobs.Stop()

	FiberConfig.FiberConfig()
}

func setupLogging() {
	// Create logs directory if it doesn't exist
	if err := os.MkdirAll("logs", 0755); err != nil {
		log.Printf("Error creating logs directory: %v\n", err)
		return
	}

	logFile, err := os.OpenFile("logs/application.log",
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Printf("Error opening log file: %v\n", err)
		return
	}

	log.SetOutput(logFile)
	log.SetFlags(log.Ldate | log.Ltime)
}
