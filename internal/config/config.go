package config

import (
	"log"
	"os"
)

type Config struct {
	ListenAddr string // TCP session protocol
	HTTPAddr   string // ops/monitoring surface
	DBDSN      string
	LogFile    string
}

func Load() Config {
	listen := os.Getenv("LISTEN_ADDR")
	if listen == "" {
		listen = ":8888"
	}
	httpAddr := os.Getenv("HTTP_ADDR")
	if httpAddr == "" {
		httpAddr = ":8081"
	}
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		dsn = "tradepost.db"
	} // sqlite file in project root
	logFile := os.Getenv("LOG_FILE")
	if logFile == "" {
		logFile = "./tradepost.log"
	}

	cfg := Config{ListenAddr: listen, HTTPAddr: httpAddr, DBDSN: dsn, LogFile: logFile}
	log.Printf("[config] LISTEN_ADDR=%s HTTP_ADDR=%s DB_DSN=%s LOG_FILE=%s", cfg.ListenAddr, cfg.HTTPAddr, cfg.DBDSN, cfg.LogFile)
	return cfg
}
