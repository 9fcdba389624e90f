package app

const (
	Name           = "hexilink"
	ConfigFilename = "config.json"
	DBFilename     = "hexilink.db"
	LogFilename    = "hexilink.log"
)
