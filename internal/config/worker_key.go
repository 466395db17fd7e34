package config

type WorkerKeyStruct struct {
	PersistCheatsQueue  string
	PersistReportsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	PersistCheatsQueue:  "persist_cheats_queue",
	PersistReportsQueue: "persist_reports_queue",
}
