package config

type WorkerKeyStruct struct {
	ExportMarksQueue string
}

var WorkerKey = &WorkerKeyStruct{
	ExportMarksQueue: "export_marks_queue",
}
